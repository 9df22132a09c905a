package cmd

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/cashvm/authvm/consensus"
	"github.com/cashvm/authvm/logging"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:               filepath.Base(os.Args[0]),
	Short:             "Command line client for the authentication virtual machine",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := rootCmd.Execute(); err != nil {
		jww.ERROR.Println(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfigFile, "config", "", "path to a JSON configuration file")
	flags.StringVar(&flagRuleSet, "ruleset", "", "rule set, one of "+joinNames(consensus.RuleSetNames()))
	flags.BoolVar(&flagStandard, "standard", true, "apply standardness rules")
	flags.StringVar(&flagUtxoDb, "utxo-db", "", "directory of the source output store")

	debugCmd.Flags().BoolVar(&flagSpew, "spew", false, "dump every state in full")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(disasmCmd)

	utxoCmd.AddCommand(utxoImportCmd)
	utxoCmd.AddCommand(utxoGetCmd)
	rootCmd.AddCommand(utxoCmd)
}

var EmptyLogFormat = logging.LogFormat{}
