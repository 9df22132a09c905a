package cmd

import (
	"os"
	"strings"

	"github.com/cashvm/authvm/config"
	"github.com/cashvm/authvm/logging"
	"github.com/cashvm/authvm/vm"
	"github.com/cashvm/authvm/vmcrypto"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "authvm"

var (
	flagConfigFile string
	flagRuleSet    string
	flagStandard   bool
	flagUtxoDb     string
	flagSpew       bool

	cfg = config.NewDefaultConfig()
)

// loadConfig layers the configuration file, AUTHVM_* environment variables
// and explicitly set flags on top of the defaults, then starts logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match

	file := flagConfigFile
	if file == "" {
		if fs, _ := os.Stat(config.DefaultConfigFilename); fs != nil {
			file = config.DefaultConfigFilename
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", file)
		}
	}

	c := config.NewDefaultConfig()
	applyViper(v, c)

	flags := cmd.Flags()
	if flags.Changed("ruleset") {
		c.RuleSet = flagRuleSet
	}
	if flags.Changed("standard") {
		c.Standard = flagStandard
	}
	if flags.Changed("utxo-db") {
		c.UtxoDbDir = flagUtxoDb
	}

	checked, err := config.CheckConfig(c)
	if err != nil {
		return err
	}
	cfg = checked

	logging.Init(cfg.Log.LogDir, config.DefaultLoggingFilename, cfg.Log.LogLevel, cfg.Log.LogAge)
	logging.VPrint(logging.INFO, "configuration loaded",
		logging.LogFormat{
			"file":     file,
			"rule_set": cfg.RuleSet,
			"standard": cfg.Standard,
		})
	return nil
}

func applyViper(v *viper.Viper, c *config.Config) {
	if v.IsSet("rule_set") {
		c.RuleSet = v.GetString("rule_set")
	}
	if v.IsSet("standard") {
		c.Standard = v.GetBool("standard")
	}
	if v.IsSet("utxo_db_dir") {
		c.UtxoDbDir = v.GetString("utxo_db_dir")
	}
	if v.IsSet("sig_cache_size") {
		c.SigCacheSize = v.GetInt("sig_cache_size")
	}
	if v.IsSet("sig_cache_expiry") {
		c.SigCacheExpiry = v.GetString("sig_cache_expiry")
	}
	if v.IsSet("log.log_dir") {
		c.Log.LogDir = v.GetString("log.log_dir")
	}
	if v.IsSet("log.log_level") {
		c.Log.LogLevel = v.GetString("log.log_level")
	}
	if v.IsSet("log.log_age") {
		c.Log.LogAge = v.GetUint32("log.log_age")
	}
}

// newVM builds the virtual machine described by the loaded configuration.
// Signature checks go through a shared cache when one is configured.
func newVM() (*vm.VM, error) {
	ruleSet, err := cfg.ParsedRuleSet()
	if err != nil {
		return nil, err
	}
	crypto := vmcrypto.Default()
	if cfg.SigCacheSize > 0 {
		ttl, err := cfg.SigCacheTTL()
		if err != nil {
			return nil, err
		}
		crypto = vmcrypto.NewCachingCrypto(crypto, cfg.SigCacheSize, ttl)
	}
	set, err := vm.CreateInstructionSet(ruleSet, cfg.Standard, crypto)
	if err != nil {
		return nil, err
	}
	return vm.NewVM(set), nil
}
