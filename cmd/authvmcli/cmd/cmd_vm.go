package cmd

import (
	"encoding/hex"
	"strconv"

	"github.com/cashvm/authvm/logging"
	"github.com/cashvm/authvm/txscript"
	"github.com/cashvm/authvm/utxo"
	"github.com/cashvm/authvm/vm"
	"github.com/cashvm/authvm/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <tx-hex> [<source-outputs-hex>]",
	Short: "Verifies a transaction. Source outputs are read from the store when omitted.",
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(1, 2)(cmd, args); err != nil {
			logging.VPrint(logging.ERROR, LogMsgIncorrectArgsNumber, logging.LogFormat{"actual": len(args)})
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.VPrint(logging.INFO, "verify called", EmptyLogFormat)

		tx, err := wire.DecodeTransactionHex(args[0])
		if err != nil {
			return err
		}
		var resolved *vm.ResolvedTransaction
		if len(args) == 2 {
			resolved, err = resolveFromHex(tx, args[1])
		} else {
			resolved, err = resolveFromStore(tx)
		}
		if err != nil {
			return err
		}

		machine, err := newVM()
		if err != nil {
			return err
		}
		if err := machine.Verify(resolved); err != nil {
			return err
		}
		jww.FEEDBACK.Println(tx.TxHash().String(), "valid")
		return nil
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <tx-hex> <source-outputs-hex> <input-index>",
	Short: "Evaluates one input and prints its final state.",
	Args:  exactProgramArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.VPrint(logging.INFO, "evaluate called", EmptyLogFormat)

		p, err := parseProgram(args)
		if err != nil {
			return err
		}
		machine, err := newVM()
		if err != nil {
			return err
		}
		state := machine.Evaluate(p)
		jww.FEEDBACK.Println(formatState(state))
		return machine.StateSuccess(state)
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug <tx-hex> <source-outputs-hex> <input-index>",
	Short: "Evaluates one input and prints every intermediate state.",
	Args:  exactProgramArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.VPrint(logging.INFO, "debug called", EmptyLogFormat)

		p, err := parseProgram(args)
		if err != nil {
			return err
		}
		machine, err := newVM()
		if err != nil {
			return err
		}
		trace := machine.Debug(p)
		for i, state := range trace {
			if flagSpew {
				jww.FEEDBACK.Println(spew.Sdump(state.Stack, state.AlternateStack, state.ControlStack, state.Metrics))
				continue
			}
			jww.FEEDBACK.Printf("%4d  %s\n", i, formatStep(state))
		}
		return machine.StateSuccess(trace[len(trace)-1])
	},
}

var disasmCmd = &cobra.Command{
	Use:   "disasm <bytecode-hex>",
	Short: "Disassembles bytecode.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bytecode, err := hex.DecodeString(args[0])
		if err != nil {
			return ErrInvalidArgument
		}
		jww.FEEDBACK.Println(txscript.DisassembleBytecode(bytecode))
		return nil
	},
}

var utxoCmd = &cobra.Command{
	Use:   "utxo",
	Short: "Manages the source output store.",
}

var utxoImportCmd = &cobra.Command{
	Use:   "import <tx-hex>",
	Short: "Stores the outputs of a transaction so later spends can be verified.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tx, err := wire.DecodeTransactionHex(args[0])
		if err != nil {
			return err
		}
		store, err := utxo.Open(cfg.UtxoDbDir)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.ImportTransactionOutputs(tx); err != nil {
			return err
		}
		jww.FEEDBACK.Printf("imported %d outputs of %s\n", len(tx.Outputs), tx.TxHash())
		return nil
	},
}

var utxoGetCmd = &cobra.Command{
	Use:   "get <txid> <index>",
	Short: "Prints a stored output.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := parseOutPoint(args[0], args[1])
		if err != nil {
			return err
		}
		store, err := utxo.Open(cfg.UtxoDbDir)
		if err != nil {
			return err
		}
		defer store.Close()

		out, err := store.Get(*op)
		if err != nil {
			return err
		}
		jww.FEEDBACK.Println(formatOutput(out))
		return nil
	},
}

func exactProgramArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(3)(cmd, args); err != nil {
		logging.VPrint(logging.ERROR, LogMsgIncorrectArgsNumber, logging.LogFormat{"actual": len(args)})
		return err
	}
	if _, err := strconv.Atoi(args[2]); err != nil {
		return ErrInvalidArgument
	}
	return nil
}

func resolveFromHex(tx *wire.Transaction, outputsHex string) (*vm.ResolvedTransaction, error) {
	outputs, err := wire.DecodeOutputsHex(outputsHex)
	if err != nil {
		return nil, err
	}
	return &vm.ResolvedTransaction{Transaction: tx, SourceOutputs: outputs}, nil
}

func resolveFromStore(tx *wire.Transaction) (*vm.ResolvedTransaction, error) {
	store, err := utxo.Open(cfg.UtxoDbDir)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.ResolveTransaction(tx)
}
