package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cashvm/authvm/txscript"
	"github.com/cashvm/authvm/vm"
	"github.com/cashvm/authvm/wire"
	"github.com/pkg/errors"
)

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}

// parseProgram decodes the <tx-hex> <source-outputs-hex> <input-index>
// arguments shared by evaluate and debug.
func parseProgram(args []string) (*vm.Program, error) {
	tx, err := wire.DecodeTransactionHex(args[0])
	if err != nil {
		return nil, err
	}
	outputs, err := wire.DecodeOutputsHex(args[1])
	if err != nil {
		return nil, err
	}
	index, err := strconv.Atoi(args[2])
	if err != nil || index < 0 {
		return nil, ErrInvalidArgument
	}
	return &vm.Program{Transaction: tx, SourceOutputs: outputs, InputIndex: index}, nil
}

func parseOutPoint(txid, index string) (*wire.OutPoint, error) {
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, errors.Wrap(err, "parse txid")
	}
	i, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		return nil, ErrInvalidArgument
	}
	return wire.NewOutPoint(hash, uint32(i)), nil
}

func formatStack(stack [][]byte) string {
	items := make([]string, len(stack))
	for i, item := range stack {
		items[i] = "0x" + hex.EncodeToString(item)
	}
	return "[" + strings.Join(items, " ") + "]"
}

func formatState(s *vm.ProgramState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "stack: %s\n", formatStack(s.Stack))
	fmt.Fprintf(&b, "alternate stack: %s\n", formatStack(s.AlternateStack))
	fmt.Fprintf(&b, "instructions executed: %d\n", s.Metrics.ExecutedInstructionCount)
	fmt.Fprintf(&b, "signature checks: %d\n", s.Metrics.SignatureCheckCount)
	if s.Error != nil {
		fmt.Fprintf(&b, "error: %v (%s)", s.Error, s.Error.ErrorCode)
	} else {
		b.WriteString("error: none")
	}
	return b.String()
}

// formatStep renders a trace state on one line: the next instruction and the
// stack before it runs.
func formatStep(s *vm.ProgramState) string {
	next := "END"
	if s.IP < len(s.Instructions) {
		next = txscript.DisassembleInstruction(s.Instructions[s.IP])
	}
	line := fmt.Sprintf("ip=%-3d %-24s %s", s.IP, next, formatStack(s.Stack))
	if s.Error != nil {
		line += " error=" + s.Error.Description
	}
	return line
}

func formatOutput(out *wire.Output) string {
	line := fmt.Sprintf("value=%d locking=%s", out.Value, txscript.DisassembleBytecode(out.LockingBytecode))
	if out.Token != nil {
		line += fmt.Sprintf(" token=%s amount=%d", out.Token.Category, out.Token.Amount)
		if out.Token.NFT != nil {
			line += fmt.Sprintf(" nft=%s:%x", out.Token.NFT.Capability, out.Token.NFT.Commitment)
		}
	}
	return line
}
