package vm

import (
	"math/big"

	"github.com/cashvm/authvm/txscript"
	"github.com/cashvm/authvm/wire"
)

// pushChecked pushes an item read from the transaction, which may exceed the
// stack item limit.
func (c *opContext) pushChecked(s *ProgramState, item []byte) *ProgramState {
	if len(item) > c.params.MaximumStackItemLength {
		return s.fail(scriptErrorf(ErrExceededMaximumStackItemLength, "Item length: %d.", len(item)))
	}
	s.push(copyBytes(item))
	return s
}

func pushUint64(s *ProgramState, v uint64) *ProgramState {
	s.push(txscript.EncodeVmNumber(new(big.Int).SetUint64(v)))
	return s
}

// popIndex pops a transaction index and checks it against count.
func (c *opContext) popIndex(s *ProgramState, count int) (int, bool) {
	n, ok := c.popNumber(s)
	if !ok {
		return 0, false
	}
	if n.Sign() < 0 || !n.IsInt64() || n.Int64() >= int64(count) {
		s.fail(scriptErrorf(ErrInvalidTransactionIndex, "Index: %s, count: %d.", n.String(), count))
		return 0, false
	}
	return int(n.Int64()), true
}

func (c *opContext) popInput(s *ProgramState) (*wire.Input, bool) {
	inputs := s.Program.Transaction.Inputs
	i, ok := c.popIndex(s, len(inputs))
	if !ok {
		return nil, false
	}
	return inputs[i], true
}

func (c *opContext) popSourceOutput(s *ProgramState) (*wire.Output, bool) {
	outputs := s.Program.SourceOutputs
	i, ok := c.popIndex(s, len(outputs))
	if !ok {
		return nil, false
	}
	return outputs[i], true
}

func (c *opContext) popOutput(s *ProgramState) (*wire.Output, bool) {
	outputs := s.Program.Transaction.Outputs
	i, ok := c.popIndex(s, len(outputs))
	if !ok {
		return nil, false
	}
	return outputs[i], true
}

func opInputIndex(s *ProgramState) *ProgramState {
	s.push(txscript.EncodeVmNumberInt64(int64(s.Program.InputIndex)))
	return s
}

// opActiveBytecode pushes the bytecode covered by signatures at this point.
func (c *opContext) opActiveBytecode(s *ProgramState) *ProgramState {
	return c.pushChecked(s, s.coveredBytecode())
}

func opTxVersion(s *ProgramState) *ProgramState {
	return pushUint64(s, uint64(s.Program.Transaction.Version))
}

func opTxInputCount(s *ProgramState) *ProgramState {
	return pushUint64(s, uint64(len(s.Program.Transaction.Inputs)))
}

func opTxOutputCount(s *ProgramState) *ProgramState {
	return pushUint64(s, uint64(len(s.Program.Transaction.Outputs)))
}

func opTxLockTime(s *ProgramState) *ProgramState {
	return pushUint64(s, uint64(s.Program.Transaction.LockTime))
}

func (c *opContext) opUtxoValue(s *ProgramState) *ProgramState {
	out, ok := c.popSourceOutput(s)
	if !ok {
		return s
	}
	return pushUint64(s, out.Value)
}

func (c *opContext) opUtxoBytecode(s *ProgramState) *ProgramState {
	out, ok := c.popSourceOutput(s)
	if !ok {
		return s
	}
	return c.pushChecked(s, out.LockingBytecode)
}

func (c *opContext) opOutpointTxHash(s *ProgramState) *ProgramState {
	in, ok := c.popInput(s)
	if !ok {
		return s
	}
	s.push(copyBytes(in.PreviousOutPoint.Hash[:]))
	return s
}

func (c *opContext) opOutpointIndex(s *ProgramState) *ProgramState {
	in, ok := c.popInput(s)
	if !ok {
		return s
	}
	return pushUint64(s, uint64(in.PreviousOutPoint.Index))
}

func (c *opContext) opInputBytecode(s *ProgramState) *ProgramState {
	in, ok := c.popInput(s)
	if !ok {
		return s
	}
	return c.pushChecked(s, in.UnlockingBytecode)
}

func (c *opContext) opInputSequenceNumber(s *ProgramState) *ProgramState {
	in, ok := c.popInput(s)
	if !ok {
		return s
	}
	return pushUint64(s, uint64(in.Sequence))
}

func (c *opContext) opOutputValue(s *ProgramState) *ProgramState {
	out, ok := c.popOutput(s)
	if !ok {
		return s
	}
	return pushUint64(s, out.Value)
}

func (c *opContext) opOutputBytecode(s *ProgramState) *ProgramState {
	out, ok := c.popOutput(s)
	if !ok {
		return s
	}
	return c.pushChecked(s, out.LockingBytecode)
}
