package vm

import (
	"github.com/cashvm/authvm/txscript"
)

// opPush handles every push opcode.  Oversized pushes fail even in an
// unexecuted branch; minimality is only checked when executing.
func (c *opContext) opPush(s *ProgramState) *ProgramState {
	ins := s.instruction()
	if len(ins.Data) > c.params.MaximumStackItemLength {
		return s.fail(scriptErrorf(ErrExceededMaximumStackItemLength,
			"Item length: %d.", len(ins.Data)))
	}
	if !s.executing() {
		return s
	}
	if !txscript.IsMinimalDataPush(ins.Opcode, ins.Data) {
		return s.fail(scriptErrorf(ErrNonMinimalPush, "Instruction: %s.",
			txscript.DisassembleInstruction(ins)))
	}
	s.push(copyBytes(ins.Data))
	return s
}

func pushNumber(n int64) Operation {
	return func(s *ProgramState) *ProgramState {
		s.push(txscript.EncodeVmNumberInt64(n))
		return s
	}
}

func opNop(s *ProgramState) *ProgramState {
	return s
}

// opUpgradableNop does nothing under consensus rules.  Standard evaluation
// rejects it so the opcode can later be given a meaning.
func (c *opContext) opUpgradableNop(s *ProgramState) *ProgramState {
	if c.standard {
		return s.fail(scriptErrorf(ErrUpgradableNop, "Opcode: %s.",
			txscript.OpcodeName(s.instruction().Opcode)))
	}
	return s
}

func conditionalBranch(s *ProgramState, negate bool) *ProgramState {
	if !s.executing() {
		s.ControlStack = append(s.ControlStack, ControlEntry{})
		return s
	}
	items, ok := s.pop(1)
	if !ok {
		return s
	}
	branch := txscript.IsTruthy(items[0])
	if negate {
		branch = !branch
	}
	s.ControlStack = append(s.ControlStack, ControlEntry{Executing: branch})
	return s
}

func opIf(s *ProgramState) *ProgramState {
	return conditionalBranch(s, false)
}

func opNotIf(s *ProgramState) *ProgramState {
	return conditionalBranch(s, true)
}

// opElse flips the innermost conditional.  A branch nested in a skipped
// branch stays skipped.
func opElse(s *ProgramState) *ProgramState {
	top := len(s.ControlStack) - 1
	if top < 0 || s.ControlStack[top].Loop {
		return s.fail(scriptError(ErrUnexpectedElse))
	}
	if allExecuting(s.ControlStack[:top]) {
		s.ControlStack[top].Executing = !s.ControlStack[top].Executing
	}
	return s
}

func opEndIf(s *ProgramState) *ProgramState {
	top := len(s.ControlStack) - 1
	if top < 0 || s.ControlStack[top].Loop {
		return s.fail(scriptError(ErrUnexpectedEndIf))
	}
	s.ControlStack = s.ControlStack[:top]
	return s
}

// opBegin opens a loop.  It is recorded even in a skipped branch so that
// OP_UNTIL always has a matching entry.
func opBegin(s *ProgramState) *ProgramState {
	s.ControlStack = append(s.ControlStack, ControlEntry{Loop: true, BeginIP: s.IP})
	return s
}

// opUntil closes a loop.  A falsy condition jumps back to the matching
// OP_BEGIN; the bytes of every repetition count toward the repeated bytes
// limit.
func (c *opContext) opUntil(s *ProgramState) *ProgramState {
	top := len(s.ControlStack) - 1
	if top < 0 || !s.ControlStack[top].Loop {
		return s.fail(scriptError(ErrUnexpectedUntil))
	}
	entry := s.ControlStack[top]
	s.ControlStack = s.ControlStack[:top]
	if !s.executing() {
		return s
	}

	items, ok := s.pop(1)
	if !ok {
		return s
	}
	if txscript.IsTruthy(items[0]) {
		return s
	}

	s.RepeatedBytes += len(txscript.EncodeInstructions(s.Instructions[entry.BeginIP : s.IP+1]))
	if s.RepeatedBytes > c.params.MaximumRepeatedBytes {
		return s.fail(scriptErrorf(ErrExcessiveLooping, "Repeated bytes: %d.", s.RepeatedBytes))
	}
	// The engine increments IP after the operation, landing on OP_BEGIN.
	s.IP = entry.BeginIP - 1
	return s
}

func opVerify(s *ProgramState) *ProgramState {
	items, ok := s.pop(1)
	if !ok {
		return s
	}
	if !txscript.IsTruthy(items[0]) {
		return s.fail(scriptError(ErrFailedVerify))
	}
	return s
}

func opReturn(s *ProgramState) *ProgramState {
	return s.fail(scriptError(ErrCalledReturn))
}
