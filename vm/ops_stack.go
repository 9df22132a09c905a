package vm

import (
	"github.com/cashvm/authvm/txscript"
)

func opToAltStack(s *ProgramState) *ProgramState {
	items, ok := s.pop(1)
	if !ok {
		return s
	}
	s.AlternateStack = append(s.AlternateStack, items[0])
	return s
}

func opFromAltStack(s *ProgramState) *ProgramState {
	top := len(s.AlternateStack) - 1
	if top < 0 {
		return s.fail(scriptError(ErrEmptyAlternateStack))
	}
	s.push(s.AlternateStack[top])
	s.AlternateStack = s.AlternateStack[:top]
	return s
}

func op2Drop(s *ProgramState) *ProgramState {
	s.pop(2)
	return s
}

// dupN duplicates the top n items in order.
func dupN(s *ProgramState, n int) *ProgramState {
	if len(s.Stack) < n {
		return s.fail(scriptError(ErrEmptyStack))
	}
	for _, item := range s.Stack[len(s.Stack)-n:] {
		s.push(copyBytes(item))
	}
	return s
}

func op2Dup(s *ProgramState) *ProgramState {
	return dupN(s, 2)
}

func op3Dup(s *ProgramState) *ProgramState {
	return dupN(s, 3)
}

// op2Over copies the third and fourth items to the top.
func op2Over(s *ProgramState) *ProgramState {
	if len(s.Stack) < 4 {
		return s.fail(scriptError(ErrEmptyStack))
	}
	base := len(s.Stack) - 4
	s.push(copyBytes(s.Stack[base]))
	s.push(copyBytes(s.Stack[base+1]))
	return s
}

// op2Rot moves the fifth and sixth items to the top.
func op2Rot(s *ProgramState) *ProgramState {
	items, ok := s.pop(6)
	if !ok {
		return s
	}
	s.Stack = append(s.Stack, items[2], items[3], items[4], items[5], items[0], items[1])
	return s
}

func op2Swap(s *ProgramState) *ProgramState {
	items, ok := s.pop(4)
	if !ok {
		return s
	}
	s.Stack = append(s.Stack, items[2], items[3], items[0], items[1])
	return s
}

func opIfDup(s *ProgramState) *ProgramState {
	top, ok := s.peek(0)
	if !ok {
		return s
	}
	if txscript.IsTruthy(top) {
		s.push(copyBytes(top))
	}
	return s
}

func opDepth(s *ProgramState) *ProgramState {
	s.push(txscript.EncodeVmNumberInt64(int64(len(s.Stack))))
	return s
}

func opDrop(s *ProgramState) *ProgramState {
	s.pop(1)
	return s
}

func opDup(s *ProgramState) *ProgramState {
	return dupN(s, 1)
}

func opNip(s *ProgramState) *ProgramState {
	items, ok := s.pop(2)
	if !ok {
		return s
	}
	s.push(items[1])
	return s
}

func opOver(s *ProgramState) *ProgramState {
	item, ok := s.peek(1)
	if !ok {
		return s
	}
	s.push(copyBytes(item))
	return s
}

// popStackIndex pops a depth operand for OP_PICK and OP_ROLL and checks it
// against the remaining stack.
func (c *opContext) popStackIndex(s *ProgramState) (int, bool) {
	n, ok := c.popNumber(s)
	if !ok {
		return 0, false
	}
	if n.Sign() < 0 || !n.IsInt64() || n.Int64() >= int64(len(s.Stack)) {
		s.fail(scriptErrorf(ErrInvalidStackIndex, "Index: %s, stack depth: %d.",
			n.String(), len(s.Stack)))
		return 0, false
	}
	return int(n.Int64()), true
}

func (c *opContext) opPick(s *ProgramState) *ProgramState {
	depth, ok := c.popStackIndex(s)
	if !ok {
		return s
	}
	item, _ := s.peek(depth)
	s.push(copyBytes(item))
	return s
}

func (c *opContext) opRoll(s *ProgramState) *ProgramState {
	depth, ok := c.popStackIndex(s)
	if !ok {
		return s
	}
	i := len(s.Stack) - 1 - depth
	item := s.Stack[i]
	s.Stack = append(s.Stack[:i], s.Stack[i+1:]...)
	s.push(item)
	return s
}

// opRot moves the third item to the top.
func opRot(s *ProgramState) *ProgramState {
	items, ok := s.pop(3)
	if !ok {
		return s
	}
	s.Stack = append(s.Stack, items[1], items[2], items[0])
	return s
}

func opSwap(s *ProgramState) *ProgramState {
	items, ok := s.pop(2)
	if !ok {
		return s
	}
	s.Stack = append(s.Stack, items[1], items[0])
	return s
}

// opTuck copies the top item below the second item.
func opTuck(s *ProgramState) *ProgramState {
	items, ok := s.pop(2)
	if !ok {
		return s
	}
	s.Stack = append(s.Stack, copyBytes(items[1]), items[0], items[1])
	return s
}
