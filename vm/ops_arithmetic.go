package vm

import (
	"math/big"

	"github.com/cashvm/authvm/txscript"
)

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
)

// decodeNumber decodes a numeric operand of at most maxLength bytes.
func decodeNumber(item []byte, maxLength int) (*big.Int, *ScriptError) {
	n, err := txscript.DecodeVmNumber(item, txscript.MaxLength(maxLength))
	switch err {
	case nil:
		return n, nil
	case txscript.ErrVmNumberOutOfRange:
		return nil, scriptErrorf(ErrNumberOutOfRange, "Item length: %d.", len(item))
	default:
		return nil, scriptErrorf(ErrNumberNonMinimal, "Item: 0x%x.", item)
	}
}

// popNumbers pops n numeric operands, deepest first.
func (c *opContext) popNumbers(s *ProgramState, n int) ([]*big.Int, bool) {
	items, ok := s.pop(n)
	if !ok {
		return nil, false
	}
	numbers := make([]*big.Int, n)
	for i, item := range items {
		number, err := decodeNumber(item, c.params.MaximumVmNumberLength)
		if err != nil {
			s.fail(err)
			return nil, false
		}
		numbers[i] = number
	}
	return numbers, true
}

func (c *opContext) popNumber(s *ProgramState) (*big.Int, bool) {
	numbers, ok := c.popNumbers(s, 1)
	if !ok {
		return nil, false
	}
	return numbers[0], true
}

// pushNumberResult pushes the result of an arithmetic operation.  Results
// are bounded by the same length as operands.
func (c *opContext) pushNumberResult(s *ProgramState, n *big.Int) *ProgramState {
	encoded := txscript.EncodeVmNumber(n)
	if len(encoded) > c.params.MaximumVmNumberLength {
		return s.fail(scriptErrorf(ErrOverflowResult, "Result length: %d.", len(encoded)))
	}
	s.push(encoded)
	return s
}

func (c *opContext) unary(f func(a *big.Int) *big.Int) Operation {
	return func(s *ProgramState) *ProgramState {
		a, ok := c.popNumber(s)
		if !ok {
			return s
		}
		return c.pushNumberResult(s, f(a))
	}
}

func (c *opContext) binary(f func(a, b *big.Int) (*big.Int, *ScriptError)) Operation {
	return func(s *ProgramState) *ProgramState {
		numbers, ok := c.popNumbers(s, 2)
		if !ok {
			return s
		}
		result, err := f(numbers[0], numbers[1])
		if err != nil {
			return s.fail(err)
		}
		return c.pushNumberResult(s, result)
	}
}

func boolNumber(v bool) *big.Int {
	if v {
		return bigOne
	}
	return bigZero
}

func (c *opContext) op1Add(s *ProgramState) *ProgramState {
	return c.unary(func(a *big.Int) *big.Int { return new(big.Int).Add(a, bigOne) })(s)
}

func (c *opContext) op1Sub(s *ProgramState) *ProgramState {
	return c.unary(func(a *big.Int) *big.Int { return new(big.Int).Sub(a, bigOne) })(s)
}

func (c *opContext) opNegate(s *ProgramState) *ProgramState {
	return c.unary(func(a *big.Int) *big.Int { return new(big.Int).Neg(a) })(s)
}

func (c *opContext) opAbs(s *ProgramState) *ProgramState {
	return c.unary(func(a *big.Int) *big.Int { return new(big.Int).Abs(a) })(s)
}

func (c *opContext) opNot(s *ProgramState) *ProgramState {
	return c.unary(func(a *big.Int) *big.Int { return boolNumber(a.Sign() == 0) })(s)
}

func (c *opContext) op0NotEqual(s *ProgramState) *ProgramState {
	return c.unary(func(a *big.Int) *big.Int { return boolNumber(a.Sign() != 0) })(s)
}

func (c *opContext) opAdd(s *ProgramState) *ProgramState {
	return c.binary(func(a, b *big.Int) (*big.Int, *ScriptError) {
		return new(big.Int).Add(a, b), nil
	})(s)
}

func (c *opContext) opSub(s *ProgramState) *ProgramState {
	return c.binary(func(a, b *big.Int) (*big.Int, *ScriptError) {
		return new(big.Int).Sub(a, b), nil
	})(s)
}

func (c *opContext) opMul(s *ProgramState) *ProgramState {
	return c.binary(func(a, b *big.Int) (*big.Int, *ScriptError) {
		return new(big.Int).Mul(a, b), nil
	})(s)
}

// opDiv truncates toward zero.
func (c *opContext) opDiv(s *ProgramState) *ProgramState {
	return c.binary(func(a, b *big.Int) (*big.Int, *ScriptError) {
		if b.Sign() == 0 {
			return nil, scriptError(ErrDivisionByZero)
		}
		return new(big.Int).Quo(a, b), nil
	})(s)
}

// opMod takes the sign of the dividend.
func (c *opContext) opMod(s *ProgramState) *ProgramState {
	return c.binary(func(a, b *big.Int) (*big.Int, *ScriptError) {
		if b.Sign() == 0 {
			return nil, scriptError(ErrDivisionByZero)
		}
		return new(big.Int).Rem(a, b), nil
	})(s)
}

func (c *opContext) compare(f func(cmp int, a, b *big.Int) bool) Operation {
	return c.binary(func(a, b *big.Int) (*big.Int, *ScriptError) {
		return boolNumber(f(a.Cmp(b), a, b)), nil
	})
}

func (c *opContext) opBoolAnd(s *ProgramState) *ProgramState {
	return c.compare(func(_ int, a, b *big.Int) bool { return a.Sign() != 0 && b.Sign() != 0 })(s)
}

func (c *opContext) opBoolOr(s *ProgramState) *ProgramState {
	return c.compare(func(_ int, a, b *big.Int) bool { return a.Sign() != 0 || b.Sign() != 0 })(s)
}

func (c *opContext) opNumEqual(s *ProgramState) *ProgramState {
	return c.compare(func(cmp int, _, _ *big.Int) bool { return cmp == 0 })(s)
}

func (c *opContext) opNumEqualVerify(s *ProgramState) *ProgramState {
	s = c.opNumEqual(s)
	if s.Error != nil {
		return s
	}
	return opVerify(s)
}

func (c *opContext) opNumNotEqual(s *ProgramState) *ProgramState {
	return c.compare(func(cmp int, _, _ *big.Int) bool { return cmp != 0 })(s)
}

func (c *opContext) opLessThan(s *ProgramState) *ProgramState {
	return c.compare(func(cmp int, _, _ *big.Int) bool { return cmp < 0 })(s)
}

func (c *opContext) opGreaterThan(s *ProgramState) *ProgramState {
	return c.compare(func(cmp int, _, _ *big.Int) bool { return cmp > 0 })(s)
}

func (c *opContext) opLessThanOrEqual(s *ProgramState) *ProgramState {
	return c.compare(func(cmp int, _, _ *big.Int) bool { return cmp <= 0 })(s)
}

func (c *opContext) opGreaterThanOrEqual(s *ProgramState) *ProgramState {
	return c.compare(func(cmp int, _, _ *big.Int) bool { return cmp >= 0 })(s)
}

func (c *opContext) opMin(s *ProgramState) *ProgramState {
	return c.binary(func(a, b *big.Int) (*big.Int, *ScriptError) {
		if a.Cmp(b) <= 0 {
			return a, nil
		}
		return b, nil
	})(s)
}

func (c *opContext) opMax(s *ProgramState) *ProgramState {
	return c.binary(func(a, b *big.Int) (*big.Int, *ScriptError) {
		if a.Cmp(b) >= 0 {
			return a, nil
		}
		return b, nil
	})(s)
}

// opWithin pushes whether x is in the half-open range [min, max).
func (c *opContext) opWithin(s *ProgramState) *ProgramState {
	numbers, ok := c.popNumbers(s, 3)
	if !ok {
		return s
	}
	x, min, max := numbers[0], numbers[1], numbers[2]
	s.pushBool(x.Cmp(min) >= 0 && x.Cmp(max) < 0)
	return s
}
