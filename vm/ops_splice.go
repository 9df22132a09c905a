package vm

import (
	"bytes"

	"github.com/cashvm/authvm/txscript"
)

func (c *opContext) opCat(s *ProgramState) *ProgramState {
	items, ok := s.pop(2)
	if !ok {
		return s
	}
	length := len(items[0]) + len(items[1])
	if length > c.params.MaximumStackItemLength {
		return s.fail(scriptErrorf(ErrExceededMaximumStackItemLength, "Item length: %d.", length))
	}
	result := make([]byte, 0, length)
	result = append(result, items[0]...)
	s.push(append(result, items[1]...))
	return s
}

// opSplit splits an item at the index on top of it.
func (c *opContext) opSplit(s *ProgramState) *ProgramState {
	items, ok := s.pop(2)
	if !ok {
		return s
	}
	item := items[0]
	n, err := decodeNumber(items[1], c.params.MaximumVmNumberLength)
	if err != nil {
		return s.fail(err)
	}
	if n.Sign() < 0 || !n.IsInt64() || n.Int64() > int64(len(item)) {
		return s.fail(scriptErrorf(ErrInvalidSplitIndex, "Index: %s, item length: %d.",
			n.String(), len(item)))
	}
	i := int(n.Int64())
	s.push(copyBytes(item[:i]))
	s.push(copyBytes(item[i:]))
	return s
}

// minimallyEncode re-encodes a number of any length in its minimal form.
func minimallyEncode(item []byte) []byte {
	n, _ := txscript.DecodeVmNumber(item,
		txscript.MaxLength(len(item)), txscript.RequireMinimal(false))
	return txscript.EncodeVmNumber(n)
}

// opNum2Bin pads a number to the requested length, keeping the sign bit in
// the last byte.
func (c *opContext) opNum2Bin(s *ProgramState) *ProgramState {
	items, ok := s.pop(2)
	if !ok {
		return s
	}
	size, err := decodeNumber(items[1], c.params.MaximumVmNumberLength)
	if err != nil {
		return s.fail(err)
	}
	if size.Sign() < 0 {
		return s.fail(scriptErrorf(ErrInvalidNum2BinSize, "Requested size: %s.", size.String()))
	}
	if !size.IsInt64() || size.Int64() > int64(c.params.MaximumStackItemLength) {
		return s.fail(scriptErrorf(ErrExceededMaximumStackItemLength, "Requested size: %s.",
			size.String()))
	}
	target := int(size.Int64())

	encoded := minimallyEncode(items[0])
	if len(encoded) > target {
		return s.fail(scriptErrorf(ErrInvalidNum2BinSize, "Minimal length: %d, requested: %d.",
			len(encoded), target))
	}

	result := make([]byte, target)
	copy(result, encoded)
	if len(encoded) > 0 && len(encoded) < target {
		sign := encoded[len(encoded)-1] & 0x80
		result[len(encoded)-1] &^= 0x80
		result[target-1] |= sign
	}
	s.push(result)
	return s
}

func (c *opContext) opBin2Num(s *ProgramState) *ProgramState {
	items, ok := s.pop(1)
	if !ok {
		return s
	}
	encoded := minimallyEncode(items[0])
	if len(encoded) > c.params.MaximumVmNumberLength {
		return s.fail(scriptErrorf(ErrNumberOutOfRange, "Result length: %d.", len(encoded)))
	}
	s.push(encoded)
	return s
}

func opSize(s *ProgramState) *ProgramState {
	top, ok := s.peek(0)
	if !ok {
		return s
	}
	s.push(txscript.EncodeVmNumberInt64(int64(len(top))))
	return s
}

func opReverseBytes(s *ProgramState) *ProgramState {
	items, ok := s.pop(1)
	if !ok {
		return s
	}
	item := items[0]
	reversed := make([]byte, len(item))
	for i, b := range item {
		reversed[len(item)-1-i] = b
	}
	s.push(reversed)
	return s
}

// bitwise applies f to operands of equal length.
func bitwise(f func(a, b byte) byte) Operation {
	return func(s *ProgramState) *ProgramState {
		items, ok := s.pop(2)
		if !ok {
			return s
		}
		a, b := items[0], items[1]
		if len(a) != len(b) {
			return s.fail(scriptErrorf(ErrMismatchedBitwiseOperandLength,
				"Lengths: %d and %d.", len(a), len(b)))
		}
		result := make([]byte, len(a))
		for i := range a {
			result[i] = f(a[i], b[i])
		}
		s.push(result)
		return s
	}
}

var (
	opAnd = bitwise(func(a, b byte) byte { return a & b })
	opOr  = bitwise(func(a, b byte) byte { return a | b })
	opXor = bitwise(func(a, b byte) byte { return a ^ b })
)

func opEqual(s *ProgramState) *ProgramState {
	items, ok := s.pop(2)
	if !ok {
		return s
	}
	s.pushBool(bytes.Equal(items[0], items[1]))
	return s
}

func opEqualVerify(s *ProgramState) *ProgramState {
	s = opEqual(s)
	if s.Error != nil {
		return s
	}
	return opVerify(s)
}
