// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"math/big"

	"github.com/pkg/errors"
)

// DefaultVmNumberLength is the maximum length of a VM number operand unless a
// rule set overrides it.
const DefaultVmNumberLength = 8

var (
	// ErrVmNumberOutOfRange is returned when an encoded number is longer
	// than the permitted maximum.
	ErrVmNumberOutOfRange = errors.New("VM number exceeds the maximum length")

	// ErrVmNumberNonMinimal is returned when an encoded number could be
	// shorter without changing its value.
	ErrVmNumberNonMinimal = errors.New("VM number is not minimally encoded")
)

type vmNumberOptions struct {
	maxLength      int
	requireMinimal bool
}

// VmNumberOption configures DecodeVmNumber.
type VmNumberOption func(*vmNumberOptions)

// MaxLength sets the maximum accepted encoding length in bytes.
func MaxLength(n int) VmNumberOption {
	return func(o *vmNumberOptions) { o.maxLength = n }
}

// RequireMinimal controls whether non-minimal encodings are rejected.
func RequireMinimal(minimal bool) VmNumberOption {
	return func(o *vmNumberOptions) { o.requireMinimal = minimal }
}

// DecodeVmNumber decodes a little-endian sign-magnitude number.  The most
// significant bit of the last byte is the sign.  By default encodings longer
// than DefaultVmNumberLength bytes and non-minimal encodings are rejected.
func DecodeVmNumber(b []byte, opts ...VmNumberOption) (*big.Int, error) {
	o := vmNumberOptions{maxLength: DefaultVmNumberLength, requireMinimal: true}
	for _, opt := range opts {
		opt(&o)
	}

	if len(b) > o.maxLength {
		return nil, ErrVmNumberOutOfRange
	}
	if len(b) == 0 {
		return new(big.Int), nil
	}

	last := b[len(b)-1]
	if o.requireMinimal && last&0x7f == 0 {
		// The top byte only carries the sign.  That is only needed when
		// the next byte down would otherwise be read as the sign.
		if len(b) == 1 || b[len(b)-2]&0x80 == 0 {
			return nil, ErrVmNumberNonMinimal
		}
	}

	// Reverse into big-endian order with the sign bit cleared.
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	be[0] &= 0x7f

	n := new(big.Int).SetBytes(be)
	if last&0x80 != 0 {
		n.Neg(n)
	}
	return n, nil
}

// EncodeVmNumber returns the minimal encoding of n.  Zero encodes to an empty
// byte slice.
func EncodeVmNumber(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{}
	}
	be := new(big.Int).Abs(n).Bytes()
	b := make([]byte, len(be), len(be)+1)
	for i, v := range be {
		b[len(be)-1-i] = v
	}

	negative := n.Sign() < 0
	if b[len(b)-1]&0x80 != 0 {
		extra := byte(0x00)
		if negative {
			extra = 0x80
		}
		return append(b, extra)
	}
	if negative {
		b[len(b)-1] |= 0x80
	}
	return b
}

// EncodeVmNumberInt64 returns the minimal encoding of n.
func EncodeVmNumberInt64(n int64) []byte {
	return EncodeVmNumber(big.NewInt(n))
}

// IsTruthy reports whether a stack item is considered true.  Any non-zero
// byte makes an item true, except that 0x80 in the last byte alone is
// negative zero.
func IsTruthy(b []byte) bool {
	for i, v := range b {
		if v != 0 {
			// Negative zero is false.
			if i == len(b)-1 && v == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}
