// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestVmNumberBytes ensures that converting from integral script numbers to
// byte representations works as expected.
func TestVmNumberBytes(t *testing.T) {
	tests := []struct {
		num        int64
		serialized string
	}{
		{0, ""},
		{1, "01"},
		{-1, "81"},
		{127, "7f"},
		{-127, "ff"},
		{128, "8000"},
		{-128, "8080"},
		{129, "8100"},
		{-129, "8180"},
		{256, "0001"},
		{-256, "0081"},
		{32767, "ff7f"},
		{-32767, "ffff"},
		{32768, "008000"},
		{-32768, "008080"},
		{65535, "ffff00"},
		{-65535, "ffff80"},
		{524288, "000008"},
		{-524288, "000088"},
		{7340032, "000070"},
		{-7340032, "0000f0"},
		{8388608, "00008000"},
		{-8388608, "00008080"},
		{2147483647, "ffffff7f"},
		{-2147483647, "ffffffff"},
		{2147483648, "0000008000"},
		{-2147483648, "0000008080"},
		{math.MaxInt64, "ffffffffffffff7f"},
		{-math.MaxInt64, "ffffffffffffffff"},
	}

	for _, test := range tests {
		want := mustHex(test.serialized)
		got := EncodeVmNumberInt64(test.num)
		assert.Equal(t, want, got, "encode %d", test.num)

		decoded, err := DecodeVmNumber(got)
		require.NoError(t, err, "decode %d", test.num)
		assert.Equal(t, 0, decoded.Cmp(big.NewInt(test.num)), "decode %d", test.num)
	}
}

func TestDecodeVmNumberErrors(t *testing.T) {
	tests := []struct {
		serialized string
		opts       []VmNumberOption
		err        error
	}{
		{"00", nil, ErrVmNumberNonMinimal},
		{"80", nil, ErrVmNumberNonMinimal},
		{"0100", nil, ErrVmNumberNonMinimal},
		{"0180", nil, ErrVmNumberNonMinimal},
		{"ff0000", nil, ErrVmNumberNonMinimal},
		{"000000000000000001", nil, ErrVmNumberOutOfRange},
		{"0102030405", []VmNumberOption{MaxLength(4)}, ErrVmNumberOutOfRange},
	}

	for _, test := range tests {
		_, err := DecodeVmNumber(mustHex(test.serialized), test.opts...)
		assert.Equal(t, test.err, err, test.serialized)
	}

	// Sign-carrying top bytes are minimal when the byte below uses its
	// high bit.
	for _, s := range []string{"8000", "8080", "ff00"} {
		_, err := DecodeVmNumber(mustHex(s))
		assert.NoError(t, err, s)
	}

	n, err := DecodeVmNumber(mustHex("0100"), RequireMinimal(false))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.Int64())

	n, err = DecodeVmNumber(mustHex("80"), RequireMinimal(false))
	require.NoError(t, err)
	assert.Equal(t, 0, n.Sign())
}

func TestVmNumberLargeRange(t *testing.T) {
	big1 := new(big.Int).Lsh(big.NewInt(1), 2000)
	big1.Neg(big1)
	b := EncodeVmNumber(big1)
	assert.Len(t, b, 251)

	_, err := DecodeVmNumber(b)
	assert.Equal(t, ErrVmNumberOutOfRange, err)

	n, err := DecodeVmNumber(b, MaxLength(258))
	require.NoError(t, err)
	assert.Equal(t, 0, n.Cmp(big1))
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		b      string
		truthy bool
	}{
		{"", false},
		{"00", false},
		{"80", false},
		{"0000", false},
		{"0080", false},
		{"01", true},
		{"8000", true},
		{"0001", true},
		{"8080", true},
	}

	for _, test := range tests {
		assert.Equal(t, test.truthy, IsTruthy(mustHex(test.b)), test.b)
	}
	assert.False(t, IsTruthy(EncodeVmNumberInt64(0)))
}
