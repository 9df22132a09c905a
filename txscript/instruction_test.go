// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func TestDecodeInstructions(t *testing.T) {
	tests := []struct {
		name     string
		bytecode []byte
		want     []Instruction
	}{
		{
			name:     "empty",
			bytecode: []byte{},
			want:     []Instruction{},
		},
		{
			name:     "op_0 and op_1",
			bytecode: []byte{OP_0, OP_1},
			want: []Instruction{
				&ValidInstruction{Opcode: OP_0, Data: []byte{}},
				&ValidInstruction{Opcode: OP_1},
			},
		},
		{
			name:     "inline push",
			bytecode: mustHex("02abcd87"),
			want: []Instruction{
				&ValidInstruction{Opcode: 0x02, Data: mustHex("abcd")},
				&ValidInstruction{Opcode: OP_EQUAL},
			},
		},
		{
			name:     "non-minimal pushdata",
			bytecode: mustHex("4c01ff4d0200aabb4e01000000cc"),
			want: []Instruction{
				&ValidInstruction{Opcode: OP_PUSHDATA1, Data: mustHex("ff")},
				&ValidInstruction{Opcode: OP_PUSHDATA2, Data: mustHex("aabb")},
				&ValidInstruction{Opcode: OP_PUSHDATA4, Data: mustHex("cc")},
			},
		},
		{
			name:     "truncated pushdata2 length",
			bytecode: mustHex("514d01"),
			want: []Instruction{
				&ValidInstruction{Opcode: OP_1},
				&MalformedInstruction{Opcode: OP_PUSHDATA2, LengthBytes: mustHex("01"), ExpectedDataBytes: -1},
			},
		},
		{
			name:     "pushdata2 declares too many bytes",
			bytecode: mustHex("4d0300aabb"),
			want: []Instruction{
				&MalformedInstruction{Opcode: OP_PUSHDATA2, LengthBytes: mustHex("0300"), Data: mustHex("aabb"), ExpectedDataBytes: 3},
			},
		},
		{
			name:     "inline push declares too many bytes",
			bytecode: mustHex("05aabb"),
			want: []Instruction{
				&MalformedInstruction{Opcode: 0x05, LengthBytes: []byte{}, Data: mustHex("aabb"), ExpectedDataBytes: 5},
			},
		},
		{
			name:     "pushdata4 declares more than the buffer",
			bytecode: mustHex("4effffffff00"),
			want: []Instruction{
				&MalformedInstruction{Opcode: OP_PUSHDATA4, LengthBytes: mustHex("ffffffff"), Data: mustHex("00"), ExpectedDataBytes: 0xffffffff},
			},
		},
	}

	for _, test := range tests {
		got := DecodeInstructions(test.bytecode)
		assert.Equal(t, test.want, got, test.name)
		assert.Equal(t, test.bytecode, EncodeInstructions(got), test.name)
	}
}

func TestInstructionsAreMalformed(t *testing.T) {
	tests := []struct {
		bytecode  string
		malformed bool
	}{
		{"", false},
		{"51", false},
		{"4d", true},
		{"4d01", true},
		{"4d0100", true},
		{"4d010000", false},
		{"4c02aa", true},
		{"76a914", true},
	}

	for _, test := range tests {
		instructions := DecodeInstructions(mustHex(test.bytecode))
		assert.Equal(t, test.malformed, InstructionsAreMalformed(instructions), test.bytecode)
		// Nothing but the final element can be malformed.
		for i := 0; i < len(instructions)-1; i++ {
			_, ok := instructions[i].(*ValidInstruction)
			assert.True(t, ok, test.bytecode)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	instructions := []Instruction{
		&ValidInstruction{Opcode: OP_0, Data: []byte{}},
		&ValidInstruction{Opcode: 0x01, Data: []byte{0x00}},
		&ValidInstruction{Opcode: OP_PUSHDATA1, Data: bytes.Repeat([]byte{0x11}, 80)},
		&ValidInstruction{Opcode: OP_PUSHDATA2, Data: bytes.Repeat([]byte{0x22}, 300)},
		&ValidInstruction{Opcode: OP_PUSHDATA4, Data: []byte{0x33}},
		&ValidInstruction{Opcode: OP_CHECKSIG},
		&ValidInstruction{Opcode: 0xff},
	}
	decoded := DecodeInstructions(EncodeInstructions(instructions))
	require.Len(t, decoded, len(instructions))
	assert.Equal(t, instructions, decoded)

	// Every byte string survives decode then encode.
	for i := 0; i < 256; i++ {
		b := []byte{byte(i), 0x02, 0x00, 0xaa}
		assert.Equal(t, b, EncodeInstructions(DecodeInstructions(b)))
	}
}

func TestIsPushOnly(t *testing.T) {
	assert.True(t, IsPushOnlyBytecode(mustHex("004f50515f60020102")))
	assert.False(t, IsPushOnlyBytecode(mustHex("0061")))
	assert.False(t, IsPushOnlyBytecode(mustHex("4c05")))
}

func TestIsMinimalDataPush(t *testing.T) {
	tests := []struct {
		opcode  byte
		data    []byte
		minimal bool
	}{
		{OP_0, []byte{}, true},
		{OP_PUSHDATA1, []byte{}, false},
		{OP_1, []byte{0x01}, true},
		{0x01, []byte{0x01}, false},
		{OP_16, []byte{0x10}, true},
		{OP_1NEGATE, []byte{0x81}, true},
		{0x01, []byte{0x81}, false},
		{0x01, []byte{0x00}, true},
		{0x01, []byte{0x11}, true},
		{0x4b, bytes.Repeat([]byte{1}, 75), true},
		{OP_PUSHDATA1, bytes.Repeat([]byte{1}, 75), false},
		{OP_PUSHDATA1, bytes.Repeat([]byte{1}, 76), true},
		{OP_PUSHDATA2, bytes.Repeat([]byte{1}, 255), false},
		{OP_PUSHDATA2, bytes.Repeat([]byte{1}, 256), true},
	}

	for i, test := range tests {
		assert.Equal(t, test.minimal, IsMinimalDataPush(test.opcode, test.data), "test #%d", i)
	}
}

func TestDisassemble(t *testing.T) {
	tests := []struct {
		bytecode string
		want     string
	}{
		{"76a914000000000000000000000000000000000000000088ac",
			"OP_DUP OP_HASH160 OP_PUSHBYTES_20 0x0000000000000000000000000000000000000000 OP_EQUALVERIFY OP_CHECKSIG"},
		{"004c02abcd", "OP_0 OP_PUSHDATA_1 2 0xabcd"},
		{"5160ba65", "OP_1 OP_16 OP_CHECKDATASIG OP_VERIF"},
		{"ff", "OP_UNKNOWN255"},
		{"4d01", "[OP_PUSHDATA_2 0x01]"},
		{"03aabb", "[OP_PUSHBYTES_3 3 0xaabb]"},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, DisassembleBytecode(mustHex(test.bytecode)), test.bytecode)
	}
}
