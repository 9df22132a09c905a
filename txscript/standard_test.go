// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	compressedKey   = append([]byte{0x02}, bytes.Repeat([]byte{0x11}, 32)...)
	uncompressedKey = append([]byte{0x04}, bytes.Repeat([]byte{0x22}, 64)...)
)

func TestScriptClass(t *testing.T) {
	p2pkh, err := PayToPublicKeyHash(bytes.Repeat([]byte{0xaa}, 20))
	require.NoError(t, err)
	p2sh20, err := PayToScriptHash20([]byte{OP_1})
	require.NoError(t, err)
	p2sh32, err := PayToScriptHash32([]byte{OP_1})
	require.NoError(t, err)
	multisig, err := MultiSigScript([][]byte{compressedKey, uncompressedKey}, 1)
	require.NoError(t, err)
	wideMultisig, err := MultiSigScript([][]byte{compressedKey, compressedKey, compressedKey, compressedKey}, 2)
	require.NoError(t, err)
	p2pk, err := NewScriptBuilder().AddData(compressedKey).AddOp(OP_CHECKSIG).Script()
	require.NoError(t, err)
	p2pkUncompressed, err := NewScriptBuilder().AddData(uncompressedKey).AddOp(OP_CHECKSIG).Script()
	require.NoError(t, err)
	nullData, err := NewScriptBuilder().AddOp(OP_RETURN).AddData([]byte("hello")).Script()
	require.NoError(t, err)

	tests := []struct {
		name     string
		bytecode []byte
		p2sh32   bool
		class    ScriptClass
	}{
		{"p2pkh", p2pkh, false, PubKeyHashTy},
		{"p2sh20", p2sh20, false, ScriptHash20Ty},
		{"p2sh32 disabled", p2sh32, false, NonStandardTy},
		{"p2sh32 enabled", p2sh32, true, ScriptHash32Ty},
		{"p2pk compressed", p2pk, false, PubKeyTy},
		{"p2pk uncompressed", p2pkUncompressed, false, PubKeyTy},
		{"multisig", multisig, false, MultiSigTy},
		{"multisig above limit", wideMultisig, false, NonStandardTy},
		{"nulldata", nullData, false, NullDataTy},
		{"bare op_return", []byte{OP_RETURN}, false, NullDataTy},
		{"op_return with op", []byte{OP_RETURN, OP_DUP}, false, NonStandardTy},
		{"empty", []byte{}, false, NonStandardTy},
	}

	for _, test := range tests {
		got := GetScriptClass(test.bytecode, 3, test.p2sh32)
		assert.Equal(t, test.class, got, test.name)
	}
}

func TestPatternLengths(t *testing.T) {
	p2pkh, _ := PayToPublicKeyHash(bytes.Repeat([]byte{0xaa}, 20))
	assert.Len(t, p2pkh, 25)
	assert.True(t, IsPayToPublicKeyHash(p2pkh))
	assert.False(t, IsPayToPublicKeyHash(p2pkh[:24]))

	p2sh20, _ := PayToScriptHash20([]byte{OP_1})
	assert.Len(t, p2sh20, 23)
	assert.True(t, IsPayToScriptHash20(p2sh20))
	assert.False(t, IsPayToScriptHash32(p2sh20))

	p2sh32, _ := PayToScriptHash32([]byte{OP_1})
	assert.Len(t, p2sh32, 35)
	assert.True(t, IsPayToScriptHash32(p2sh32))
	assert.False(t, IsPayToScriptHash20(p2sh32))
}

func TestIsWitnessProgram(t *testing.T) {
	tests := []struct {
		name     string
		bytecode []byte
		witness  bool
	}{
		{"v0 20-byte", append([]byte{OP_0, 0x14}, bytes.Repeat([]byte{1}, 20)...), true},
		{"v0 32-byte", append([]byte{OP_0, 0x20}, bytes.Repeat([]byte{1}, 32)...), true},
		{"v16 2-byte", []byte{OP_16, 0x02, 0x01, 0x02}, true},
		{"too short", []byte{OP_0, 0x01, 0x01}, false},
		{"too long", append([]byte{OP_0, 0x29}, bytes.Repeat([]byte{1}, 41)...), false},
		{"bad version", []byte{OP_1NEGATE, 0x02, 0x01, 0x02}, false},
		{"length mismatch", []byte{OP_0, 0x03, 0x01, 0x02}, false},
	}

	for _, test := range tests {
		assert.Equal(t, test.witness, IsWitnessProgram(test.bytecode), test.name)
	}
}

func TestScriptBuilderMinimal(t *testing.T) {
	script, err := NewScriptBuilder().
		AddData(nil).
		AddData([]byte{0x00}).
		AddData([]byte{0x05}).
		AddData([]byte{0x81}).
		AddData(bytes.Repeat([]byte{0x01}, 76)).
		AddInt64(-1).
		AddInt64(17).
		Script()
	require.NoError(t, err)

	instructions := DecodeInstructions(script)
	require.False(t, InstructionsAreMalformed(instructions))
	require.Len(t, instructions, 7)
	for _, ins := range instructions {
		valid := ins.(*ValidInstruction)
		if IsPushOpcode(valid.Opcode) {
			assert.True(t, IsMinimalDataPush(valid.Opcode, valid.Data), DisassembleInstruction(ins))
		}
	}
	assert.Equal(t, byte(OP_5), instructions[2].Op())
	assert.Equal(t, byte(OP_1NEGATE), instructions[3].Op())
	assert.Equal(t, byte(OP_PUSHDATA1), instructions[4].Op())
	assert.Equal(t, byte(OP_1NEGATE), instructions[5].Op())

	_, err = NewScriptBuilder().AddData(make([]byte, maxBuilderPushLength+1)).Script()
	assert.Error(t, err)

	_, err = MultiSigScript([][]byte{compressedKey}, 2)
	assert.Error(t, err)
}
