// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/ripemd160"
)

// ErrScriptNotCanonical identifies a non-canonical script.  The caller can use
// a type assertion to detect this error type.
type ErrScriptNotCanonical string

// Error implements the error interface.
func (e ErrScriptNotCanonical) Error() string {
	return string(e)
}

// ScriptBuilder provides a facility for building custom bytecode.  Data is
// always pushed with the smallest possible opcode.  Errors are deferred until
// Script is called, so calls can be chained:
//
//	builder := txscript.NewScriptBuilder()
//	builder.AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160)
//	builder.AddData(pubKeyHash).AddOp(txscript.OP_EQUALVERIFY)
//	builder.AddOp(txscript.OP_CHECKSIG)
//	script, err := builder.Script()
type ScriptBuilder struct {
	script []byte
	err    error
}

// NewScriptBuilder returns a new instance of a script builder.
func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{
		script: make([]byte, 0, 64),
	}
}

// AddOp pushes the passed opcode to the end of the script.
func (b *ScriptBuilder) AddOp(opcode byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, opcode)
	return b
}

// AddOps pushes the passed opcodes to the end of the script.
func (b *ScriptBuilder) AddOps(opcodes []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}
	b.script = append(b.script, opcodes...)
	return b
}

// canonicalDataSize returns the number of bytes the canonical encoding of the
// data will take.
func canonicalDataSize(data []byte) int {
	dataLen := len(data)

	// When the data consists of a single number that can be represented
	// by one of the "small integer" opcodes, that opcode will be instead
	// of a data push opcode followed by the number.
	if dataLen == 0 {
		return 1
	} else if dataLen == 1 && data[0] >= 1 && data[0] <= 16 {
		return 1
	} else if dataLen == 1 && data[0] == 0x81 {
		return 1
	}

	if dataLen < OP_PUSHDATA1 {
		return 1 + dataLen
	} else if dataLen <= 0xff {
		return 2 + dataLen
	} else if dataLen <= 0xffff {
		return 3 + dataLen
	}

	return 5 + dataLen
}

// addData is the internal function that actually pushes the passed data to
// the end of the script.  It automatically chooses canonical opcodes depending
// on the length of the data.
func (b *ScriptBuilder) addData(data []byte) *ScriptBuilder {
	dataLen := len(data)

	// When the data consists of a single number that can be represented
	// by one of the "small integer" opcodes, use that opcode instead of
	// a data push opcode followed by the number.
	if dataLen == 0 {
		b.script = append(b.script, OP_0)
		return b
	} else if dataLen == 1 && data[0] >= 1 && data[0] <= 16 {
		b.script = append(b.script, (OP_1-1)+data[0])
		return b
	} else if dataLen == 1 && data[0] == 0x81 {
		b.script = append(b.script, byte(OP_1NEGATE))
		return b
	}

	// Use one of the OP_DATA_# opcodes if the length of the data is small
	// enough so the data push instruction is only a single byte.
	// Otherwise, choose the smallest possible OP_PUSHDATA# opcode that
	// can represent the length of the data.
	if dataLen < OP_PUSHDATA1 {
		b.script = append(b.script, byte(dataLen))
	} else if dataLen <= 0xff {
		b.script = append(b.script, OP_PUSHDATA1, byte(dataLen))
	} else if dataLen <= 0xffff {
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, uint16(dataLen))
		b.script = append(b.script, OP_PUSHDATA2)
		b.script = append(b.script, buf...)
	} else {
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(dataLen))
		b.script = append(b.script, OP_PUSHDATA4)
		b.script = append(b.script, buf...)
	}

	// Append the actual data.
	b.script = append(b.script, data...)

	return b
}

// AddData pushes the passed data to the end of the script.  The push
// opcode is chosen canonically from the length of the data.  A zero-length
// buffer pushes an empty item (OP_0).
//
// Pushes longer than maxBuilderPushLength set an error that is returned by Script.
func (b *ScriptBuilder) AddData(data []byte) *ScriptBuilder {
	if b.err != nil {
		return b
	}

	if dataSize := canonicalDataSize(data); dataSize-1 > maxBuilderPushLength {
		str := fmt.Sprintf("adding a data element of %d bytes would "+
			"exceed the maximum allowed push size of %d", len(data),
			maxBuilderPushLength)
		b.err = ErrScriptNotCanonical(str)
		return b
	}

	return b.addData(data)
}

// maxBuilderPushLength is the largest push the builder will emit.  Rule sets
// with larger stack items build their bytecode without the builder.
const maxBuilderPushLength = 10000 + 4

// AddInt64 pushes the passed integer to the end of the script as a VM number.
func (b *ScriptBuilder) AddInt64(val int64) *ScriptBuilder {
	if b.err != nil {
		return b
	}

	// Fast path for small integers and OP_1NEGATE.
	if val == 0 {
		b.script = append(b.script, OP_0)
		return b
	}
	if val == -1 || (val >= 1 && val <= 16) {
		b.script = append(b.script, byte((OP_1-1)+val))
		return b
	}

	return b.AddData(EncodeVmNumber(big.NewInt(val)))
}

// Reset resets the script so it has no content.
func (b *ScriptBuilder) Reset() *ScriptBuilder {
	b.script = b.script[0:0]
	b.err = nil
	return b
}

// Script returns the currently built script.  When any errors occurred while
// building the script, the script will be returned up the point of the first
// error along with the error.
func (b *ScriptBuilder) Script() ([]byte, error) {
	return b.script, b.err
}

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// PayToPublicKeyHash returns the P2PKH locking bytecode for a 20-byte public
// key hash.
func PayToPublicKeyHash(pubKeyHash []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_DUP).AddOp(OP_HASH160).
		AddData(pubKeyHash).AddOp(OP_EQUALVERIFY).AddOp(OP_CHECKSIG).
		Script()
}

// PayToScriptHash20 returns the P2SH20 locking bytecode committing to
// redeemBytecode.
func PayToScriptHash20(redeemBytecode []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_HASH160).
		AddData(Hash160(redeemBytecode)).AddOp(OP_EQUAL).Script()
}

// PayToScriptHash32 returns the P2SH32 locking bytecode committing to
// redeemBytecode.
func PayToScriptHash32(redeemBytecode []byte) ([]byte, error) {
	return NewScriptBuilder().AddOp(OP_HASH256).
		AddData(chainhash.DoubleHashB(redeemBytecode)).AddOp(OP_EQUAL).Script()
}

// MultiSigScript returns a bare multisig bytecode requiring nRequired of the
// serialized public keys to sign.
func MultiSigScript(pubKeys [][]byte, nRequired int) ([]byte, error) {
	if len(pubKeys) < nRequired {
		str := fmt.Sprintf("unable to generate multisig script with "+
			"%d required signatures when there are only %d public "+
			"keys available", nRequired, len(pubKeys))
		return nil, ErrScriptNotCanonical(str)
	}

	builder := NewScriptBuilder().AddInt64(int64(nRequired))
	for _, key := range pubKeys {
		builder.AddData(key)
	}
	builder.AddInt64(int64(len(pubKeys)))
	builder.AddOp(OP_CHECKMULTISIG)

	return builder.Script()
}
