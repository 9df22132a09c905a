// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vm

import (
	"bytes"
	"encoding/binary"

	btcwire "github.com/btcsuite/btcd/wire"
	"github.com/cashvm/authvm/vmcrypto"
	"github.com/cashvm/authvm/wire"
)

// SigHashType represents the signing serialization type byte at the end of a
// transaction signature.
type SigHashType byte

// Hash type bits from the end of a signature.
const (
	SigHashAll          SigHashType = 0x1
	SigHashNone         SigHashType = 0x2
	SigHashSingle       SigHashType = 0x3
	SigHashUtxos        SigHashType = 0x20
	SigHashForkID       SigHashType = 0x40
	SigHashAnyOneCanPay SigHashType = 0x80

	// sigHashMask selects the bits which identify the signed outputs.
	sigHashMask = 0x1f

	// sigHashDefined is every bit with a meaning.
	sigHashDefined = sigHashMask | SigHashUtxos | SigHashForkID | SigHashAnyOneCanPay
)

func (t SigHashType) base() SigHashType {
	return t & sigHashMask
}

func (t SigHashType) anyoneCanPay() bool {
	return t&SigHashAnyOneCanPay != 0
}

func (t SigHashType) utxos() bool {
	return t&SigHashUtxos != 0
}

// validSigHashType reports whether t is a defined signing serialization
// type.  SIGHASH_UTXOS is only defined when sigHashUtxos is set.
func validSigHashType(t SigHashType, sigHashUtxos bool) bool {
	if t&^sigHashDefined != 0 || t&SigHashForkID == 0 {
		return false
	}
	if base := t.base(); base < SigHashAll || base > SigHashSingle {
		return false
	}
	if t.utxos() && (!sigHashUtxos || t.anyoneCanPay()) {
		return false
	}
	return true
}

var zeroHash [32]byte

// signingSerialization returns the message whose double SHA-256 is signed
// by a transaction signature.
func signingSerialization(c vmcrypto.Crypto, p *Program, coveredBytecode []byte, t SigHashType) []byte {
	tx := p.Transaction
	input := tx.Inputs[p.InputIndex]
	source := p.SourceOutputs[p.InputIndex]

	var buf bytes.Buffer
	var scratch [8]byte
	writeUint32 := func(v uint32) {
		binary.LittleEndian.PutUint32(scratch[:4], v)
		buf.Write(scratch[:4])
	}

	writeUint32(tx.Version)

	if t.anyoneCanPay() {
		buf.Write(zeroHash[:])
	} else {
		buf.Write(hashPrevouts(c, tx))
	}

	if t.utxos() {
		buf.Write(hashUtxos(c, p.SourceOutputs))
	}

	if !t.anyoneCanPay() && t.base() != SigHashSingle && t.base() != SigHashNone {
		buf.Write(hashSequence(c, tx))
	} else {
		buf.Write(zeroHash[:])
	}

	buf.Write(input.PreviousOutPoint.Hash[:])
	writeUint32(input.PreviousOutPoint.Index)

	if source.Token != nil {
		buf.Write(source.Token.Prefix())
	}
	// Writes to a bytes.Buffer cannot fail.
	_ = btcwire.WriteVarBytes(&buf, 0, coveredBytecode)

	binary.LittleEndian.PutUint64(scratch[:], source.Value)
	buf.Write(scratch[:])
	writeUint32(input.Sequence)

	switch {
	case t.base() != SigHashSingle && t.base() != SigHashNone:
		buf.Write(hashOutputs(c, tx.Outputs))
	case t.base() == SigHashSingle && p.InputIndex < len(tx.Outputs):
		buf.Write(hashOutputs(c, tx.Outputs[p.InputIndex:p.InputIndex+1]))
	default:
		buf.Write(zeroHash[:])
	}

	writeUint32(tx.LockTime)
	writeUint32(uint32(t))
	return buf.Bytes()
}

func hashPrevouts(c vmcrypto.Crypto, tx *wire.Transaction) []byte {
	var buf bytes.Buffer
	var index [4]byte
	for _, in := range tx.Inputs {
		buf.Write(in.PreviousOutPoint.Hash[:])
		binary.LittleEndian.PutUint32(index[:], in.PreviousOutPoint.Index)
		buf.Write(index[:])
	}
	return vmcrypto.Hash256(c, buf.Bytes())
}

func hashSequence(c vmcrypto.Crypto, tx *wire.Transaction) []byte {
	var buf bytes.Buffer
	var sequence [4]byte
	for _, in := range tx.Inputs {
		binary.LittleEndian.PutUint32(sequence[:], in.Sequence)
		buf.Write(sequence[:])
	}
	return vmcrypto.Hash256(c, buf.Bytes())
}

func hashOutputs(c vmcrypto.Crypto, outputs []*wire.Output) []byte {
	var buf bytes.Buffer
	for _, out := range outputs {
		buf.Write(out.Bytes())
	}
	return vmcrypto.Hash256(c, buf.Bytes())
}

func hashUtxos(c vmcrypto.Crypto, sourceOutputs []*wire.Output) []byte {
	return hashOutputs(c, sourceOutputs)
}

// signatureDigest returns the digest signed by a transaction signature of
// type t.  Digests are memoized per state, keyed by the type and the
// position of the last executed OP_CODESEPARATOR.
func signatureDigest(c vmcrypto.Crypto, s *ProgramState, t SigHashType) []byte {
	key := SignedMessageKey{SigHashType: t, LastCodeSeparator: s.LastCodeSeparator}
	if digest, ok := s.SignedMessages[key]; ok {
		return digest
	}
	serialization := signingSerialization(c, s.Program, s.coveredBytecode(), t)
	digest := vmcrypto.Hash256(c, serialization)
	s.SignedMessages[key] = digest
	return digest
}

// SignatureDigest returns the digest a signature of type t must sign for the
// program's input, given the bytecode the signature covers.
func SignatureDigest(c vmcrypto.Crypto, p *Program, coveredBytecode []byte, t SigHashType) []byte {
	if c == nil {
		c = vmcrypto.Default()
	}
	return vmcrypto.Hash256(c, signingSerialization(c, p, coveredBytecode, t))
}
