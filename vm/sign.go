// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/btcsuite/btcd/btcec"
	"github.com/cashvm/authvm/txscript"
	"github.com/cashvm/authvm/vmcrypto"
	"github.com/pkg/errors"
)

// maxSignableMultisigKeys is the largest key count a multisig bytecode can
// express with a small integer opcode.
const maxSignableMultisigKeys = 16

// KeyDB is an interface type provided to SignInput, it encapsulates any user
// state required to get the private key for a public key hash.
type KeyDB interface {
	GetKey(pubKeyHash []byte) (*btcec.PrivateKey, error)
}

// KeyClosure implements KeyDB with a closure.
type KeyClosure func(pubKeyHash []byte) (*btcec.PrivateKey, error)

// GetKey implements KeyDB by returning the result of calling the closure.
func (kc KeyClosure) GetKey(pubKeyHash []byte) (*btcec.PrivateKey, error) {
	return kc(pubKeyHash)
}

// ScriptDB is an interface type provided to SignInput, it encapsulates any
// user state required to get the redeem bytecode of a pay-to-script-hash
// output.
type ScriptDB interface {
	GetScript(scriptHash []byte) ([]byte, error)
}

// ScriptClosure implements ScriptDB with a closure.
type ScriptClosure func(scriptHash []byte) ([]byte, error)

// GetScript implements ScriptDB by returning the result of calling the closure.
func (sc ScriptClosure) GetScript(scriptHash []byte) ([]byte, error) {
	return sc(scriptHash)
}

// RawInputSignature returns the serialized signature for the program's input
// with the hash type appended to it.  The signature covers coveredBytecode.
// Schnorr signatures are produced when schnorr is set, otherwise low-S DER
// ECDSA signatures.
func RawInputSignature(p *Program, coveredBytecode []byte, hashType SigHashType,
	key *btcec.PrivateKey, schnorr bool) ([]byte, error) {

	digest := SignatureDigest(nil, p, coveredBytecode, hashType)
	var sig []byte
	if schnorr {
		var err error
		sig, err = vmcrypto.SignSchnorr(key, digest)
		if err != nil {
			return nil, errors.Wrap(err, "cannot sign input")
		}
	} else {
		signature, err := key.Sign(digest)
		if err != nil {
			return nil, errors.Wrap(err, "cannot sign input")
		}
		sig = signature.Serialize()
	}
	return append(sig, byte(hashType)), nil
}

// multiSigKeys returns the required signature count and public keys of a
// standard multisig bytecode.
func multiSigKeys(bytecode []byte) (int, [][]byte, error) {
	instructions := txscript.DecodeInstructions(bytecode)
	if txscript.InstructionsAreMalformed(instructions) || len(instructions) < 4 {
		return 0, nil, errors.New("malformed multisig bytecode")
	}
	first := instructions[0].Op()
	if first < txscript.OP_1 || first > txscript.OP_16 {
		return 0, nil, errors.New("multisig bytecode does not start with a count")
	}
	var keys [][]byte
	for _, ins := range instructions[1 : len(instructions)-2] {
		keys = append(keys, ins.(*txscript.ValidInstruction).Data)
	}
	return int(first-txscript.OP_1) + 1, keys, nil
}

// SignMultiSig returns the unlocking pushes for a multisig bytecode: the
// dummy item followed by nRequired signatures in key order.  ECDSA
// signatures use an empty dummy; Schnorr signatures use a bitfield dummy
// selecting the signing keys.
func SignMultiSig(p *Program, coveredBytecode []byte, hashType SigHashType,
	pubKeys [][]byte, nRequired int, kdb KeyDB, schnorr bool) ([]byte, error) {

	var sigs [][]byte
	bitfield := make([]byte, (len(pubKeys)+7)/8)
	for i, pubKey := range pubKeys {
		if len(sigs) == nRequired {
			break
		}
		key, err := kdb.GetKey(txscript.Hash160(pubKey))
		if err != nil {
			continue
		}
		sig, err := RawInputSignature(p, coveredBytecode, hashType, key, schnorr)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
		bitfield[i/8] |= 1 << uint(i%8)
	}
	if len(sigs) < nRequired {
		return nil, errors.Errorf("signed %d of %d required signatures", len(sigs), nRequired)
	}

	builder := txscript.NewScriptBuilder()
	if schnorr {
		builder.AddData(bitfield)
	} else {
		builder.AddOp(txscript.OP_0)
	}
	for _, sig := range sigs {
		builder.AddData(sig)
	}
	return builder.Script()
}

// sign returns the unlocking pushes satisfying lockingBytecode.  The
// signatures cover lockingBytecode, which is the redeem bytecode when
// signing for a pay-to-script-hash output.
func sign(p *Program, lockingBytecode []byte, hashType SigHashType, kdb KeyDB, schnorr bool) ([]byte, error) {
	switch {
	case txscript.IsPayToPublicKeyHash(lockingBytecode):
		key, err := kdb.GetKey(lockingBytecode[3:23])
		if err != nil {
			return nil, err
		}
		sig, err := RawInputSignature(p, lockingBytecode, hashType, key, schnorr)
		if err != nil {
			return nil, err
		}
		return txscript.NewScriptBuilder().AddData(sig).
			AddData(key.PubKey().SerializeCompressed()).Script()

	case txscript.IsPayToPublicKey(lockingBytecode):
		pubKey := lockingBytecode[1 : len(lockingBytecode)-1]
		key, err := kdb.GetKey(txscript.Hash160(pubKey))
		if err != nil {
			return nil, err
		}
		sig, err := RawInputSignature(p, lockingBytecode, hashType, key, schnorr)
		if err != nil {
			return nil, err
		}
		return txscript.NewScriptBuilder().AddData(sig).Script()

	case txscript.IsStandardMultisig(lockingBytecode, maxSignableMultisigKeys):
		nRequired, pubKeys, err := multiSigKeys(lockingBytecode)
		if err != nil {
			return nil, err
		}
		return SignMultiSig(p, lockingBytecode, hashType, pubKeys, nRequired, kdb, schnorr)

	case txscript.IsArbitraryDataOutput(lockingBytecode):
		return nil, errors.New("can't sign data carrier outputs")
	}
	return nil, errors.New("can't sign unknown locking bytecode")
}

// SignInput returns unlocking bytecode satisfying the source output of the
// program's input.  Pay-to-script-hash outputs are signed using the redeem
// bytecode from sdb, which is appended as the last push.
func SignInput(p *Program, hashType SigHashType, kdb KeyDB, sdb ScriptDB, schnorr bool) ([]byte, error) {
	if p.InputIndex < 0 || p.InputIndex >= len(p.SourceOutputs) {
		return nil, errors.Errorf("input index %d out of range", p.InputIndex)
	}
	lockingBytecode := p.SourceOutputs[p.InputIndex].LockingBytecode

	var scriptHash []byte
	switch {
	case txscript.IsPayToScriptHash20(lockingBytecode):
		scriptHash = lockingBytecode[2:22]
	case txscript.IsPayToScriptHash32(lockingBytecode):
		scriptHash = lockingBytecode[2:34]
	default:
		return sign(p, lockingBytecode, hashType, kdb, schnorr)
	}

	if sdb == nil {
		return nil, errors.New("pay-to-script-hash output requires a script database")
	}
	redeemBytecode, err := sdb.GetScript(scriptHash)
	if err != nil {
		return nil, err
	}
	unlocking, err := sign(p, redeemBytecode, hashType, kdb, schnorr)
	if err != nil {
		return nil, errors.Wrap(err, "cannot sign redeem bytecode")
	}
	redeemPush, err := txscript.NewScriptBuilder().AddData(redeemBytecode).Script()
	if err != nil {
		return nil, err
	}
	return append(unlocking, redeemPush...), nil
}
