// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vm

import (
	"math/big"

	"github.com/cashvm/authvm/vmcrypto"
)

// schnorrTransactionSignatureLength is a Schnorr signature followed by its
// signing serialization type.
const schnorrTransactionSignatureLength = vmcrypto.SchnorrSignatureLength + 1

// isValidPublicKeyEncoding accepts compressed and uncompressed secp256k1
// public keys.
func isValidPublicKeyEncoding(pubKey []byte) bool {
	switch len(pubKey) {
	case 33:
		return pubKey[0] == 0x02 || pubKey[0] == 0x03
	case 65:
		return pubKey[0] == 0x04
	}
	return false
}

// isStrictDER reports whether sig (without a signing serialization type) is
// a strictly encoded DER signature:
//
//   0x30 <total length> 0x02 <length of R> <R> 0x02 <length of S> <S>
//
// R and S are positive big-endian integers without unnecessary leading zero
// bytes.
func isStrictDER(sig []byte) bool {
	if len(sig) < 8 || len(sig) > 72 {
		return false
	}
	if sig[0] != 0x30 || int(sig[1]) != len(sig)-2 {
		return false
	}

	lenR := int(sig[3])
	if 5+lenR >= len(sig) {
		return false
	}
	lenS := int(sig[5+lenR])
	if lenR+lenS+6 != len(sig) {
		return false
	}

	if sig[2] != 0x02 || lenR == 0 {
		return false
	}
	if sig[4]&0x80 != 0 {
		return false
	}
	if lenR > 1 && sig[4] == 0x00 && sig[5]&0x80 == 0 {
		return false
	}

	if sig[lenR+4] != 0x02 || lenS == 0 {
		return false
	}
	if sig[lenR+6]&0x80 != 0 {
		return false
	}
	if lenS > 1 && sig[lenR+6] == 0x00 && sig[lenR+7]&0x80 == 0 {
		return false
	}
	return true
}

// isLowS reports whether the S value of a strict DER signature is at most
// half the curve order.
func isLowS(sig []byte) bool {
	lenR := int(sig[3])
	s := new(big.Int).SetBytes(sig[lenR+6:])
	return s.Cmp(vmcrypto.HalfOrder) <= 0
}

// checkSignatureBody validates a signature without its signing
// serialization type.  Signatures of exactly schnorrLength bytes are Schnorr
// signatures; anything else must be strict DER with a low S.
func checkSignatureBody(sig []byte, schnorrLength int) (schnorr bool, err *ScriptError) {
	if len(sig) == schnorrLength {
		return true, nil
	}
	if !isStrictDER(sig) {
		return false, scriptErrorf(ErrInvalidSignatureEncoding, "Signature: 0x%x.", sig)
	}
	if !isLowS(sig) {
		return false, scriptErrorf(ErrInvalidSignatureEncoding, "Signature has a high S value: 0x%x.", sig)
	}
	return false, nil
}

// checkTransactionSignature validates a non-empty transaction signature and
// returns its signing serialization type.
func (c *opContext) checkTransactionSignature(sig []byte) (SigHashType, bool, *ScriptError) {
	body, t := sig[:len(sig)-1], SigHashType(sig[len(sig)-1])
	schnorr, err := checkSignatureBody(body, vmcrypto.SchnorrSignatureLength)
	if err != nil {
		return 0, false, err
	}
	if !validSigHashType(t, c.params.SigHashUtxos) {
		return 0, false, scriptErrorf(ErrInvalidSigHashType, "Type: 0x%02x.", byte(t))
	}
	return t, schnorr, nil
}

func checkPublicKey(pubKey []byte) *ScriptError {
	if !isValidPublicKeyEncoding(pubKey) {
		return scriptErrorf(ErrInvalidPublicKeyEncoding, "Public key: 0x%x.", pubKey)
	}
	return nil
}
