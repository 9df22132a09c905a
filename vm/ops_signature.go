package vm

import (
	"math/big"
)

// verifyTransactionSignature checks an encoded transaction signature against
// a public key.  Empty signatures never verify.
func (c *opContext) verifyTransactionSignature(s *ProgramState, sig, pubKey []byte) (bool, *ScriptError) {
	if err := checkPublicKey(pubKey); err != nil {
		return false, err
	}
	if len(sig) == 0 {
		return false, nil
	}
	t, schnorr, err := c.checkTransactionSignature(sig)
	if err != nil {
		return false, err
	}
	digest := signatureDigest(c.crypto, s, t)
	body := sig[:len(sig)-1]
	if schnorr {
		return c.crypto.VerifySignatureSchnorr(body, pubKey, digest), nil
	}
	return c.crypto.VerifySignatureDERLowS(body, pubKey, digest), nil
}

func (c *opContext) opCheckSig(s *ProgramState) *ProgramState {
	items, ok := s.pop(2)
	if !ok {
		return s
	}
	sig, pubKey := items[0], items[1]

	valid, err := c.verifyTransactionSignature(s, sig, pubKey)
	if err != nil {
		return s.fail(err)
	}
	if len(sig) > 0 {
		s.Metrics.SignatureCheckCount++
		if !valid {
			return s.fail(scriptError(ErrNonNullSignatureFailure))
		}
	}
	s.pushBool(valid)
	return s
}

func (c *opContext) opCheckSigVerify(s *ProgramState) *ProgramState {
	s = c.opCheckSig(s)
	if s.Error != nil {
		return s
	}
	return opVerify(s)
}

// opCheckDataSig verifies a signature over the SHA-256 of an arbitrary
// message.  Data signatures carry no signing serialization type.
func (c *opContext) opCheckDataSig(s *ProgramState) *ProgramState {
	items, ok := s.pop(3)
	if !ok {
		return s
	}
	sig, message, pubKey := items[0], items[1], items[2]

	if err := checkPublicKey(pubKey); err != nil {
		return s.fail(err)
	}
	if len(sig) == 0 {
		s.pushBool(false)
		return s
	}
	schnorr, err := checkSignatureBody(sig, schnorrTransactionSignatureLength-1)
	if err != nil {
		return s.fail(err)
	}

	digest := c.crypto.Sha256(message)
	var valid bool
	if schnorr {
		valid = c.crypto.VerifySignatureSchnorr(sig, pubKey, digest)
	} else {
		valid = c.crypto.VerifySignatureDERLowS(sig, pubKey, digest)
	}
	s.Metrics.SignatureCheckCount++
	if !valid {
		return s.fail(scriptError(ErrNonNullSignatureFailure))
	}
	s.pushBool(true)
	return s
}

func (c *opContext) opCheckDataSigVerify(s *ProgramState) *ProgramState {
	s = c.opCheckDataSig(s)
	if s.Error != nil {
		return s
	}
	return opVerify(s)
}

// popMultiSigOperands pops the operands of OP_CHECKMULTISIG:
//
//   <dummy> <sig 1> ... <sig m> <m> <key 1> ... <key n> <n>
//
// Keys and signatures are returned in the order they were pushed.
func (c *opContext) popMultiSigOperands(s *ProgramState) (dummy []byte, sigs, keys [][]byte, ok bool) {
	n, ok := c.popNumber(s)
	if !ok {
		return nil, nil, nil, false
	}
	if n.Sign() < 0 || n.Cmp(big.NewInt(int64(c.params.MaximumPublicKeys))) > 0 {
		s.fail(scriptErrorf(ErrInvalidPublicKeyCount, "Count: %s.", n.String()))
		return nil, nil, nil, false
	}
	keyCount := int(n.Int64())
	s.OperationCount += keyCount

	if keys, ok = s.pop(keyCount); !ok {
		return nil, nil, nil, false
	}

	m, ok := c.popNumber(s)
	if !ok {
		return nil, nil, nil, false
	}
	if m.Sign() < 0 || m.Cmp(n) > 0 {
		s.fail(scriptErrorf(ErrInvalidSignatureCount, "Count: %s, public keys: %d.",
			m.String(), keyCount))
		return nil, nil, nil, false
	}

	if sigs, ok = s.pop(int(m.Int64())); !ok {
		return nil, nil, nil, false
	}
	rest, ok := s.pop(1)
	if !ok {
		return nil, nil, nil, false
	}
	return rest[0], sigs, keys, true
}

// opCheckMultiSig verifies m of n signatures.  An empty dummy item selects
// ECDSA mode, where signatures must appear in the same order as their keys.
// A non-empty dummy is a bitfield selecting which keys are used with
// Schnorr signatures.
func (c *opContext) opCheckMultiSig(s *ProgramState) *ProgramState {
	dummy, sigs, keys, ok := c.popMultiSigOperands(s)
	if !ok {
		return s
	}
	if len(dummy) == 0 {
		return c.checkMultiSigECDSA(s, sigs, keys)
	}
	return c.checkMultiSigSchnorr(s, dummy, sigs, keys)
}

func (c *opContext) checkMultiSigECDSA(s *ProgramState, sigs, keys [][]byte) *ProgramState {
	anyNonEmpty := false
	for _, sig := range sigs {
		if len(sig) == schnorrTransactionSignatureLength {
			return s.fail(scriptError(ErrSchnorrSizedSignatureInCheckMultiSig))
		}
		if len(sig) > 0 {
			anyNonEmpty = true
		}
	}

	// Matching starts from the last pushed signature and key.
	matched, k := 0, 0
	for matched < len(sigs) {
		// Too few keys remain to match the remaining signatures.
		if len(keys)-k < len(sigs)-matched {
			break
		}
		sig, key := sigs[len(sigs)-1-matched], keys[len(keys)-1-k]
		valid, err := c.verifyTransactionSignature(s, sig, key)
		if err != nil {
			return s.fail(err)
		}
		if valid {
			matched++
		}
		k++
	}
	success := matched == len(sigs)

	if anyNonEmpty {
		s.Metrics.SignatureCheckCount += len(keys)
		if !success {
			return s.fail(scriptError(ErrNonNullSignatureFailure))
		}
	}
	s.pushBool(success)
	return s
}

func (c *opContext) checkMultiSigSchnorr(s *ProgramState, bitfield []byte, sigs, keys [][]byte) *ProgramState {
	if len(bitfield) != (len(keys)+7)/8 {
		return s.fail(scriptErrorf(ErrInvalidSchnorrBitfield, "Bitfield length: %d, public keys: %d.",
			len(bitfield), len(keys)))
	}
	var selected []int
	for i := 0; i < len(bitfield)*8; i++ {
		if bitfield[i/8]&(1<<uint(i%8)) == 0 {
			continue
		}
		if i >= len(keys) {
			return s.fail(scriptErrorf(ErrInvalidSchnorrBitfield, "Bit %d is set with %d public keys.",
				i, len(keys)))
		}
		selected = append(selected, i)
	}
	if len(selected) != len(sigs) {
		return s.fail(scriptErrorf(ErrInvalidSchnorrBitfield, "Bits set: %d, signatures: %d.",
			len(selected), len(sigs)))
	}

	for i, key := range selected {
		sig := sigs[i]
		if len(sig) != schnorrTransactionSignatureLength {
			return s.fail(scriptErrorf(ErrNonSchnorrSignatureInBitfieldMode, "Signature length: %d.", len(sig)))
		}
		valid, err := c.verifyTransactionSignature(s, sig, keys[key])
		if err != nil {
			return s.fail(err)
		}
		if !valid {
			return s.fail(scriptError(ErrNonNullSignatureFailure))
		}
	}
	s.Metrics.SignatureCheckCount += len(sigs)
	s.pushBool(true)
	return s
}

func (c *opContext) opCheckMultiSigVerify(s *ProgramState) *ProgramState {
	s = c.opCheckMultiSig(s)
	if s.Error != nil {
		return s
	}
	return opVerify(s)
}
