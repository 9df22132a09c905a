package vmcrypto

import (
	"crypto/sha256"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
	"github.com/pkg/errors"
)

// SchnorrSignatureLength is the length of a BCH Schnorr signature without a
// signature hash type byte.
const SchnorrSignatureLength = 64

func schnorrChallenge(rx []byte, pub *btcec.PublicKey, messageHash []byte) *big.Int {
	h := sha256.New()
	h.Write(rx)
	h.Write(pub.SerializeCompressed())
	h.Write(messageHash)
	e := new(big.Int).SetBytes(h.Sum(nil))
	return e.Mod(e, btcec.S256().N)
}

func isQuadraticResidue(y *big.Int) bool {
	return big.Jacobi(y, btcec.S256().P) == 1
}

// verifySchnorr checks sig = r || s against pub: with
// e = H(r || P || m) mod n, the point R = sG - eP must not be infinity, must
// have a y coordinate that is a quadratic residue and an x coordinate equal
// to r.
func verifySchnorr(sig []byte, pub *btcec.PublicKey, messageHash []byte) bool {
	if len(sig) != SchnorrSignatureLength {
		return false
	}
	curve := btcec.S256()

	r := new(big.Int).SetBytes(sig[:32])
	if r.Cmp(curve.P) >= 0 {
		return false
	}
	s := new(big.Int).SetBytes(sig[32:])
	if s.Cmp(curve.N) >= 0 {
		return false
	}

	e := schnorrChallenge(sig[:32], pub, messageHash)
	negE := new(big.Int).Sub(curve.N, e)
	negE.Mod(negE, curve.N)

	sGx, sGy := curve.ScalarBaseMult(s.Bytes())
	ePx, ePy := curve.ScalarMult(pub.X, pub.Y, negE.Bytes())
	rx, ry := curve.Add(sGx, sGy, ePx, ePy)

	if rx.Sign() == 0 && ry.Sign() == 0 {
		return false
	}
	if !isQuadraticResidue(ry) {
		return false
	}
	return rx.Cmp(r) == 0
}

// SignSchnorr produces a BCH Schnorr signature of messageHash.  The nonce is
// derived from the private key and message, so signing is deterministic.
func SignSchnorr(priv *btcec.PrivateKey, messageHash []byte) ([]byte, error) {
	curve := btcec.S256()
	d := priv.D

	h := sha256.New()
	h.Write(padScalar(d))
	h.Write(messageHash)
	k := new(big.Int).SetBytes(h.Sum(nil))
	k.Mod(k, curve.N)
	if k.Sign() == 0 {
		return nil, errors.New("schnorr nonce is zero")
	}

	rx, ry := curve.ScalarBaseMult(padScalar(k))
	if !isQuadraticResidue(ry) {
		k.Sub(curve.N, k)
	}

	rBytes := padScalar(rx)
	e := schnorrChallenge(rBytes, priv.PubKey(), messageHash)
	s := new(big.Int).Mul(e, d)
	s.Add(s, k)
	s.Mod(s, curve.N)

	sig := make([]byte, 0, SchnorrSignatureLength)
	sig = append(sig, rBytes...)
	return append(sig, padScalar(s)...), nil
}

func padScalar(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= 32 {
		return b
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}
