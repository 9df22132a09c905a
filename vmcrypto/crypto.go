// Package vmcrypto provides the hashing and signature verification
// primitives consumed by the virtual machine.
package vmcrypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
	"golang.org/x/crypto/ripemd160"
)

// Crypto is the capability the virtual machine uses for hashing and
// signature verification.  Implementations must be safe for concurrent use.
type Crypto interface {
	Ripemd160(b []byte) []byte
	Sha1(b []byte) []byte
	Sha256(b []byte) []byte

	// VerifySignatureSchnorr verifies a 64-byte BCH Schnorr signature.
	VerifySignatureSchnorr(sig, publicKey, messageHash []byte) bool

	// VerifySignatureDERLowS verifies a DER-encoded ECDSA signature whose
	// S value is in the lower half of the curve order.
	VerifySignatureDERLowS(sig, publicKey, messageHash []byte) bool
}

type defaultCrypto struct{}

// Default returns the built-in Crypto implementation.
func Default() Crypto {
	return defaultCrypto{}
}

func (defaultCrypto) Ripemd160(b []byte) []byte {
	h := ripemd160.New()
	h.Write(b)
	return h.Sum(nil)
}

func (defaultCrypto) Sha1(b []byte) []byte {
	sum := sha1.Sum(b)
	return sum[:]
}

func (defaultCrypto) Sha256(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

// HalfOrder is half the secp256k1 group order, the largest S a low-S ECDSA
// signature may carry.
var HalfOrder = new(big.Int).Rsh(btcec.S256().N, 1)

func (defaultCrypto) VerifySignatureDERLowS(sig, publicKey, messageHash []byte) bool {
	signature, err := btcec.ParseDERSignature(sig, btcec.S256())
	if err != nil {
		return false
	}
	if signature.S.Cmp(HalfOrder) > 0 {
		return false
	}
	pub, err := btcec.ParsePubKey(publicKey, btcec.S256())
	if err != nil {
		return false
	}
	return signature.Verify(messageHash, pub)
}

func (defaultCrypto) VerifySignatureSchnorr(sig, publicKey, messageHash []byte) bool {
	pub, err := btcec.ParsePubKey(publicKey, btcec.S256())
	if err != nil {
		return false
	}
	return verifySchnorr(sig, pub, messageHash)
}

// Hash160 returns RIPEMD160(SHA256(b)) using c.
func Hash160(c Crypto, b []byte) []byte {
	return c.Ripemd160(c.Sha256(b))
}

// Hash256 returns SHA256(SHA256(b)) using c.
func Hash256(c Crypto, b []byte) []byte {
	return c.Sha256(c.Sha256(b))
}
