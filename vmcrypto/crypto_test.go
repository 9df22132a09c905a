package vmcrypto

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *btcec.PrivateKey {
	seed := sha256.Sum256([]byte("vmcrypto test key"))
	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), seed[:])
	return priv
}

func TestHashes(t *testing.T) {
	c := Default()
	assert.Equal(t, "9c1185a5c5e9fc54612808977ee8f548b2258d31", hex.EncodeToString(c.Ripemd160(nil)))
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", hex.EncodeToString(c.Sha1(nil)))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hex.EncodeToString(c.Sha256(nil)))
	assert.Equal(t, "b472a266d0bd89c13706a4132ccfb16f7c3b9fcb", hex.EncodeToString(Hash160(c, nil)))
	assert.Equal(t, "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456", hex.EncodeToString(Hash256(c, nil)))
}

func TestVerifySignatureDERLowS(t *testing.T) {
	c := Default()
	priv := testKey(t)
	hash := sha256.Sum256([]byte("message"))

	sig, err := priv.Sign(hash[:])
	require.NoError(t, err)
	der := sig.Serialize()
	pub := priv.PubKey().SerializeCompressed()

	assert.True(t, c.VerifySignatureDERLowS(der, pub, hash[:]))
	assert.True(t, c.VerifySignatureDERLowS(der, priv.PubKey().SerializeUncompressed(), hash[:]))

	other := sha256.Sum256([]byte("other"))
	assert.False(t, c.VerifySignatureDERLowS(der, pub, other[:]))

	// The same signature with S replaced by N - S is valid ECDSA but not
	// low-S.
	highS := &btcec.Signature{R: sig.R, S: new(big.Int).Sub(btcec.S256().N, sig.S)}
	assert.False(t, c.VerifySignatureDERLowS(serializeRaw(highS), pub, hash[:]))

	assert.False(t, c.VerifySignatureDERLowS([]byte{0x30, 0x00}, pub, hash[:]))
	assert.False(t, c.VerifySignatureDERLowS(der, []byte{0x02}, hash[:]))
}

// serializeRaw DER-encodes a signature without normalizing S.
func serializeRaw(sig *btcec.Signature) []byte {
	encode := func(b []byte) []byte {
		if len(b) > 0 && b[0]&0x80 != 0 {
			b = append([]byte{0x00}, b...)
		}
		return append([]byte{0x02, byte(len(b))}, b...)
	}
	r := encode(sig.R.Bytes())
	s := encode(sig.S.Bytes())
	out := []byte{0x30, byte(len(r) + len(s))}
	out = append(out, r...)
	return append(out, s...)
}

func TestSchnorr(t *testing.T) {
	c := Default()
	priv := testKey(t)
	pub := priv.PubKey().SerializeCompressed()
	hash := sha256.Sum256([]byte("message"))

	sig, err := SignSchnorr(priv, hash[:])
	require.NoError(t, err)
	require.Len(t, sig, SchnorrSignatureLength)
	assert.True(t, c.VerifySignatureSchnorr(sig, pub, hash[:]))
	assert.True(t, c.VerifySignatureSchnorr(sig, priv.PubKey().SerializeUncompressed(), hash[:]))

	again, err := SignSchnorr(priv, hash[:])
	require.NoError(t, err)
	assert.Equal(t, sig, again)

	other := sha256.Sum256([]byte("other"))
	assert.False(t, c.VerifySignatureSchnorr(sig, pub, other[:]))

	tampered := append([]byte{}, sig...)
	tampered[63] ^= 0x01
	assert.False(t, c.VerifySignatureSchnorr(tampered, pub, hash[:]))

	// r >= p and s >= n are rejected outright.
	overflow := append([]byte{}, sig...)
	for i := 32; i < 64; i++ {
		overflow[i] = 0xff
	}
	assert.False(t, c.VerifySignatureSchnorr(overflow, pub, hash[:]))
	assert.False(t, c.VerifySignatureSchnorr(sig[:63], pub, hash[:]))
}

type countingCrypto struct {
	Crypto
	calls int
}

func (c *countingCrypto) VerifySignatureSchnorr(sig, publicKey, messageHash []byte) bool {
	c.calls++
	return c.Crypto.VerifySignatureSchnorr(sig, publicKey, messageHash)
}

func TestCachingCrypto(t *testing.T) {
	inner := &countingCrypto{Crypto: Default()}
	c := NewCachingCrypto(inner, 10, time.Minute)

	priv := testKey(t)
	pub := priv.PubKey().SerializeCompressed()
	hash := sha256.Sum256([]byte("message"))
	sig, err := SignSchnorr(priv, hash[:])
	require.NoError(t, err)

	assert.True(t, c.VerifySignatureSchnorr(sig, pub, hash[:]))
	assert.True(t, c.VerifySignatureSchnorr(sig, pub, hash[:]))
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, c.Len())

	// Failures are not cached.
	other := sha256.Sum256([]byte("other"))
	assert.False(t, c.VerifySignatureSchnorr(sig, pub, other[:]))
	assert.False(t, c.VerifySignatureSchnorr(sig, pub, other[:]))
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 1, c.Len())

	// Hashes pass through to the wrapped implementation.
	assert.Equal(t, Default().Sha256([]byte("x")), c.Sha256([]byte("x")))
}
