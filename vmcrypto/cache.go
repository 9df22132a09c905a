package vmcrypto

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachingCrypto wraps a Crypto and remembers successful signature
// verifications.  Failed verifications are never cached, so an entry can only
// save work for a signature that is known to be valid.
type CachingCrypto struct {
	Crypto
	sigCache   *cache.Cache
	maxEntries int
}

// NewCachingCrypto returns a CachingCrypto around inner.  Entries expire after
// expiry; at most maxEntries are held at once.
func NewCachingCrypto(inner Crypto, maxEntries int, expiry time.Duration) *CachingCrypto {
	return &CachingCrypto{
		Crypto:     inner,
		sigCache:   cache.New(expiry, 2*expiry),
		maxEntries: maxEntries,
	}
}

func sigCacheKey(kind string, sig, publicKey, messageHash []byte) string {
	var b strings.Builder
	b.Grow(len(kind) + 2*(len(sig)+len(publicKey)+len(messageHash)) + 3)
	b.WriteString(kind)
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(sig))
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(publicKey))
	b.WriteByte(':')
	b.WriteString(hex.EncodeToString(messageHash))
	return b.String()
}

func (c *CachingCrypto) lookup(key string, verify func() bool) bool {
	if _, found := c.sigCache.Get(key); found {
		return true
	}
	if !verify() {
		return false
	}
	if c.maxEntries <= 0 || c.sigCache.ItemCount() < c.maxEntries {
		c.sigCache.SetDefault(key, struct{}{})
	}
	return true
}

// VerifySignatureSchnorr implements Crypto.
func (c *CachingCrypto) VerifySignatureSchnorr(sig, publicKey, messageHash []byte) bool {
	key := sigCacheKey("schnorr", sig, publicKey, messageHash)
	return c.lookup(key, func() bool {
		return c.Crypto.VerifySignatureSchnorr(sig, publicKey, messageHash)
	})
}

// VerifySignatureDERLowS implements Crypto.
func (c *CachingCrypto) VerifySignatureDERLowS(sig, publicKey, messageHash []byte) bool {
	key := sigCacheKey("ecdsa", sig, publicKey, messageHash)
	return c.lookup(key, func() bool {
		return c.Crypto.VerifySignatureDERLowS(sig, publicKey, messageHash)
	})
}

// Len returns the number of cached verifications.
func (c *CachingCrypto) Len() int {
	return c.sigCache.ItemCount()
}
