package wire

import (
	"bytes"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	btcwire "github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// TokenPrefixByte marks the start of a token prefix inside an output's
// locking field.
const TokenPrefixByte = 0xef

// Token bitfield flags.
const (
	tokenReserved            = 0x80
	tokenHasCommitmentLength = 0x40
	tokenHasNFT              = 0x20
	tokenHasAmount           = 0x10
	tokenCapabilityMask      = 0x0f
)

// TokenCapability is the capability of a non-fungible token.
type TokenCapability byte

const (
	// CapabilityNone marks an immutable non-fungible token.
	CapabilityNone TokenCapability = iota

	// CapabilityMutable allows the commitment to be changed when spent.
	CapabilityMutable

	// CapabilityMinting allows new tokens of the category to be created.
	CapabilityMinting
)

var capabilityNames = map[TokenCapability]string{
	CapabilityNone:    "none",
	CapabilityMutable: "mutable",
	CapabilityMinting: "minting",
}

func (c TokenCapability) String() string {
	if s, ok := capabilityNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Unknown TokenCapability (%d)", int(c))
}

// NonFungibleToken is the NFT part of a token.
type NonFungibleToken struct {
	Capability TokenCapability
	Commitment []byte
}

// Token holds the CashTokens carried by an output.  Amount is zero for
// outputs that only hold an NFT.
type Token struct {
	Category chainhash.Hash
	Amount   uint64
	NFT      *NonFungibleToken
}

// Copy returns a deep copy of the token.
func (t *Token) Copy() *Token {
	c := &Token{Category: t.Category, Amount: t.Amount}
	if t.NFT != nil {
		c.NFT = &NonFungibleToken{
			Capability: t.NFT.Capability,
			Commitment: copyBytes(t.NFT.Commitment),
		}
	}
	return c
}

func (t *Token) bitfield() byte {
	var b byte
	if t.NFT != nil {
		b |= tokenHasNFT | byte(t.NFT.Capability)
		if len(t.NFT.Commitment) > 0 {
			b |= tokenHasCommitmentLength
		}
	}
	if t.Amount > 0 {
		b |= tokenHasAmount
	}
	return b
}

// PrefixSize returns the serialized length of the token prefix.
func (t *Token) PrefixSize() int {
	n := 1 + chainhash.HashSize + 1
	if t.NFT != nil && len(t.NFT.Commitment) > 0 {
		n += btcwire.VarIntSerializeSize(uint64(len(t.NFT.Commitment))) +
			len(t.NFT.Commitment)
	}
	if t.Amount > 0 {
		n += btcwire.VarIntSerializeSize(t.Amount)
	}
	return n
}

// Prefix returns the token prefix as it appears in front of the locking
// bytecode.
func (t *Token) Prefix() []byte {
	// Writes to a bytes.Buffer cannot fail.
	var buf bytes.Buffer
	buf.Grow(t.PrefixSize())
	buf.WriteByte(TokenPrefixByte)
	buf.Write(t.Category[:])
	buf.WriteByte(t.bitfield())
	if t.NFT != nil && len(t.NFT.Commitment) > 0 {
		_ = btcwire.WriteVarBytes(&buf, pver, t.NFT.Commitment)
	}
	if t.Amount > 0 {
		_ = btcwire.WriteVarInt(&buf, pver, t.Amount)
	}
	return buf.Bytes()
}

// decodeTokenPrefix splits a locking field that begins with TokenPrefixByte
// into its token and the remaining locking bytecode.
func decodeTokenPrefix(field []byte) (*Token, []byte, error) {
	if len(field) < 1+chainhash.HashSize+1 {
		return nil, nil, errors.New("token prefix is too short to contain a category and bitfield")
	}
	token := new(Token)
	copy(token.Category[:], field[1:1+chainhash.HashSize])
	bitfield := field[1+chainhash.HashSize]
	r := bytes.NewReader(field[2+chainhash.HashSize:])
	if bitfield&tokenReserved != 0 {
		return nil, nil, errors.Errorf("token prefix uses reserved bit [bitfield 0x%02x]", bitfield)
	}
	capability := TokenCapability(bitfield & tokenCapabilityMask)
	hasNFT := bitfield&tokenHasNFT != 0
	if capability > CapabilityMinting {
		return nil, nil, errors.Errorf("token prefix has invalid capability %d", capability)
	}
	if !hasNFT && (capability != CapabilityNone || bitfield&tokenHasCommitmentLength != 0) {
		return nil, nil, errors.New("token prefix has NFT fields but no NFT")
	}
	if !hasNFT && bitfield&tokenHasAmount == 0 {
		return nil, nil, errors.New("token prefix encodes no tokens")
	}
	if hasNFT {
		token.NFT = &NonFungibleToken{Capability: capability}
		if bitfield&tokenHasCommitmentLength != 0 {
			commitment, err := btcwire.ReadVarBytes(r, pver, maxBytecodeAlloc, "token commitment")
			if err != nil {
				return nil, nil, errors.Wrap(err, "read token commitment")
			}
			if len(commitment) == 0 {
				return nil, nil, errors.New("token prefix declares an empty commitment")
			}
			token.NFT.Commitment = commitment
		}
	}
	if bitfield&tokenHasAmount != 0 {
		amount, err := btcwire.ReadVarInt(r, pver)
		if err != nil {
			return nil, nil, errors.Wrap(err, "read token amount")
		}
		if amount == 0 || amount > math.MaxInt64 {
			return nil, nil, errors.Errorf("token amount %d is out of range", amount)
		}
		token.Amount = amount
	}
	rest := field[len(field)-r.Len():]
	return token, copyBytes(rest), nil
}
