package vm

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cashvm/authvm/consensus"
	"github.com/cashvm/authvm/wire"
)

// categoryInputs summarizes the tokens of one category spent by a
// transaction.
type categoryInputs struct {
	fungible  *big.Int
	minting   bool
	mutable   int
	immutable map[string]int
}

func newCategoryInputs() *categoryInputs {
	return &categoryInputs{fungible: new(big.Int), immutable: map[string]int{}}
}

// checkTokens enforces the token rules of a transaction: every output token
// must either be created by a genesis input or be backed by the tokens its
// inputs spend.
func checkTokens(params *consensus.Params, tx *ResolvedTransaction) error {
	outputs := tx.Transaction.Outputs
	if !params.Tokens {
		for i, out := range outputs {
			if out.Token != nil {
				return ruleErrorf(ErrTokenValidation, "transaction output %d "+
					"carries a token before token activation", i)
			}
		}
		return nil
	}

	// Inputs spending the zeroth output of a transaction may create tokens
	// whose category is that transaction's hash.
	genesis := map[chainhash.Hash]bool{}
	for _, in := range tx.Transaction.Inputs {
		if in.PreviousOutPoint.Index == 0 {
			genesis[in.PreviousOutPoint.Hash] = true
		}
	}

	maxAmount := new(big.Int).SetInt64(params.MaximumFungibleTokenAmount)
	available := map[chainhash.Hash]*categoryInputs{}
	for i, out := range tx.SourceOutputs {
		if out.Token == nil {
			continue
		}
		category := available[out.Token.Category]
		if category == nil {
			category = newCategoryInputs()
			available[out.Token.Category] = category
		}
		category.fungible.Add(category.fungible, new(big.Int).SetUint64(out.Token.Amount))
		if category.fungible.Cmp(maxAmount) > 0 {
			return ruleErrorf(ErrTokenValidation, "transaction input %d: "+
				"fungible token amount of category %v exceeds the maximum",
				i, out.Token.Category)
		}
		if nft := out.Token.NFT; nft != nil {
			switch nft.Capability {
			case wire.CapabilityMinting:
				category.minting = true
			case wire.CapabilityMutable:
				category.mutable++
			default:
				category.immutable[string(nft.Commitment)]++
			}
		}
	}

	created := map[chainhash.Hash]*big.Int{}
	for i, out := range outputs {
		token := out.Token
		if token == nil {
			continue
		}
		if token.NFT != nil && len(token.NFT.Commitment) > params.MaximumTokenCommitmentLength {
			return ruleErrorf(ErrTokenValidation, "transaction output %d: "+
				"commitment length of %d exceeds the maximum of %d", i,
				len(token.NFT.Commitment), params.MaximumTokenCommitmentLength)
		}

		sum := created[token.Category]
		if sum == nil {
			sum = new(big.Int)
			created[token.Category] = sum
		}
		sum.Add(sum, new(big.Int).SetUint64(token.Amount))
		if sum.Cmp(maxAmount) > 0 {
			return ruleErrorf(ErrTokenValidation, "transaction output %d: "+
				"fungible token amount of category %v exceeds the maximum",
				i, token.Category)
		}

		if genesis[token.Category] {
			continue
		}
		category := available[token.Category]
		if category == nil {
			return ruleErrorf(ErrTokenValidation, "transaction output %d: "+
				"token category %v is neither created nor spent by this "+
				"transaction", i, token.Category)
		}
		if sum.Cmp(category.fungible) > 0 {
			return ruleErrorf(ErrTokenValidation, "transaction output %d: "+
				"fungible tokens of category %v exceed the amount spent", i,
				token.Category)
		}

		if token.NFT == nil || category.minting {
			continue
		}
		if err := consumeNFT(category, token.NFT, i); err != nil {
			return err
		}
	}
	return nil
}

// consumeNFT matches an output NFT of a category without a minting input
// against the NFTs the inputs spend.
func consumeNFT(category *categoryInputs, nft *wire.NonFungibleToken, index int) error {
	switch nft.Capability {
	case wire.CapabilityMinting:
		return ruleErrorf(ErrTokenValidation, "transaction output %d: "+
			"minting token created without a minting input", index)
	case wire.CapabilityMutable:
		if category.mutable == 0 {
			return ruleErrorf(ErrTokenValidation, "transaction output %d: "+
				"mutable token created without a mutable input", index)
		}
		category.mutable--
		return nil
	}

	key := string(nft.Commitment)
	if category.immutable[key] > 0 {
		category.immutable[key]--
		return nil
	}
	if category.mutable > 0 {
		category.mutable--
		return nil
	}
	return ruleErrorf(ErrTokenValidation, "transaction output %d: "+
		"immutable token with commitment 0x%x has no matching input", index,
		nft.Commitment)
}
