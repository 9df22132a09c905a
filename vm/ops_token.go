package vm

import (
	"github.com/cashvm/authvm/wire"
)

// tokenCategory returns the category of an output's token followed by the
// capability of a mutable or minting NFT.  Outputs without tokens have an
// empty category.
func tokenCategory(out *wire.Output) []byte {
	if out.Token == nil {
		return []byte{}
	}
	category := make([]byte, 0, len(out.Token.Category)+1)
	category = append(category, out.Token.Category[:]...)
	if nft := out.Token.NFT; nft != nil && nft.Capability != wire.CapabilityNone {
		category = append(category, byte(nft.Capability))
	}
	return category
}

func tokenCommitment(out *wire.Output) []byte {
	if out.Token == nil || out.Token.NFT == nil {
		return []byte{}
	}
	return copyBytes(out.Token.NFT.Commitment)
}

func tokenAmount(out *wire.Output) uint64 {
	if out.Token == nil {
		return 0
	}
	return out.Token.Amount
}

func (c *opContext) opUtxoTokenCategory(s *ProgramState) *ProgramState {
	out, ok := c.popSourceOutput(s)
	if !ok {
		return s
	}
	s.push(tokenCategory(out))
	return s
}

func (c *opContext) opUtxoTokenCommitment(s *ProgramState) *ProgramState {
	out, ok := c.popSourceOutput(s)
	if !ok {
		return s
	}
	s.push(tokenCommitment(out))
	return s
}

func (c *opContext) opUtxoTokenAmount(s *ProgramState) *ProgramState {
	out, ok := c.popSourceOutput(s)
	if !ok {
		return s
	}
	return pushUint64(s, tokenAmount(out))
}

func (c *opContext) opOutputTokenCategory(s *ProgramState) *ProgramState {
	out, ok := c.popOutput(s)
	if !ok {
		return s
	}
	s.push(tokenCategory(out))
	return s
}

func (c *opContext) opOutputTokenCommitment(s *ProgramState) *ProgramState {
	out, ok := c.popOutput(s)
	if !ok {
		return s
	}
	s.push(tokenCommitment(out))
	return s
}

func (c *opContext) opOutputTokenAmount(s *ProgramState) *ProgramState {
	out, ok := c.popOutput(s)
	if !ok {
		return s
	}
	return pushUint64(s, tokenAmount(out))
}
