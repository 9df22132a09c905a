package vm

import (
	"github.com/cashvm/authvm/vmcrypto"
)

// hashOp replaces the top item with its digest.
func hashOp(s *ProgramState, hash func([]byte) []byte) *ProgramState {
	items, ok := s.pop(1)
	if !ok {
		return s
	}
	s.push(hash(items[0]))
	return s
}

func (c *opContext) opRipemd160(s *ProgramState) *ProgramState {
	return hashOp(s, c.crypto.Ripemd160)
}

func (c *opContext) opSha1(s *ProgramState) *ProgramState {
	return hashOp(s, c.crypto.Sha1)
}

func (c *opContext) opSha256(s *ProgramState) *ProgramState {
	return hashOp(s, c.crypto.Sha256)
}

func (c *opContext) opHash160(s *ProgramState) *ProgramState {
	return hashOp(s, func(b []byte) []byte { return vmcrypto.Hash160(c.crypto, b) })
}

func (c *opContext) opHash256(s *ProgramState) *ProgramState {
	return hashOp(s, func(b []byte) []byte { return vmcrypto.Hash256(c.crypto, b) })
}

// opCodeSeparator moves the start of the bytecode covered by later
// signatures past this instruction.
func opCodeSeparator(s *ProgramState) *ProgramState {
	s.LastCodeSeparator = s.IP
	return s
}
