// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// Instruction is one decoded element of a bytecode sequence.  It is either a
// *ValidInstruction or a *MalformedInstruction; use a type switch to tell them
// apart.
type Instruction interface {
	// Op returns the instruction's opcode.
	Op() byte

	isInstruction()
}

// ValidInstruction is a fully decoded instruction.  Data is non-nil for push
// opcodes (empty for OP_0) and nil for every other opcode.
type ValidInstruction struct {
	Opcode byte
	Data   []byte
}

// Op returns the instruction's opcode.
func (i *ValidInstruction) Op() byte { return i.Opcode }

func (*ValidInstruction) isInstruction() {}

// MalformedInstruction is a push whose length prefix or data runs past the
// end of the bytecode.  LengthBytes holds whatever length prefix bytes were
// present and Data whatever data bytes were present, so the instruction can
// be re-encoded exactly.  ExpectedDataBytes is -1 when the length prefix
// itself was truncated.
type MalformedInstruction struct {
	Opcode            byte
	LengthBytes       []byte
	Data              []byte
	ExpectedDataBytes int
}

// Op returns the instruction's opcode.
func (i *MalformedInstruction) Op() byte { return i.Opcode }

func (*MalformedInstruction) isInstruction() {}

// pushLengthBytes returns the width of the explicit length prefix of a push
// opcode.
func pushLengthBytes(op byte) int {
	switch op {
	case OP_PUSHDATA1:
		return 1
	case OP_PUSHDATA2:
		return 2
	case OP_PUSHDATA4:
		return 4
	}
	return 0
}

// DecodeInstruction decodes the instruction starting at index and returns it
// along with the index of the following instruction.  A returned
// *MalformedInstruction always consumes the rest of the bytecode.
func DecodeInstruction(bytecode []byte, index int) (Instruction, int) {
	op := bytecode[index]
	next := index + 1
	if !IsPushOpcode(op) {
		return &ValidInstruction{Opcode: op}, next
	}

	var expected int
	var lengthBytes []byte
	if width := pushLengthBytes(op); width > 0 {
		if next+width > len(bytecode) {
			return &MalformedInstruction{
				Opcode:            op,
				LengthBytes:       copyBytes(bytecode[next:]),
				ExpectedDataBytes: -1,
			}, len(bytecode)
		}
		lengthBytes = bytecode[next : next+width]
		next += width
		switch width {
		case 1:
			expected = int(lengthBytes[0])
		case 2:
			expected = int(binary.LittleEndian.Uint16(lengthBytes))
		default:
			length := binary.LittleEndian.Uint32(lengthBytes)
			if uint64(length) > uint64(len(bytecode)-next) {
				return &MalformedInstruction{
					Opcode:            op,
					LengthBytes:       copyBytes(lengthBytes),
					Data:              copyBytes(bytecode[next:]),
					ExpectedDataBytes: int(length),
				}, len(bytecode)
			}
			expected = int(length)
		}
	} else {
		expected = int(op)
	}

	if next+expected > len(bytecode) {
		return &MalformedInstruction{
			Opcode:            op,
			LengthBytes:       copyBytes(lengthBytes),
			Data:              copyBytes(bytecode[next:]),
			ExpectedDataBytes: expected,
		}, len(bytecode)
	}
	return &ValidInstruction{
		Opcode: op,
		Data:   copyBytes(bytecode[next : next+expected]),
	}, next + expected
}

// DecodeInstructions decodes a complete bytecode sequence.  Only the final
// instruction of the result can be malformed.
func DecodeInstructions(bytecode []byte) []Instruction {
	instructions := make([]Instruction, 0, len(bytecode))
	for i := 0; i < len(bytecode); {
		var ins Instruction
		ins, i = DecodeInstruction(bytecode, i)
		instructions = append(instructions, ins)
	}
	return instructions
}

// InstructionsAreMalformed reports whether a decoded sequence ends with a
// malformed instruction.
func InstructionsAreMalformed(instructions []Instruction) bool {
	if len(instructions) == 0 {
		return false
	}
	_, malformed := instructions[len(instructions)-1].(*MalformedInstruction)
	return malformed
}

// EncodeInstruction returns the bytecode of a single instruction.  Push
// lengths are written with the width implied by the opcode, so non-minimal
// pushes survive a decode/encode round trip.
func EncodeInstruction(ins Instruction) []byte {
	switch ins := ins.(type) {
	case *ValidInstruction:
		return encodeValidInstruction(ins)
	case *MalformedInstruction:
		return EncodeMalformedInstruction(ins)
	}
	return nil
}

func encodeValidInstruction(ins *ValidInstruction) []byte {
	if !IsPushOpcode(ins.Opcode) {
		return []byte{ins.Opcode}
	}
	width := pushLengthBytes(ins.Opcode)
	b := make([]byte, 1+width, 1+width+len(ins.Data))
	b[0] = ins.Opcode
	switch width {
	case 1:
		b[1] = byte(len(ins.Data))
	case 2:
		binary.LittleEndian.PutUint16(b[1:], uint16(len(ins.Data)))
	case 4:
		binary.LittleEndian.PutUint32(b[1:], uint32(len(ins.Data)))
	}
	return append(b, ins.Data...)
}

// EncodeMalformedInstruction returns the bytes a malformed instruction was
// decoded from.
func EncodeMalformedInstruction(ins *MalformedInstruction) []byte {
	b := make([]byte, 0, 1+len(ins.LengthBytes)+len(ins.Data))
	b = append(b, ins.Opcode)
	b = append(b, ins.LengthBytes...)
	return append(b, ins.Data...)
}

// EncodeInstructions returns the bytecode of an instruction sequence.
func EncodeInstructions(instructions []Instruction) []byte {
	var b []byte
	for _, ins := range instructions {
		b = append(b, EncodeInstruction(ins)...)
	}
	return b
}

// IsPushOnly reports whether every instruction is a push.  OP_1NEGATE,
// OP_RESERVED and OP_1 through OP_16 count as pushes.
func IsPushOnly(instructions []Instruction) bool {
	for _, ins := range instructions {
		if ins.Op() > OP_16 {
			return false
		}
	}
	return true
}

// IsPushOnlyBytecode decodes bytecode and reports whether it is well formed
// and push-only.
func IsPushOnlyBytecode(bytecode []byte) bool {
	instructions := DecodeInstructions(bytecode)
	return !InstructionsAreMalformed(instructions) && IsPushOnly(instructions)
}

// IsMinimalDataPush reports whether data is pushed using the smallest
// possible opcode.
func IsMinimalDataPush(opcode byte, data []byte) bool {
	dataLen := len(data)
	switch {
	case dataLen == 0:
		return opcode == OP_0
	case dataLen == 1 && data[0] >= 1 && data[0] <= 16:
		return opcode == OP_1-1+data[0]
	case dataLen == 1 && data[0] == 0x81:
		return opcode == OP_1NEGATE
	case dataLen <= OP_DATA_75:
		return int(opcode) == dataLen
	case dataLen <= 0xff:
		return opcode == OP_PUSHDATA1
	case dataLen <= 0xffff:
		return opcode == OP_PUSHDATA2
	}
	return opcode == OP_PUSHDATA4
}

// DisassembleInstruction returns a human-readable rendering of one
// instruction.
func DisassembleInstruction(ins Instruction) string {
	name := OpcodeName(ins.Op())
	switch ins := ins.(type) {
	case *ValidInstruction:
		if !IsPushOpcode(ins.Opcode) || ins.Opcode == OP_0 {
			return name
		}
		if pushLengthBytes(ins.Opcode) > 0 {
			return fmt.Sprintf("%s %d 0x%s", name, len(ins.Data), hex.EncodeToString(ins.Data))
		}
		return fmt.Sprintf("%s 0x%s", name, hex.EncodeToString(ins.Data))
	case *MalformedInstruction:
		if ins.ExpectedDataBytes < 0 {
			return fmt.Sprintf("[%s 0x%s]", name, hex.EncodeToString(ins.LengthBytes))
		}
		return fmt.Sprintf("[%s %d 0x%s]", name, ins.ExpectedDataBytes, hex.EncodeToString(ins.Data))
	}
	return name
}

// Disassemble returns a human-readable rendering of an instruction sequence.
// Malformed instructions are wrapped in square brackets.
func Disassemble(instructions []Instruction) string {
	parts := make([]string, len(instructions))
	for i, ins := range instructions {
		parts[i] = DisassembleInstruction(ins)
	}
	return strings.Join(parts, " ")
}

// DisassembleBytecode decodes and disassembles bytecode.
func DisassembleBytecode(bytecode []byte) string {
	return Disassemble(DecodeInstructions(bytecode))
}

func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
