// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// ScriptClass is an enumeration for the list of standard locking bytecode
// patterns.
type ScriptClass byte

// Classes of locking bytecode.
const (
	NonStandardTy     ScriptClass = iota // None of the recognized forms.
	PubKeyTy                             // Pay to pubkey.
	PubKeyHashTy                         // Pay to pubkey hash.
	ScriptHash20Ty                       // Pay to script hash, 20-byte hash.
	ScriptHash32Ty                       // Pay to script hash, 32-byte hash.
	MultiSigTy                           // Bare multi signature.
	NullDataTy                           // Arbitrary data (OP_RETURN).
)

var scriptClassToName = []string{
	NonStandardTy:  "nonstandard",
	PubKeyTy:       "pubkey",
	PubKeyHashTy:   "pubkeyhash",
	ScriptHash20Ty: "scripthash",
	ScriptHash32Ty: "scripthash32",
	MultiSigTy:     "multisig",
	NullDataTy:     "nulldata",
}

// String implements the Stringer interface by returning the name of
// the enum script class. If the enum is invalid then "Invalid" will be
// returned.
func (t ScriptClass) String() string {
	if int(t) >= len(scriptClassToName) {
		return "Invalid"
	}
	return scriptClassToName[t]
}

// IsPayToPublicKeyHash reports whether bytecode is
// OP_DUP OP_HASH160 <20 bytes> OP_EQUALVERIFY OP_CHECKSIG.
func IsPayToPublicKeyHash(bytecode []byte) bool {
	return len(bytecode) == 25 &&
		bytecode[0] == OP_DUP &&
		bytecode[1] == OP_HASH160 &&
		bytecode[2] == OP_DATA_20 &&
		bytecode[23] == OP_EQUALVERIFY &&
		bytecode[24] == OP_CHECKSIG
}

// IsPayToScriptHash20 reports whether bytecode is
// OP_HASH160 <20 bytes> OP_EQUAL.
func IsPayToScriptHash20(bytecode []byte) bool {
	return len(bytecode) == 23 &&
		bytecode[0] == OP_HASH160 &&
		bytecode[1] == OP_DATA_20 &&
		bytecode[22] == OP_EQUAL
}

// IsPayToScriptHash32 reports whether bytecode is
// OP_HASH256 <32 bytes> OP_EQUAL.
func IsPayToScriptHash32(bytecode []byte) bool {
	return len(bytecode) == 35 &&
		bytecode[0] == OP_HASH256 &&
		bytecode[1] == OP_DATA_32 &&
		bytecode[34] == OP_EQUAL
}

func isPublicKeyLength(n int) bool {
	return n == 33 || n == 65
}

// IsPayToPublicKey reports whether bytecode is <public key> OP_CHECKSIG for a
// compressed or uncompressed public key.
func IsPayToPublicKey(bytecode []byte) bool {
	switch len(bytecode) {
	case 35:
		return bytecode[0] == OP_DATA_33 && bytecode[34] == OP_CHECKSIG
	case 67:
		return bytecode[0] == OP_DATA_65 && bytecode[66] == OP_CHECKSIG
	}
	return false
}

// IsArbitraryDataOutput reports whether bytecode is OP_RETURN followed only
// by pushes.
func IsArbitraryDataOutput(bytecode []byte) bool {
	return len(bytecode) > 0 &&
		bytecode[0] == OP_RETURN &&
		IsPushOnlyBytecode(bytecode[1:])
}

func smallInt(op byte) (int, bool) {
	if op >= OP_1 && op <= OP_16 {
		return int(op - OP_1 + 1), true
	}
	return 0, false
}

// IsStandardMultisig reports whether bytecode is a bare multisig locking
// bytecode, OP_m <keys...> OP_n OP_CHECKMULTISIG, with 1 <= m <= n <=
// maxKeys and each key 33 or 65 bytes.
func IsStandardMultisig(bytecode []byte, maxKeys int) bool {
	instructions := DecodeInstructions(bytecode)
	if InstructionsAreMalformed(instructions) || len(instructions) < 4 {
		return false
	}
	last := len(instructions) - 1
	if instructions[last].Op() != OP_CHECKMULTISIG {
		return false
	}
	m, ok := smallInt(instructions[0].Op())
	if !ok {
		return false
	}
	n, ok := smallInt(instructions[last-1].Op())
	if !ok || n < m || n > maxKeys || n != last-2 {
		return false
	}
	for _, ins := range instructions[1 : last-1] {
		valid, ok := ins.(*ValidInstruction)
		if !ok || !IsPushOpcode(valid.Opcode) || !isPublicKeyLength(len(valid.Data)) {
			return false
		}
		if int(valid.Opcode) != len(valid.Data) {
			return false
		}
	}
	return true
}

// IsWitnessProgram reports whether bytecode has the shape of a segregated
// witness program: a version opcode followed by a single 2 to 40 byte push.
func IsWitnessProgram(bytecode []byte) bool {
	if len(bytecode) < 4 || len(bytecode) > 42 {
		return false
	}
	version := bytecode[0]
	if version != OP_0 && (version < OP_1 || version > OP_16) {
		return false
	}
	return int(bytecode[1])+2 == len(bytecode)
}

// GetScriptClass returns the class of a locking bytecode.  P2SH32 is only
// recognized when p2sh32 is set.
func GetScriptClass(bytecode []byte, maxMultisigKeys int, p2sh32 bool) ScriptClass {
	switch {
	case IsPayToPublicKeyHash(bytecode):
		return PubKeyHashTy
	case IsPayToScriptHash20(bytecode):
		return ScriptHash20Ty
	case p2sh32 && IsPayToScriptHash32(bytecode):
		return ScriptHash32Ty
	case IsPayToPublicKey(bytecode):
		return PubKeyTy
	case IsStandardMultisig(bytecode, maxMultisigKeys):
		return MultiSigTy
	case IsArbitraryDataOutput(bytecode):
		return NullDataTy
	}
	return NonStandardTy
}
