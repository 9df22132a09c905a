package vm

import (
	"crypto/sha256"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cashvm/authvm/consensus"
	"github.com/cashvm/authvm/txscript"
	"github.com/cashvm/authvm/wire"
	"github.com/stretchr/testify/require"
)

// script assembles bytecode.  Arguments of type int are opcodes, int64 are
// minimally pushed numbers and []byte are minimally pushed data.
func script(t *testing.T, parts ...interface{}) []byte {
	b := txscript.NewScriptBuilder()
	for _, part := range parts {
		switch v := part.(type) {
		case int:
			b.AddOp(byte(v))
		case int64:
			b.AddInt64(v)
		case []byte:
			b.AddData(v)
		default:
			t.Fatalf("unsupported script part %T", part)
		}
	}
	bytecode, err := b.Script()
	require.NoError(t, err)
	return bytecode
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func testHash(seed string) chainhash.Hash {
	return chainhash.Hash(sha256.Sum256([]byte(seed)))
}

func testKey(seed string) *btcec.PrivateKey {
	d := sha256.Sum256([]byte(seed))
	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), d[:])
	return priv
}

// keyDB returns a KeyDB holding keys, looked up by the hash of their
// compressed public key.
func keyDB(keys ...*btcec.PrivateKey) KeyDB {
	byHash := map[string]*btcec.PrivateKey{}
	for _, key := range keys {
		byHash[string(txscript.Hash160(key.PubKey().SerializeCompressed()))] = key
	}
	return KeyClosure(func(pubKeyHash []byte) (*btcec.PrivateKey, error) {
		if key, ok := byHash[string(pubKeyHash)]; ok {
			return key, nil
		}
		return nil, fmt.Errorf("no key for %x", pubKeyHash)
	})
}

func scriptDB(redeem ...[]byte) ScriptDB {
	byHash := map[string][]byte{}
	for _, r := range redeem {
		byHash[string(txscript.Hash160(r))] = r
		byHash[string(chainhash.DoubleHashB(r))] = r
	}
	return ScriptClosure(func(scriptHash []byte) ([]byte, error) {
		if r, ok := byHash[string(scriptHash)]; ok {
			return r, nil
		}
		return nil, fmt.Errorf("no script for %x", scriptHash)
	})
}

// p2pkh returns a pay-to-public-key-hash locking bytecode for key.
func p2pkh(t *testing.T, key *btcec.PrivateKey) []byte {
	bytecode, err := txscript.PayToPublicKeyHash(txscript.Hash160(key.PubKey().SerializeCompressed()))
	require.NoError(t, err)
	return bytecode
}

// singleInputProgram returns a program spending one output of value 10000
// with the provided bytecode.  The transaction pays 9000 to a P2PKH output.
func singleInputProgram(t *testing.T, unlocking, locking []byte) *Program {
	funding := testHash("funding")
	in := wire.NewInput(wire.NewOutPoint(&funding, 1), unlocking)
	in.Sequence = 0
	tx := wire.NewTransaction()
	tx.AddInput(in)
	tx.AddOutput(wire.NewOutput(9000, p2pkh(t, testKey("recipient"))))
	return &Program{
		Transaction:   tx,
		SourceOutputs: []*wire.Output{wire.NewOutput(10000, locking)},
		InputIndex:    0,
	}
}

func mustInstructionSet(t *testing.T, ruleSet consensus.RuleSet, standard bool) *InstructionSet {
	set, err := CreateInstructionSet(ruleSet, standard, nil)
	require.NoError(t, err)
	return set
}

// evaluate runs a program under the consensus rules of ruleSet and returns
// the reason it failed, or nil.
func evaluate(t *testing.T, ruleSet consensus.RuleSet, unlocking, locking []byte) *ScriptError {
	set := mustInstructionSet(t, ruleSet, false)
	vm := NewVM(set)
	return set.Success(vm.Evaluate(singleInputProgram(t, unlocking, locking)))
}

// noError marks a scriptTest that must evaluate successfully.
const noError ScriptErrorCode = -1

// scriptTest is one evaluation of an unlocking and locking bytecode.
type scriptTest struct {
	name      string
	ruleSet   consensus.RuleSet
	unlocking []byte
	locking   []byte
	err       ScriptErrorCode
}

func runScriptTests(t *testing.T, tests []scriptTest) {
	for _, test := range tests {
		err := evaluate(t, test.ruleSet, test.unlocking, test.locking)
		if test.err == noError {
			if err != nil {
				t.Errorf("%s: unexpected error %v: %v", test.name, err.ErrorCode, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("%s: expected %v, evaluation succeeded", test.name, test.err)
			continue
		}
		if err.ErrorCode != test.err {
			t.Errorf("%s: expected %v, got %v: %v", test.name, test.err, err.ErrorCode, err)
		}
	}
}
