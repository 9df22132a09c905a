package utxo

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cashvm/authvm/consensus"
	"github.com/cashvm/authvm/txscript"
	"github.com/cashvm/authvm/vm"
	"github.com/cashvm/authvm/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutPoint(seed string, index uint32) wire.OutPoint {
	return wire.OutPoint{Hash: chainhash.HashH([]byte(seed)), Index: index}
}

func openMem(t *testing.T) *Store {
	s, err := OpenMem()
	require.NoError(t, err)
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := openMem(t)
	defer s.Close()

	op := testOutPoint("a", 1)
	out := &wire.Output{
		Value:           5000,
		LockingBytecode: []byte{txscript.OP_1},
		Token: &wire.Token{
			Category: chainhash.HashH([]byte("category")),
			Amount:   10,
			NFT:      &wire.NonFungibleToken{Capability: wire.CapabilityMinting, Commitment: []byte{0x01}},
		},
	}
	require.NoError(t, s.Put(op, out))

	got, err := s.Get(op)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	// Results are copies.
	got.LockingBytecode[0] = txscript.OP_0
	again, err := s.Get(op)
	require.NoError(t, err)
	assert.Equal(t, []byte{txscript.OP_1}, again.LockingBytecode)

	_, err = s.Get(testOutPoint("a", 2))
	assert.True(t, IsNotFound(err))

	require.NoError(t, s.Delete(op))
	_, err = s.Get(op)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, s.Delete(op))
}

func TestGetBypassingCache(t *testing.T) {
	s := openMem(t)
	defer s.Close()

	op := testOutPoint("b", 0)
	out := wire.NewOutput(700, []byte{txscript.OP_RETURN})
	require.NoError(t, s.Put(op, out))
	s.cache.Clear()

	got, err := s.Get(op)
	require.NoError(t, err)
	assert.Equal(t, uint64(700), got.Value)
	assert.Equal(t, 1, s.cache.Len())
}

func TestClosedStore(t *testing.T) {
	s := openMem(t)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	op := testOutPoint("c", 0)
	assert.Equal(t, ErrStoreClosed, s.Put(op, wire.NewOutput(1, nil)))
	_, err := s.Get(op)
	assert.Equal(t, ErrStoreClosed, err)
	assert.Equal(t, ErrStoreClosed, s.Delete(op))
}

func TestPersistence(t *testing.T) {
	dir, err := ioutil.TempDir("", "authvm-utxo")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s, err := Open(dir)
	require.NoError(t, err)
	op := testOutPoint("d", 3)
	require.NoError(t, s.Put(op, wire.NewOutput(42, []byte{txscript.OP_2})))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(op)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got.Value)
	assert.Equal(t, []byte{txscript.OP_2}, got.LockingBytecode)
}

func TestResolveAndVerify(t *testing.T) {
	s := openMem(t)
	defer s.Close()

	funding := wire.NewTransaction()
	funding.AddInput(wire.NewInput(&wire.OutPoint{Hash: chainhash.HashH([]byte("coinbase"))}, []byte{txscript.OP_1}))
	funding.AddOutput(wire.NewOutput(20000, []byte{txscript.OP_1}))
	funding.AddOutput(wire.NewOutput(30000, []byte{txscript.OP_2, txscript.OP_EQUAL}))
	require.NoError(t, s.ImportTransactionOutputs(funding))

	hash := funding.TxHash()
	spend := wire.NewTransaction()
	spend.AddInput(wire.NewInput(wire.NewOutPoint(&hash, 0), nil))
	spend.AddInput(wire.NewInput(wire.NewOutPoint(&hash, 1), []byte{txscript.OP_2}))
	spend.AddOutput(wire.NewOutput(45000, make([]byte, 25)))

	resolved, err := s.ResolveTransaction(spend)
	require.NoError(t, err)
	require.Len(t, resolved.SourceOutputs, 2)
	assert.Equal(t, uint64(20000), resolved.SourceOutputs[0].Value)
	assert.Equal(t, uint64(30000), resolved.SourceOutputs[1].Value)

	set, err := vm.CreateInstructionSet(consensus.BCH2023, false, nil)
	require.NoError(t, err)
	assert.NoError(t, vm.NewVM(set).Verify(resolved))

	spend.AddInput(wire.NewInput(wire.NewOutPoint(&hash, 2), nil))
	_, err = s.ResolveTransaction(spend)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "resolve input 2")
}
