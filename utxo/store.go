// Package utxo persists the source outputs that transactions spend so that
// they can be resolved for verification.
package utxo

import (
	"bytes"
	"encoding/binary"
	"sync"

	"github.com/cashvm/authvm/logging"
	"github.com/cashvm/authvm/vm"
	"github.com/cashvm/authvm/wire"
	"github.com/golang/groupcache/lru"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// DefaultCacheSize is the number of decoded outputs kept in memory.
const DefaultCacheSize = 10000

const outpointKeySize = 36

var (
	// ErrOutputNotFound is the cause of every lookup for an unknown outpoint.
	ErrOutputNotFound = errors.New("source output not found")
	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("utxo store is closed")
)

// IsNotFound reports whether err was caused by a missing outpoint.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrOutputNotFound
}

// Store maps outpoints to the outputs they reference.
type Store struct {
	mtx   sync.Mutex
	db    *leveldb.DB
	cache *lru.Cache
	wo    *opt.WriteOptions
}

// Open opens, creating if needed, a store at path.
func Open(path string) (*Store, error) {
	opts := &opt.Options{
		Filter:             filter.NewBloomFilter(10),
		BlockCacheCapacity: 8 * opt.MiB,
		WriteBuffer:        4 * opt.MiB,
	}
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		logging.CPrint(logging.ERROR, "open utxo store failed",
			logging.LogFormat{
				"err":  err,
				"path": path,
			})
		return nil, errors.Wrapf(err, "open utxo store %s", path)
	}
	logging.VPrint(logging.INFO, "open utxo store", logging.LogFormat{"path": path})
	return newStore(db), nil
}

// OpenMem opens a store that lives in memory only.
func OpenMem() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open memory utxo store")
	}
	return newStore(db), nil
}

func newStore(db *leveldb.DB) *Store {
	return &Store{
		db:    db,
		cache: lru.New(DefaultCacheSize),
		wo:    &opt.WriteOptions{Sync: false},
	}
}

func outpointKey(op wire.OutPoint) [outpointKeySize]byte {
	var key [outpointKeySize]byte
	copy(key[:], op.Hash[:])
	binary.LittleEndian.PutUint32(key[32:], op.Index)
	return key
}

func encodeOutput(out *wire.Output) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteOutput(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Put stores out under op, replacing any previous entry.
func (s *Store) Put(op wire.OutPoint, out *wire.Output) error {
	value, err := encodeOutput(out)
	if err != nil {
		return errors.Wrapf(err, "encode output %s", op)
	}
	key := outpointKey(op)

	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.db == nil {
		return ErrStoreClosed
	}
	if err := s.db.Put(key[:], value, s.wo); err != nil {
		return errors.Wrapf(err, "put output %s", op)
	}
	s.cache.Add(key, out.Copy())
	return nil
}

// Get returns a copy of the output stored under op.
func (s *Store) Get(op wire.OutPoint) (*wire.Output, error) {
	key := outpointKey(op)

	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.db == nil {
		return nil, ErrStoreClosed
	}
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*wire.Output).Copy(), nil
	}

	value, err := s.db.Get(key[:], nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.Wrapf(ErrOutputNotFound, "outpoint %s", op)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get output %s", op)
	}
	out := new(wire.Output)
	if err := wire.ReadOutput(bytes.NewReader(value), out); err != nil {
		return nil, errors.Wrapf(err, "decode output %s", op)
	}
	s.cache.Add(key, out.Copy())
	return out, nil
}

// Delete removes op. Deleting an unknown outpoint is not an error.
func (s *Store) Delete(op wire.OutPoint) error {
	key := outpointKey(op)

	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.db == nil {
		return ErrStoreClosed
	}
	s.cache.Remove(key)
	if err := s.db.Delete(key[:], s.wo); err != nil {
		return errors.Wrapf(err, "delete output %s", op)
	}
	return nil
}

// ImportTransactionOutputs stores every output created by tx in one batch.
func (s *Store) ImportTransactionOutputs(tx *wire.Transaction) error {
	hash := tx.TxHash()
	batch := new(leveldb.Batch)
	entries := make(map[[outpointKeySize]byte]*wire.Output, len(tx.Outputs))
	for i, out := range tx.Outputs {
		op := wire.OutPoint{Hash: hash, Index: uint32(i)}
		value, err := encodeOutput(out)
		if err != nil {
			return errors.Wrapf(err, "encode output %s", op)
		}
		key := outpointKey(op)
		batch.Put(key[:], value)
		entries[key] = out.Copy()
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.db == nil {
		return ErrStoreClosed
	}
	if err := s.db.Write(batch, s.wo); err != nil {
		return errors.Wrapf(err, "import outputs of %s", hash)
	}
	for key, out := range entries {
		s.cache.Add(key, out)
	}
	logging.VPrint(logging.DEBUG, "imported transaction outputs",
		logging.LogFormat{
			"tx":      hash.String(),
			"outputs": len(tx.Outputs),
		})
	return nil
}

// ResolveTransaction looks up the source output of every input of tx.
func (s *Store) ResolveTransaction(tx *wire.Transaction) (*vm.ResolvedTransaction, error) {
	sourceOutputs := make([]*wire.Output, len(tx.Inputs))
	for i, in := range tx.Inputs {
		out, err := s.Get(in.PreviousOutPoint)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve input %d", i)
		}
		sourceOutputs[i] = out
	}
	return &vm.ResolvedTransaction{Transaction: tx, SourceOutputs: sourceOutputs}, nil
}

// Close releases the underlying database. Further calls return ErrStoreClosed.
func (s *Store) Close() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.cache.Clear()
	return err
}
