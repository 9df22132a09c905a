// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	btcwire "github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

const (
	// TxVersion is the current latest supported transaction version.
	TxVersion = 2

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be.
	MaxTxInSequenceNum uint32 = 0xffffffff

	// SequenceLockTimeDisabled is a flag that if set on a transaction
	// input's sequence number, the sequence number will not be interpreted
	// as a relative locktime.
	SequenceLockTimeDisabled = 1 << 31

	// SequenceLockTimeIsSeconds is a flag that if set on a transaction
	// input's sequence number, the relative locktime has units of 512
	// seconds.
	SequenceLockTimeIsSeconds = 1 << 22

	// SequenceLockTimeMask is a mask that extracts the relative locktime
	// when masked against the transaction input sequence number.
	SequenceLockTimeMask = 0x0000ffff

	// LockTimeThreshold is the number below which a lock time is
	// interpreted to be a block number.
	LockTimeThreshold uint32 = 5e8

	// maxBytecodeAlloc bounds the length prefix accepted for a single
	// bytecode field while decoding.
	maxBytecodeAlloc = 1000000

	// pver is passed to the compact-size helpers, which ignore it.
	pver = 0
)

const defaultTxInOutAlloc = 15

// OutPoint defines a transaction output being spent.  Hash is kept in the
// byte order used on the wire.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns a new transaction outpoint with the provided hash and
// index.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{
		Hash:  *hash,
		Index: index,
	}
}

// String returns the OutPoint in the human-readable form "hash:index".
func (o OutPoint) String() string {
	buf := make([]byte, 2*chainhash.HashSize+1, 2*chainhash.HashSize+1+10)
	copy(buf, o.Hash.String())
	buf[2*chainhash.HashSize] = ':'
	buf = strconv.AppendUint(buf, uint64(o.Index), 10)
	return string(buf)
}

// Input is a transaction input.
type Input struct {
	PreviousOutPoint  OutPoint
	UnlockingBytecode []byte
	Sequence          uint32
}

// NewInput returns a new transaction input with the provided previous
// outpoint and unlocking bytecode, and a final sequence number.
func NewInput(prevOut *OutPoint, unlockingBytecode []byte) *Input {
	return &Input{
		PreviousOutPoint:  *prevOut,
		UnlockingBytecode: unlockingBytecode,
		Sequence:          MaxTxInSequenceNum,
	}
}

// SerializeSize returns the number of bytes it would take to serialize the
// the transaction input.
func (t *Input) SerializeSize() int {
	// Outpoint Hash 32 bytes + Outpoint Index 4 bytes + Sequence 4 bytes +
	// serialized varint size for the length of the bytecode + bytecode.
	return 40 + btcwire.VarIntSerializeSize(uint64(len(t.UnlockingBytecode))) +
		len(t.UnlockingBytecode)
}

// Output is a transaction output, optionally carrying CashTokens.
type Output struct {
	Value           uint64
	LockingBytecode []byte
	Token           *Token
}

// NewOutput returns a new transaction output with the provided value and
// locking bytecode.
func NewOutput(value uint64, lockingBytecode []byte) *Output {
	return &Output{
		Value:           value,
		LockingBytecode: lockingBytecode,
	}
}

// lockingField returns the token prefix (if any) followed by the locking
// bytecode, which is what the output's length prefix covers.
func (t *Output) lockingField() []byte {
	if t.Token == nil {
		return t.LockingBytecode
	}
	prefix := t.Token.Prefix()
	field := make([]byte, 0, len(prefix)+len(t.LockingBytecode))
	field = append(field, prefix...)
	return append(field, t.LockingBytecode...)
}

// SerializeSize returns the number of bytes it would take to serialize the
// the transaction output.
func (t *Output) SerializeSize() int {
	n := len(t.LockingBytecode)
	if t.Token != nil {
		n += t.Token.PrefixSize()
	}
	// Value 8 bytes + serialized varint size for the length of the
	// locking field + locking field bytes.
	return 8 + btcwire.VarIntSerializeSize(uint64(n)) + n
}

// Bytes returns the serialized output.
func (t *Output) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(t.SerializeSize())
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteOutput(&buf, t)
	return buf.Bytes()
}

// Copy returns a deep copy of the output.
func (t *Output) Copy() *Output {
	out := &Output{
		Value:           t.Value,
		LockingBytecode: copyBytes(t.LockingBytecode),
	}
	if t.Token != nil {
		out.Token = t.Token.Copy()
	}
	return out
}

// Transaction is a Bitcoin Cash transaction.  Use AddInput and AddOutput to
// build up the list of inputs and outputs.
type Transaction struct {
	Version  uint32
	Inputs   []*Input
	Outputs  []*Output
	LockTime uint32
}

// NewTransaction returns a new transaction with the current version and no
// inputs or outputs.
func NewTransaction() *Transaction {
	return &Transaction{
		Version: TxVersion,
		Inputs:  make([]*Input, 0, defaultTxInOutAlloc),
		Outputs: make([]*Output, 0, defaultTxInOutAlloc),
	}
}

// AddInput adds a transaction input.
func (msg *Transaction) AddInput(ti *Input) {
	msg.Inputs = append(msg.Inputs, ti)
}

// AddOutput adds a transaction output.
func (msg *Transaction) AddOutput(to *Output) {
	msg.Outputs = append(msg.Outputs, to)
}

// TxHash generates the hash for the transaction.
func (msg *Transaction) TxHash() chainhash.Hash {
	return chainhash.DoubleHashH(msg.Bytes())
}

// Copy creates a deep copy of a transaction so that the original does not get
// modified when the copy is manipulated.
func (msg *Transaction) Copy() *Transaction {
	newTx := Transaction{
		Version:  msg.Version,
		Inputs:   make([]*Input, 0, len(msg.Inputs)),
		Outputs:  make([]*Output, 0, len(msg.Outputs)),
		LockTime: msg.LockTime,
	}
	for _, oldIn := range msg.Inputs {
		newTx.Inputs = append(newTx.Inputs, &Input{
			PreviousOutPoint:  oldIn.PreviousOutPoint,
			UnlockingBytecode: copyBytes(oldIn.UnlockingBytecode),
			Sequence:          oldIn.Sequence,
		})
	}
	for _, oldOut := range msg.Outputs {
		newTx.Outputs = append(newTx.Outputs, oldOut.Copy())
	}
	return &newTx
}

// SerializeSize returns the number of bytes it would take to serialize the
// the transaction.
func (msg *Transaction) SerializeSize() int {
	// Version 4 bytes + LockTime 4 bytes + serialized varint size for the
	// number of inputs and outputs.
	n := 8 + btcwire.VarIntSerializeSize(uint64(len(msg.Inputs))) +
		btcwire.VarIntSerializeSize(uint64(len(msg.Outputs)))

	for _, ti := range msg.Inputs {
		n += ti.SerializeSize()
	}
	for _, to := range msg.Outputs {
		n += to.SerializeSize()
	}
	return n
}

// Serialize encodes the transaction to w.
func (msg *Transaction) Serialize(w io.Writer) error {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], msg.Version)
	if _, err := w.Write(scratch[:]); err != nil {
		return err
	}

	if err := btcwire.WriteVarInt(w, pver, uint64(len(msg.Inputs))); err != nil {
		return err
	}
	for _, ti := range msg.Inputs {
		if err := writeInput(w, ti); err != nil {
			return err
		}
	}

	if err := btcwire.WriteVarInt(w, pver, uint64(len(msg.Outputs))); err != nil {
		return err
	}
	for _, to := range msg.Outputs {
		if err := WriteOutput(w, to); err != nil {
			return err
		}
	}

	binary.LittleEndian.PutUint32(scratch[:], msg.LockTime)
	_, err := w.Write(scratch[:])
	return err
}

// Bytes returns the serialized transaction.
func (msg *Transaction) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(msg.SerializeSize())
	// Writes to a bytes.Buffer cannot fail.
	_ = msg.Serialize(&buf)
	return buf.Bytes()
}

// Deserialize decodes a transaction from r.
func (msg *Transaction) Deserialize(r io.Reader) error {
	var scratch [4]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return errors.Wrap(err, "read transaction version")
	}
	msg.Version = binary.LittleEndian.Uint32(scratch[:])

	count, err := btcwire.ReadVarInt(r, pver)
	if err != nil {
		return errors.Wrap(err, "read input count")
	}
	if count > maxBytecodeAlloc/40 {
		return errors.Errorf("too many inputs to fit into max message size [count %d]", count)
	}
	msg.Inputs = make([]*Input, count)
	for i := range msg.Inputs {
		ti := new(Input)
		if err := readInput(r, ti); err != nil {
			return errors.Wrapf(err, "read input %d", i)
		}
		msg.Inputs[i] = ti
	}

	count, err = btcwire.ReadVarInt(r, pver)
	if err != nil {
		return errors.Wrap(err, "read output count")
	}
	if count > maxBytecodeAlloc/9 {
		return errors.Errorf("too many outputs to fit into max message size [count %d]", count)
	}
	msg.Outputs = make([]*Output, count)
	for i := range msg.Outputs {
		to := new(Output)
		if err := ReadOutput(r, to); err != nil {
			return errors.Wrapf(err, "read output %d", i)
		}
		msg.Outputs[i] = to
	}

	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return errors.Wrap(err, "read transaction locktime")
	}
	msg.LockTime = binary.LittleEndian.Uint32(scratch[:])
	return nil
}

// DecodeTransaction decodes a complete serialized transaction.  Trailing
// bytes are an error.
func DecodeTransaction(b []byte) (*Transaction, error) {
	r := bytes.NewReader(b)
	tx := new(Transaction)
	if err := tx.Deserialize(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("transaction has %d trailing bytes", r.Len())
	}
	return tx, nil
}

// DecodeTransactionHex decodes a hex-encoded serialized transaction.
func DecodeTransactionHex(s string) (*Transaction, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decode transaction hex")
	}
	return DecodeTransaction(b)
}

func writeInput(w io.Writer, ti *Input) error {
	if _, err := w.Write(ti.PreviousOutPoint.Hash[:]); err != nil {
		return err
	}
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], ti.PreviousOutPoint.Index)
	if _, err := w.Write(scratch[:]); err != nil {
		return err
	}
	if err := btcwire.WriteVarBytes(w, pver, ti.UnlockingBytecode); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(scratch[:], ti.Sequence)
	_, err := w.Write(scratch[:])
	return err
}

func readInput(r io.Reader, ti *Input) error {
	if _, err := io.ReadFull(r, ti.PreviousOutPoint.Hash[:]); err != nil {
		return err
	}
	var scratch [4]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return err
	}
	ti.PreviousOutPoint.Index = binary.LittleEndian.Uint32(scratch[:])

	bytecode, err := btcwire.ReadVarBytes(r, pver, maxBytecodeAlloc, "unlocking bytecode")
	if err != nil {
		return err
	}
	ti.UnlockingBytecode = bytecode

	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return err
	}
	ti.Sequence = binary.LittleEndian.Uint32(scratch[:])
	return nil
}

// WriteOutput encodes a transaction output to w.
func WriteOutput(w io.Writer, to *Output) error {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], to.Value)
	if _, err := w.Write(scratch[:]); err != nil {
		return err
	}
	return btcwire.WriteVarBytes(w, pver, to.lockingField())
}

// ReadOutput decodes a transaction output from r, splitting off a token
// prefix if one is present.
func ReadOutput(r io.Reader, to *Output) error {
	var scratch [8]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return err
	}
	to.Value = binary.LittleEndian.Uint64(scratch[:])

	field, err := btcwire.ReadVarBytes(r, pver, maxBytecodeAlloc, "locking bytecode")
	if err != nil {
		return err
	}
	if len(field) > 0 && field[0] == TokenPrefixByte {
		token, rest, err := decodeTokenPrefix(field)
		if err != nil {
			return err
		}
		to.Token = token
		to.LockingBytecode = rest
		return nil
	}
	to.Token = nil
	to.LockingBytecode = field
	return nil
}

// EncodeOutputs serializes a list of outputs prefixed by their count.  This is
// the format used to exchange the source outputs of a transaction.
func EncodeOutputs(outputs []*Output) []byte {
	// Writes to a bytes.Buffer cannot fail.
	var buf bytes.Buffer
	_ = btcwire.WriteVarInt(&buf, pver, uint64(len(outputs)))
	for _, out := range outputs {
		_ = WriteOutput(&buf, out)
	}
	return buf.Bytes()
}

// DecodeOutputs decodes a count-prefixed list of outputs.
func DecodeOutputs(b []byte) ([]*Output, error) {
	r := bytes.NewReader(b)
	count, err := btcwire.ReadVarInt(r, pver)
	if err != nil {
		return nil, errors.Wrap(err, "read output count")
	}
	if count > uint64(len(b))/9 {
		return nil, errors.Errorf("output count %d exceeds available bytes", count)
	}
	outputs := make([]*Output, count)
	for i := range outputs {
		out := new(Output)
		if err := ReadOutput(r, out); err != nil {
			return nil, errors.Wrapf(err, "read output %d", i)
		}
		outputs[i] = out
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("outputs have %d trailing bytes", r.Len())
	}
	return outputs, nil
}

// DecodeOutputsHex decodes a hex-encoded, count-prefixed list of outputs.
func DecodeOutputsHex(s string) ([]*Output, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decode outputs hex")
	}
	return DecodeOutputs(b)
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
