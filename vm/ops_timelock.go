// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/cashvm/authvm/wire"
)

// lockTimeNumberLength is the operand length of the time lock operations,
// which accept values beyond the range of four byte signed numbers.
const lockTimeNumberLength = 5

// peekLockTime reads the time lock operand without removing it.
func peekLockTime(s *ProgramState) (int64, bool) {
	top, ok := s.peek(0)
	if !ok {
		return 0, false
	}
	n, err := decodeNumber(top, lockTimeNumberLength)
	if err != nil {
		s.fail(err)
		return 0, false
	}
	if n.Sign() < 0 {
		s.fail(scriptErrorf(ErrNegativeLockTime, "Value: %s.", n.String()))
		return 0, false
	}
	return n.Int64(), true
}

// opCheckLockTimeVerify fails unless the transaction lock time is of the same
// type as the operand and at least as large.
func (c *opContext) opCheckLockTimeVerify(s *ProgramState) *ProgramState {
	lockTime, ok := peekLockTime(s)
	if !ok {
		return s
	}
	txLockTime := int64(s.Program.Transaction.LockTime)
	threshold := int64(wire.LockTimeThreshold)
	if (lockTime < threshold) != (txLockTime < threshold) {
		return s.fail(scriptErrorf(ErrIncompatibleLockTimeType,
			"Required: %d, transaction: %d.", lockTime, txLockTime))
	}
	if lockTime > txLockTime {
		return s.fail(scriptErrorf(ErrUnsatisfiedLockTime,
			"Required: %d, transaction: %d.", lockTime, txLockTime))
	}
	// A final sequence number disables the transaction lock time.
	if s.input().Sequence == wire.MaxTxInSequenceNum {
		return s.fail(scriptError(ErrLockTimeDisabled))
	}
	return s
}

// opCheckSequenceVerify fails unless the input's relative lock time is of the
// same type as the operand and at least as large.
func (c *opContext) opCheckSequenceVerify(s *ProgramState) *ProgramState {
	sequence, ok := peekLockTime(s)
	if !ok {
		return s
	}
	if sequence&wire.SequenceLockTimeDisabled != 0 {
		return s
	}
	if s.Program.Transaction.Version < 2 {
		return s.fail(scriptErrorf(ErrCheckSequenceUnavailable,
			"Transaction version: %d.", s.Program.Transaction.Version))
	}

	txSequence := int64(s.input().Sequence)
	if txSequence&wire.SequenceLockTimeDisabled != 0 {
		return s.fail(scriptError(ErrSequenceDisabled))
	}
	if sequence&wire.SequenceLockTimeIsSeconds != txSequence&wire.SequenceLockTimeIsSeconds {
		return s.fail(scriptErrorf(ErrIncompatibleSequenceType,
			"Required: %d, input: %d.", sequence, txSequence))
	}
	if sequence&wire.SequenceLockTimeMask > txSequence&wire.SequenceLockTimeMask {
		return s.fail(scriptErrorf(ErrUnsatisfiedSequenceNumber,
			"Required: %d, input: %d.", sequence&wire.SequenceLockTimeMask,
			txSequence&wire.SequenceLockTimeMask))
	}
	return s
}
