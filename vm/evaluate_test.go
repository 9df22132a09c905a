package vm

import (
	"bytes"
	"testing"

	"github.com/cashvm/authvm/consensus"
	"github.com/cashvm/authvm/txscript"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatePhases(t *testing.T) {
	redeem := script(t, int64(2), txscript.OP_ADD, int64(5), txscript.OP_NUMEQUAL)
	p2sh20, err := txscript.PayToScriptHash20(redeem)
	require.NoError(t, err)

	falseRedeem := []byte{txscript.OP_0}
	p2sh20False, err := txscript.PayToScriptHash20(falseRedeem)
	require.NoError(t, err)
	p2sh32False, err := txscript.PayToScriptHash32(falseRedeem)
	require.NoError(t, err)

	malformedRedeem := []byte{0x02, 0x01}
	p2shMalformed, err := txscript.PayToScriptHash20(malformedRedeem)
	require.NoError(t, err)

	witnessProgram := concat([]byte{txscript.OP_0, txscript.OP_DATA_20}, bytes.Repeat([]byte{0x07}, 20))
	p2shWitness, err := txscript.PayToScriptHash20(witnessProgram)
	require.NoError(t, err)

	runScriptTests(t, []scriptTest{
		{name: "unlocking and locking", unlocking: script(t, int64(3)), locking: script(t, int64(3), txscript.OP_EQUAL), err: noError},
		{name: "unlocking not push only", unlocking: script(t, int64(1), txscript.OP_NOP), locking: script(t, int64(1)), err: ErrRequiresPushOnly},
		{name: "malformed unlocking", unlocking: []byte{0x02, 0x01}, locking: script(t, int64(1)), err: ErrMalformedUnlockingBytecode},
		{name: "malformed locking", locking: []byte{txscript.OP_PUSHDATA1}, err: ErrMalformedLockingBytecode},
		{name: "oversized unlocking", unlocking: bytes.Repeat([]byte{txscript.OP_1}, 10001), locking: script(t, int64(1)),
			err: ErrExceededMaximumBytecodeLengthUnlocking},
		{name: "oversized locking", locking: bytes.Repeat([]byte{txscript.OP_NOP}, 10001), err: ErrExceededMaximumBytecodeLengthLocking},
		{name: "non-minimal push", unlocking: []byte{txscript.OP_PUSHDATA1, 0x01, 0x05}, locking: script(t, int64(5), txscript.OP_EQUAL),
			err: ErrNonMinimalPush},
		{name: "unclean stack", unlocking: script(t, int64(1), int64(1)), err: ErrRequiresCleanStack},
		{name: "falsy result", unlocking: script(t, int64(0)), err: ErrUnsuccessfulEvaluation},
		{name: "empty result", err: ErrRequiresCleanStack},
		{name: "p2sh20", unlocking: script(t, int64(3), redeem), locking: p2sh20, err: noError},
		{name: "p2sh20 redeem fails", unlocking: script(t, int64(4), redeem), locking: p2sh20, err: ErrUnsuccessfulEvaluation},
		{name: "p2sh20 wrong redeem", unlocking: script(t, int64(3), falseRedeem), locking: p2sh20, err: ErrUnsuccessfulEvaluation},
		{name: "p2sh20 malformed redeem", unlocking: script(t, malformedRedeem), locking: p2shMalformed, err: ErrMalformedP2shBytecode},
		{name: "p2sh20 witness program", unlocking: script(t, witnessProgram), locking: p2shWitness, err: noError},
		{name: "p2sh32 before activation", unlocking: script(t, falseRedeem), locking: p2sh32False, err: noError},
		{name: "p2sh32", ruleSet: consensus.BCH2023, unlocking: script(t, falseRedeem), locking: p2sh32False, err: ErrUnsuccessfulEvaluation},
		{name: "p2sh20 false redeem", ruleSet: consensus.BCH2023, unlocking: script(t, falseRedeem), locking: p2sh20False, err: ErrUnsuccessfulEvaluation},
	})
}

func TestEvaluateInvalidInputIndex(t *testing.T) {
	set := mustInstructionSet(t, consensus.BCH2022, false)
	p := singleInputProgram(t, nil, script(t, int64(1)))
	p.InputIndex = 1

	state := NewVM(set).Evaluate(p)
	require.NotNil(t, state.Error)
	assert.Equal(t, ErrInvalidTransactionIndex, state.Error.ErrorCode)
}

func TestCleanStackDescription(t *testing.T) {
	err := evaluate(t, consensus.BCH2022, script(t, int64(1), int64(1), int64(1)), nil)
	require.NotNil(t, err)
	assert.Contains(t, err.Description, "Stack depth: 3.")
}

func TestEvaluateCarriesMetrics(t *testing.T) {
	redeem := script(t, txscript.OP_DUP, txscript.OP_DROP)
	locking, err := txscript.PayToScriptHash20(redeem)
	require.NoError(t, err)

	set := mustInstructionSet(t, consensus.BCH2022, false)
	state := NewVM(set).Evaluate(singleInputProgram(t, script(t, int64(1), redeem), locking))
	require.Nil(t, set.Success(state))

	// Two pushes, three locking instructions and two redeem instructions.
	assert.Equal(t, 7, state.Metrics.ExecutedInstructionCount)
}

func TestDebugTrace(t *testing.T) {
	redeem := script(t, int64(2), txscript.OP_ADD, int64(5), txscript.OP_NUMEQUAL)
	locking, err := txscript.PayToScriptHash20(redeem)
	require.NoError(t, err)
	unlocking := script(t, int64(3), redeem)

	set := mustInstructionSet(t, consensus.BCH2022, false)
	vm := NewVM(set)
	p := singleInputProgram(t, unlocking, locking)

	trace := vm.Debug(p)
	result := vm.Evaluate(p)

	// Each phase contributes its initial state and one state per
	// instruction: 2 unlocking, 3 locking and 4 redeem instructions.
	require.Len(t, trace, 3+4+5)
	assert.Equal(t, 0, trace[0].IP)
	assert.Empty(t, trace[0].Stack)
	assert.Equal(t, result, trace[len(trace)-1], spew.Sdump(trace[len(trace)-1].Stack))
	assert.Nil(t, vm.StateSuccess(trace[len(trace)-1]))

	// Later steps never alter earlier snapshots.
	assert.Len(t, trace[1].Stack, 1)
	assert.Equal(t, []byte{0x03}, trace[1].Stack[0])
}

func TestDebugTraceOnFailure(t *testing.T) {
	malformedRedeem := []byte{0x02, 0x01}
	locking, err := txscript.PayToScriptHash20(malformedRedeem)
	require.NoError(t, err)

	set := mustInstructionSet(t, consensus.BCH2022, false)
	vm := NewVM(set)
	p := singleInputProgram(t, script(t, malformedRedeem), locking)

	trace := vm.Debug(p)
	require.Len(t, trace, 2+4+1)
	last := trace[len(trace)-1]
	require.NotNil(t, last.Error)
	assert.Equal(t, ErrMalformedP2shBytecode, last.Error.ErrorCode)
	assert.Equal(t, vm.Evaluate(p), last)
	assert.True(t, IsErrorCode(vm.StateSuccess(last), ErrMalformedP2shBytecode))
}
