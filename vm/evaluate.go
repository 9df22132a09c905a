package vm

import (
	"github.com/cashvm/authvm/txscript"
)

// errorState returns a state that failed before any instruction ran.
func (set *InstructionSet) errorState(p *Program, metrics Metrics, err *ScriptError) *ProgramState {
	s := set.Initialize(p, []txscript.Instruction{}, [][]byte{}, metrics)
	return s.fail(err)
}

// evaluate runs the unlocking, locking and, for pay-to-script-hash outputs,
// redeem phases of one input.  Each phase starts from the stack left by the
// previous phase and carries its metrics forward.
func (set *InstructionSet) evaluate(p *Program, metrics Metrics, run PhaseRunner) *ProgramState {
	tx := p.Transaction
	if p.InputIndex < 0 || p.InputIndex >= len(tx.Inputs) || p.InputIndex >= len(p.SourceOutputs) {
		return set.errorState(p, metrics, scriptErrorf(ErrInvalidTransactionIndex,
			"Input index: %d.", p.InputIndex))
	}
	unlockingBytecode := tx.Inputs[p.InputIndex].UnlockingBytecode
	lockingBytecode := p.SourceOutputs[p.InputIndex].LockingBytecode

	if len(unlockingBytecode) > set.Params.MaximumBytecodeLength {
		return set.errorState(p, metrics, scriptErrorf(ErrExceededMaximumBytecodeLengthUnlocking,
			"Length: %d.", len(unlockingBytecode)))
	}
	unlocking := txscript.DecodeInstructions(unlockingBytecode)
	if txscript.InstructionsAreMalformed(unlocking) {
		return set.errorState(p, metrics, scriptErrorf(ErrMalformedUnlockingBytecode,
			"Bytecode: %s.", txscript.Disassemble(unlocking)))
	}
	if !txscript.IsPushOnly(unlocking) {
		return set.errorState(p, metrics, scriptError(ErrRequiresPushOnly))
	}

	if len(lockingBytecode) > set.Params.MaximumBytecodeLength {
		return set.errorState(p, metrics, scriptErrorf(ErrExceededMaximumBytecodeLengthLocking,
			"Length: %d.", len(lockingBytecode)))
	}
	locking := txscript.DecodeInstructions(lockingBytecode)
	if txscript.InstructionsAreMalformed(locking) {
		return set.errorState(p, metrics, scriptErrorf(ErrMalformedLockingBytecode,
			"Bytecode: %s.", txscript.Disassemble(locking)))
	}

	unlockingResult := run(set.Initialize(p, unlocking, [][]byte{}, metrics))
	if unlockingResult.Error != nil {
		return unlockingResult
	}
	if len(unlockingResult.ControlStack) != 0 {
		return unlockingResult.fail(scriptError(ErrNonEmptyControlStack))
	}

	lockingResult := run(set.Initialize(p, locking, unlockingResult.Stack, unlockingResult.Metrics))

	p2sh20 := txscript.IsPayToScriptHash20(lockingBytecode)
	p2sh32 := set.Params.PayToScriptHash32 && txscript.IsPayToScriptHash32(lockingBytecode)
	if !p2sh20 && !p2sh32 {
		return lockingResult
	}

	if lockingResult.Error != nil {
		return lockingResult
	}
	if len(lockingResult.Stack) == 0 || !txscript.IsTruthy(lockingResult.Stack[len(lockingResult.Stack)-1]) {
		return lockingResult.fail(scriptError(ErrUnsuccessfulEvaluation))
	}

	// The redeem bytecode is the last item pushed by the unlocking bytecode.
	p2shStack := cloneStack(unlockingResult.Stack)
	redeemBytecode := p2shStack[len(p2shStack)-1]
	p2shStack = p2shStack[:len(p2shStack)-1]

	if p2sh20 && len(p2shStack) == 0 && txscript.IsWitnessProgram(redeemBytecode) {
		return lockingResult
	}

	redeem := txscript.DecodeInstructions(redeemBytecode)
	if txscript.InstructionsAreMalformed(redeem) {
		return set.errorState(p, lockingResult.Metrics, scriptErrorf(ErrMalformedP2shBytecode,
			"Bytecode: %s.", txscript.Disassemble(redeem)))
	}
	return run(set.Initialize(p, redeem, p2shStack, lockingResult.Metrics))
}
