package vm

import (
	"github.com/cashvm/authvm/txscript"
)

// Operation is a state transition.  The engine owns the state while a phase
// runs; operations modify it and return it.
type Operation func(*ProgramState) *ProgramState

// PhaseRunner runs one evaluation phase to completion.
type PhaseRunner func(*ProgramState) *ProgramState

// continueEvaluation reports whether the engine should take another step.
func continueEvaluation(s *ProgramState) bool {
	return s.Error == nil && s.IP < len(s.Instructions)
}

// Step executes the instruction at IP.
func (set *InstructionSet) Step(s *ProgramState) *ProgramState {
	op := s.Instructions[s.IP].Op()
	if op > txscript.OP_16 {
		s.OperationCount++
	}
	operation := set.Operations[op]
	if operation == nil {
		operation = set.Undefined
	}
	s = operation(s)
	s = set.Every(s)
	s.IP++
	s.Metrics.ExecutedInstructionCount++
	return s
}

// Run steps the state until Continue reports false.
func (set *InstructionSet) Run(s *ProgramState) *ProgramState {
	for set.Continue(s) {
		s = set.Step(s)
	}
	return s
}

// RunDebug steps the state like Run.  It also returns a copy of the initial
// state followed by a copy of the state after every step.
func (set *InstructionSet) RunDebug(s *ProgramState) (*ProgramState, []*ProgramState) {
	trace := []*ProgramState{s.Clone()}
	for set.Continue(s) {
		s = set.Step(s)
		trace = append(trace, s.Clone())
	}
	return s, trace
}

// every is applied after each operation to enforce the resource ceilings.
func (set *InstructionSet) every(s *ProgramState) *ProgramState {
	if len(s.Stack)+len(s.AlternateStack) > set.Params.MaximumStackDepth {
		return s.fail(scriptError(ErrExceededMaximumStackDepth))
	}
	if s.OperationCount > set.Params.MaximumOperationCount {
		return s.fail(scriptError(ErrExceededMaximumOperationCount))
	}
	if set.Params.CumulativeMetrics &&
		s.Metrics.SignatureCheckCount > set.Params.MaximumTransactionSignatureChecks {
		return s.fail(scriptError(ErrExceededMaximumSignatureChecks))
	}
	return s
}

// success returns nil if the state represents a successful evaluation.
func success(s *ProgramState) *ScriptError {
	switch {
	case s.Error != nil:
		return s.Error
	case len(s.ControlStack) != 0:
		return scriptError(ErrNonEmptyControlStack)
	case len(s.Stack) != 1:
		return scriptErrorf(ErrRequiresCleanStack, "Stack depth: %d.", len(s.Stack))
	case !txscript.IsTruthy(s.Stack[0]):
		return scriptError(ErrUnsuccessfulEvaluation)
	}
	return nil
}
