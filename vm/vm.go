// Package vm implements the authentication virtual machine of the Bitcoin
// Cash family of rule sets.  An InstructionSet holds the rules; a VM
// evaluates programs and verifies transactions against them.
package vm

import (
	"github.com/cashvm/authvm/logging"
)

// VM evaluates programs and verifies transactions under one instruction
// set.  A VM holds no mutable state and is safe for concurrent use.
type VM struct {
	set *InstructionSet
}

// NewVM returns a VM for the instruction set.
func NewVM(set *InstructionSet) *VM {
	return &VM{set: set}
}

// InstructionSet returns the instruction set of the VM.
func (vm *VM) InstructionSet() *InstructionSet {
	return vm.set
}

// Evaluate returns the final state of a program.
func (vm *VM) Evaluate(p *Program) *ProgramState {
	return vm.set.Evaluate(p, Metrics{}, vm.set.Run)
}

// Debug evaluates a program and returns every intermediate state.  The
// states of each phase begin with the phase's initial state.  The last
// element is the state Evaluate returns.
func (vm *VM) Debug(p *Program) []*ProgramState {
	var trace []*ProgramState
	var last *ProgramState
	run := func(s *ProgramState) *ProgramState {
		final, phase := vm.set.RunDebug(s)
		trace = append(trace, phase...)
		last = final
		return final
	}

	result := vm.set.Evaluate(p, Metrics{}, run)
	if result == last && len(trace) > 0 {
		// Evaluation may fail a phase's final state after it ran.
		trace[len(trace)-1] = result.Clone()
	} else {
		trace = append(trace, result.Clone())
	}
	return trace
}

// Verify checks a transaction and the outputs it spends.  It returns nil if
// the transaction is valid.
func (vm *VM) Verify(tx *ResolvedTransaction) error {
	err := vm.set.Verify(tx)
	if err != nil {
		logging.VPrint(logging.DEBUG, "transaction rejected",
			logging.LogFormat{
				"tx":      tx.Transaction.TxHash().String(),
				"ruleset": vm.set.RuleSet.String(),
				"err":     err,
			})
	}
	return err
}

// StateSuccess returns nil if the state is a successful evaluation, or the
// reason it is not.
func (vm *VM) StateSuccess(s *ProgramState) error {
	if err := vm.set.Success(s); err != nil {
		return err
	}
	return nil
}
