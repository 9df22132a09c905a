// Copyright (c) 2013-2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vm

import (
	"runtime"

	"github.com/cashvm/authvm/logging"
)

// inputResult is the outcome of evaluating one input.
type inputResult struct {
	index   int
	metrics Metrics
	err     *ScriptError
}

// inputValidator provides a type which asynchronously evaluates transaction
// inputs.  It provides several channels for communication and a processing
// function that is intended to be in run multiple goroutines.
type inputValidator struct {
	validateChan chan int
	quitChan     chan struct{}
	resultChan   chan inputResult
	set          *InstructionSet
	tx           *ResolvedTransaction
}

// evaluateInput evaluates one input of the transaction starting from the
// provided metrics.
func (set *InstructionSet) evaluateInput(tx *ResolvedTransaction, index int, metrics Metrics) inputResult {
	p := &Program{
		Transaction:   tx.Transaction,
		SourceOutputs: tx.SourceOutputs,
		InputIndex:    index,
	}
	state := set.Evaluate(p, metrics, set.Run)
	return inputResult{index: index, metrics: state.Metrics, err: set.Success(state)}
}

// sendResult sends the result of an input evaluation on the internal result
// channel while respecting the quit channel.  The allows orderly shutdown
// when the validation process is aborted early.
func (v *inputValidator) sendResult(result inputResult) {
	select {
	case v.resultChan <- result:
	case <-v.quitChan:
	}
}

// validateHandler consumes input indexes from the internal validate channel
// and returns the result of the evaluation on the internal result channel.
// It must be run as a goroutine.
func (v *inputValidator) validateHandler() {
	for {
		select {
		case index := <-v.validateChan:
			v.sendResult(v.set.evaluateInput(v.tx, index, Metrics{}))

		case <-v.quitChan:
			return
		}
	}
}

// Validate evaluates every input using multiple goroutines.  When inputs
// fail, the failure with the lowest index is returned regardless of the
// order in which evaluations finish.
func (v *inputValidator) Validate() (Metrics, error) {
	var total Metrics
	numInputs := len(v.tx.Transaction.Inputs)
	if numInputs == 0 {
		return total, nil
	}

	maxGoRoutines := runtime.NumCPU() * 3
	if maxGoRoutines <= 0 {
		maxGoRoutines = 1
	}
	if maxGoRoutines > numInputs {
		maxGoRoutines = numInputs
	}
	logging.VPrint(logging.TRACE, "validating inputs",
		logging.LogFormat{
			"inputs":  numInputs,
			"workers": maxGoRoutines,
		})
	for i := 0; i < maxGoRoutines; i++ {
		go v.validateHandler()
	}
	defer close(v.quitChan)

	var failed *inputResult
	currentItem := 0
	processedItems := 0
	for processedItems < currentItem || (failed == nil && currentItem < numInputs) {
		// Once an input fails, only the inputs already dispatched are
		// awaited.  All of them have lower indexes than any not yet sent.
		var validateChan chan int
		if failed == nil && currentItem < numInputs {
			validateChan = v.validateChan
		}

		select {
		case validateChan <- currentItem:
			currentItem++

		case result := <-v.resultChan:
			processedItems++
			total.ExecutedInstructionCount += result.metrics.ExecutedInstructionCount
			total.SignatureCheckCount += result.metrics.SignatureCheckCount
			if result.err != nil && (failed == nil || result.index < failed.index) {
				r := result
				failed = &r
			}
		}
	}

	if failed != nil {
		return total, inputError(failed.index, failed.err)
	}
	return total, nil
}

// newInputValidator returns a new instance of inputValidator to be used for
// evaluating transaction inputs asynchronously.
func newInputValidator(set *InstructionSet, tx *ResolvedTransaction) *inputValidator {
	return &inputValidator{
		validateChan: make(chan int),
		quitChan:     make(chan struct{}),
		resultChan:   make(chan inputResult),
		set:          set,
		tx:           tx,
	}
}

// ValidateInputs evaluates every input of a transaction and returns the
// combined metrics.  Rule sets with cumulative metrics evaluate inputs in
// order, each starting from the metrics of the previous one; otherwise
// inputs are independent and are evaluated concurrently.
func ValidateInputs(set *InstructionSet, tx *ResolvedTransaction) (Metrics, error) {
	if !set.Params.CumulativeMetrics {
		return newInputValidator(set, tx).Validate()
	}

	var metrics Metrics
	for i := range tx.Transaction.Inputs {
		result := set.evaluateInput(tx, i, metrics)
		metrics = result.metrics
		if result.err != nil {
			return metrics, inputError(i, result.err)
		}
	}
	return metrics, nil
}
