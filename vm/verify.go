// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vm

import (
	"math/big"

	"github.com/cashvm/authvm/wire"
)

// checkTransactionSanity performs the context-free consensus checks of a
// resolved transaction.
func (set *InstructionSet) checkTransactionSanity(tx *ResolvedTransaction, length int) error {
	msgTx := tx.Transaction
	params := &set.Params

	if len(msgTx.Inputs) == 0 {
		return ruleError(ErrNoTxInputs, "transaction has no inputs")
	}
	if len(msgTx.Outputs) == 0 {
		return ruleError(ErrNoTxOutputs, "transaction has no outputs")
	}
	if len(tx.SourceOutputs) != len(msgTx.Inputs) {
		return ruleErrorf(ErrSourceOutputCount, "transaction has %d inputs "+
			"but %d source outputs were provided", len(msgTx.Inputs), len(tx.SourceOutputs))
	}

	if length < params.MinimumTransactionLengthBytes {
		return ruleErrorf(ErrTxTooSmall, "serialized transaction is too small - "+
			"got %d, min %d", length, params.MinimumTransactionLengthBytes)
	}
	if length > params.MaximumTransactionLengthBytes {
		return ruleErrorf(ErrTxTooBig, "serialized transaction is too big - "+
			"got %d, max %d", length, params.MaximumTransactionLengthBytes)
	}

	// Values are summed without overflow; the total output value may not
	// exceed the total input value.
	totalIn, totalOut := new(big.Int), new(big.Int)
	for _, out := range tx.SourceOutputs {
		totalIn.Add(totalIn, new(big.Int).SetUint64(out.Value))
	}
	for _, out := range msgTx.Outputs {
		totalOut.Add(totalOut, new(big.Int).SetUint64(out.Value))
	}
	if totalOut.Cmp(totalIn) > 0 {
		return ruleErrorf(ErrSpendTooHigh, "total value of all transaction "+
			"outputs is %s which is higher than the input value of %s",
			totalOut.String(), totalIn.String())
	}

	existingOutPoints := make(map[wire.OutPoint]struct{}, len(msgTx.Inputs))
	for _, in := range msgTx.Inputs {
		if _, exists := existingOutPoints[in.PreviousOutPoint]; exists {
			return ruleErrorf(ErrDuplicateTxInputs, "transaction contains "+
				"duplicate inputs spending %v", in.PreviousOutPoint)
		}
		existingOutPoints[in.PreviousOutPoint] = struct{}{}
	}

	if msgTx.Version < params.MinimumConsensusVersion ||
		(params.MaximumConsensusVersion != 0 && msgTx.Version > params.MaximumConsensusVersion) {
		return ruleErrorf(ErrTxVersion, "transaction version %d is not in the "+
			"valid range", msgTx.Version)
	}
	return nil
}

// verify checks a resolved transaction against the rule set.  Checks are
// applied in a fixed order and the first failure is returned.
func (set *InstructionSet) verify(tx *ResolvedTransaction) error {
	length := len(set.EncodeTransaction(tx.Transaction))
	if err := set.checkTransactionSanity(tx, length); err != nil {
		return err
	}
	if set.Standard {
		if err := checkTransactionStandard(&set.Params, tx, length); err != nil {
			return err
		}
	}
	if err := checkTokens(&set.Params, tx); err != nil {
		return err
	}

	metrics, err := ValidateInputs(set, tx)
	if err != nil {
		return err
	}
	if metrics.SignatureCheckCount > set.Params.MaximumTransactionSignatureChecks {
		return ruleErrorf(ErrTooManySigChecks, "transaction performs %d signature "+
			"checks, more than the allowed max of %d", metrics.SignatureCheckCount,
			set.Params.MaximumTransactionSignatureChecks)
	}
	return nil
}
