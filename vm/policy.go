// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vm

import (
	"github.com/cashvm/authvm/consensus"
	"github.com/cashvm/authvm/txscript"
	"github.com/cashvm/authvm/wire"
)

// scriptClass classifies a locking bytecode under the rules of params.
func scriptClass(params *consensus.Params, lockingBytecode []byte) txscript.ScriptClass {
	return txscript.GetScriptClass(lockingBytecode, params.MaximumStandardMultisigKeys,
		params.PayToScriptHash32)
}

// DustThreshold returns the smallest value an output may carry without being
// considered dust.  Dust is defined in terms of the dust relay fee: an output
// is dust if the cost to the network to create and later spend it is more
// than a third of its value.  Data carrier outputs are never dust.
func DustThreshold(params *consensus.Params, output *wire.Output) uint64 {
	if scriptClass(params, output.LockingBytecode) == txscript.NullDataTy {
		return 0
	}
	totalSize := int64(output.SerializeSize()) + params.DustInputSpendLength
	return uint64(3 * params.DustRelayFeeSatPerKb * totalSize / 1000)
}

// IsDust returns whether or not the passed output is below its dust
// threshold.
func IsDust(params *consensus.Params, output *wire.Output) bool {
	return output.Value < DustThreshold(params, output)
}

// checkTransactionStandard performs a series of checks on a transaction to
// ensure it is a "standard" transaction.  A standard transaction is one that
// conforms to several additional limiting cases over what is considered
// valid by consensus such as having a version in the supported range,
// conforming to more stringent size constraints, having bytecode of
// recognized forms, and not containing "dust" outputs (those that are so
// small it costs more to process them than they are worth).
func checkTransactionStandard(params *consensus.Params, tx *ResolvedTransaction, length int) error {
	msgTx := tx.Transaction
	if msgTx.Version < 1 || msgTx.Version > params.MaximumStandardVersion {
		return ruleErrorf(ErrNonStandard, "transaction version %d is not in the "+
			"valid range of %d-%d", msgTx.Version, 1, params.MaximumStandardVersion)
	}

	if length > params.MaximumStandardTransactionLength {
		return ruleErrorf(ErrNonStandard, "transaction size of %d is larger than max "+
			"allowed size of %d", length, params.MaximumStandardTransactionLength)
	}

	for i, out := range tx.SourceOutputs {
		if scriptClass(params, out.LockingBytecode) == txscript.NonStandardTy {
			return ruleErrorf(ErrNonStandard, "transaction input %d: spent "+
				"output is non-standard", i)
		}
	}

	dataCarrierBytes := 0
	for i, out := range msgTx.Outputs {
		class := scriptClass(params, out.LockingBytecode)
		switch class {
		case txscript.NonStandardTy:
			return ruleErrorf(ErrNonStandard, "transaction output %d: "+
				"non-standard locking bytecode form", i)
		case txscript.NullDataTy:
			dataCarrierBytes += len(out.LockingBytecode) + 1
		}
		if IsDust(params, out) {
			return ruleErrorf(ErrDust, "transaction output %d: payment "+
				"of %d is dust", i, out.Value)
		}
	}
	if dataCarrierBytes > params.MaximumDataCarrierBytes {
		return ruleErrorf(ErrNonStandard, "transaction data carrier outputs "+
			"use %d bytes, more than the allowed max of %d",
			dataCarrierBytes, params.MaximumDataCarrierBytes)
	}

	for i, in := range msgTx.Inputs {
		unlockingLen := len(in.UnlockingBytecode)
		if unlockingLen > params.MaximumStandardUnlockingBytecodeLength {
			return ruleErrorf(ErrNonStandard, "transaction input %d: unlocking "+
				"bytecode size of %d bytes is larger than max allowed size "+
				"of %d bytes", i, unlockingLen, params.MaximumStandardUnlockingBytecodeLength)
		}
		if !txscript.IsPushOnlyBytecode(in.UnlockingBytecode) {
			return ruleErrorf(ErrNonStandard, "transaction input %d: unlocking "+
				"bytecode is not push only", i)
		}
	}
	return nil
}
