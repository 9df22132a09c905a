// Copyright (c) 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"
)

// ErrorCode identifies a kind of transaction-level rule violation.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrNoTxInputs indicates a transaction does not have any inputs.
	ErrNoTxInputs ErrorCode = iota

	// ErrNoTxOutputs indicates a transaction does not have any outputs.
	ErrNoTxOutputs

	// ErrSourceOutputCount indicates the number of source outputs does not
	// match the number of inputs.
	ErrSourceOutputCount

	// ErrTxTooSmall indicates a transaction is below the minimum length.
	ErrTxTooSmall

	// ErrTxTooBig indicates a transaction exceeds the maximum length.
	ErrTxTooBig

	// ErrSpendTooHigh indicates the outputs of a transaction are worth more
	// than its inputs.
	ErrSpendTooHigh

	// ErrDuplicateTxInputs indicates a transaction spends one outpoint in
	// more than one input.
	ErrDuplicateTxInputs

	// ErrTxVersion indicates a transaction version outside the consensus
	// range.
	ErrTxVersion

	// ErrNonStandard indicates a standardness rule was violated.
	ErrNonStandard

	// ErrDust indicates an output is below its dust threshold.
	ErrDust

	// ErrTokenValidation indicates a CashTokens rule was violated.
	ErrTokenValidation

	// ErrTooManySigChecks indicates a transaction exceeds the signature
	// check limit.
	ErrTooManySigChecks

	// ErrScriptValidation indicates an input failed evaluation.
	ErrScriptValidation
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrNoTxInputs:        "ErrNoTxInputs",
	ErrNoTxOutputs:       "ErrNoTxOutputs",
	ErrSourceOutputCount: "ErrSourceOutputCount",
	ErrTxTooSmall:        "ErrTxTooSmall",
	ErrTxTooBig:          "ErrTxTooBig",
	ErrSpendTooHigh:      "ErrSpendTooHigh",
	ErrDuplicateTxInputs: "ErrDuplicateTxInputs",
	ErrTxVersion:         "ErrTxVersion",
	ErrNonStandard:       "ErrNonStandard",
	ErrDust:              "ErrDust",
	ErrTokenValidation:   "ErrTokenValidation",
	ErrTooManySigChecks:  "ErrTooManySigChecks",
	ErrScriptValidation:  "ErrScriptValidation",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a transaction rule violation.  The caller can use type
// assertions to determine if a failure was specifically due to a rule
// violation and access the ErrorCode field to ascertain the specific reason
// for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue

	// InputIndex and Script are set for ErrScriptValidation.
	InputIndex int
	Script     *ScriptError
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

func ruleErrorf(c ErrorCode, format string, args ...interface{}) RuleError {
	return ruleError(c, fmt.Sprintf(format, args...))
}

// inputError wraps the failure of one input's evaluation.
func inputError(index int, err *ScriptError) RuleError {
	return RuleError{
		ErrorCode:   ErrScriptValidation,
		Description: fmt.Sprintf("Error in evaluating input index %d: %s", index, err.Description),
		InputIndex:  index,
		Script:      err,
	}
}

// ScriptErrorCode identifies the reason a program failed to evaluate.
type ScriptErrorCode int

// These constants are used to identify a specific ScriptError.
const (
	ErrExceededMaximumBytecodeLengthUnlocking ScriptErrorCode = iota
	ErrExceededMaximumBytecodeLengthLocking
	ErrMalformedUnlockingBytecode
	ErrMalformedLockingBytecode
	ErrMalformedP2shBytecode
	ErrRequiresPushOnly
	ErrNonEmptyControlStack
	ErrRequiresCleanStack
	ErrUnsuccessfulEvaluation
	ErrExceededMaximumStackDepth
	ErrExceededMaximumOperationCount
	ErrExceededMaximumStackItemLength
	ErrExceededMaximumSignatureChecks
	ErrEmptyStack
	ErrEmptyAlternateStack
	ErrUnknownOpcode
	ErrDisabledOpcode
	ErrReservedOpcode
	ErrCalledReturn
	ErrFailedVerify
	ErrNonMinimalPush
	ErrNumberOutOfRange
	ErrNumberNonMinimal
	ErrOverflowResult
	ErrDivisionByZero
	ErrInvalidStackIndex
	ErrInvalidSplitIndex
	ErrInvalidNum2BinSize
	ErrMismatchedBitwiseOperandLength
	ErrUnexpectedElse
	ErrUnexpectedEndIf
	ErrUnexpectedUntil
	ErrExcessiveLooping
	ErrInvalidSignatureEncoding
	ErrInvalidSigHashType
	ErrInvalidPublicKeyEncoding
	ErrNonNullSignatureFailure
	ErrSchnorrSizedSignatureInCheckMultiSig
	ErrNonSchnorrSignatureInBitfieldMode
	ErrInvalidSchnorrBitfield
	ErrInvalidPublicKeyCount
	ErrInvalidSignatureCount
	ErrNegativeLockTime
	ErrIncompatibleLockTimeType
	ErrUnsatisfiedLockTime
	ErrLockTimeDisabled
	ErrCheckSequenceUnavailable
	ErrSequenceDisabled
	ErrIncompatibleSequenceType
	ErrUnsatisfiedSequenceNumber
	ErrInvalidTransactionIndex
	ErrUpgradableNop
)

// scriptErrorDescriptions holds the default description of each code.
var scriptErrorDescriptions = map[ScriptErrorCode]string{
	ErrExceededMaximumBytecodeLengthUnlocking: "The provided unlocking bytecode exceeds the maximum bytecode length.",
	ErrExceededMaximumBytecodeLengthLocking:   "The provided locking bytecode exceeds the maximum bytecode length.",
	ErrMalformedUnlockingBytecode:             "The provided unlocking bytecode is malformed.",
	ErrMalformedLockingBytecode:               "The provided locking bytecode is malformed.",
	ErrMalformedP2shBytecode:                  "The P2SH redeem bytecode is malformed.",
	ErrRequiresPushOnly:                       "Unlocking bytecode may contain only push operations.",
	ErrNonEmptyControlStack:                   "Program completed with an unresolved conditional or loop.",
	ErrRequiresCleanStack:                     "Program completed with a stack containing other than exactly one item.",
	ErrUnsuccessfulEvaluation:                 "Program completed with a non-truthy value on top of the stack.",
	ErrExceededMaximumStackDepth:              "Program exceeded the maximum stack depth.",
	ErrExceededMaximumOperationCount:          "Program exceeded the maximum operation count.",
	ErrExceededMaximumStackItemLength:         "Program attempted to push a stack item which exceeded the maximum stack item length.",
	ErrExceededMaximumSignatureChecks:         "Transaction exceeded the maximum number of signature checks.",
	ErrEmptyStack:                             "Program attempted to read from an empty stack.",
	ErrEmptyAlternateStack:                    "Program attempted to read from an empty alternate stack.",
	ErrUnknownOpcode:                          "Program called an unknown opcode.",
	ErrDisabledOpcode:                         "Program contains a disabled opcode.",
	ErrReservedOpcode:                         "Program executed a reserved opcode.",
	ErrCalledReturn:                           "Program executed an OP_RETURN operation.",
	ErrFailedVerify:                           "Program failed an OP_VERIFY operation.",
	ErrNonMinimalPush:                         "Push operations must use the smallest possible encoding.",
	ErrNumberOutOfRange:                       "Program attempted to read a VM number which exceeds the maximum length.",
	ErrNumberNonMinimal:                       "Program attempted to read a VM number which is not minimally encoded.",
	ErrOverflowResult:                         "Program produced a VM number which exceeds the maximum length.",
	ErrDivisionByZero:                         "Program attempted to divide a number by zero.",
	ErrInvalidStackIndex:                      "Program attempted to access a stack index outside of the stack.",
	ErrInvalidSplitIndex:                      "Program attempted an OP_SPLIT at an index outside of the provided item.",
	ErrInvalidNum2BinSize:                     "Program called OP_NUM2BIN with a size too small to encode the number.",
	ErrMismatchedBitwiseOperandLength:         "Program attempted a bitwise operation on operands of different lengths.",
	ErrUnexpectedElse:                         "Program encountered an OP_ELSE without a matching OP_IF or OP_NOTIF.",
	ErrUnexpectedEndIf:                        "Program encountered an OP_ENDIF without a matching OP_IF or OP_NOTIF.",
	ErrUnexpectedUntil:                        "Program encountered an OP_UNTIL without a matching OP_BEGIN.",
	ErrExcessiveLooping:                       "Program exceeded the maximum number of repeated bytes.",
	ErrInvalidSignatureEncoding:               "Program attempted to use a signature which is not a valid Schnorr or DER low-S signature.",
	ErrInvalidSigHashType:                     "Program attempted to use a signature with an invalid signing serialization type.",
	ErrInvalidPublicKeyEncoding:               "Program attempted to use an incorrectly encoded public key.",
	ErrNonNullSignatureFailure:                "Program failed a signature verification with a non-null signature.",
	ErrSchnorrSizedSignatureInCheckMultiSig:   "Program used a Schnorr-sized signature in an OP_CHECKMULTISIG operation in ECDSA mode.",
	ErrNonSchnorrSignatureInBitfieldMode:      "Program used a non-Schnorr signature in an OP_CHECKMULTISIG operation in Schnorr mode.",
	ErrInvalidSchnorrBitfield:                 "Program provided an invalid signature bitfield to an OP_CHECKMULTISIG operation.",
	ErrInvalidPublicKeyCount:                  "Program called an OP_CHECKMULTISIG with an invalid public key count.",
	ErrInvalidSignatureCount:                  "Program called an OP_CHECKMULTISIG with an invalid signature count.",
	ErrNegativeLockTime:                       "Program called a time lock operation with a negative value.",
	ErrIncompatibleLockTimeType:               "Program called OP_CHECKLOCKTIMEVERIFY with a locktime of a different type than the transaction.",
	ErrUnsatisfiedLockTime:                    "Program called OP_CHECKLOCKTIMEVERIFY with a locktime greater than the transaction locktime.",
	ErrLockTimeDisabled:                       "Program called OP_CHECKLOCKTIMEVERIFY in an input with a final sequence number.",
	ErrCheckSequenceUnavailable:               "Program called OP_CHECKSEQUENCEVERIFY in a transaction with a version below 2.",
	ErrSequenceDisabled:                       "Program called OP_CHECKSEQUENCEVERIFY in an input with relative locktime disabled.",
	ErrIncompatibleSequenceType:               "Program called OP_CHECKSEQUENCEVERIFY with a sequence number of a different type than the input.",
	ErrUnsatisfiedSequenceNumber:              "Program called OP_CHECKSEQUENCEVERIFY with a sequence number greater than the input sequence number.",
	ErrInvalidTransactionIndex:                "Program attempted to introspect a transaction index which does not exist.",
	ErrUpgradableNop:                          "Program executed an upgradable NOP, which is non-standard.",
}

var scriptErrorNames = map[ScriptErrorCode]string{
	ErrExceededMaximumBytecodeLengthUnlocking: "ErrExceededMaximumBytecodeLengthUnlocking",
	ErrExceededMaximumBytecodeLengthLocking:   "ErrExceededMaximumBytecodeLengthLocking",
	ErrMalformedUnlockingBytecode:             "ErrMalformedUnlockingBytecode",
	ErrMalformedLockingBytecode:               "ErrMalformedLockingBytecode",
	ErrMalformedP2shBytecode:                  "ErrMalformedP2shBytecode",
	ErrRequiresPushOnly:                       "ErrRequiresPushOnly",
	ErrNonEmptyControlStack:                   "ErrNonEmptyControlStack",
	ErrRequiresCleanStack:                     "ErrRequiresCleanStack",
	ErrUnsuccessfulEvaluation:                 "ErrUnsuccessfulEvaluation",
	ErrExceededMaximumStackDepth:              "ErrExceededMaximumStackDepth",
	ErrExceededMaximumOperationCount:          "ErrExceededMaximumOperationCount",
	ErrExceededMaximumStackItemLength:         "ErrExceededMaximumStackItemLength",
	ErrExceededMaximumSignatureChecks:         "ErrExceededMaximumSignatureChecks",
	ErrEmptyStack:                             "ErrEmptyStack",
	ErrEmptyAlternateStack:                    "ErrEmptyAlternateStack",
	ErrUnknownOpcode:                          "ErrUnknownOpcode",
	ErrDisabledOpcode:                         "ErrDisabledOpcode",
	ErrReservedOpcode:                         "ErrReservedOpcode",
	ErrCalledReturn:                           "ErrCalledReturn",
	ErrFailedVerify:                           "ErrFailedVerify",
	ErrNonMinimalPush:                         "ErrNonMinimalPush",
	ErrNumberOutOfRange:                       "ErrNumberOutOfRange",
	ErrNumberNonMinimal:                       "ErrNumberNonMinimal",
	ErrOverflowResult:                         "ErrOverflowResult",
	ErrDivisionByZero:                         "ErrDivisionByZero",
	ErrInvalidStackIndex:                      "ErrInvalidStackIndex",
	ErrInvalidSplitIndex:                      "ErrInvalidSplitIndex",
	ErrInvalidNum2BinSize:                     "ErrInvalidNum2BinSize",
	ErrMismatchedBitwiseOperandLength:         "ErrMismatchedBitwiseOperandLength",
	ErrUnexpectedElse:                         "ErrUnexpectedElse",
	ErrUnexpectedEndIf:                        "ErrUnexpectedEndIf",
	ErrUnexpectedUntil:                        "ErrUnexpectedUntil",
	ErrExcessiveLooping:                       "ErrExcessiveLooping",
	ErrInvalidSignatureEncoding:               "ErrInvalidSignatureEncoding",
	ErrInvalidSigHashType:                     "ErrInvalidSigHashType",
	ErrInvalidPublicKeyEncoding:               "ErrInvalidPublicKeyEncoding",
	ErrNonNullSignatureFailure:                "ErrNonNullSignatureFailure",
	ErrSchnorrSizedSignatureInCheckMultiSig:   "ErrSchnorrSizedSignatureInCheckMultiSig",
	ErrNonSchnorrSignatureInBitfieldMode:      "ErrNonSchnorrSignatureInBitfieldMode",
	ErrInvalidSchnorrBitfield:                 "ErrInvalidSchnorrBitfield",
	ErrInvalidPublicKeyCount:                  "ErrInvalidPublicKeyCount",
	ErrInvalidSignatureCount:                  "ErrInvalidSignatureCount",
	ErrNegativeLockTime:                       "ErrNegativeLockTime",
	ErrIncompatibleLockTimeType:               "ErrIncompatibleLockTimeType",
	ErrUnsatisfiedLockTime:                    "ErrUnsatisfiedLockTime",
	ErrLockTimeDisabled:                       "ErrLockTimeDisabled",
	ErrCheckSequenceUnavailable:               "ErrCheckSequenceUnavailable",
	ErrSequenceDisabled:                       "ErrSequenceDisabled",
	ErrIncompatibleSequenceType:               "ErrIncompatibleSequenceType",
	ErrUnsatisfiedSequenceNumber:              "ErrUnsatisfiedSequenceNumber",
	ErrInvalidTransactionIndex:                "ErrInvalidTransactionIndex",
	ErrUpgradableNop:                          "ErrUpgradableNop",
}

// String returns the ScriptErrorCode as a human-readable name.
func (e ScriptErrorCode) String() string {
	if s := scriptErrorNames[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ScriptErrorCode (%d)", int(e))
}

// ScriptError is the terminal error of a ProgramState.
type ScriptError struct {
	ErrorCode   ScriptErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e *ScriptError) Error() string {
	return e.Description
}

// scriptError creates a ScriptError with the default description of c.
func scriptError(c ScriptErrorCode) *ScriptError {
	return &ScriptError{ErrorCode: c, Description: scriptErrorDescriptions[c]}
}

// scriptErrorf creates a ScriptError whose description is the default
// description of c followed by the formatted details.
func scriptErrorf(c ScriptErrorCode, format string, args ...interface{}) *ScriptError {
	return &ScriptError{
		ErrorCode:   c,
		Description: scriptErrorDescriptions[c] + " " + fmt.Sprintf(format, args...),
	}
}

// IsErrorCode returns whether or not the provided error is a ScriptError or
// a RuleError wrapping one with the provided error code.
func IsErrorCode(err error, c ScriptErrorCode) bool {
	switch e := err.(type) {
	case *ScriptError:
		return e.ErrorCode == c
	case RuleError:
		return e.Script != nil && e.Script.ErrorCode == c
	}
	return false
}
