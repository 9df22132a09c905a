package vm

import (
	"github.com/cashvm/authvm/consensus"
	"github.com/cashvm/authvm/txscript"
	"github.com/cashvm/authvm/vmcrypto"
	"github.com/cashvm/authvm/wire"
)

// TransactionEncoder serializes a transaction.  It is used to measure
// transaction length.
type TransactionEncoder func(*wire.Transaction) []byte

// InstructionSet is the complete configuration of one rule set: its
// parameters, opcode table and evaluation protocol.  Instruction sets are
// built by CreateInstructionSet and are not modified afterwards.
type InstructionSet struct {
	RuleSet           consensus.RuleSet
	Params            consensus.Params
	Standard          bool
	Crypto            vmcrypto.Crypto
	EncodeTransaction TransactionEncoder

	Initialize func(p *Program, instructions []txscript.Instruction, stack [][]byte, metrics Metrics) *ProgramState
	Continue   func(*ProgramState) bool
	Every      Operation
	Operations [256]Operation
	Undefined  Operation
	Success    func(*ProgramState) *ScriptError
	Evaluate   func(p *Program, metrics Metrics, run PhaseRunner) *ProgramState
	Verify     func(tx *ResolvedTransaction) error
}

// opContext carries what operations need beyond the program state.
type opContext struct {
	params   *consensus.Params
	standard bool
	crypto   vmcrypto.Crypto
}

// conditional wraps an operation so it only runs while the control stack is
// executing.
func conditional(op Operation) Operation {
	return func(s *ProgramState) *ProgramState {
		if !s.executing() {
			return s
		}
		return op(s)
	}
}

// failing returns an operation that always fails, executing or not.
func failing(code ScriptErrorCode, opName string) Operation {
	return func(s *ProgramState) *ProgramState {
		return s.fail(scriptErrorf(code, "Opcode: %s.", opName))
	}
}

func undefined(s *ProgramState) *ProgramState {
	return s.fail(scriptErrorf(ErrUnknownOpcode, "Opcode: %s.",
		txscript.OpcodeName(s.Instructions[s.IP].Op())))
}

// baseOperations returns the opcode table shared by every rule set.
func baseOperations(c *opContext) [256]Operation {
	var ops [256]Operation

	for op := byte(txscript.OP_0); op <= txscript.OP_PUSHDATA4; op++ {
		ops[op] = c.opPush
	}
	ops[txscript.OP_1NEGATE] = conditional(pushNumber(-1))
	for op := byte(txscript.OP_1); op <= txscript.OP_16; op++ {
		ops[op] = conditional(pushNumber(int64(op - txscript.OP_1 + 1)))
	}

	reserved := func(op byte) Operation {
		return conditional(failing(ErrReservedOpcode, txscript.OpcodeName(op)))
	}
	disabled := func(op byte) Operation {
		return failing(ErrDisabledOpcode, txscript.OpcodeName(op))
	}

	ops[txscript.OP_RESERVED] = reserved(txscript.OP_RESERVED)
	ops[txscript.OP_NOP] = conditional(opNop)
	ops[txscript.OP_VER] = reserved(txscript.OP_VER)
	ops[txscript.OP_IF] = opIf
	ops[txscript.OP_NOTIF] = opNotIf
	ops[txscript.OP_VERIF] = failing(ErrReservedOpcode, "OP_VERIF")
	ops[txscript.OP_VERNOTIF] = failing(ErrReservedOpcode, "OP_VERNOTIF")
	ops[txscript.OP_ELSE] = opElse
	ops[txscript.OP_ENDIF] = opEndIf
	ops[txscript.OP_VERIFY] = conditional(opVerify)
	ops[txscript.OP_RETURN] = conditional(opReturn)

	ops[txscript.OP_TOALTSTACK] = conditional(opToAltStack)
	ops[txscript.OP_FROMALTSTACK] = conditional(opFromAltStack)
	ops[txscript.OP_2DROP] = conditional(op2Drop)
	ops[txscript.OP_2DUP] = conditional(op2Dup)
	ops[txscript.OP_3DUP] = conditional(op3Dup)
	ops[txscript.OP_2OVER] = conditional(op2Over)
	ops[txscript.OP_2ROT] = conditional(op2Rot)
	ops[txscript.OP_2SWAP] = conditional(op2Swap)
	ops[txscript.OP_IFDUP] = conditional(opIfDup)
	ops[txscript.OP_DEPTH] = conditional(opDepth)
	ops[txscript.OP_DROP] = conditional(opDrop)
	ops[txscript.OP_DUP] = conditional(opDup)
	ops[txscript.OP_NIP] = conditional(opNip)
	ops[txscript.OP_OVER] = conditional(opOver)
	ops[txscript.OP_PICK] = conditional(c.opPick)
	ops[txscript.OP_ROLL] = conditional(c.opRoll)
	ops[txscript.OP_ROT] = conditional(opRot)
	ops[txscript.OP_SWAP] = conditional(opSwap)
	ops[txscript.OP_TUCK] = conditional(opTuck)

	ops[txscript.OP_CAT] = conditional(c.opCat)
	ops[txscript.OP_SPLIT] = conditional(c.opSplit)
	ops[txscript.OP_NUM2BIN] = conditional(c.opNum2Bin)
	ops[txscript.OP_BIN2NUM] = conditional(c.opBin2Num)
	ops[txscript.OP_SIZE] = conditional(opSize)
	ops[txscript.OP_INVERT] = disabled(txscript.OP_INVERT)
	ops[txscript.OP_AND] = conditional(opAnd)
	ops[txscript.OP_OR] = conditional(opOr)
	ops[txscript.OP_XOR] = conditional(opXor)
	ops[txscript.OP_EQUAL] = conditional(opEqual)
	ops[txscript.OP_EQUALVERIFY] = conditional(opEqualVerify)
	ops[txscript.OP_RESERVED1] = reserved(txscript.OP_RESERVED1)
	ops[txscript.OP_RESERVED2] = reserved(txscript.OP_RESERVED2)

	ops[txscript.OP_1ADD] = conditional(c.op1Add)
	ops[txscript.OP_1SUB] = conditional(c.op1Sub)
	ops[txscript.OP_2MUL] = disabled(txscript.OP_2MUL)
	ops[txscript.OP_2DIV] = disabled(txscript.OP_2DIV)
	ops[txscript.OP_NEGATE] = conditional(c.opNegate)
	ops[txscript.OP_ABS] = conditional(c.opAbs)
	ops[txscript.OP_NOT] = conditional(c.opNot)
	ops[txscript.OP_0NOTEQUAL] = conditional(c.op0NotEqual)
	ops[txscript.OP_ADD] = conditional(c.opAdd)
	ops[txscript.OP_SUB] = conditional(c.opSub)
	ops[txscript.OP_MUL] = conditional(c.opMul)
	ops[txscript.OP_DIV] = conditional(c.opDiv)
	ops[txscript.OP_MOD] = conditional(c.opMod)
	ops[txscript.OP_LSHIFT] = disabled(txscript.OP_LSHIFT)
	ops[txscript.OP_RSHIFT] = disabled(txscript.OP_RSHIFT)
	ops[txscript.OP_BOOLAND] = conditional(c.opBoolAnd)
	ops[txscript.OP_BOOLOR] = conditional(c.opBoolOr)
	ops[txscript.OP_NUMEQUAL] = conditional(c.opNumEqual)
	ops[txscript.OP_NUMEQUALVERIFY] = conditional(c.opNumEqualVerify)
	ops[txscript.OP_NUMNOTEQUAL] = conditional(c.opNumNotEqual)
	ops[txscript.OP_LESSTHAN] = conditional(c.opLessThan)
	ops[txscript.OP_GREATERTHAN] = conditional(c.opGreaterThan)
	ops[txscript.OP_LESSTHANOREQUAL] = conditional(c.opLessThanOrEqual)
	ops[txscript.OP_GREATERTHANOREQUAL] = conditional(c.opGreaterThanOrEqual)
	ops[txscript.OP_MIN] = conditional(c.opMin)
	ops[txscript.OP_MAX] = conditional(c.opMax)
	ops[txscript.OP_WITHIN] = conditional(c.opWithin)

	ops[txscript.OP_RIPEMD160] = conditional(c.opRipemd160)
	ops[txscript.OP_SHA1] = conditional(c.opSha1)
	ops[txscript.OP_SHA256] = conditional(c.opSha256)
	ops[txscript.OP_HASH160] = conditional(c.opHash160)
	ops[txscript.OP_HASH256] = conditional(c.opHash256)
	ops[txscript.OP_CODESEPARATOR] = conditional(opCodeSeparator)
	ops[txscript.OP_CHECKSIG] = conditional(c.opCheckSig)
	ops[txscript.OP_CHECKSIGVERIFY] = conditional(c.opCheckSigVerify)
	ops[txscript.OP_CHECKMULTISIG] = conditional(c.opCheckMultiSig)
	ops[txscript.OP_CHECKMULTISIGVERIFY] = conditional(c.opCheckMultiSigVerify)

	ops[txscript.OP_NOP1] = conditional(c.opUpgradableNop)
	ops[txscript.OP_CHECKLOCKTIMEVERIFY] = conditional(c.opCheckLockTimeVerify)
	ops[txscript.OP_CHECKSEQUENCEVERIFY] = conditional(c.opCheckSequenceVerify)
	for op := byte(txscript.OP_NOP4); op <= txscript.OP_NOP10; op++ {
		ops[op] = conditional(c.opUpgradableNop)
	}

	ops[txscript.OP_CHECKDATASIG] = conditional(c.opCheckDataSig)
	ops[txscript.OP_CHECKDATASIGVERIFY] = conditional(c.opCheckDataSigVerify)
	ops[txscript.OP_REVERSEBYTES] = conditional(opReverseBytes)

	ops[txscript.OP_INPUTINDEX] = conditional(opInputIndex)
	ops[txscript.OP_ACTIVEBYTECODE] = conditional(c.opActiveBytecode)
	ops[txscript.OP_TXVERSION] = conditional(opTxVersion)
	ops[txscript.OP_TXINPUTCOUNT] = conditional(opTxInputCount)
	ops[txscript.OP_TXOUTPUTCOUNT] = conditional(opTxOutputCount)
	ops[txscript.OP_TXLOCKTIME] = conditional(opTxLockTime)
	ops[txscript.OP_UTXOVALUE] = conditional(c.opUtxoValue)
	ops[txscript.OP_UTXOBYTECODE] = conditional(c.opUtxoBytecode)
	ops[txscript.OP_OUTPOINTTXHASH] = conditional(c.opOutpointTxHash)
	ops[txscript.OP_OUTPOINTINDEX] = conditional(c.opOutpointIndex)
	ops[txscript.OP_INPUTBYTECODE] = conditional(c.opInputBytecode)
	ops[txscript.OP_INPUTSEQUENCENUMBER] = conditional(c.opInputSequenceNumber)
	ops[txscript.OP_OUTPUTVALUE] = conditional(c.opOutputValue)
	ops[txscript.OP_OUTPUTBYTECODE] = conditional(c.opOutputBytecode)

	return ops
}

// tokenOperations are added by rule sets with CashTokens.
func tokenOperations(c *opContext) map[byte]Operation {
	return map[byte]Operation{
		txscript.OP_UTXOTOKENCATEGORY:     conditional(c.opUtxoTokenCategory),
		txscript.OP_UTXOTOKENCOMMITMENT:   conditional(c.opUtxoTokenCommitment),
		txscript.OP_UTXOTOKENAMOUNT:       conditional(c.opUtxoTokenAmount),
		txscript.OP_OUTPUTTOKENCATEGORY:   conditional(c.opOutputTokenCategory),
		txscript.OP_OUTPUTTOKENCOMMITMENT: conditional(c.opOutputTokenCommitment),
		txscript.OP_OUTPUTTOKENAMOUNT:     conditional(c.opOutputTokenAmount),
	}
}

// loopOperations are added by rule sets with bounded loops.  OP_BEGIN and
// OP_UNTIL manage the control stack themselves, so they are not wrapped.
func loopOperations(c *opContext) map[byte]Operation {
	return map[byte]Operation{
		txscript.OP_BEGIN: opBegin,
		txscript.OP_UNTIL: c.opUntil,
	}
}

// CreateInstructionSet returns the instruction set of a rule set.  When
// standard is set the standardness rules are enforced in addition to
// consensus.  A nil crypto selects vmcrypto.Default.
func CreateInstructionSet(ruleSet consensus.RuleSet, standard bool, crypto vmcrypto.Crypto) (*InstructionSet, error) {
	params, err := consensus.ParamsFor(ruleSet)
	if err != nil {
		return nil, err
	}
	if crypto == nil {
		crypto = vmcrypto.Default()
	}

	set := &InstructionSet{
		RuleSet:           ruleSet,
		Params:            *params,
		Standard:          standard,
		Crypto:            crypto,
		EncodeTransaction: (*wire.Transaction).Bytes,
		Initialize:        newProgramState,
		Continue:          continueEvaluation,
		Undefined:         conditional(undefined),
		Success:           success,
	}
	c := &opContext{params: &set.Params, standard: standard, crypto: crypto}

	set.Operations = baseOperations(c)
	var overrides []map[byte]Operation
	if params.Tokens {
		overrides = append(overrides, tokenOperations(c))
	}
	if params.Loops {
		overrides = append(overrides, loopOperations(c))
	}
	for _, override := range overrides {
		for op, operation := range override {
			set.Operations[op] = operation
		}
	}

	set.Every = set.every
	set.Evaluate = set.evaluate
	set.Verify = set.verify
	return set, nil
}
