package vm

import (
	"bytes"
	"testing"

	"github.com/cashvm/authvm/consensus"
	"github.com/cashvm/authvm/txscript"
)

func TestArithmeticOperations(t *testing.T) {
	maxInt64 := int64(9223372036854775807)
	twoTo63 := []byte{0, 0, 0, 0, 0, 0, 0, 0x80, 0x00}

	runScriptTests(t, []scriptTest{
		{name: "add", locking: script(t, int64(2), int64(3), txscript.OP_ADD, int64(5), txscript.OP_NUMEQUAL), err: noError},
		{name: "sub", locking: script(t, int64(2), int64(5), txscript.OP_SUB, int64(-3), txscript.OP_NUMEQUAL), err: noError},
		{name: "mul", locking: script(t, int64(-4), int64(6), txscript.OP_MUL, int64(-24), txscript.OP_NUMEQUAL), err: noError},
		{name: "div truncates", locking: script(t, int64(-7), int64(2), txscript.OP_DIV, int64(-3), txscript.OP_NUMEQUAL), err: noError},
		{name: "mod follows dividend", locking: script(t, int64(-7), int64(2), txscript.OP_MOD, int64(-1), txscript.OP_NUMEQUAL), err: noError},
		{name: "div by zero", locking: script(t, int64(1), int64(0), txscript.OP_DIV), err: ErrDivisionByZero},
		{name: "mod by zero", locking: script(t, int64(1), int64(0), txscript.OP_MOD), err: ErrDivisionByZero},
		{name: "1add", locking: script(t, int64(1), txscript.OP_1ADD, int64(2), txscript.OP_NUMEQUAL), err: noError},
		{name: "1sub", locking: script(t, int64(1), txscript.OP_1SUB, txscript.OP_NOT), err: noError},
		{name: "negate", locking: script(t, int64(5), txscript.OP_NEGATE, int64(-5), txscript.OP_NUMEQUAL), err: noError},
		{name: "abs", locking: script(t, int64(-5), txscript.OP_ABS, int64(5), txscript.OP_NUMEQUAL), err: noError},
		{name: "0notequal", locking: script(t, int64(5), txscript.OP_0NOTEQUAL), err: noError},
		{name: "booland", locking: script(t, int64(1), int64(0), txscript.OP_BOOLAND, txscript.OP_NOT), err: noError},
		{name: "boolor", locking: script(t, int64(1), int64(0), txscript.OP_BOOLOR), err: noError},
		{name: "lessthan", locking: script(t, int64(1), int64(2), txscript.OP_LESSTHAN), err: noError},
		{name: "greaterthan", locking: script(t, int64(2), int64(1), txscript.OP_GREATERTHAN), err: noError},
		{name: "lessthanorequal", locking: script(t, int64(2), int64(2), txscript.OP_LESSTHANOREQUAL), err: noError},
		{name: "greaterthanorequal", locking: script(t, int64(2), int64(2), txscript.OP_GREATERTHANOREQUAL), err: noError},
		{name: "numnotequal", locking: script(t, int64(1), int64(2), txscript.OP_NUMNOTEQUAL), err: noError},
		{name: "min max", locking: script(t, int64(3), int64(7), txscript.OP_MIN, int64(3), txscript.OP_NUMEQUALVERIFY,
			int64(3), int64(7), txscript.OP_MAX, int64(7), txscript.OP_NUMEQUAL), err: noError},
		{name: "within", locking: script(t, int64(5), int64(0), int64(10), txscript.OP_WITHIN), err: noError},
		{name: "within excludes max", locking: script(t, int64(10), int64(0), int64(10), txscript.OP_WITHIN, txscript.OP_NOT), err: noError},
		{name: "numequalverify fails", locking: script(t, int64(1), int64(2), txscript.OP_NUMEQUALVERIFY, int64(1)), err: ErrFailedVerify},
		{name: "result overflow", locking: script(t, maxInt64, int64(1), txscript.OP_ADD), err: ErrOverflowResult},
		{name: "large result with larger numbers", ruleSet: consensus.BCHCHIPs,
			locking: script(t, maxInt64, int64(1), txscript.OP_ADD, twoTo63, txscript.OP_NUMEQUAL), err: noError},
		{name: "operand too long", locking: script(t, twoTo63, txscript.OP_1ADD), err: ErrNumberOutOfRange},
		{name: "non-minimal operand", locking: script(t, []byte{0x01, 0x00}, txscript.OP_1ADD), err: ErrNumberNonMinimal},
		{name: "negative zero operand", locking: script(t, []byte{0x80}, txscript.OP_1ADD), err: ErrNumberNonMinimal},
		{name: "disabled opcode in unexecuted branch", locking: script(t, int64(0), txscript.OP_IF, txscript.OP_2MUL, txscript.OP_ENDIF, int64(1)), err: ErrDisabledOpcode},
	})
}

func TestSpliceAndBitwiseOperations(t *testing.T) {
	long := bytes.Repeat([]byte{0xaa}, 300)

	runScriptTests(t, []scriptTest{
		{name: "cat", locking: script(t, []byte("ab"), []byte("cd"), txscript.OP_CAT, []byte("abcd"), txscript.OP_EQUAL), err: noError},
		{name: "cat too long", locking: script(t, long, long, txscript.OP_CAT), err: ErrExceededMaximumStackItemLength},
		{name: "split", locking: script(t, []byte("abcd"), int64(1), txscript.OP_SPLIT, []byte("bcd"), txscript.OP_EQUALVERIFY,
			[]byte("a"), txscript.OP_EQUAL), err: noError},
		{name: "split at zero", locking: script(t, []byte("ab"), int64(0), txscript.OP_SPLIT, []byte("ab"), txscript.OP_EQUALVERIFY,
			int64(0), txscript.OP_EQUAL), err: noError},
		{name: "split past end", locking: script(t, []byte("ab"), int64(3), txscript.OP_SPLIT), err: ErrInvalidSplitIndex},
		{name: "split negative", locking: script(t, []byte("ab"), int64(-1), txscript.OP_SPLIT), err: ErrInvalidSplitIndex},
		{name: "num2bin moves sign", locking: script(t, int64(-2), int64(3), txscript.OP_NUM2BIN, []byte{0x02, 0x00, 0x80}, txscript.OP_EQUAL), err: noError},
		{name: "num2bin minimally encodes", locking: script(t, []byte{0x05, 0x00, 0x00}, int64(1), txscript.OP_NUM2BIN, int64(5), txscript.OP_EQUAL), err: noError},
		{name: "num2bin zero", locking: script(t, int64(0), int64(2), txscript.OP_NUM2BIN, []byte{0x00, 0x00}, txscript.OP_EQUAL), err: noError},
		{name: "num2bin too small", locking: script(t, int64(256), int64(1), txscript.OP_NUM2BIN), err: ErrInvalidNum2BinSize},
		{name: "num2bin too large", locking: script(t, int64(1), int64(521), txscript.OP_NUM2BIN), err: ErrExceededMaximumStackItemLength},
		{name: "bin2num", locking: script(t, []byte{0x02, 0x00, 0x80}, txscript.OP_BIN2NUM, int64(-2), txscript.OP_NUMEQUAL), err: noError},
		{name: "bin2num result too long", locking: script(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, txscript.OP_BIN2NUM), err: ErrNumberOutOfRange},
		{name: "size", locking: script(t, []byte("abc"), txscript.OP_SIZE, int64(3), txscript.OP_NUMEQUALVERIFY, []byte("abc"), txscript.OP_EQUAL), err: noError},
		{name: "reversebytes", locking: script(t, []byte{1, 2, 3}, txscript.OP_REVERSEBYTES, []byte{3, 2, 1}, txscript.OP_EQUAL), err: noError},
		{name: "and", locking: script(t, []byte{0x0f, 0xf0}, []byte{0xff, 0x0f}, txscript.OP_AND, []byte{0x0f, 0x00}, txscript.OP_EQUAL), err: noError},
		{name: "or", locking: script(t, []byte{0x0f, 0xf0}, []byte{0xff, 0x0f}, txscript.OP_OR, []byte{0xff, 0xff}, txscript.OP_EQUAL), err: noError},
		{name: "xor", locking: script(t, []byte{0x0f, 0xf0}, []byte{0xff, 0x0f}, txscript.OP_XOR, []byte{0xf0, 0xff}, txscript.OP_EQUAL), err: noError},
		{name: "bitwise length mismatch", locking: script(t, []byte{0x0f}, []byte{0xff, 0x0f}, txscript.OP_AND), err: ErrMismatchedBitwiseOperandLength},
		{name: "equalverify fails", locking: script(t, []byte("a"), []byte("b"), txscript.OP_EQUALVERIFY, int64(1)), err: ErrFailedVerify},
	})
}

func TestStackOperations(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "pick", locking: script(t, int64(1), int64(2), int64(3), int64(2), txscript.OP_PICK, int64(1), txscript.OP_NUMEQUALVERIFY,
			txscript.OP_2DROP), err: noError},
		{name: "roll", locking: script(t, int64(1), int64(2), int64(3), int64(2), txscript.OP_ROLL, int64(1), txscript.OP_NUMEQUALVERIFY,
			int64(3), txscript.OP_NUMEQUALVERIFY, int64(2), txscript.OP_NUMEQUAL), err: noError},
		{name: "pick past bottom", locking: script(t, int64(1), int64(5), txscript.OP_PICK), err: ErrInvalidStackIndex},
		{name: "roll negative", locking: script(t, int64(1), int64(-1), txscript.OP_ROLL), err: ErrInvalidStackIndex},
		{name: "rot", locking: script(t, int64(1), int64(2), int64(3), txscript.OP_ROT, int64(1), txscript.OP_NUMEQUALVERIFY,
			int64(3), txscript.OP_NUMEQUALVERIFY, int64(2), txscript.OP_NUMEQUAL), err: noError},
		{name: "tuck", locking: script(t, int64(1), int64(2), txscript.OP_TUCK, int64(2), txscript.OP_NUMEQUALVERIFY,
			int64(1), txscript.OP_NUMEQUALVERIFY, int64(2), txscript.OP_NUMEQUAL), err: noError},
		{name: "swap", locking: script(t, int64(1), int64(2), txscript.OP_SWAP, int64(1), txscript.OP_NUMEQUALVERIFY,
			int64(2), txscript.OP_NUMEQUAL), err: noError},
		{name: "2rot", locking: script(t, int64(1), int64(2), int64(3), int64(4), int64(5), int64(6), txscript.OP_2ROT,
			int64(2), txscript.OP_NUMEQUALVERIFY, int64(1), txscript.OP_NUMEQUALVERIFY, int64(6), txscript.OP_NUMEQUALVERIFY,
			int64(5), txscript.OP_NUMEQUALVERIFY, int64(4), txscript.OP_NUMEQUALVERIFY, int64(3), txscript.OP_NUMEQUAL), err: noError},
		{name: "2swap", locking: script(t, int64(1), int64(2), int64(3), int64(4), txscript.OP_2SWAP,
			int64(2), txscript.OP_NUMEQUALVERIFY, int64(1), txscript.OP_NUMEQUALVERIFY, int64(4), txscript.OP_NUMEQUALVERIFY,
			int64(3), txscript.OP_NUMEQUAL), err: noError},
		{name: "2over", locking: script(t, int64(1), int64(2), int64(3), int64(4), txscript.OP_2OVER,
			int64(2), txscript.OP_NUMEQUALVERIFY, int64(1), txscript.OP_NUMEQUALVERIFY, txscript.OP_2DROP, txscript.OP_2DROP,
			int64(1)), err: noError},
		{name: "3dup", locking: script(t, int64(1), int64(2), int64(3), txscript.OP_3DUP, txscript.OP_DEPTH, int64(6), txscript.OP_NUMEQUALVERIFY,
			txscript.OP_2DROP, txscript.OP_2DROP, txscript.OP_2DROP, int64(1)), err: noError},
		{name: "over", locking: script(t, int64(1), int64(2), txscript.OP_OVER, int64(1), txscript.OP_NUMEQUALVERIFY,
			int64(2), txscript.OP_NUMEQUALVERIFY), err: noError},
		{name: "nip", locking: script(t, int64(1), int64(2), txscript.OP_NIP, int64(2), txscript.OP_NUMEQUAL), err: noError},
		{name: "ifdup false", locking: script(t, int64(0), txscript.OP_IFDUP, txscript.OP_DEPTH, int64(1), txscript.OP_NUMEQUALVERIFY,
			txscript.OP_DROP, int64(1)), err: noError},
		{name: "alternate stack", locking: script(t, int64(5), txscript.OP_TOALTSTACK, int64(1), txscript.OP_FROMALTSTACK,
			int64(5), txscript.OP_NUMEQUALVERIFY), err: noError},
		{name: "empty alternate stack", locking: script(t, txscript.OP_FROMALTSTACK), err: ErrEmptyAlternateStack},
		{name: "drop empty stack", locking: script(t, txscript.OP_DROP), err: ErrEmptyStack},
		{name: "2swap short stack", locking: script(t, int64(1), int64(2), int64(3), txscript.OP_2SWAP), err: ErrEmptyStack},
	})
}

func TestControlFlow(t *testing.T) {
	runScriptTests(t, []scriptTest{
		{name: "if taken", locking: script(t, int64(1), txscript.OP_IF, int64(2), txscript.OP_ELSE, int64(3), txscript.OP_ENDIF,
			int64(2), txscript.OP_NUMEQUAL), err: noError},
		{name: "else taken", locking: script(t, int64(0), txscript.OP_IF, int64(2), txscript.OP_ELSE, int64(3), txscript.OP_ENDIF,
			int64(3), txscript.OP_NUMEQUAL), err: noError},
		{name: "notif", locking: script(t, int64(0), txscript.OP_NOTIF, int64(2), txscript.OP_ENDIF, int64(2), txscript.OP_NUMEQUAL), err: noError},
		{name: "else inside skipped branch", locking: script(t, int64(0), txscript.OP_IF, int64(0), txscript.OP_IF, int64(2),
			txscript.OP_ELSE, int64(3), txscript.OP_ENDIF, txscript.OP_ENDIF, int64(1)), err: noError},
		{name: "repeated else", locking: script(t, int64(1), txscript.OP_IF, int64(2), txscript.OP_ELSE, int64(3), txscript.OP_ELSE,
			int64(4), txscript.OP_ENDIF, int64(4), txscript.OP_NUMEQUALVERIFY, int64(2), txscript.OP_NUMEQUAL), err: noError},
		{name: "unexpected else", locking: script(t, txscript.OP_ELSE), err: ErrUnexpectedElse},
		{name: "unexpected endif", locking: script(t, int64(1), txscript.OP_ENDIF), err: ErrUnexpectedEndIf},
		{name: "unterminated if", locking: script(t, int64(1), txscript.OP_IF, int64(1)), err: ErrNonEmptyControlStack},
		{name: "verify", locking: script(t, int64(0), txscript.OP_VERIFY), err: ErrFailedVerify},
		{name: "return", locking: script(t, txscript.OP_RETURN), err: ErrCalledReturn},
		{name: "return in unexecuted branch", locking: script(t, int64(0), txscript.OP_IF, txscript.OP_RETURN, txscript.OP_ENDIF, int64(1)), err: noError},
		{name: "unknown opcode in unexecuted branch", locking: script(t, int64(0), txscript.OP_IF, 0xbd, txscript.OP_ENDIF, int64(1)), err: noError},
		{name: "unknown opcode", locking: script(t, 0xbd), err: ErrUnknownOpcode},
		{name: "token opcode before activation", locking: script(t, int64(0), txscript.OP_UTXOTOKENAMOUNT), err: ErrUnknownOpcode},
		{name: "verif in unexecuted branch", locking: script(t, int64(0), txscript.OP_IF, txscript.OP_VERIF, txscript.OP_ENDIF, int64(1)), err: ErrReservedOpcode},
		{name: "reserved in unexecuted branch", locking: script(t, int64(0), txscript.OP_IF, txscript.OP_RESERVED, txscript.OP_ENDIF, int64(1)), err: noError},
		{name: "reserved", locking: script(t, txscript.OP_RESERVED), err: ErrReservedOpcode},
		{name: "nop", locking: script(t, txscript.OP_NOP, int64(1)), err: noError},
		{name: "upgradable nop", locking: script(t, txscript.OP_NOP4, int64(1)), err: noError},
	})
}

func TestLoops(t *testing.T) {
	chunk := bytes.Repeat([]byte{0x01}, 500)

	runScriptTests(t, []scriptTest{
		{name: "count to five", ruleSet: consensus.BCHCHIPs, locking: script(t, int64(0), txscript.OP_BEGIN, txscript.OP_1ADD,
			txscript.OP_DUP, int64(5), txscript.OP_NUMEQUAL, txscript.OP_UNTIL, int64(5), txscript.OP_NUMEQUAL), err: noError},
		{name: "until without begin", ruleSet: consensus.BCHCHIPs, locking: script(t, int64(1), txscript.OP_UNTIL), err: ErrUnexpectedUntil},
		{name: "until closing if", ruleSet: consensus.BCHCHIPs, locking: script(t, int64(1), txscript.OP_IF, int64(1), txscript.OP_UNTIL), err: ErrUnexpectedUntil},
		{name: "endif closing begin", ruleSet: consensus.BCHCHIPs, locking: script(t, txscript.OP_BEGIN, txscript.OP_ENDIF), err: ErrUnexpectedEndIf},
		{name: "unterminated begin", ruleSet: consensus.BCHCHIPs, locking: script(t, txscript.OP_BEGIN, int64(1)), err: ErrNonEmptyControlStack},
		{name: "loop in unexecuted branch", ruleSet: consensus.BCHCHIPs, locking: script(t, int64(0), txscript.OP_IF, txscript.OP_BEGIN,
			int64(0), txscript.OP_UNTIL, txscript.OP_ENDIF, int64(1)), err: noError},
		{name: "excessive looping", ruleSet: consensus.BCHCHIPs, locking: script(t, txscript.OP_BEGIN, chunk, txscript.OP_DROP,
			int64(0), txscript.OP_UNTIL, int64(1)), err: ErrExcessiveLooping},
		{name: "begin before activation", ruleSet: consensus.BCH2023, locking: script(t, txscript.OP_BEGIN, int64(1)), err: ErrReservedOpcode},
	})
}

func TestResourceLimits(t *testing.T) {
	pushes := bytes.Repeat([]byte{txscript.OP_1}, 1001)
	nops := bytes.Repeat([]byte{txscript.OP_NOP}, 201)
	oversized := bytes.Repeat([]byte{0x01}, 521)

	runScriptTests(t, []scriptTest{
		{name: "stack depth", locking: pushes, err: ErrExceededMaximumStackDepth},
		{name: "operation count at limit", locking: concat(nops, []byte{txscript.OP_1}), err: noError},
		{name: "operation count exceeded", locking: concat(nops, []byte{txscript.OP_NOP, txscript.OP_1}), err: ErrExceededMaximumOperationCount},
		{name: "oversized push", locking: script(t, oversized, txscript.OP_DROP, int64(1)), err: ErrExceededMaximumStackItemLength},
		{name: "oversized push in unexecuted branch", locking: script(t, int64(0), txscript.OP_IF, oversized, txscript.OP_ENDIF, int64(1)),
			err: ErrExceededMaximumStackItemLength},
		{name: "larger pushes", ruleSet: consensus.BCHCHIPs, locking: script(t, oversized, txscript.OP_DROP, int64(1)), err: noError},
	})
}

func TestUpgradableNopStandard(t *testing.T) {
	set := mustInstructionSet(t, consensus.BCH2023, true)
	p := singleInputProgram(t, nil, script(t, txscript.OP_NOP10, int64(1)))
	err := set.Success(NewVM(set).Evaluate(p))
	if err == nil || err.ErrorCode != ErrUpgradableNop {
		t.Fatalf("expected ErrUpgradableNop, got %v", err)
	}
}
