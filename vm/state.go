package vm

import (
	"github.com/cashvm/authvm/txscript"
	"github.com/cashvm/authvm/wire"
)

// Program is the input to the evaluation of one transaction input.
type Program struct {
	Transaction   *wire.Transaction
	SourceOutputs []*wire.Output
	InputIndex    int
}

// ResolvedTransaction is a transaction together with the outputs its inputs
// spend, in input order.
type ResolvedTransaction struct {
	Transaction   *wire.Transaction
	SourceOutputs []*wire.Output
}

// Metrics are carried from one evaluation phase to the next, and from one
// input to the next during verification.
type Metrics struct {
	ExecutedInstructionCount int
	SignatureCheckCount      int
}

// ControlEntry is one level of the control stack.  Conditional entries
// (OP_IF/OP_NOTIF) record whether their branch executes; loop entries
// (OP_BEGIN) record the instruction index of the OP_BEGIN.
type ControlEntry struct {
	Loop      bool
	Executing bool
	BeginIP   int
}

// SignedMessageKey identifies a memoized signature digest.
type SignedMessageKey struct {
	SigHashType       SigHashType
	LastCodeSeparator int
}

// ProgramState is the state of one evaluation phase.  Once Error is set the
// engine stops stepping the state.
type ProgramState struct {
	Stack             [][]byte
	AlternateStack    [][]byte
	ControlStack      []ControlEntry
	Instructions      []txscript.Instruction
	IP                int
	OperationCount    int
	LastCodeSeparator int
	RepeatedBytes     int
	Metrics           Metrics
	SignedMessages    map[SignedMessageKey][]byte
	Error             *ScriptError
	Program           *Program
}

// newProgramState returns the initial state of a phase.  The stack is copied
// so the caller's slice is never appended to.
func newProgramState(p *Program, instructions []txscript.Instruction, stack [][]byte, metrics Metrics) *ProgramState {
	s := &ProgramState{
		Stack:             make([][]byte, len(stack)),
		AlternateStack:    [][]byte{},
		ControlStack:      []ControlEntry{},
		Instructions:      instructions,
		LastCodeSeparator: -1,
		Metrics:           metrics,
		SignedMessages:    map[SignedMessageKey][]byte{},
		Program:           p,
	}
	copy(s.Stack, stack)
	return s
}

// Clone returns a deep copy of the state.  Instructions and Program are
// never modified during evaluation and are shared.
func (s *ProgramState) Clone() *ProgramState {
	c := *s
	c.Stack = cloneStack(s.Stack)
	c.AlternateStack = cloneStack(s.AlternateStack)
	c.ControlStack = append([]ControlEntry{}, s.ControlStack...)
	c.SignedMessages = make(map[SignedMessageKey][]byte, len(s.SignedMessages))
	for k, v := range s.SignedMessages {
		c.SignedMessages[k] = copyBytes(v)
	}
	if s.Error != nil {
		e := *s.Error
		c.Error = &e
	}
	return &c
}

func cloneStack(stack [][]byte) [][]byte {
	c := make([][]byte, len(stack))
	for i, item := range stack {
		c[i] = copyBytes(item)
	}
	return c
}

func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// fail sets the state's error unless one is already set.
func (s *ProgramState) fail(err *ScriptError) *ProgramState {
	if s.Error == nil {
		s.Error = err
	}
	return s
}

// executing reports whether every conditional entry of the control stack is
// executing.  Loop entries do not affect execution.
func (s *ProgramState) executing() bool {
	return allExecuting(s.ControlStack)
}

func allExecuting(entries []ControlEntry) bool {
	for _, entry := range entries {
		if !entry.Loop && !entry.Executing {
			return false
		}
	}
	return true
}

// instruction returns the instruction at IP.  Evaluation never runs a
// malformed sequence, so the type assertion always holds.
func (s *ProgramState) instruction() *txscript.ValidInstruction {
	return s.Instructions[s.IP].(*txscript.ValidInstruction)
}

func (s *ProgramState) push(item []byte) {
	s.Stack = append(s.Stack, item)
}

func (s *ProgramState) pushBool(v bool) {
	if v {
		s.push([]byte{1})
		return
	}
	s.push([]byte{})
}

// pop removes and returns the top n items, deepest first.  It fails the
// state and returns false when the stack is too short.
func (s *ProgramState) pop(n int) ([][]byte, bool) {
	if len(s.Stack) < n {
		s.fail(scriptError(ErrEmptyStack))
		return nil, false
	}
	items := make([][]byte, n)
	copy(items, s.Stack[len(s.Stack)-n:])
	s.Stack = s.Stack[:len(s.Stack)-n]
	return items, true
}

// peek returns the item depth positions below the top of the stack.
func (s *ProgramState) peek(depth int) ([]byte, bool) {
	if depth < 0 || len(s.Stack) <= depth {
		s.fail(scriptError(ErrEmptyStack))
		return nil, false
	}
	return s.Stack[len(s.Stack)-1-depth], true
}

// coveredBytecode returns the bytecode after the last executed
// OP_CODESEPARATOR.
func (s *ProgramState) coveredBytecode() []byte {
	return txscript.EncodeInstructions(s.Instructions[s.LastCodeSeparator+1:])
}

func (s *ProgramState) input() *wire.Input {
	return s.Program.Transaction.Inputs[s.Program.InputIndex]
}

func (s *ProgramState) sourceOutput() *wire.Output {
	return s.Program.SourceOutputs[s.Program.InputIndex]
}
