// Package operand implements the per-function operand stack and name
// allocator that the instruction emitter (internal/cabi) runs against
// (SPEC_FULL.md §4.4). It has no direct analog in the teacher, whose
// generator builds Go source by direct string concatenation without a
// simulated stack machine; this package is new design work, built to the
// state-machine and arity contract spec.md describes, in the teacher's
// own idiom of small, panic-on-broken-invariant helper types (compare
// internal/gengo.Scope, which panics rather than returning an error when
// asked to declare a name in the reserved-word scope).
package operand

import (
	"fmt"

	"github.com/wasmgravity/gravity/internal/gengo"
)

// Operand is one value currently live on the stack: a local variable name
// together with the Go type it holds, informational for callers that
// render code referencing it.
type Operand struct {
	Name   string
	GoType string
}

// State is a position in the per-function emission state machine
// (spec.md §4.6): Fresh -> EmittingParamsLift -> EmittingCall ->
// EmittingResultLift -> Draining -> Done. Pushing while Done, or popping
// an empty stack at any state, is a generation-time failure: a bug in
// the instruction stream the upstream WIT/Canonical-ABI driver supplied,
// never a condition a well-formed WIT world can trigger.
type State int

const (
	Fresh State = iota
	EmittingParamsLift
	EmittingCall
	EmittingResultLift
	Draining
	Done
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "Fresh"
	case EmittingParamsLift:
		return "EmittingParamsLift"
	case EmittingCall:
		return "EmittingCall"
	case EmittingResultLift:
		return "EmittingResultLift"
	case Draining:
		return "Draining"
	case Done:
		return "Done"
	default:
		return "?"
	}
}

// validNext maps each state to the states it may advance to, in order;
// Advance rejects any other transition.
var validNext = map[State][]State{
	Fresh:             {EmittingParamsLift},
	EmittingParamsLift: {EmittingCall},
	EmittingCall:       {EmittingResultLift},
	EmittingResultLift: {Draining},
	Draining:           {Done},
	Done:               {},
}

// Stack is the operand stack and fresh-name allocator for one function
// being emitted. Instructions pop exactly as many operands as their
// arity demands and push exactly as many results; a Stack tracks both
// the running value stack and the state-machine position, panicking on
// any transition or arity violation, since those indicate a bug in the
// driver feeding the emitter rather than bad user input.
type Stack struct {
	state   State
	values  []Operand
	names   gengo.Scope
	counter int
}

// New returns an empty Stack in the Fresh state, with its own local name
// scope nested inside parent (typically the enclosing Go file's scope,
// so generated local variables never shadow package-level names).
func New(parent gengo.Scope) *Stack {
	return &Stack{state: Fresh, names: gengo.NewScope(parent)}
}

// State reports the stack's current position in the emission state
// machine.
func (s *Stack) State() State { return s.state }

// Advance moves the stack to next, panicking if next is not a valid
// successor of the current state.
func (s *Stack) Advance(next State) {
	for _, ok := range validNext[s.state] {
		if ok == next {
			s.state = next
			return
		}
	}
	panic(fmt.Sprintf("operand: invalid transition %s -> %s", s.state, next))
}

// Fresh allocates and returns a never-before-used local variable name
// derived from hint (e.g. "s" for a lifted string, "ptr" for an
// allocation result).
func (s *Stack) Fresh(hint string) string {
	s.counter++
	return s.names.DeclareName(hint)
}

// Push adds op to the top of the stack. Pushing while the stack is Done
// is a generation-time failure.
func (s *Stack) Push(op Operand) {
	if s.state == Done {
		panic("operand: push after Done")
	}
	s.values = append(s.values, op)
}

// PushFresh allocates a fresh name hinted by hint, pushes an Operand
// holding it with the given Go type, and returns the allocated name.
func (s *Stack) PushFresh(hint, goType string) string {
	name := s.Fresh(hint)
	s.Push(Operand{Name: name, GoType: goType})
	return name
}

// Pop removes and returns the top n operands, in the order they were
// pushed (so the first returned element is the deepest of the n). It
// panics if fewer than n operands are available, since every
// instruction's input arity is fixed and known ahead of time by the
// driver calling it.
func (s *Stack) Pop(n int) []Operand {
	if n > len(s.values) {
		panic(fmt.Sprintf("operand: pop %d operands, only %d on stack", n, len(s.values)))
	}
	start := len(s.values) - n
	out := append([]Operand(nil), s.values[start:]...)
	s.values = s.values[:start]
	return out
}

// Pop1 is a convenience for the overwhelmingly common single-operand pop.
func (s *Stack) Pop1() Operand {
	return s.Pop(1)[0]
}

// Len reports how many operands are currently live.
func (s *Stack) Len() int { return len(s.values) }

// Empty reports whether the stack holds no operands — the postcondition
// checked at function exit (spec.md §4.4, §4.7).
func (s *Stack) Empty() bool { return len(s.values) == 0 }

// Drain removes and returns every remaining operand, left to right,
// without changing the stack's state. internal/cabi's CallWasm uses it to
// collect every lowered argument operand for the call.
func (s *Stack) Drain() []Operand {
	out := s.values
	s.values = nil
	return out
}
