package operand_test

import (
	"testing"

	"github.com/wasmgravity/gravity/internal/operand"
)

func TestPushPop(t *testing.T) {
	s := operand.New(nil)
	s.Push(operand.Operand{Name: "x", GoType: "uint32"})
	got := s.Pop1()
	if got.Name != "x" {
		t.Errorf("Pop1().Name = %q, want x", got.Name)
	}
	if !s.Empty() {
		t.Error("stack should be empty after popping its only operand")
	}
}

func TestPopTooManyPanics(t *testing.T) {
	s := operand.New(nil)
	s.Push(operand.Operand{Name: "x"})
	defer func() {
		if recover() == nil {
			t.Error("Pop(2) on a 1-deep stack should panic")
		}
	}()
	s.Pop(2)
}

func TestFreshNamesNeverCollide(t *testing.T) {
	s := operand.New(nil)
	a := s.Fresh("v")
	b := s.Fresh("v")
	if a == b {
		t.Errorf("two Fresh(%q) calls returned the same name %q", "v", a)
	}
}

func TestStateMachineValidTransitions(t *testing.T) {
	s := operand.New(nil)
	order := []operand.State{
		operand.EmittingParamsLift,
		operand.EmittingCall,
		operand.EmittingResultLift,
		operand.Draining,
		operand.Done,
	}
	for _, next := range order {
		s.Advance(next)
		if s.State() != next {
			t.Fatalf("State() = %v, want %v", s.State(), next)
		}
	}
}

func TestStateMachineInvalidTransitionPanics(t *testing.T) {
	s := operand.New(nil)
	defer func() {
		if recover() == nil {
			t.Error("advancing Fresh -> Done directly should panic")
		}
	}()
	s.Advance(operand.Done)
}

func TestPushAfterDonePanics(t *testing.T) {
	s := operand.New(nil)
	s.Advance(operand.EmittingParamsLift)
	s.Advance(operand.EmittingCall)
	s.Advance(operand.EmittingResultLift)
	s.Advance(operand.Draining)
	s.Advance(operand.Done)
	defer func() {
		if recover() == nil {
			t.Error("Push after Done should panic")
		}
	}()
	s.Push(operand.Operand{Name: "late"})
}
