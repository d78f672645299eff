package core

import (
	"testing"
	"time"
)

// TestStepComputation_Rendezvous tests the advance/yield handshake
// Main test items:
// 1. Nothing of the body runs before the first advance
// 2. Each yield surfaces as one suspension with its condition
// 3. Returning surfaces as done with the result
func TestStepComputation_Rendezvous(t *testing.T) {
	started := false
	s := newStepComputation(func(flow *Flow) any {
		started = true
		flow.Yield(Frames(5))
		flow.Yield(Seconds(1.0))
		return "end"
	})

	if started {
		t.Fatal("The body must not run before the first advance")
	}

	out, err := s.advance(0)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if out.done || out.cond == nil {
		t.Fatalf("Expected a suspension with a condition, got %+v", out)
	}
	if !started {
		t.Error("Expected the body to have started")
	}

	out, err = s.advance(0)
	if err != nil || out.done || out.cond == nil {
		t.Fatalf("Expected a second suspension, got (%+v, %v)", out, err)
	}

	out, err = s.advance(0)
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if !out.done || out.result != "end" {
		t.Fatalf("Expected done with result 'end', got %+v", out)
	}

	if _, err := s.advance(0); err != ErrStaleHandle {
		t.Errorf("advance after completion: expected ErrStaleHandle, got %v", err)
	}
}

// TestStepComputation_DisposeUnwindsBody tests the kill path
// Main test items:
// 1. dispose releases a suspended body, running its deferred calls
// 2. dispose is safe to call more than once
func TestStepComputation_DisposeUnwindsBody(t *testing.T) {
	cleanedUp := make(chan struct{})
	s := newStepComputation(func(flow *Flow) any {
		defer close(cleanedUp)
		flow.Yield(Frames(100))
		return "unreachable"
	})

	if _, err := s.advance(0); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	s.dispose()
	s.dispose()

	select {
	case <-cleanedUp:
	case <-time.After(time.Second):
		t.Fatal("Deferred calls in the body did not run after dispose")
	}
	if _, err := s.advance(0); err != ErrStaleHandle {
		t.Errorf("advance after dispose: expected ErrStaleHandle, got %v", err)
	}
}

// TestStepComputation_DisposeBeforeFirstAdvance tests disposing a computation
// whose body never started
func TestStepComputation_DisposeBeforeFirstAdvance(t *testing.T) {
	started := make(chan struct{})
	s := newStepComputation(func(flow *Flow) any {
		close(started)
		return nil
	})

	s.dispose()

	select {
	case <-started:
		t.Error("The body must not run when disposed before the first advance")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestStepComputation_DisposeFromInsideBody tests disposing mid-step:
// advance must return instead of blocking on a body that unwound through the
// kill channel without sending an event
func TestStepComputation_DisposeFromInsideBody(t *testing.T) {
	var s *stepComputation
	s = newStepComputation(func(flow *Flow) any {
		s.dispose()
		flow.Yield(Frames(1))
		return "unreachable"
	})

	returned := make(chan struct{})
	go func() {
		// Two advances cover both rendezvous races: the first may still
		// observe the yield, the second must see the disposed computation.
		s.advance(0)
		s.advance(0)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("advance blocked on a computation disposed by its own body")
	}
}

// TestStepComputation_BodyPanic tests fault surfacing
// Main test items:
// 1. A panic in the body surfaces as a ComputationFault from advance
// 2. The fault carries the panic value and a stack trace
func TestStepComputation_BodyPanic(t *testing.T) {
	s := newStepComputation(func(flow *Flow) any {
		flow.Yield(Frames(1))
		panic("body exploded")
	})

	if _, err := s.advance(0); err != nil {
		t.Fatalf("first advance failed: %v", err)
	}

	_, err := s.advance(0)
	fault, ok := err.(*ComputationFault)
	if !ok {
		t.Fatalf("Expected *ComputationFault, got %v", err)
	}
	if fault.PanicValue != "body exploded" {
		t.Errorf("Expected panic value 'body exploded', got %v", fault.PanicValue)
	}
	if len(fault.Stack) == 0 {
		t.Error("Expected a captured stack trace")
	}
}
