package core

import (
	"testing"
)

// TestSecondsCondition tests the time-based countdown
// Main test items:
// 1. Cumulative delta below the countdown keeps waiting
// 2. Cumulative delta at or above the countdown satisfies it
// 3. The leftover delta beyond the countdown is reported
func TestSecondsCondition(t *testing.T) {
	cond := Seconds(5.0)

	// Deltas [2.0, 2.0, 2.0]: satisfied on the third evaluation (cumulative 6.0)
	for i := 0; i < 2; i++ {
		waiting, _, err := cond.keepWaiting(2.0)
		if err != nil {
			t.Fatalf("Evaluation %d: unexpected error: %v", i, err)
		}
		if !waiting {
			t.Fatalf("Evaluation %d: expected still waiting (cumulative %v < 5.0)", i, float64(i+1)*2.0)
		}
	}

	waiting, leftover, err := cond.keepWaiting(2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waiting {
		t.Error("Expected satisfied at cumulative 6.0 >= 5.0")
	}
	if leftover != 1.0 {
		t.Errorf("Expected leftover 1.0, got %v", leftover)
	}
}

// TestSecondsCondition_ZeroAndNegativeDelta tests countdown behavior on
// zero/negative deltas
// Main test items:
// 1. A zero delta does not decrease the countdown
// 2. A negative delta does not decrease the countdown
func TestSecondsCondition_ZeroAndNegativeDelta(t *testing.T) {
	cond := Seconds(1.0)

	for i := 0; i < 100; i++ {
		waiting, _, err := cond.keepWaiting(0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !waiting {
			t.Fatal("Zero delta must not advance the countdown")
		}
	}

	waiting, _, _ := cond.keepWaiting(-5.0)
	if !waiting {
		t.Fatal("Negative delta must not advance the countdown")
	}

	waiting, _, _ = cond.keepWaiting(1.0)
	if waiting {
		t.Fatal("Expected satisfied after a full 1.0 delta")
	}
}

// TestFramesCondition tests the tick-count countdown
// Main test items:
// 1. Frames(30) evaluated 29 times is unsatisfied
// 2. The 30th evaluation satisfies it
// 3. Delta time is irrelevant
func TestFramesCondition(t *testing.T) {
	cond := Frames(30)

	for i := 0; i < 29; i++ {
		waiting, _, err := cond.keepWaiting(1000.0) // huge delta must not matter
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !waiting {
			t.Fatalf("Evaluation %d: expected still waiting", i+1)
		}
	}

	waiting, _, _ := cond.keepWaiting(0)
	if waiting {
		t.Error("Expected satisfied on the 30th evaluation")
	}
}

// TestFramesCondition_Zero tests that Frames(0) is satisfied immediately
func TestFramesCondition_Zero(t *testing.T) {
	cond := Frames(0)
	waiting, _, _ := cond.keepWaiting(0.016)
	if waiting {
		t.Error("Frames(0) must be satisfied on its first evaluation")
	}
}

// TestPredicateConditions tests WaitUntil and WaitWhile
// Main test items:
// 1. WaitUntil waits while the predicate is false
// 2. WaitWhile waits while the predicate is true
// 3. Predicates see state changes between evaluations
func TestPredicateConditions(t *testing.T) {
	flag := false

	until := WaitUntil(func() bool { return flag })
	waiting, _, _ := until.keepWaiting(0.016)
	if !waiting {
		t.Error("WaitUntil: expected waiting while predicate is false")
	}
	flag = true
	waiting, _, _ = until.keepWaiting(0.016)
	if waiting {
		t.Error("WaitUntil: expected satisfied once predicate is true")
	}

	flag = true
	while := WaitWhile(func() bool { return flag })
	waiting, _, _ = while.keepWaiting(0.016)
	if !waiting {
		t.Error("WaitWhile: expected waiting while predicate is true")
	}
	flag = false
	waiting, _, _ = while.keepWaiting(0.016)
	if waiting {
		t.Error("WaitWhile: expected satisfied once predicate is false")
	}
}

// TestPredicateCondition_PanicIsFatal tests that a panicking predicate
// surfaces as an error instead of crashing the tick
func TestPredicateCondition_PanicIsFatal(t *testing.T) {
	cond := WaitUntil(func() bool { panic("boom") })

	waiting, _, err := cond.keepWaiting(0.016)
	if waiting {
		t.Error("A panicked predicate must not keep the coroutine waiting")
	}
	if err == nil {
		t.Fatal("Expected a fault from the panicking predicate")
	}
	fault, ok := err.(*ComputationFault)
	if !ok {
		t.Fatalf("Expected *ComputationFault, got %T", err)
	}
	if fault.PanicValue != "boom" {
		t.Errorf("Expected panic value 'boom', got %v", fault.PanicValue)
	}
}

// waitCounter is a custom KeepWaiting implementation for tests.
type waitCounter struct {
	remaining int
	calls     int
}

func (w *waitCounter) KeepWaiting(deltaTime float64) bool {
	w.calls++
	w.remaining--
	return w.remaining > 0
}

// TestCustomCondition tests the KeepWaiting extension point
// Main test items:
// 1. Any KeepWaiting implementation can be wrapped via WaitFor
// 2. It is evaluated once per keepWaiting call
func TestCustomCondition(t *testing.T) {
	counter := &waitCounter{remaining: 3}
	cond := WaitFor(counter)

	for i := 0; i < 2; i++ {
		waiting, _, _ := cond.keepWaiting(0.016)
		if !waiting {
			t.Fatalf("Evaluation %d: expected waiting", i+1)
		}
	}
	waiting, _, _ := cond.keepWaiting(0.016)
	if waiting {
		t.Error("Expected satisfied on the third evaluation")
	}
	if counter.calls != 3 {
		t.Errorf("Expected 3 calls, got %d", counter.calls)
	}
}

// TestHandleCondition_DanglingIsSatisfied tests the dangling-wait rule:
// a condition referencing a handle that no longer exists is satisfied
func TestHandleCondition_DanglingIsSatisfied(t *testing.T) {
	cond := &handleYield{id: HandleID(1 << 60)} // never allocated

	waiting, _, err := cond.keepWaiting(0.016)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waiting {
		t.Error("A wait on a vanished handle must resolve as satisfied")
	}
}
