package core

import (
	"testing"
)

// TestRegistry_LiveLookup tests resolving a live handle by ID
func TestRegistry_LiveLookup(t *testing.T) {
	_, owner := newTestOwner(t)
	defer owner.Destroy()

	h := mustSpawn(t, owner.Coroutine(func(flow *Flow) any {
		flow.Yield(Frames(10))
		return nil
	}))

	found, ok := FindHandle(h.ID())
	if !ok {
		t.Fatal("Expected FindHandle to resolve a live handle")
	}
	if found != h {
		t.Error("FindHandle returned a different handle")
	}
	if !HandleIsRunning(h.ID()) {
		t.Error("Expected HandleIsRunning true for a live handle")
	}
	if HandleIsFinished(h.ID()) {
		t.Error("Expected HandleIsFinished false for a live handle")
	}
}

// TestRegistry_DeadIdentityQueries tests the stale-identity contract
// Main test items:
// 1. A destroyed handle's ID no longer resolves
// 2. Identity queries on a dead ID answer deterministically instead of failing
func TestRegistry_DeadIdentityQueries(t *testing.T) {
	_, owner := newTestOwner(t)

	h := mustSpawn(t, owner.Coroutine(func(flow *Flow) any {
		flow.Yield(Frames(10))
		return nil
	}))
	id := h.ID()
	h.Kill()

	if _, ok := FindHandle(id); ok {
		t.Error("Expected FindHandle to miss after destruction")
	}
	if HandleIsRunning(id) {
		t.Error("HandleIsRunning on a dead ID must be false")
	}
	if !HandleIsFinished(id) {
		t.Error("HandleIsFinished on a dead ID must be true")
	}
}

// TestRegistry_IDsAreUnique tests that handle IDs are never reused across
// spawns, including after destruction
func TestRegistry_IDsAreUnique(t *testing.T) {
	_, owner := newTestOwner(t)
	defer owner.Destroy()

	seen := make(map[HandleID]bool)
	for i := 0; i < 100; i++ {
		h := mustSpawn(t, owner.Coroutine(func(flow *Flow) any {
			return nil
		}))
		if seen[h.ID()] {
			t.Fatalf("Handle ID %d was reused", h.ID())
		}
		seen[h.ID()] = true
		h.Kill()
	}
}

// TestRegistry_LiveHandleCount tests the live-count delta around spawn and
// destruction. The registry is shared, so only the delta is asserted.
func TestRegistry_LiveHandleCount(t *testing.T) {
	_, owner := newTestOwner(t)

	before := LiveHandleCount()
	h := mustSpawn(t, owner.Coroutine(func(flow *Flow) any {
		flow.Yield(Frames(10))
		return nil
	}))
	if got := LiveHandleCount(); got != before+1 {
		t.Errorf("Expected live count %d after spawn, got %d", before+1, got)
	}

	h.Kill()
	if got := LiveHandleCount(); got != before {
		t.Errorf("Expected live count %d after kill, got %d", before, got)
	}
}
