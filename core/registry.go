package core

import (
	"sync"
	"sync/atomic"
)

// =============================================================================
// Live-handle registry
// =============================================================================

// The registry maps handle identity to the live handle object. It is the
// process-wide lookup that weak references (WaitForHandle, queries on dead
// identities) resolve through: an ID that is no longer present is a handle
// that finished and was destroyed.
//
// Only spawn and finalize mutate the registry; everything else reads.

// HandleID identifies a spawned coroutine handle. IDs are never reused within
// a process, so a stale ID can always be told apart from a live one.
type HandleID int64

var (
	registryMu sync.RWMutex
	registry   = make(map[HandleID]*Handle)
	nextID     atomic.Int64
)

func registerHandle(h *Handle) HandleID {
	id := HandleID(nextID.Add(1))

	registryMu.Lock()
	registry[id] = h
	registryMu.Unlock()

	return id
}

func unregisterHandle(id HandleID) {
	registryMu.Lock()
	delete(registry, id)
	registryMu.Unlock()
}

// findHandle resolves a handle ID to the live handle object.
func findHandle(id HandleID) (*Handle, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	h, ok := registry[id]
	return h, ok
}

// FindHandle resolves a handle ID to the live handle object.
// After a handle finishes it is removed from the registry, so a false return
// means the handle either never existed or already finished.
func FindHandle(id HandleID) (*Handle, bool) {
	return findHandle(id)
}

// HandleIsRunning reports whether the handle behind id is still live.
// Safe to call with any ID, including one whose handle was destroyed long
// ago; a dead identity deterministically reads as not running.
func HandleIsRunning(id HandleID) bool {
	h, ok := findHandle(id)
	return ok && h.IsRunning()
}

// HandleIsFinished reports whether the handle behind id has finished.
// A dead identity deterministically reads as finished.
func HandleIsFinished(id HandleID) bool {
	h, ok := findHandle(id)
	return !ok || h.IsFinished()
}

// LiveHandleCount returns the number of live handles in the process.
func LiveHandleCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()

	return len(registry)
}
