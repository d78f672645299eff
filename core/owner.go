package core

import (
	"sort"
	"sync"
)

// =============================================================================
// Owner: Parent-binding glue
// =============================================================================

// Owner is the tree-resident object coroutine handles attach beneath.
// It stands in for the host's node: presence in the active tree gates tick
// delivery, and destruction propagates to every attached handle.
//
// The owner pushes lifecycle events into its handles (inactive, destroyed)
// rather than handles reaching into owner internals, which keeps the engine
// testable without a real host.
type Owner struct {
	name   string
	ticker *Ticker

	mu        sync.Mutex
	inTree    bool
	destroyed bool
	children  []*Handle
}

// Name returns the owner's name as used in logs and metrics.
func (o *Owner) Name() string {
	return o.name
}

// InTree reports whether the owner is currently part of the active tree.
func (o *Owner) InTree() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inTree && !o.destroyed
}

// Destroyed reports whether the owner has been destroyed.
func (o *Owner) Destroyed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed
}

// HandleCount returns the number of handles currently attached.
func (o *Owner) HandleCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.children)
}

// RemoveFromTree takes the owner out of the active tree. Attached handles
// stop receiving effective ticks but are not destroyed; their countdowns and
// suspension points are preserved.
func (o *Owner) RemoveFromTree() {
	o.mu.Lock()
	if o.destroyed || !o.inTree {
		o.mu.Unlock()
		return
	}
	o.inTree = false
	children := snapshotHandles(o.children)
	o.mu.Unlock()

	for _, h := range children {
		h.notifyOwnerInactive(true)
	}
}

// AddToTree puts the owner back into the active tree, resuming tick delivery
// to attached handles that are not explicitly paused.
func (o *Owner) AddToTree() {
	o.mu.Lock()
	if o.destroyed || o.inTree {
		o.mu.Unlock()
		return
	}
	o.inTree = true
	children := snapshotHandles(o.children)
	o.mu.Unlock()

	for _, h := range children {
		h.notifyOwnerInactive(false)
	}
}

// Destroy destroys the owner and, synchronously, every attached handle.
// Destroyed handles never fire their completion notification. Spawning under
// a destroyed owner fails with ErrOwnerDestroyed. Destroy is idempotent.
func (o *Owner) Destroy() {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.destroyed = true
	o.inTree = false
	children := o.children
	o.children = nil
	o.mu.Unlock()

	for _, h := range children {
		h.notifyOwnerDestroyed()
	}

	o.ticker.removeOwner(o)
}

// attach adds a handle beneath the owner, keeping children ordered by tick
// priority (stable for equal priorities). Called by the builder during spawn.
func (o *Owner) attach(h *Handle) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.destroyed {
		return ErrOwnerDestroyed
	}

	// Insert before the first sibling with a higher priority value so that
	// lower values tick first and equal values keep spawn order.
	idx := sort.Search(len(o.children), func(i int) bool {
		return o.children[i].priority > h.priority
	})
	o.children = append(o.children, nil)
	copy(o.children[idx+1:], o.children[idx:])
	o.children[idx] = h

	if !o.inTree {
		h.notifyOwnerInactive(true)
	}
	return nil
}

// detach removes a finalized handle. Idempotent; called during finalization.
func (o *Owner) detach(h *Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, child := range o.children {
		if child == h {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// deliverTick forwards one tick to every attached handle, in priority order.
// Returns how many handles received an effective tick.
func (o *Owner) deliverTick(mode PollMode, deltaTime float64) int {
	o.mu.Lock()
	if o.destroyed || !o.inTree {
		o.mu.Unlock()
		return 0
	}
	children := snapshotHandles(o.children)
	o.mu.Unlock()

	polled := 0
	for _, h := range children {
		if h.DeliverTick(mode, deltaTime) {
			polled++
		}
	}
	return polled
}

// snapshotHandles copies the children slice so ticks and notifications run
// without holding the owner lock: a handle polled this tick may spawn, kill
// or finalize siblings, all of which mutate the children slice.
func snapshotHandles(handles []*Handle) []*Handle {
	out := make([]*Handle, len(handles))
	copy(out, handles)
	return out
}
