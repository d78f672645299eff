package core

// TickerStats represents runtime observability state for a ticker.
type TickerStats struct {
	Owners        int
	Handles       int
	VariableTicks int64
	FixedTicks    int64
	Completed     int64
	Faulted       int64
	Killed        int64
	Rejected      int64
}

// HandleRecord captures one handle's state for inspection and export.
type HandleRecord struct {
	ID       HandleID
	Owner    string
	Mode     PollMode
	Priority int
	State    State
}

// Record returns the handle's current observability record.
func (h *Handle) Record() HandleRecord {
	return HandleRecord{
		ID:       h.id,
		Owner:    h.owner.Name(),
		Mode:     h.pollMode,
		Priority: h.priority,
		State:    h.State(),
	}
}
