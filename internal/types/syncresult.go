package types

import "fmt"

// SyncResult is the outcome tally of a reconciliation sweep. It is returned to
// the caller and logged, never persisted. Partial failures are folded into
// Failed; a sweep never aborts because of them.
type SyncResult struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// RecordSynced counts one successfully processed item
func (r *SyncResult) RecordSynced() {
	r.Synced++
}

// RecordFailed counts one failed item
func (r *SyncResult) RecordFailed() {
	r.Failed++
}

// Merge folds another tally into this one
func (r *SyncResult) Merge(other SyncResult) {
	r.Synced += other.Synced
	r.Failed += other.Failed
}

// Total returns the number of items processed in the sweep
func (r SyncResult) Total() int {
	return r.Synced + r.Failed
}

func (r SyncResult) String() string {
	return fmt.Sprintf("synced=%d failed=%d", r.Synced, r.Failed)
}
