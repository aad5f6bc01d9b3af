package settings

import (
	"time"

	"github.com/vidinfra/billsync/internal/types"
)

// SyncSettings holds the per-tenant reconciliation watermarks. The watermarks
// bound "changed since" queries against the provider and only move forward;
// they are advanced at the end of a full sweep, even when some items failed.
type SyncSettings struct {
	ID string `json:"id"`

	// CustomersSyncedAt is the watermark of the last customer sweep
	CustomersSyncedAt *time.Time `json:"customers_synced_at,omitempty"`

	// InvoicesSyncedAt is the watermark of the last tenant-wide invoice sweep
	InvoicesSyncedAt *time.Time `json:"invoices_synced_at,omitempty"`

	types.BaseModel
}
