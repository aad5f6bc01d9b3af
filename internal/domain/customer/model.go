package customer

import (
	"time"

	"github.com/vidinfra/billsync/internal/types"
)

// Customer represents a local customer record
type Customer struct {
	// ID is the unique identifier for the customer
	ID string `db:"id" json:"id"`

	// ExternalID is the external identifier for the customer
	ExternalID string `db:"external_id" json:"external_id"`

	// Name is the name of the customer
	Name string `db:"name" json:"name"`

	// Email is the email of the customer
	Email string `db:"email" json:"email"`

	// BillingData carries the provider-side identity for this customer.
	// It is nil until the first successful provider sync.
	BillingData *BillingData `db:"billing_data" json:"billing_data,omitempty"`

	// Metadata
	Metadata types.Metadata `db:"metadata" json:"metadata"`

	types.BaseModel
}

// BillingData is the provider-side projection stored on a local customer.
// It is mutated only after a successful provider round-trip.
type BillingData struct {
	// ProviderCustomerID is the correlation key assigned by the billing provider
	ProviderCustomerID string `db:"provider_customer_id" json:"provider_customer_id"`

	// SyncFailed flags a customer whose last reconciliation attempt failed,
	// or whose provider record disappeared upstream
	SyncFailed bool `db:"sync_failed" json:"sync_failed"`

	// InvoicesSyncedAt is when this customer's invoices were last reconciled
	InvoicesSyncedAt *time.Time `db:"invoices_synced_at" json:"invoices_synced_at,omitempty"`
}

// IsSynced reports whether the customer has a confirmed provider identity
func (c *Customer) IsSynced() bool {
	return c.BillingData != nil && c.BillingData.ProviderCustomerID != "" && !c.BillingData.SyncFailed
}

// ProviderCustomerID returns the provider correlation key, empty when unsynced
func (c *Customer) ProviderCustomerID() string {
	if c.BillingData == nil {
		return ""
	}
	return c.BillingData.ProviderCustomerID
}
