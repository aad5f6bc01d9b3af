package notification

import (
	"context"
	"time"

	"github.com/vidinfra/billsync/internal/types"
)

// InvoiceAvailableEvent is the payload delivered when an invoice document
// became available for a customer
type InvoiceAvailableEvent struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id"`
	CustomerID        string    `json:"customer_id"`
	InvoiceID         string    `json:"invoice_id"`
	ProviderInvoiceID string    `json:"provider_invoice_id"`
	InvoiceNumber     string    `json:"invoice_number,omitempty"`
	DocumentKey       string    `json:"document_key"`
	Timestamp         time.Time `json:"timestamp"`
}

// NewInvoiceAvailableEvent builds an event with a fresh id and timestamp
func NewInvoiceAvailableEvent(tenantID string) *InvoiceAvailableEvent {
	return &InvoiceAvailableEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFICATION),
		TenantID:  tenantID,
		Timestamp: time.Now().UTC(),
	}
}

// Notifier delivers best-effort notifications. Implementations must never
// block or fail the caller: delivery errors are swallowed and logged.
type Notifier interface {
	InvoiceAvailable(ctx context.Context, event *InvoiceAvailableEvent)
}
