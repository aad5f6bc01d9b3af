package session

import (
	"github.com/vidinfra/billsync/internal/domain/customer"
)

// Session is a metered-usage session as seen by the external transaction
// lifecycle. The engine only validates it; it never creates or mutates one.
type Session struct {
	ID string `json:"id"`

	// Customer is the owner of the session, nil when unresolved
	Customer *customer.Customer `json:"customer,omitempty"`

	// ResourceID identifies the charging resource the session ran on
	ResourceID string `json:"resource_id,omitempty"`

	// BillingData is set once the session has been invoiced
	BillingData *BillingData `json:"billing_data,omitempty"`
}

// BillingData is the billing outcome attached to a finished session
type BillingData struct {
	// ProviderInvoiceID references the provider invoice that settled this
	// session. A set value means the session must not be invoiced again.
	ProviderInvoiceID string `json:"provider_invoice_id,omitempty"`
}

// Invoiced reports whether the session already carries an invoice reference
func (s *Session) Invoiced() bool {
	return s.BillingData != nil && s.BillingData.ProviderInvoiceID != ""
}
