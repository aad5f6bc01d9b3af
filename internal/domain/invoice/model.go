package invoice

import (
	"github.com/shopspring/decimal"

	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/types"
)

// Invoice represents the local projection of a provider invoice
type Invoice struct {
	ID string `json:"id"`

	// ProviderInvoiceID is the provider-assigned correlation key. Unique per
	// tenant; local creation and update are collapsed into an upsert on it.
	ProviderInvoiceID string `json:"provider_invoice_id"`

	// CustomerID is the local id of the owning customer
	CustomerID string `json:"customer_id"`

	InvoiceNumber string                     `json:"invoice_number,omitempty"`
	InvoiceStatus types.InvoiceStatus        `json:"invoice_status"`
	PaymentStatus types.InvoicePaymentStatus `json:"payment_status"`
	Currency      string                     `json:"currency"`
	AmountDue     decimal.Decimal            `json:"amount_due"`
	AmountPaid    decimal.Decimal            `json:"amount_paid"`

	// LineItemCount is the number of items observed on the provider invoice.
	// A change in it invalidates Downloadable and forces a re-download.
	LineItemCount int `json:"line_item_count"`

	// Downloadable is true when a document was retrieved and stored for the
	// current LineItemCount
	Downloadable bool `json:"downloadable"`

	// DocumentKey references the stored invoice document, empty until the
	// first successful download
	DocumentKey string `json:"document_key,omitempty"`

	types.BaseModel
}

// GetRemainingAmount returns the unpaid portion of the invoice
func (i *Invoice) GetRemainingAmount() decimal.Decimal {
	return i.AmountDue.Sub(i.AmountPaid)
}

func (i *Invoice) Validate() error {
	if i.ProviderInvoiceID == "" {
		return ierr.NewError("provider invoice id is required").
			Mark(ierr.ErrValidation)
	}

	if i.CustomerID == "" {
		return ierr.NewError("customer id is required").
			Mark(ierr.ErrValidation)
	}

	if i.AmountDue.IsNegative() {
		return ierr.NewError("amount_due must be non negative").
			Mark(ierr.ErrValidation)
	}

	if i.AmountPaid.IsNegative() {
		return ierr.NewError("amount_paid must be non negative").
			Mark(ierr.ErrValidation)
	}

	if i.AmountPaid.GreaterThan(i.AmountDue) {
		return ierr.NewError("amount_paid must be less than or equal to amount_due").
			Mark(ierr.ErrValidation)
	}

	if i.LineItemCount < 0 {
		return ierr.NewError("line_item_count must be non negative").
			Mark(ierr.ErrValidation)
	}

	return nil
}
