package types

// InvoiceStatus is the document lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusFinalized InvoiceStatus = "finalized"
	InvoiceStatusVoided    InvoiceStatus = "voided"
)

// InvoicePaymentStatus is the settlement state of an invoice
type InvoicePaymentStatus string

const (
	PaymentStatusPending   InvoicePaymentStatus = "pending"
	PaymentStatusSucceeded InvoicePaymentStatus = "succeeded"
	PaymentStatusFailed    InvoicePaymentStatus = "failed"
)

// IsPayable reports whether an invoice in this state can be charged
func (s InvoicePaymentStatus) IsPayable() bool {
	return s == PaymentStatusPending || s == PaymentStatusFailed
}
