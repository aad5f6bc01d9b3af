package types

// CustomerFilter represents the query options for listing customers
type CustomerFilter struct {
	// CustomerIDs restricts the result to the given internal ids
	CustomerIDs []string `json:"customer_ids,omitempty"`
	// ExternalID filters by the external identifier
	ExternalID string `json:"external_id,omitempty"`
	// Email filters by email (case insensitive)
	Email string `json:"email,omitempty"`
	// Unsynced selects active customers whose billing data has never been
	// synchronized with the provider
	Unsynced bool `json:"unsynced,omitempty"`
	// SyncFailed selects customers whose billing data is flagged as errored
	SyncFailed *bool `json:"sync_failed,omitempty"`
}

// InvoiceFilter represents the query options for listing invoices
type InvoiceFilter struct {
	CustomerID         string                 `json:"customer_id,omitempty"`
	InvoiceStatus      []InvoiceStatus        `json:"invoice_status,omitempty"`
	PaymentStatus      []InvoicePaymentStatus `json:"payment_status,omitempty"`
	ProviderInvoiceIDs []string               `json:"provider_invoice_ids,omitempty"`
}
