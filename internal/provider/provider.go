package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidinfra/billsync/internal/domain/customer"
	"github.com/vidinfra/billsync/internal/types"
)

// BillingProvider is the capability set every billing backend must implement.
// All operations are fallible and scoped to the tenant in context. The
// contract does not retry internally; timeouts are the implementation's
// responsibility.
type BillingProvider interface {
	// CheckConnection verifies the provider is reachable with the configured
	// credentials. Every sweep runs it before touching any item.
	CheckConnection(ctx context.Context) error

	// ListChangedCustomerIDs returns the provider customer ids changed since
	// the watermark. A nil since returns every known customer.
	ListChangedCustomerIDs(ctx context.Context, since *time.Time) ([]string, error)

	// GetCustomer fetches a provider customer by id. Returns nil when the
	// customer no longer exists upstream (soft-deleted).
	GetCustomer(ctx context.Context, providerCustomerID string) (*Customer, error)

	// GetCustomerByEmail looks a provider customer up by email, nil when absent
	GetCustomerByEmail(ctx context.Context, email string) (*Customer, error)

	// CreateCustomer creates the provider-side record for a local customer
	CreateCustomer(ctx context.Context, local *customer.Customer) (*Customer, error)

	// UpdateCustomer pushes the local customer's fields to the provider
	UpdateCustomer(ctx context.Context, local *customer.Customer) (*Customer, error)

	// CustomerExists reports whether the local customer already has a
	// provider-side record
	CustomerExists(ctx context.Context, local *customer.Customer) (bool, error)

	// ListChangedInvoiceIDs returns the provider invoice ids changed since the
	// watermark, optionally scoped to one provider customer
	ListChangedInvoiceIDs(ctx context.Context, since *time.Time, providerCustomerID string) ([]string, error)

	// GetInvoice fetches a provider invoice by id, nil when absent
	GetInvoice(ctx context.Context, providerInvoiceID string) (*Invoice, error)

	// DownloadInvoiceDocument retrieves the invoice document content, nil when
	// the provider has no document for the invoice
	DownloadInvoiceDocument(ctx context.Context, inv *Invoice) ([]byte, error)

	// ChargeInvoice attempts settlement of the invoice
	ChargeInvoice(ctx context.Context, inv *Invoice) (*ChargeResult, error)

	// GetTaxRates lists the provider's active tax rates
	GetTaxRates(ctx context.Context) ([]*TaxRate, error)

	// AttachPaymentMethod attaches a payment method reference to the
	// provider-side customer and makes it the default
	AttachPaymentMethod(ctx context.Context, providerCustomerID string, methodRef string) error
}

// Customer is the provider-side projection of a customer. It is never
// persisted directly; it is always translated into customer.BillingData.
type Customer struct {
	ID      string
	Email   string
	Name    string
	Deleted bool
}

// Invoice is the provider-side projection of an invoice
type Invoice struct {
	ID            string
	CustomerID    string
	Number        string
	Status        types.InvoiceStatus
	PaymentStatus types.InvoicePaymentStatus
	Currency      string
	AmountDue     decimal.Decimal
	AmountPaid    decimal.Decimal
	LineItemCount int
	DocumentURL   string
}

// ChargeResult is the outcome of a settlement attempt
type ChargeResult struct {
	InvoiceID     string
	PaymentStatus types.InvoicePaymentStatus
	AmountPaid    decimal.Decimal
}

// TaxRate is a provider tax rate
type TaxRate struct {
	ID         string
	Name       string
	Percentage decimal.Decimal
	Inclusive  bool
}
