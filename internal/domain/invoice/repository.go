package invoice

import (
	"context"

	"github.com/vidinfra/billsync/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create creates a new invoice
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID
	Get(ctx context.Context, id string) (*Invoice, error)

	// GetByProviderID retrieves an invoice by its provider correlation key
	GetByProviderID(ctx context.Context, providerInvoiceID string) (*Invoice, error)

	// Update updates an existing invoice
	Update(ctx context.Context, invoice *Invoice) error

	// List retrieves invoices based on filter criteria
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// ListPayable retrieves the invoices eligible for settlement, in the
	// store's natural return order
	ListPayable(ctx context.Context) ([]*Invoice, error)

	// DeleteByProviderID removes the local invoice for a provider key that no
	// longer exists upstream
	DeleteByProviderID(ctx context.Context, providerInvoiceID string) error
}
