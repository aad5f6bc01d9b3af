package customer

import (
	"context"

	"github.com/vidinfra/billsync/internal/types"
)

// Repository defines the interface for customer data access
type Repository interface {
	Get(ctx context.Context, id string) (*Customer, error)
	GetByProviderID(ctx context.Context, providerCustomerID string) (*Customer, error)
	List(ctx context.Context, filter *types.CustomerFilter) ([]*Customer, error)
	Update(ctx context.Context, customer *Customer) error

	// UpdateBillingData replaces the billing data of a customer. A nil
	// billingData clears it.
	UpdateBillingData(ctx context.Context, id string, billingData *BillingData) error
}
