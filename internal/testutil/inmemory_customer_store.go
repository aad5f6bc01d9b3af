package testutil

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/vidinfra/billsync/internal/domain/customer"
	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/types"
)

// InMemoryCustomerStore implements customer.Repository
type InMemoryCustomerStore struct {
	*InMemoryStore[*customer.Customer]

	// GetByProviderIDErr makes GetByProviderID fail, simulating a store outage
	GetByProviderIDErr error
}

// NewInMemoryCustomerStore creates a new in-memory customer store
func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		InMemoryStore: NewInMemoryStore[*customer.Customer](),
	}
}

// Helper to copy customer
func copyCustomer(c *customer.Customer) *customer.Customer {
	if c == nil {
		return nil
	}

	out := &customer.Customer{
		ID:         c.ID,
		ExternalID: c.ExternalID,
		Name:       c.Name,
		Email:      c.Email,
		Metadata:   lo.Assign(types.Metadata{}, c.Metadata),
		BaseModel:  c.BaseModel,
	}
	if c.BillingData != nil {
		bd := *c.BillingData
		out.BillingData = &bd
	}

	return out
}

// Create seeds a customer; sync services never create customers themselves
func (s *InMemoryCustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	return s.InMemoryStore.Create(ctx, c.ID, copyCustomer(c))
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyCustomer(c), nil
}

func (s *InMemoryCustomerStore) GetByProviderID(ctx context.Context, providerCustomerID string) (*customer.Customer, error) {
	if s.GetByProviderIDErr != nil {
		return nil, s.GetByProviderIDErr
	}

	filterFn := func(ctx context.Context, c *customer.Customer, _ interface{}) bool {
		return c.ProviderCustomerID() == providerCustomerID && c.TenantID == types.GetTenantID(ctx)
	}

	customers, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return nil, err
	}

	if len(customers) == 0 {
		return nil, ierr.NewError("customer not found").
			WithHintf("No customer with billing id %s", providerCustomerID).
			Mark(ierr.ErrNotFound)
	}

	return copyCustomer(customers[0]), nil
}

func (s *InMemoryCustomerStore) List(ctx context.Context, filter *types.CustomerFilter) ([]*customer.Customer, error) {
	items, err := s.InMemoryStore.List(ctx, filter, customerFilterFn, customerSortFn)
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(c *customer.Customer, _ int) *customer.Customer {
		return copyCustomer(c)
	}), nil
}

func (s *InMemoryCustomerStore) Update(ctx context.Context, c *customer.Customer) error {
	return s.InMemoryStore.Update(ctx, c.ID, copyCustomer(c))
}

func (s *InMemoryCustomerStore) UpdateBillingData(ctx context.Context, id string, billingData *customer.BillingData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.items[id]
	if !exists {
		return ierr.NewError("customer not found").
			WithHintf("Customer with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	if billingData == nil {
		c.BillingData = nil
		return nil
	}

	bd := *billingData
	c.BillingData = &bd
	return nil
}

// customerFilterFn implements filtering logic for customers
func customerFilterFn(ctx context.Context, c *customer.Customer, filter interface{}) bool {
	f, ok := filter.(*types.CustomerFilter)
	if !ok {
		return false
	}

	tenantID := types.GetTenantID(ctx)
	if tenantID != "" && c.TenantID != tenantID {
		return false
	}

	if f.ExternalID != "" && c.ExternalID != f.ExternalID {
		return false
	}

	if f.Email != "" && !strings.EqualFold(c.Email, f.Email) {
		return false
	}

	if len(f.CustomerIDs) > 0 && !lo.Contains(f.CustomerIDs, c.ID) {
		return false
	}

	if f.Unsynced {
		if c.Status != types.StatusActive {
			return false
		}
		if c.BillingData != nil && (c.BillingData.ProviderCustomerID != "" || c.BillingData.SyncFailed) {
			return false
		}
	}

	if f.SyncFailed != nil {
		failed := c.BillingData != nil && c.BillingData.SyncFailed
		if failed != *f.SyncFailed {
			return false
		}
	}

	return true
}

// customerSortFn implements sorting logic for customers
func customerSortFn(i, j *customer.Customer) bool {
	return i.ExternalID < j.ExternalID
}
