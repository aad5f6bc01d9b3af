package testutil

import (
	"context"

	"github.com/samber/lo"

	"github.com/vidinfra/billsync/internal/domain/invoice"
	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func copyInvoice(i *invoice.Invoice) *invoice.Invoice {
	if i == nil {
		return nil
	}
	out := *i
	return &out
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	return s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) GetByProviderID(ctx context.Context, providerInvoiceID string) (*invoice.Invoice, error) {
	filterFn := func(ctx context.Context, i *invoice.Invoice, _ interface{}) bool {
		return i.ProviderInvoiceID == providerInvoiceID && i.TenantID == types.GetTenantID(ctx)
	}

	invoices, err := s.InMemoryStore.List(ctx, nil, filterFn, nil)
	if err != nil {
		return nil, err
	}

	if len(invoices) == 0 {
		return nil, ierr.NewError("invoice not found").
			WithHintf("No invoice with billing id %s", providerInvoiceID).
			Mark(ierr.ErrNotFound)
	}

	return copyInvoice(invoices[0]), nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	return s.InMemoryStore.Update(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	items, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn, invoiceSortFn)
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(i *invoice.Invoice, _ int) *invoice.Invoice {
		return copyInvoice(i)
	}), nil
}

func (s *InMemoryInvoiceStore) ListPayable(ctx context.Context) ([]*invoice.Invoice, error) {
	filterFn := func(ctx context.Context, i *invoice.Invoice, _ interface{}) bool {
		return i.TenantID == types.GetTenantID(ctx) &&
			i.InvoiceStatus == types.InvoiceStatusFinalized &&
			i.PaymentStatus.IsPayable() &&
			i.GetRemainingAmount().IsPositive()
	}

	items, err := s.InMemoryStore.List(ctx, nil, filterFn, invoiceSortFn)
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(i *invoice.Invoice, _ int) *invoice.Invoice {
		return copyInvoice(i)
	}), nil
}

func (s *InMemoryInvoiceStore) DeleteByProviderID(ctx context.Context, providerInvoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, inv := range s.items {
		if inv.ProviderInvoiceID == providerInvoiceID && inv.TenantID == types.GetTenantID(ctx) {
			delete(s.items, id)
			return nil
		}
	}

	return ierr.NewError("invoice not found").
		WithHintf("No invoice with billing id %s", providerInvoiceID).
		Mark(ierr.ErrNotFound)
}

// invoiceFilterFn implements filtering logic for invoices
func invoiceFilterFn(ctx context.Context, i *invoice.Invoice, filter interface{}) bool {
	f, ok := filter.(*types.InvoiceFilter)
	if !ok {
		return false
	}

	tenantID := types.GetTenantID(ctx)
	if tenantID != "" && i.TenantID != tenantID {
		return false
	}

	if f.CustomerID != "" && i.CustomerID != f.CustomerID {
		return false
	}

	if len(f.InvoiceStatus) > 0 && !lo.Contains(f.InvoiceStatus, i.InvoiceStatus) {
		return false
	}

	if len(f.PaymentStatus) > 0 && !lo.Contains(f.PaymentStatus, i.PaymentStatus) {
		return false
	}

	if len(f.ProviderInvoiceIDs) > 0 && !lo.Contains(f.ProviderInvoiceIDs, i.ProviderInvoiceID) {
		return false
	}

	return true
}

// invoiceSortFn implements sorting logic for invoices
func invoiceSortFn(i, j *invoice.Invoice) bool {
	return i.ProviderInvoiceID < j.ProviderInvoiceID
}
