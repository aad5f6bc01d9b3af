package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vidinfra/billsync/internal/domain/customer"
	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/provider"
	"github.com/vidinfra/billsync/internal/types"
)

// FakeProvider is a scriptable provider.BillingProvider for service tests.
// Behaviors are driven by the exported maps and slices; per-id error
// injections make individual items fail without faulting the whole run.
type FakeProvider struct {
	mu sync.Mutex

	// Customers holds the provider-side customer records keyed by provider id
	Customers map[string]*provider.Customer

	// Invoices holds the provider-side invoice records keyed by provider id
	Invoices map[string]*provider.Invoice

	// Documents holds invoice document content keyed by provider invoice id.
	// Invoices without an entry have no document.
	Documents map[string][]byte

	// ChangedCustomerIDs is returned verbatim by ListChangedCustomerIDs
	ChangedCustomerIDs []string

	// ChangedInvoiceIDs is returned by the tenant-wide ListChangedInvoiceIDs.
	// Scoped calls derive the list from Invoices instead.
	ChangedInvoiceIDs []string

	// ScopedChangedInvoiceIDs overrides the derived list for a scoped call,
	// keyed by provider customer id
	ScopedChangedInvoiceIDs map[string][]string

	// ConnectionErr makes CheckConnection fail
	ConnectionErr error

	// CreateCustomerErr makes CreateCustomer fail for the given local ids
	CreateCustomerErr map[string]error

	// GetInvoiceErr makes GetInvoice fail for the given provider invoice ids
	GetInvoiceErr map[string]error

	// DownloadErr makes DownloadInvoiceDocument fail for the given provider
	// invoice ids
	DownloadErr map[string]error

	// ChargeErr makes ChargeInvoice fail for the given provider invoice ids
	ChargeErr map[string]error

	// Call counters
	CreateCalls   int
	UpdateCalls   int
	ChargeCalls   int
	DownloadCalls int

	nextID int
}

var _ provider.BillingProvider = (*FakeProvider)(nil)

// NewFakeProvider creates an empty fake provider
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Customers:         make(map[string]*provider.Customer),
		Invoices:          make(map[string]*provider.Invoice),
		Documents:         make(map[string][]byte),
		CreateCustomerErr: make(map[string]error),
		GetInvoiceErr:     make(map[string]error),
		DownloadErr:       make(map[string]error),
		ChargeErr:         make(map[string]error),
	}
}

func (p *FakeProvider) CheckConnection(ctx context.Context) error {
	return p.ConnectionErr
}

func (p *FakeProvider) ListChangedCustomerIDs(ctx context.Context, since *time.Time) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ChangedCustomerIDs...), nil
}

func (p *FakeProvider) GetCustomer(ctx context.Context, providerCustomerID string) (*provider.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, exists := p.Customers[providerCustomerID]
	if !exists {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (p *FakeProvider) GetCustomerByEmail(ctx context.Context, email string) (*provider.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.Customers {
		if strings.EqualFold(c.Email, email) && !c.Deleted {
			out := *c
			return &out, nil
		}
	}
	return nil, nil
}

func (p *FakeProvider) CreateCustomer(ctx context.Context, local *customer.Customer) (*provider.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.CreateCalls++
	if err := p.CreateCustomerErr[local.ID]; err != nil {
		return nil, err
	}

	p.nextID++
	pc := &provider.Customer{
		ID:    fmt.Sprintf("fake_cust_%d", p.nextID),
		Email: local.Email,
		Name:  local.Name,
	}
	p.Customers[pc.ID] = pc

	out := *pc
	return &out, nil
}

func (p *FakeProvider) UpdateCustomer(ctx context.Context, local *customer.Customer) (*provider.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.UpdateCalls++
	pc, exists := p.Customers[local.ProviderCustomerID()]
	if !exists {
		return nil, ierr.NewError("customer not found at provider").
			Mark(ierr.ErrNotFound)
	}

	pc.Email = local.Email
	pc.Name = local.Name

	out := *pc
	return &out, nil
}

func (p *FakeProvider) CustomerExists(ctx context.Context, local *customer.Customer) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, exists := p.Customers[local.ProviderCustomerID()]
	return exists, nil
}

func (p *FakeProvider) ListChangedInvoiceIDs(ctx context.Context, since *time.Time, providerCustomerID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if providerCustomerID == "" {
		return append([]string(nil), p.ChangedInvoiceIDs...), nil
	}

	if scripted, ok := p.ScopedChangedInvoiceIDs[providerCustomerID]; ok {
		return append([]string(nil), scripted...), nil
	}

	var ids []string
	for id, inv := range p.Invoices {
		if inv.CustomerID == providerCustomerID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (p *FakeProvider) GetInvoice(ctx context.Context, providerInvoiceID string) (*provider.Invoice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.GetInvoiceErr[providerInvoiceID]; err != nil {
		return nil, err
	}

	inv, exists := p.Invoices[providerInvoiceID]
	if !exists {
		return nil, nil
	}
	out := *inv
	return &out, nil
}

func (p *FakeProvider) DownloadInvoiceDocument(ctx context.Context, inv *provider.Invoice) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.DownloadCalls++
	if err := p.DownloadErr[inv.ID]; err != nil {
		return nil, err
	}

	content, exists := p.Documents[inv.ID]
	if !exists {
		return nil, nil
	}
	return append([]byte(nil), content...), nil
}

func (p *FakeProvider) ChargeInvoice(ctx context.Context, inv *provider.Invoice) (*provider.ChargeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ChargeCalls++
	if err := p.ChargeErr[inv.ID]; err != nil {
		return nil, err
	}

	return &provider.ChargeResult{
		InvoiceID:     inv.ID,
		PaymentStatus: types.PaymentStatusSucceeded,
		AmountPaid:    inv.AmountDue,
	}, nil
}

func (p *FakeProvider) GetTaxRates(ctx context.Context) ([]*provider.TaxRate, error) {
	return nil, nil
}

func (p *FakeProvider) AttachPaymentMethod(ctx context.Context, providerCustomerID string, methodRef string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.Customers[providerCustomerID]; !exists {
		return ierr.NewError("customer not found at provider").
			Mark(ierr.ErrNotFound)
	}
	return nil
}
