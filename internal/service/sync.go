package service

import (
	"context"

	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/types"
)

// SyncService is the top-level reconciliation entry point. One call runs the
// full sweep for the tenant in context: customers first, then invoices, so
// invoices always resolve against fresh customer identities.
type SyncService interface {
	// Sync runs the full reconciliation sweep and returns the combined tally
	Sync(ctx context.Context) (types.SyncResult, error)

	// SyncCustomers runs only the customer reconciliation sweep
	SyncCustomers(ctx context.Context) (types.SyncResult, error)

	// SyncInvoices runs only the invoice reconciliation sweep, optionally
	// scoped to a single customer
	SyncInvoices(ctx context.Context, customerID string) (types.SyncResult, error)

	// ChargeInvoices attempts settlement of every payable invoice
	ChargeInvoices(ctx context.Context) (types.SyncResult, error)

	// ForceCustomerSync re-synchronizes one customer outside the sweep cycle
	ForceCustomerSync(ctx context.Context, customerID string) error
}

type syncService struct {
	ServiceParams

	customerSync CustomerSyncService
	invoiceSync  InvoiceSyncService
	charge       ChargeService
}

// NewSyncService creates the sweep orchestrator
func NewSyncService(params ServiceParams) SyncService {
	return &syncService{
		ServiceParams: params,
		customerSync:  NewCustomerSyncService(params),
		invoiceSync:   NewInvoiceSyncService(params),
		charge:        NewChargeService(params),
	}
}

// precheck validates the tenant context and confirms the provider is
// reachable before any sweep touches an item
func (s *syncService) precheck(ctx context.Context) error {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return ierr.WithError(err).
			WithHint("Sync requires a tenant scoped context").
			Mark(ierr.ErrValidation)
	}
	return s.Provider.CheckConnection(ctx)
}

func (s *syncService) Sync(ctx context.Context) (types.SyncResult, error) {
	var result types.SyncResult

	// An unreachable provider aborts the sweep before any item is touched,
	// leaving watermarks untouched
	if err := s.precheck(ctx); err != nil {
		s.Logger.Errorw("sweep aborted before any item",
			"tenant_id", types.GetTenantID(ctx),
			"error", err)
		return result, err
	}

	syncCfg := &s.Config.Sync

	if syncCfg.CustomerSyncEnabled() {
		customerResult, err := s.customerSync.SyncCustomers(ctx)
		result.Merge(customerResult)
		if err != nil {
			return result, err
		}
	} else {
		s.Logger.Infow("customer sync disabled, skipping",
			"tenant_id", types.GetTenantID(ctx))
	}

	if syncCfg.InvoiceSyncEnabled() {
		invoiceResult, err := s.invoiceSync.SyncInvoices(ctx, "")
		result.Merge(invoiceResult)
		if err != nil {
			return result, err
		}
	} else {
		s.Logger.Infow("invoice sync disabled, skipping",
			"tenant_id", types.GetTenantID(ctx))
	}

	return result, nil
}

func (s *syncService) SyncCustomers(ctx context.Context) (types.SyncResult, error) {
	if err := s.precheck(ctx); err != nil {
		return types.SyncResult{}, err
	}
	return s.customerSync.SyncCustomers(ctx)
}

func (s *syncService) SyncInvoices(ctx context.Context, customerID string) (types.SyncResult, error) {
	if err := s.precheck(ctx); err != nil {
		return types.SyncResult{}, err
	}
	return s.invoiceSync.SyncInvoices(ctx, customerID)
}

func (s *syncService) ChargeInvoices(ctx context.Context) (types.SyncResult, error) {
	if err := s.precheck(ctx); err != nil {
		return types.SyncResult{}, err
	}
	return s.charge.ChargeInvoices(ctx)
}

func (s *syncService) ForceCustomerSync(ctx context.Context, customerID string) error {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return ierr.WithError(err).
			WithHint("Sync requires a tenant scoped context").
			Mark(ierr.ErrValidation)
	}

	if customerID == "" {
		return ierr.NewError("customer id is required").
			Mark(ierr.ErrValidation)
	}

	if err := s.Provider.CheckConnection(ctx); err != nil {
		return err
	}

	return s.customerSync.SyncCustomer(ctx, customerID)
}
