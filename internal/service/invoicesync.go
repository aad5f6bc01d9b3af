package service

import (
	"context"
	"time"

	"github.com/vidinfra/billsync/internal/domain/customer"
	"github.com/vidinfra/billsync/internal/domain/invoice"
	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/notification"
	"github.com/vidinfra/billsync/internal/provider"
	"github.com/vidinfra/billsync/internal/types"
)

// InvoiceSyncService mirrors provider invoices into the local store and keeps
// their documents current
type InvoiceSyncService interface {
	// SyncInvoices runs an invoice reconciliation sweep. With an empty
	// customerID the sweep is tenant-wide and advances the tenant watermark;
	// with a customerID it is scoped to that customer's invoices and stamps
	// the customer's own watermark instead.
	SyncInvoices(ctx context.Context, customerID string) (types.SyncResult, error)
}

type invoiceSyncService struct {
	ServiceParams
}

// NewInvoiceSyncService creates an invoice sync service
func NewInvoiceSyncService(params ServiceParams) InvoiceSyncService {
	return &invoiceSyncService{
		ServiceParams: params,
	}
}

func (s *invoiceSyncService) SyncInvoices(ctx context.Context, customerID string) (types.SyncResult, error) {
	var result types.SyncResult
	sweepStart := time.Now().UTC()

	var scoped *customer.Customer
	var since *time.Time
	var providerCustomerID string

	if customerID != "" {
		c, err := s.CustomerRepo.Get(ctx, customerID)
		if err != nil {
			return result, err
		}
		if !c.IsSynced() {
			// A scoped sweep over an unsynchronized customer would silently
			// miss every invoice, so it is rejected outright
			return result, ierr.NewError("customer has no billing identity").
				WithHint("Synchronize the customer before syncing its invoices").
				WithReportableDetails(map[string]any{
					"customer_id": c.ID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		// The identity must also hold at the provider: the record behind the
		// correlation key must exist and carry the same id
		pc, err := s.Provider.GetCustomer(ctx, c.ProviderCustomerID())
		if err != nil {
			return result, err
		}
		if pc == nil || pc.Deleted || pc.ID != c.ProviderCustomerID() {
			observedID := ""
			if pc != nil {
				observedID = pc.ID
			}
			return result, ierr.NewError("customer billing identity is not verified").
				WithHint("The provider record is missing or its identifier diverged; re-synchronize the customer first").
				WithReportableDetails(map[string]any{
					"customer_id":          c.ID,
					"local_provider_id":    c.ProviderCustomerID(),
					"observed_provider_id": observedID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		scoped = c
		providerCustomerID = c.ProviderCustomerID()
		since = c.BillingData.InvoicesSyncedAt
	} else {
		st, err := loadSyncSettings(ctx, s.ServiceParams)
		if err != nil {
			return result, err
		}
		since = st.InvoicesSyncedAt
	}

	changedIDs, err := s.Provider.ListChangedInvoiceIDs(ctx, since, providerCustomerID)
	if err != nil {
		return result, err
	}

	for _, providerInvoiceID := range changedIDs {
		if err := s.syncOne(ctx, providerInvoiceID, scoped); err != nil {
			s.Logger.Errorw("failed to sync invoice",
				"provider_invoice_id", providerInvoiceID,
				"error", err)
			result.RecordFailed()
			continue
		}
		result.RecordSynced()
	}

	// Watermarks advance regardless of per-item failures: failed invoices
	// stay in the provider's changed feed and come back next sweep
	if scoped != nil {
		bd := scoped.BillingData
		bd.InvoicesSyncedAt = &sweepStart
		if err := s.CustomerRepo.UpdateBillingData(ctx, scoped.ID, bd); err != nil {
			return result, err
		}
	} else {
		st, err := loadSyncSettings(ctx, s.ServiceParams)
		if err != nil {
			return result, err
		}
		st.InvoicesSyncedAt = &sweepStart
		if err := saveSyncSettings(ctx, s.ServiceParams, st); err != nil {
			return result, err
		}
	}

	s.Logger.Infow("invoice sync sweep finished",
		"tenant_id", types.GetTenantID(ctx),
		"customer_id", customerID,
		"synced", result.Synced,
		"failed", result.Failed)

	return result, nil
}

// syncOne reconciles a single provider invoice: mirrors its state locally,
// removes invoices deleted upstream, and refreshes the stored document when
// the download policy demands it.
func (s *invoiceSyncService) syncOne(ctx context.Context, providerInvoiceID string, scoped *customer.Customer) error {
	existing, err := s.InvoiceRepo.GetByProviderID(ctx, providerInvoiceID)
	if err != nil && !ierr.IsNotFound(err) {
		return err
	}

	pinv, err := s.Provider.GetInvoice(ctx, providerInvoiceID)
	if err != nil {
		return err
	}

	if pinv == nil {
		if existing == nil {
			// Neither side knows the invoice: a stale reference in the
			// changed feed
			return ierr.NewError("stale invoice reference").
				WithReportableDetails(map[string]any{
					"provider_invoice_id": providerInvoiceID,
				}).
				Mark(ierr.ErrNotFound)
		}

		// Deleted upstream. Removing the local mirror is the correct
		// reconciliation outcome, not a failure.
		if existing.DocumentKey != "" {
			if err := s.DocumentRepo.Delete(ctx, existing.DocumentKey); err != nil {
				s.Logger.Warnw("failed to delete orphaned invoice document",
					"document_key", existing.DocumentKey,
					"error", err)
			}
		}
		if err := s.InvoiceRepo.DeleteByProviderID(ctx, providerInvoiceID); err != nil {
			return err
		}
		s.Logger.Infow("removed invoice deleted upstream",
			"provider_invoice_id", providerInvoiceID)
		return nil
	}

	owner := scoped
	if owner == nil {
		owner, err = s.CustomerRepo.GetByProviderID(ctx, pinv.CustomerID)
		if err != nil {
			return err
		}
	} else if pinv.CustomerID != owner.ProviderCustomerID() {
		return ierr.NewError("invoice belongs to a different customer").
			WithReportableDetails(map[string]any{
				"provider_invoice_id":  providerInvoiceID,
				"expected_customer_id": owner.ProviderCustomerID(),
				"observed_customer_id": pinv.CustomerID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	inv := s.fromProvider(ctx, pinv, owner)

	needsDownload := existing == nil ||
		!existing.Downloadable ||
		existing.LineItemCount != pinv.LineItemCount

	if existing != nil {
		inv.ID = existing.ID
		inv.BaseModel = existing.BaseModel
		inv.UpdatedAt = time.Now().UTC()
		inv.Downloadable = existing.Downloadable
		inv.DocumentKey = existing.DocumentKey
	}

	if needsDownload {
		// A changed item count invalidates the stored document
		if existing != nil && existing.LineItemCount != pinv.LineItemCount {
			inv.Downloadable = false
		}
		s.refreshDocument(ctx, inv, pinv)
	}

	if err := inv.Validate(); err != nil {
		return err
	}

	if existing == nil {
		if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
	} else {
		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
	}

	// Stamp the owner's invoice watermark on every successful item. Scoped
	// sweeps stamp their customer once at the end instead.
	if scoped == nil && owner.BillingData != nil {
		now := time.Now().UTC()
		bd := owner.BillingData
		bd.InvoicesSyncedAt = &now
		if err := s.CustomerRepo.UpdateBillingData(ctx, owner.ID, bd); err != nil {
			s.Logger.Warnw("failed to stamp customer invoice watermark",
				"customer_id", owner.ID,
				"error", err)
		}
	}

	return nil
}

// refreshDocument downloads and stores the invoice document, then publishes an
// availability notification. A failed or absent download leaves the
// downloadable state untouched and is never an error for the item; the next
// sweep retries.
func (s *invoiceSyncService) refreshDocument(ctx context.Context, inv *invoice.Invoice, pinv *provider.Invoice) {
	content, err := s.Provider.DownloadInvoiceDocument(ctx, pinv)
	if err != nil {
		s.Logger.Warnw("failed to download invoice document",
			"provider_invoice_id", pinv.ID,
			"error", err)
		return
	}
	if content == nil {
		return
	}

	key := inv.DocumentKey
	if key == "" {
		key = types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_DOCUMENT)
	}

	if err := s.DocumentRepo.Save(ctx, key, content); err != nil {
		s.Logger.Warnw("failed to store invoice document",
			"provider_invoice_id", pinv.ID,
			"document_key", key,
			"error", err)
		return
	}

	inv.DocumentKey = key
	inv.Downloadable = true

	if s.Notifier != nil {
		event := notification.NewInvoiceAvailableEvent(types.GetTenantID(ctx))
		event.CustomerID = inv.CustomerID
		event.InvoiceID = inv.ID
		event.ProviderInvoiceID = inv.ProviderInvoiceID
		event.InvoiceNumber = inv.InvoiceNumber
		event.DocumentKey = key
		s.Notifier.InvoiceAvailable(ctx, event)
	}
}

// fromProvider translates a provider invoice projection into a fresh local
// invoice owned by the given customer
func (s *invoiceSyncService) fromProvider(ctx context.Context, pinv *provider.Invoice, owner *customer.Customer) *invoice.Invoice {
	return &invoice.Invoice{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		ProviderInvoiceID: pinv.ID,
		CustomerID:        owner.ID,
		InvoiceNumber:     pinv.Number,
		InvoiceStatus:     pinv.Status,
		PaymentStatus:     pinv.PaymentStatus,
		Currency:          pinv.Currency,
		AmountDue:         pinv.AmountDue,
		AmountPaid:        pinv.AmountPaid,
		LineItemCount:     pinv.LineItemCount,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
}
