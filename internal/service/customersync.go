package service

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/vidinfra/billsync/internal/domain/customer"
	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/provider"
	"github.com/vidinfra/billsync/internal/types"
)

// CustomerSyncService reconciles local customers with the billing provider
type CustomerSyncService interface {
	// SyncCustomers runs one full customer reconciliation sweep for the
	// tenant in context
	SyncCustomers(ctx context.Context) (types.SyncResult, error)

	// SyncCustomer unconditionally resolves, creates or updates the provider
	// identity of a single customer, bypassing changed-since detection. Used
	// for manual remediation, not batch sweeps.
	SyncCustomer(ctx context.Context, customerID string) error
}

type customerSyncService struct {
	ServiceParams
}

// NewCustomerSyncService creates a customer sync service
func NewCustomerSyncService(params ServiceParams) CustomerSyncService {
	return &customerSyncService{
		ServiceParams: params,
	}
}

func (s *customerSyncService) SyncCustomers(ctx context.Context) (types.SyncResult, error) {
	var result types.SyncResult
	sweepStart := time.Now().UTC()

	// Customers flagged from earlier sweeps are surfaced in the tally, not
	// silently retried forever
	flagged, err := s.CustomerRepo.List(ctx, &types.CustomerFilter{SyncFailed: lo.ToPtr(true)})
	if err != nil {
		return result, err
	}
	// A customer appearing in more than one of the sets below is processed
	// once; the upsert is keyed by provider identity either way
	processed := make(map[string]struct{})

	for _, c := range flagged {
		s.Logger.Warnw("customer billing sync is in error state",
			"customer_id", c.ID,
			"provider_customer_id", c.ProviderCustomerID())
		processed[c.ID] = struct{}{}
		result.RecordFailed()
	}

	// Never-synchronized customers, ordered by external id for reproducibility
	unsynced, err := s.CustomerRepo.List(ctx, &types.CustomerFilter{Unsynced: true})
	if err != nil {
		return result, err
	}
	sort.Slice(unsynced, func(i, j int) bool {
		return unsynced[i].ExternalID < unsynced[j].ExternalID
	})

	for _, c := range unsynced {
		processed[c.ID] = struct{}{}
		if err := s.syncOne(ctx, c); err != nil {
			// The item stays unsynchronized and is picked up by the next sweep
			s.Logger.Errorw("failed to sync customer to provider",
				"customer_id", c.ID,
				"external_id", c.ExternalID,
				"error", err)
			result.RecordFailed()
			continue
		}
		result.RecordSynced()
	}

	// Replay provider-side changes since the watermark
	st, err := loadSyncSettings(ctx, s.ServiceParams)
	if err != nil {
		return result, err
	}

	changedIDs, err := s.Provider.ListChangedCustomerIDs(ctx, st.CustomersSyncedAt)
	if err != nil {
		return result, err
	}

	for _, providerID := range changedIDs {
		local, err := s.CustomerRepo.GetByProviderID(ctx, providerID)
		if err != nil {
			if ierr.IsNotFound(err) {
				s.Logger.Errorw("provider reported a change for an unknown billing customer",
					"provider_customer_id", providerID)
			} else {
				s.Logger.Errorw("failed to resolve changed billing customer",
					"provider_customer_id", providerID,
					"error", err)
			}
			result.RecordFailed()
			continue
		}

		if _, done := processed[local.ID]; done {
			continue
		}
		processed[local.ID] = struct{}{}

		pc, err := s.Provider.GetCustomer(ctx, providerID)
		if err != nil {
			s.Logger.Errorw("failed to fetch provider customer",
				"provider_customer_id", providerID,
				"error", err)
			result.RecordFailed()
			continue
		}

		if pc == nil || pc.Deleted {
			// Deleted upstream: flag the local billing data, never delete the
			// local customer
			bd := local.BillingData
			if bd == nil {
				bd = &customer.BillingData{ProviderCustomerID: providerID}
			}
			bd.SyncFailed = true
			if err := s.CustomerRepo.UpdateBillingData(ctx, local.ID, bd); err != nil {
				s.Logger.Errorw("failed to flag customer billing data",
					"customer_id", local.ID,
					"error", err)
			}
			s.Logger.Warnw("provider customer was deleted upstream",
				"customer_id", local.ID,
				"provider_customer_id", providerID)
			result.RecordFailed()
			continue
		}

		if err := s.syncOne(ctx, local); err != nil {
			s.Logger.Errorw("failed to sync changed customer",
				"customer_id", local.ID,
				"provider_customer_id", providerID,
				"error", err)
			result.RecordFailed()
			continue
		}
		result.RecordSynced()
	}

	// The watermark advances even with partial errors: the changed-set above
	// is provider-driven, so skipped items resurface on the next sweep
	st.CustomersSyncedAt = &sweepStart
	if err := saveSyncSettings(ctx, s.ServiceParams, st); err != nil {
		return result, err
	}

	s.Logger.Infow("customer sync sweep finished",
		"tenant_id", types.GetTenantID(ctx),
		"synced", result.Synced,
		"failed", result.Failed)

	return result, nil
}

func (s *customerSyncService) SyncCustomer(ctx context.Context, customerID string) error {
	c, err := s.CustomerRepo.Get(ctx, customerID)
	if err != nil {
		return err
	}

	return s.syncOne(ctx, c)
}

// syncOne upserts one customer at the provider and persists the returned
// billing data. Only a successful round-trip mutates local state.
func (s *customerSyncService) syncOne(ctx context.Context, c *customer.Customer) error {
	pc, err := s.lookupProviderCustomer(ctx, c)
	if err != nil {
		return err
	}

	if pc != nil && c.ProviderCustomerID() != "" && pc.ID != c.ProviderCustomerID() {
		// A correlation key mismatch is a hard inconsistency, never
		// auto-resolved
		return ierr.NewError("billing identity mismatch").
			WithHint("Local and provider customer identifiers diverged; operator remediation required").
			WithReportableDetails(map[string]any{
				"customer_id":          c.ID,
				"local_provider_id":    c.ProviderCustomerID(),
				"observed_provider_id": pc.ID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if pc == nil || pc.Deleted {
		pc, err = s.Provider.CreateCustomer(ctx, c)
	} else {
		if c.BillingData == nil {
			c.BillingData = &customer.BillingData{}
		}
		c.BillingData.ProviderCustomerID = pc.ID
		pc, err = s.Provider.UpdateCustomer(ctx, c)
	}
	if err != nil {
		return err
	}

	bd := &customer.BillingData{
		ProviderCustomerID: pc.ID,
		SyncFailed:         false,
	}
	if c.BillingData != nil {
		bd.InvoicesSyncedAt = c.BillingData.InvoicesSyncedAt
	}

	return s.CustomerRepo.UpdateBillingData(ctx, c.ID, bd)
}

// lookupProviderCustomer resolves the provider-side record for a local
// customer: by correlation key when known, by email otherwise
func (s *customerSyncService) lookupProviderCustomer(ctx context.Context, c *customer.Customer) (*provider.Customer, error) {
	if id := c.ProviderCustomerID(); id != "" {
		return s.Provider.GetCustomer(ctx, id)
	}
	if c.Email != "" {
		return s.Provider.GetCustomerByEmail(ctx, c.Email)
	}
	return nil, nil
}
