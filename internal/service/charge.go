package service

import (
	"context"

	"github.com/vidinfra/billsync/internal/provider"
	"github.com/vidinfra/billsync/internal/types"
)

// ChargeService drives settlement attempts for payable invoices
type ChargeService interface {
	// ChargeInvoices attempts settlement of every payable invoice of the
	// tenant in context. Each attempt is isolated; a declined or failed charge
	// never stops the run.
	ChargeInvoices(ctx context.Context) (types.SyncResult, error)
}

type chargeService struct {
	ServiceParams
}

// NewChargeService creates a charge service
func NewChargeService(params ServiceParams) ChargeService {
	return &chargeService{
		ServiceParams: params,
	}
}

func (s *chargeService) ChargeInvoices(ctx context.Context) (types.SyncResult, error) {
	var result types.SyncResult

	payable, err := s.InvoiceRepo.ListPayable(ctx)
	if err != nil {
		return result, err
	}

	for _, inv := range payable {
		chargeResult, err := s.Provider.ChargeInvoice(ctx, &provider.Invoice{
			ID:            inv.ProviderInvoiceID,
			Status:        inv.InvoiceStatus,
			PaymentStatus: inv.PaymentStatus,
			Currency:      inv.Currency,
			AmountDue:     inv.AmountDue,
			AmountPaid:    inv.AmountPaid,
		})
		if err != nil {
			s.Logger.Errorw("failed to charge invoice",
				"invoice_id", inv.ID,
				"provider_invoice_id", inv.ProviderInvoiceID,
				"remaining_amount", inv.GetRemainingAmount(),
				"error", err)
			result.RecordFailed()
			continue
		}

		// The provider's changed feed carries the resulting payment state
		// back through the next invoice sweep; the local record is not
		// mutated here
		s.Logger.Infow("charged invoice",
			"invoice_id", inv.ID,
			"provider_invoice_id", inv.ProviderInvoiceID,
			"payment_status", chargeResult.PaymentStatus,
			"amount_paid", chargeResult.AmountPaid)
		result.RecordSynced()
	}

	s.Logger.Infow("charge run finished",
		"tenant_id", types.GetTenantID(ctx),
		"synced", result.Synced,
		"failed", result.Failed)

	return result, nil
}
