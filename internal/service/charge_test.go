package service

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/vidinfra/billsync/internal/domain/invoice"
	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/testutil"
	"github.com/vidinfra/billsync/internal/types"
)

type ChargeServiceSuite struct {
	testutil.BaseServiceTestSuite
	service     ChargeService
	invoiceRepo *testutil.InMemoryInvoiceStore
}

func TestChargeService(t *testing.T) {
	suite.Run(t, new(ChargeServiceSuite))
}

func (s *ChargeServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	s.invoiceRepo = s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore)

	s.service = NewChargeService(ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		Cache:        s.GetCache(),
		Provider:     s.GetProvider(),
		Notifier:     s.GetNotifier(),
		CustomerRepo: s.GetStores().CustomerRepo,
		InvoiceRepo:  s.invoiceRepo,
		DocumentRepo: s.GetStores().DocumentRepo,
		SettingsRepo: s.GetStores().SettingsRepo,
	})
}

func (s *ChargeServiceSuite) seedInvoice(providerID string, status types.InvoiceStatus, payment types.InvoicePaymentStatus, due, paid int64) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		ProviderInvoiceID: providerID,
		CustomerID:        "cust-1",
		InvoiceStatus:     status,
		PaymentStatus:     payment,
		Currency:          "usd",
		AmountDue:         decimal.NewFromInt(due),
		AmountPaid:        decimal.NewFromInt(paid),
		LineItemCount:     1,
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.invoiceRepo.Create(s.GetContext(), inv))
	return inv
}

func (s *ChargeServiceSuite) TestChargePartialFailureTally() {
	for i := 1; i <= 5; i++ {
		s.seedInvoice(fmt.Sprintf("inv_%d", i), types.InvoiceStatusFinalized, types.PaymentStatusPending, 100, 0)
	}
	declined := ierr.NewError("payment method declined").Mark(ierr.ErrInvalidOperation)
	s.GetProvider().ChargeErr["inv_2"] = declined
	s.GetProvider().ChargeErr["inv_4"] = declined

	result, err := s.service.ChargeInvoices(s.GetContext())
	s.NoError(err)
	s.Equal(3, result.Synced)
	s.Equal(2, result.Failed)
	s.Equal(5, s.GetProvider().ChargeCalls)
}

func (s *ChargeServiceSuite) TestChargeSkipsNonPayableInvoices() {
	s.seedInvoice("inv_1", types.InvoiceStatusFinalized, types.PaymentStatusSucceeded, 100, 100)
	s.seedInvoice("inv_2", types.InvoiceStatusDraft, types.PaymentStatusPending, 100, 0)
	s.seedInvoice("inv_3", types.InvoiceStatusVoided, types.PaymentStatusPending, 100, 0)
	s.seedInvoice("inv_4", types.InvoiceStatusFinalized, types.PaymentStatusFailed, 100, 40)

	result, err := s.service.ChargeInvoices(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.Synced)
	s.Equal(0, result.Failed)
	s.Equal(1, s.GetProvider().ChargeCalls)
}

func (s *ChargeServiceSuite) TestChargeDoesNotMutateLocalInvoice() {
	seeded := s.seedInvoice("inv_1", types.InvoiceStatusFinalized, types.PaymentStatusPending, 100, 0)

	result, err := s.service.ChargeInvoices(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.Synced)

	// Settlement state flows back through the next invoice sweep, never here
	local, err := s.invoiceRepo.Get(s.GetContext(), seeded.ID)
	s.NoError(err)
	s.Equal(types.PaymentStatusPending, local.PaymentStatus)
	s.True(local.AmountPaid.IsZero())
}

func (s *ChargeServiceSuite) TestChargeWithNothingPayable() {
	result, err := s.service.ChargeInvoices(s.GetContext())
	s.NoError(err)
	s.Equal(0, result.Total())
}
