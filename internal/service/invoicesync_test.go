package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/vidinfra/billsync/internal/domain/customer"
	ierr "github.com/vidinfra/billsync/internal/errors"
	"github.com/vidinfra/billsync/internal/provider"
	"github.com/vidinfra/billsync/internal/testutil"
	"github.com/vidinfra/billsync/internal/types"
)

type InvoiceSyncServiceSuite struct {
	testutil.BaseServiceTestSuite
	service      InvoiceSyncService
	customerRepo *testutil.InMemoryCustomerStore
	invoiceRepo  *testutil.InMemoryInvoiceStore
	documentRepo *testutil.InMemoryDocumentStore
	settingsRepo *testutil.InMemorySettingsStore
}

func TestInvoiceSyncService(t *testing.T) {
	suite.Run(t, new(InvoiceSyncServiceSuite))
}

func (s *InvoiceSyncServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	s.customerRepo = s.GetStores().CustomerRepo.(*testutil.InMemoryCustomerStore)
	s.invoiceRepo = s.GetStores().InvoiceRepo.(*testutil.InMemoryInvoiceStore)
	s.documentRepo = s.GetStores().DocumentRepo.(*testutil.InMemoryDocumentStore)
	s.settingsRepo = s.GetStores().SettingsRepo.(*testutil.InMemorySettingsStore)

	s.service = NewInvoiceSyncService(ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		Cache:        s.GetCache(),
		Provider:     s.GetProvider(),
		Notifier:     s.GetNotifier(),
		CustomerRepo: s.customerRepo,
		InvoiceRepo:  s.invoiceRepo,
		DocumentRepo: s.documentRepo,
		SettingsRepo: s.settingsRepo,
	})

	// A synced customer owning the invoices under test, known on both sides
	s.NoError(s.customerRepo.Create(s.GetContext(), &customer.Customer{
		ID:         "cust-1",
		ExternalID: "ext-1",
		Email:      "one@example.com",
		BillingData: &customer.BillingData{
			ProviderCustomerID: "fake_cust_1",
		},
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}))
	s.GetProvider().Customers["fake_cust_1"] = &provider.Customer{
		ID:    "fake_cust_1",
		Email: "one@example.com",
	}
}

func (s *InvoiceSyncServiceSuite) seedProviderInvoice(id string, lineItems int, doc []byte) *provider.Invoice {
	pinv := &provider.Invoice{
		ID:            id,
		CustomerID:    "fake_cust_1",
		Number:        "INV-" + id,
		Status:        types.InvoiceStatusFinalized,
		PaymentStatus: types.PaymentStatusPending,
		Currency:      "usd",
		AmountDue:     decimal.NewFromInt(100),
		AmountPaid:    decimal.Zero,
		LineItemCount: lineItems,
	}
	s.GetProvider().Invoices[id] = pinv
	if doc != nil {
		s.GetProvider().Documents[id] = doc
		pinv.DocumentURL = "https://billing.example.com/" + id + ".pdf"
	}
	return pinv
}

func (s *InvoiceSyncServiceSuite) TestNewInvoiceIsMirroredWithDocument() {
	s.seedProviderInvoice("inv_1", 3, []byte("pdf-bytes"))
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}

	result, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(1, result.Synced)
	s.Equal(0, result.Failed)

	local, err := s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.NoError(err)
	s.Equal("cust-1", local.CustomerID)
	s.Equal(3, local.LineItemCount)
	s.True(local.Downloadable)
	s.NotEmpty(local.DocumentKey)
	s.True(s.documentRepo.Has(local.DocumentKey))

	events := s.GetNotifier().Events()
	s.Len(events, 1)
	s.Equal(local.ID, events[0].InvoiceID)
	s.Equal(local.DocumentKey, events[0].DocumentKey)
}

func (s *InvoiceSyncServiceSuite) TestInvoiceWithoutDocumentIsNotDownloadable() {
	s.seedProviderInvoice("inv_1", 1, nil)
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}

	result, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(1, result.Synced)

	local, err := s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.NoError(err)
	s.False(local.Downloadable)
	s.Empty(local.DocumentKey)
	s.Empty(s.GetNotifier().Events())
}

func (s *InvoiceSyncServiceSuite) TestUnchangedLineCountSkipsDownload() {
	s.seedProviderInvoice("inv_1", 2, []byte("pdf-bytes"))
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}

	_, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(1, s.GetProvider().DownloadCalls)

	// Same line count on the next sweep: the stored document is still valid
	_, err = s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(1, s.GetProvider().DownloadCalls)
	s.Len(s.GetNotifier().Events(), 1)
}

func (s *InvoiceSyncServiceSuite) TestLineCountChangeForcesRedownload() {
	pinv := s.seedProviderInvoice("inv_1", 2, []byte("v1"))
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}

	_, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	first, err := s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.NoError(err)

	pinv.LineItemCount = 3
	s.GetProvider().Documents["inv_1"] = []byte("v2")

	_, err = s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(2, s.GetProvider().DownloadCalls)

	second, err := s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(first.DocumentKey, second.DocumentKey)
	s.Equal(3, second.LineItemCount)

	content, err := s.documentRepo.Get(s.GetContext(), second.DocumentKey)
	s.NoError(err)
	s.Equal([]byte("v2"), content)
	s.Len(s.GetNotifier().Events(), 2)
}

func (s *InvoiceSyncServiceSuite) TestNonDownloadableInvoiceIsRetried() {
	s.seedProviderInvoice("inv_1", 1, nil)
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}

	_, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)

	// The document shows up at the provider later
	s.GetProvider().Documents["inv_1"] = []byte("pdf-bytes")
	s.GetProvider().Invoices["inv_1"].DocumentURL = "https://billing.example.com/inv_1.pdf"

	_, err = s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)

	local, err := s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.NoError(err)
	s.True(local.Downloadable)
	s.Len(s.GetNotifier().Events(), 1)
}

func (s *InvoiceSyncServiceSuite) TestDeletedUpstreamRemovesLocalInvoice() {
	s.seedProviderInvoice("inv_1", 1, []byte("pdf-bytes"))
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}

	_, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	local, err := s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.NoError(err)

	// Gone upstream, still in the changed feed
	delete(s.GetProvider().Invoices, "inv_1")

	result, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(1, result.Synced)
	s.Equal(0, result.Failed)

	_, err = s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.True(ierr.IsNotFound(err))
	s.False(s.documentRepo.Has(local.DocumentKey))
}

func (s *InvoiceSyncServiceSuite) TestPerItemFailureIsolation() {
	s.seedProviderInvoice("inv_1", 1, nil)
	s.seedProviderInvoice("inv_2", 1, nil)
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1", "inv_2"}
	s.GetProvider().GetInvoiceErr["inv_1"] = ierr.NewError("provider glitch").Mark(ierr.ErrIntegration)

	result, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(1, result.Synced)
	s.Equal(1, result.Failed)

	_, err = s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_2")
	s.NoError(err)
}

func (s *InvoiceSyncServiceSuite) TestScopedSweepRequiresSyncedCustomer() {
	s.NoError(s.customerRepo.Create(s.GetContext(), &customer.Customer{
		ID:         "cust-2",
		ExternalID: "ext-2",
		Email:      "two@example.com",
		BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
	}))

	_, err := s.service.SyncInvoices(s.GetContext(), "cust-2")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceSyncServiceSuite) TestScopedSweepRequiresProviderIdentity() {
	// The correlation key points at a record the provider no longer has
	s.NoError(s.customerRepo.Create(s.GetContext(), &customer.Customer{
		ID:         "cust-2",
		ExternalID: "ext-2",
		Email:      "two@example.com",
		BillingData: &customer.BillingData{
			ProviderCustomerID: "fake_cust_gone",
		},
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}))

	result, err := s.service.SyncInvoices(s.GetContext(), "cust-2")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Equal(0, result.Total())

	// The failed precondition leaves the customer watermark untouched
	c, err := s.customerRepo.Get(s.GetContext(), "cust-2")
	s.NoError(err)
	s.Nil(c.BillingData.InvoicesSyncedAt)
}

func (s *InvoiceSyncServiceSuite) TestScopedSweepRejectsDeletedProviderCustomer() {
	s.GetProvider().Customers["fake_cust_1"].Deleted = true

	_, err := s.service.SyncInvoices(s.GetContext(), "cust-1")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceSyncServiceSuite) TestScopedSweepRejectsDivergedIdentity() {
	// The record behind the correlation key reports a different id
	s.GetProvider().Customers["fake_cust_1"].ID = "fake_cust_other"

	_, err := s.service.SyncInvoices(s.GetContext(), "cust-1")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	c, err := s.customerRepo.Get(s.GetContext(), "cust-1")
	s.NoError(err)
	s.Nil(c.BillingData.InvoicesSyncedAt)
}

func (s *InvoiceSyncServiceSuite) TestScopedSweepStampsCustomerWatermark() {
	s.seedProviderInvoice("inv_1", 1, nil)

	result, err := s.service.SyncInvoices(s.GetContext(), "cust-1")
	s.NoError(err)
	s.Equal(1, result.Synced)

	c, err := s.customerRepo.Get(s.GetContext(), "cust-1")
	s.NoError(err)
	s.NotNil(c.BillingData.InvoicesSyncedAt)

	// The tenant-wide watermark is untouched by a scoped sweep
	st, err := s.settingsRepo.Get(s.GetContext())
	s.NoError(err)
	s.Nil(st.InvoicesSyncedAt)
}

func (s *InvoiceSyncServiceSuite) TestScopedSweepRejectsForeignInvoice() {
	pinv := s.seedProviderInvoice("inv_1", 1, nil)
	pinv.CustomerID = "fake_cust_other"

	// The scoped feed claims the invoice but its record names another owner
	s.GetProvider().ScopedChangedInvoiceIDs = map[string][]string{
		"fake_cust_1": {"inv_1"},
	}

	result, err := s.service.SyncInvoices(s.GetContext(), "cust-1")
	s.NoError(err)
	s.Equal(0, result.Synced)
	s.Equal(1, result.Failed)

	_, err = s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceSyncServiceSuite) TestUnscopedSweepAdvancesWatermark() {
	before := time.Now().UTC()
	s.seedProviderInvoice("inv_1", 1, nil)
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}

	_, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)

	st, err := s.settingsRepo.Get(s.GetContext())
	s.NoError(err)
	s.NotNil(st.InvoicesSyncedAt)
	s.False(st.InvoicesSyncedAt.Before(before))
}

func (s *InvoiceSyncServiceSuite) TestUnknownOwnerCountsAsFailed() {
	pinv := s.seedProviderInvoice("inv_1", 1, nil)
	pinv.CustomerID = "fake_cust_unknown"
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}

	result, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(0, result.Synced)
	s.Equal(1, result.Failed)
}

func (s *InvoiceSyncServiceSuite) TestDocumentSaveFailureDoesNotFailItem() {
	s.seedProviderInvoice("inv_1", 1, []byte("pdf-bytes"))
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}
	s.documentRepo.SaveErr = ierr.NewError("storage unavailable").Mark(ierr.ErrSystem)

	result, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(1, result.Synced)
	s.Equal(0, result.Failed)

	// The invoice is mirrored without a document and no notification escaped
	local, err := s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.NoError(err)
	s.False(local.Downloadable)
	s.Empty(local.DocumentKey)
	s.Equal(0, s.documentRepo.Count())
	s.Empty(s.GetNotifier().Events())

	// Once storage recovers, the next sweep completes the download
	s.documentRepo.SaveErr = nil
	_, err = s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)

	local, err = s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.NoError(err)
	s.True(local.Downloadable)
	s.Len(s.GetNotifier().Events(), 1)
}

func (s *InvoiceSyncServiceSuite) TestDownloadFailureDoesNotFailItem() {
	s.seedProviderInvoice("inv_1", 1, []byte("pdf-bytes"))
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}
	s.GetProvider().DownloadErr["inv_1"] = ierr.NewError("document fetch failed").Mark(ierr.ErrIntegration)

	result, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(1, result.Synced)
	s.Equal(0, result.Failed)

	local, err := s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.NoError(err)
	s.False(local.Downloadable)
	s.Empty(s.GetNotifier().Events())
}

func (s *InvoiceSyncServiceSuite) TestStaleChangedReferenceCountsAsFailed() {
	// The changed feed names an invoice neither side has a record of
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_ghost"}

	result, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)
	s.Equal(0, result.Synced)
	s.Equal(1, result.Failed)
}

func (s *InvoiceSyncServiceSuite) TestMirrorsPaymentStateFromProvider() {
	pinv := s.seedProviderInvoice("inv_1", 1, nil)
	s.GetProvider().ChangedInvoiceIDs = []string{"inv_1"}

	_, err := s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)

	pinv.PaymentStatus = types.PaymentStatusSucceeded
	pinv.AmountPaid = decimal.NewFromInt(100)

	_, err = s.service.SyncInvoices(s.GetContext(), "")
	s.NoError(err)

	local, err := s.invoiceRepo.GetByProviderID(s.GetContext(), "inv_1")
	s.NoError(err)
	s.Equal(types.PaymentStatusSucceeded, local.PaymentStatus)
	s.True(local.GetRemainingAmount().IsZero())
}
