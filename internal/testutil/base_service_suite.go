package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/vidinfra/billsync/internal/cache"
	"github.com/vidinfra/billsync/internal/config"
	"github.com/vidinfra/billsync/internal/domain/customer"
	"github.com/vidinfra/billsync/internal/domain/document"
	"github.com/vidinfra/billsync/internal/domain/invoice"
	"github.com/vidinfra/billsync/internal/domain/settings"
	"github.com/vidinfra/billsync/internal/logger"
	"github.com/vidinfra/billsync/internal/types"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	CustomerRepo customer.Repository
	InvoiceRepo  invoice.Repository
	DocumentRepo document.Repository
	SettingsRepo settings.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	stores   Stores
	provider *FakeProvider
	notifier *InMemoryNotifier
	logger   *logger.Logger
	config   *config.Configuration
	cache    cache.Cache
	now      time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := &config.Configuration{
		Deployment: config.DeploymentConfig{Mode: types.ModeLocal},
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
		Notification: config.NotificationConfig{
			Topic: "invoice.available",
		},
		Sync: *types.DefaultSyncConfig(),
	}

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}

	s.cache = cache.Initialize(s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxTenantID, types.DefaultTenantID)
	s.ctx = context.WithValue(s.ctx, types.CtxUserID, types.DefaultUserID)
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		CustomerRepo: NewInMemoryCustomerStore(),
		InvoiceRepo:  NewInMemoryInvoiceStore(),
		DocumentRepo: NewInMemoryDocumentStore(),
		SettingsRepo: NewInMemorySettingsStore(),
	}

	s.provider = NewFakeProvider()
	s.notifier = NewInMemoryNotifier()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.CustomerRepo.(*InMemoryCustomerStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.DocumentRepo.(*InMemoryDocumentStore).Clear()
	s.stores.SettingsRepo.(*InMemorySettingsStore).Clear()
	s.notifier.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetProvider returns the scripted billing provider
func (s *BaseServiceTestSuite) GetProvider() *FakeProvider {
	return s.provider
}

// GetNotifier returns the capturing notifier
func (s *BaseServiceTestSuite) GetNotifier() *InMemoryNotifier {
	return s.notifier
}

// GetCache returns the process-wide cache, flushed between tests
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}
