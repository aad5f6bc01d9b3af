package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/vidinfra/billsync/internal/testutil"
)

type SyncSettingsCacheSuite struct {
	testutil.BaseServiceTestSuite
	params       ServiceParams
	settingsRepo *testutil.InMemorySettingsStore
}

func TestSyncSettingsCache(t *testing.T) {
	suite.Run(t, new(SyncSettingsCacheSuite))
}

func (s *SyncSettingsCacheSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	s.settingsRepo = s.GetStores().SettingsRepo.(*testutil.InMemorySettingsStore)

	s.params = ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		Cache:        s.GetCache(),
		Provider:     s.GetProvider(),
		Notifier:     s.GetNotifier(),
		CustomerRepo: s.GetStores().CustomerRepo,
		InvoiceRepo:  s.GetStores().InvoiceRepo,
		DocumentRepo: s.GetStores().DocumentRepo,
		SettingsRepo: s.settingsRepo,
	}
}

func (s *SyncSettingsCacheSuite) TestRepeatedLoadsServeFromCache() {
	st, err := loadSyncSettings(s.GetContext(), s.params)
	s.NoError(err)
	s.Nil(st.CustomersSyncedAt)

	// A write that bypasses saveSyncSettings stays invisible to readers until
	// the cache entry is invalidated
	stale := time.Now().UTC()
	direct, err := s.settingsRepo.Get(s.GetContext())
	s.NoError(err)
	direct.CustomersSyncedAt = &stale
	s.NoError(s.settingsRepo.Save(s.GetContext(), direct))

	cached, err := loadSyncSettings(s.GetContext(), s.params)
	s.NoError(err)
	s.Nil(cached.CustomersSyncedAt)
}

func (s *SyncSettingsCacheSuite) TestSaveInvalidatesCachedSettings() {
	st, err := loadSyncSettings(s.GetContext(), s.params)
	s.NoError(err)

	now := time.Now().UTC()
	st.InvoicesSyncedAt = &now
	s.NoError(saveSyncSettings(s.GetContext(), s.params, st))

	fresh, err := loadSyncSettings(s.GetContext(), s.params)
	s.NoError(err)
	s.NotNil(fresh.InvoicesSyncedAt)
	s.True(fresh.InvoicesSyncedAt.Equal(now))
}

func (s *SyncSettingsCacheSuite) TestNilCacheFallsThroughToRepository() {
	params := s.params
	params.Cache = nil

	st, err := loadSyncSettings(s.GetContext(), params)
	s.NoError(err)

	now := time.Now().UTC()
	st.CustomersSyncedAt = &now
	s.NoError(saveSyncSettings(s.GetContext(), params, st))

	fresh, err := loadSyncSettings(s.GetContext(), params)
	s.NoError(err)
	s.NotNil(fresh.CustomersSyncedAt)
}
