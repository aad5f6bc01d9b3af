package testutil

import (
	"context"
	"sync"

	"github.com/vidinfra/billsync/internal/domain/settings"
	"github.com/vidinfra/billsync/internal/types"
)

// InMemorySettingsStore implements settings.Repository, one record per tenant
type InMemorySettingsStore struct {
	mu    sync.RWMutex
	items map[string]*settings.SyncSettings
}

// NewInMemorySettingsStore creates a new in-memory settings store
func NewInMemorySettingsStore() *InMemorySettingsStore {
	return &InMemorySettingsStore{
		items: make(map[string]*settings.SyncSettings),
	}
}

func copySettings(st *settings.SyncSettings) *settings.SyncSettings {
	if st == nil {
		return nil
	}
	out := *st
	if st.CustomersSyncedAt != nil {
		t := *st.CustomersSyncedAt
		out.CustomersSyncedAt = &t
	}
	if st.InvoicesSyncedAt != nil {
		t := *st.InvoicesSyncedAt
		out.InvoicesSyncedAt = &t
	}
	return &out
}

func (s *InMemorySettingsStore) Get(ctx context.Context) (*settings.SyncSettings, error) {
	tenantID := types.GetTenantID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, exists := s.items[tenantID]; exists {
		return copySettings(st), nil
	}

	st := &settings.SyncSettings{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SETTING),
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.items[tenantID] = st
	return copySettings(st), nil
}

func (s *InMemorySettingsStore) Save(ctx context.Context, st *settings.SyncSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[types.GetTenantID(ctx)] = copySettings(st)
	return nil
}

// Clear removes all settings
func (s *InMemorySettingsStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*settings.SyncSettings)
}
