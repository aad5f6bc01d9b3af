package service

import (
	"context"

	"github.com/vidinfra/billsync/internal/cache"
	"github.com/vidinfra/billsync/internal/domain/settings"
	"github.com/vidinfra/billsync/internal/types"
)

// loadSyncSettings returns the tenant's sync settings, served from cache when
// possible
func loadSyncSettings(ctx context.Context, p ServiceParams) (*settings.SyncSettings, error) {
	key := cache.GenerateKey(cache.PrefixSettings, types.GetTenantID(ctx))

	if p.Cache != nil {
		if cached, found := p.Cache.Get(ctx, key); found {
			if st, ok := cached.(*settings.SyncSettings); ok {
				return st, nil
			}
		}
	}

	st, err := p.SettingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if p.Cache != nil {
		p.Cache.Set(ctx, key, st, cache.DefaultExpiration)
	}

	return st, nil
}

// saveSyncSettings persists the settings and invalidates the cache entry
func saveSyncSettings(ctx context.Context, p ServiceParams, st *settings.SyncSettings) error {
	if err := p.SettingsRepo.Save(ctx, st); err != nil {
		return err
	}

	if p.Cache != nil {
		p.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixSettings, types.GetTenantID(ctx)))
	}

	return nil
}
