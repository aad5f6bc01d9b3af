package cache

import (
	"github.com/vidinfra/billsync/internal/logger"
)

// Initialize initializes the cache system
func Initialize(log *logger.Logger) *InMemoryCache {
	log.Info("Initializing cache system")

	InitializeInMemoryCache(nil)

	return GetInMemoryCache()
}
