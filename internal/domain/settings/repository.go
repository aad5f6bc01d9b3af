package settings

import "context"

// Repository defines the interface for sync settings persistence
type Repository interface {
	// Get returns the settings for the tenant in context, creating an empty
	// record when none exists yet
	Get(ctx context.Context) (*SyncSettings, error)

	// Save persists the settings for the tenant in context
	Save(ctx context.Context, settings *SyncSettings) error
}
