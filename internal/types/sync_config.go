package types

// SyncConfig defines which entities should be synced with the billing provider
type SyncConfig struct {
	Customer *EntitySyncConfig `json:"customer,omitempty" mapstructure:"customer"`
	Invoice  *EntitySyncConfig `json:"invoice,omitempty" mapstructure:"invoice"`
}

// EntitySyncConfig defines sync direction for an entity
type EntitySyncConfig struct {
	Inbound  bool `json:"inbound" mapstructure:"inbound"`   // Inbound from the provider to local records
	Outbound bool `json:"outbound" mapstructure:"outbound"` // Outbound from local records to the provider
}

// DefaultSyncConfig returns a sync config with all entities enabled in both
// directions, which is the behavior tenants get without explicit toggles
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		Customer: &EntitySyncConfig{Inbound: true, Outbound: true},
		Invoice:  &EntitySyncConfig{Inbound: true, Outbound: true},
	}
}

// CustomerSyncEnabled reports whether customer reconciliation is enabled
func (c *SyncConfig) CustomerSyncEnabled() bool {
	if c == nil || c.Customer == nil {
		return true
	}
	return c.Customer.Inbound || c.Customer.Outbound
}

// InvoiceSyncEnabled reports whether invoice reconciliation is enabled
func (c *SyncConfig) InvoiceSyncEnabled() bool {
	if c == nil || c.Invoice == nil {
		return true
	}
	return c.Invoice.Inbound
}
