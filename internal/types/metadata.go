package types

// Metadata is a map of string key-value pairs attached to an entity
type Metadata map[string]string

// Merge returns a new Metadata with values from other overriding m
func (m Metadata) Merge(other Metadata) Metadata {
	merged := make(Metadata, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
