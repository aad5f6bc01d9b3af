package document

import "context"

// Repository stores opaque invoice documents keyed by document key.
// Content is written once per successful download.
type Repository interface {
	Save(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
