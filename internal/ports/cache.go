package ports

import (
	"context"
	"time"
)

// Cache is a small key-value capability used for run bookkeeping (for
// example the enrichment loop's last-run summary). Adapters may be backed by
// SQLite or any other store.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
