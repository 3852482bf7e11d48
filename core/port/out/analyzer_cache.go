package out

import (
	"context"
	"time"
)

// Cache defines the outbound port for JSON caching.
type Cache interface {
	// GetJSON decodes the cached value into dest. found is false on a miss.
	GetJSON(ctx context.Context, key string, dest any) (found bool, err error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
