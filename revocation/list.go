// Package revocation keeps the TTL-bound set of access-token ids that must
// be rejected before their natural expiry. Entry TTLs are clamped to the
// token's own remaining lifetime, so the set self-prunes and its size tracks
// concurrently-valid revoked tokens, not total logout volume.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps any Redis transport failure.
var ErrStoreUnavailable = errors.New("revocation store unavailable")

// List is a Redis-backed access-token blacklist.
type List struct {
	redis  redis.UniversalClient
	prefix string
	maxTTL time.Duration
}

// NewList creates a List namespaced under prefix. maxTTL caps every entry's
// lifetime and should equal the access-token lifetime.
func NewList(client redis.UniversalClient, prefix string, maxTTL time.Duration) *List {
	if prefix == "" {
		prefix = "gs"
	}
	return &List{
		redis:  client,
		prefix: prefix,
		maxTTL: maxTTL,
	}
}

func (l *List) key(tokenID string) string {
	return l.prefix + ":b:" + tokenID
}

// Revoke marks tokenID rejected for the given remaining lifetime. The TTL is
// clamped to [0, maxTTL]; zero or negative remaining is a no-op because the
// token is already expired and nothing needs blacklisting.
func (l *List) Revoke(ctx context.Context, tokenID string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	if l.maxTTL > 0 && remaining > l.maxTTL {
		remaining = l.maxTTL
	}

	if err := l.redis.Set(ctx, l.key(tokenID), "1", remaining).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether tokenID is currently blacklisted.
func (l *List) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := l.redis.Get(ctx, l.key(tokenID)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return true, nil
}
