// Package cache stores assembled history pages for a bounded time. Pages
// past the first one are immutable once indexed, so entries are never
// invalidated; they simply expire.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/tbourn/room-history/internal/domain"
)

// ErrCacheMiss is returned by Get when no live entry exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// PageCache is a get/set store for history pages with per-entry TTL.
type PageCache interface {
	Get(ctx context.Context, key string) (*domain.HistoryPage, error)
	Set(ctx context.Context, key string, page *domain.HistoryPage, ttl time.Duration) error
	Close() error
}

// Key builds the opaque cache key for a normalized page request. Callers
// must pass already-normalized values so equivalent requests share a key.
func Key(prefix string, roomID int64, perPage int, c domain.Cursor) string {
	raw := fmt.Sprintf("room_%d_page_%d_time_%d_id_%d", roomID, perPage, c.CreateTime, c.SequenceID)
	sum := md5.Sum([]byte(raw))
	return prefix + hex.EncodeToString(sum[:])
}
