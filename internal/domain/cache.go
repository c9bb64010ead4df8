package domain

import (
	"context"
	"io"
	"time"
)

// FixtureCache caches the participant-independent fixture snapshot between
// ledger mutations.
type FixtureCache interface {
	Set(ctx context.Context, snap FixtureSnapshot) error
	Get(ctx context.Context, id FixtureID) (FixtureSnapshot, error)
	Invalidate(ctx context.Context, id FixtureID) error
}

// LockManager provides distributed locking, used for reconciler leader
// election when several instances share one fixture set.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// RateLimiter limits request rates per key using a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// StreamMessage represents a single entry from an event stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus publishes domain events for cross-process consumers. Publish is
// ephemeral pub/sub for live subscribers; StreamAppend additionally journals
// the payload to a capped stream, which StreamRead serves to late readers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}

// BlobInfo describes one stored object.
type BlobInfo struct {
	Path         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// BlobWriter uploads payloads to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// BlobReader retrieves stored payloads, used to serve archived settlement
// reports back out of object storage.
type BlobReader interface {
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}
