package idempotency

import (
	"context"
	"errors"
)

var (
	ErrUnknownBackend = errors.New("unknown idempotency backend")
)

type EntryStatus = string

const (
	StatusStarted EntryStatus = "started"
	StatusDone    EntryStatus = "done"
	StatusFailed  EntryStatus = "failed"
)

// Store deduplicates request handling across retries. TryStart wins at most
// once per key within the TTL window; everyone else observes the recorded
// status instead of re-running the work.
type Store interface {
	TryStart(ctx context.Context, key string) (bool, EntryStatus, error)
	Finish(ctx context.Context, key string, status EntryStatus) error
	Get(ctx context.Context, key string) (EntryStatus, bool, error)
}
