package idempotency

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	status    EntryStatus
	expiresAt time.Time
}

// MemoryStore is the single-instance backend. Expired entries are purged
// lazily on access, so an idle store holds stale keys until the next touch.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (x *MemoryStore) TryStart(ctx context.Context, key string) (bool, EntryStatus, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.purge()

	if entry, ok := x.entries[key]; ok {
		return false, entry.status, nil
	}

	x.entries[key] = memoryEntry{status: StatusStarted, expiresAt: x.now().Add(x.ttl)}
	return true, StatusStarted, nil
}

// Finish keeps the original expiry: the window counts from first sight of the
// key, not from completion.
func (x *MemoryStore) Finish(ctx context.Context, key string, status EntryStatus) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	entry, ok := x.entries[key]
	if !ok || x.now().After(entry.expiresAt) {
		return nil
	}

	entry.status = status
	x.entries[key] = entry
	return nil
}

func (x *MemoryStore) Get(ctx context.Context, key string) (EntryStatus, bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.purge()

	entry, ok := x.entries[key]
	if !ok {
		return "", false, nil
	}
	return entry.status, true, nil
}

func (x *MemoryStore) purge() {
	now := x.now()
	for key, entry := range x.entries {
		if now.After(entry.expiresAt) {
			delete(x.entries, key)
		}
	}
}
