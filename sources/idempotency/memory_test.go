package idempotency

import (
	"context"
	"testing"
	"time"
)

func newTestStore(ttl time.Duration) (*MemoryStore, *time.Time) {
	store := NewMemoryStore(ttl)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	return store, &now
}

func TestMemoryStoreFirstStartWins(t *testing.T) {
	store, _ := newTestStore(2 * time.Minute)
	ctx := context.Background()

	started, _, err := store.TryStart(ctx, "update:1")
	if err != nil || !started {
		t.Fatalf("first TryStart = (%v, %v), want started", started, err)
	}

	started, status, err := store.TryStart(ctx, "update:1")
	if err != nil {
		t.Fatalf("second TryStart: %v", err)
	}
	if started {
		t.Fatal("second TryStart must lose")
	}
	if status != StatusStarted {
		t.Fatalf("status = %s, want %s", status, StatusStarted)
	}
}

func TestMemoryStoreFinishIsObservable(t *testing.T) {
	store, _ := newTestStore(2 * time.Minute)
	ctx := context.Background()

	if _, _, err := store.TryStart(ctx, "update:1"); err != nil {
		t.Fatalf("TryStart: %v", err)
	}
	if err := store.Finish(ctx, "update:1", StatusDone); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	_, status, err := store.TryStart(ctx, "update:1")
	if err != nil {
		t.Fatalf("TryStart: %v", err)
	}
	if status != StatusDone {
		t.Fatalf("status = %s, want %s", status, StatusDone)
	}
}

func TestMemoryStoreExpiryReopensKey(t *testing.T) {
	store, now := newTestStore(2 * time.Minute)
	ctx := context.Background()

	if _, _, err := store.TryStart(ctx, "update:1"); err != nil {
		t.Fatalf("TryStart: %v", err)
	}

	*now = now.Add(121 * time.Second)

	started, _, err := store.TryStart(ctx, "update:1")
	if err != nil {
		t.Fatalf("TryStart after expiry: %v", err)
	}
	if !started {
		t.Fatal("expired key must accept a fresh start")
	}
}

func TestMemoryStoreLazyPurgeDropsOtherKeys(t *testing.T) {
	store, now := newTestStore(2 * time.Minute)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if _, _, err := store.TryStart(ctx, key); err != nil {
			t.Fatalf("TryStart %s: %v", key, err)
		}
	}

	*now = now.Add(3 * time.Minute)

	// Any access purges the whole expired set.
	if _, _, err := store.TryStart(ctx, "d"); err != nil {
		t.Fatalf("TryStart: %v", err)
	}

	store.mu.Lock()
	size := len(store.entries)
	store.mu.Unlock()
	if size != 1 {
		t.Fatalf("entries after purge = %d, want 1", size)
	}
}

func TestMemoryStoreFinishAfterExpiryIsNoop(t *testing.T) {
	store, now := newTestStore(2 * time.Minute)
	ctx := context.Background()

	if _, _, err := store.TryStart(ctx, "update:1"); err != nil {
		t.Fatalf("TryStart: %v", err)
	}

	*now = now.Add(3 * time.Minute)

	if err := store.Finish(ctx, "update:1", StatusDone); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	_, found, err := store.Get(ctx, "update:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatal("finished expired key must stay gone")
	}
}

func TestMemoryStoreGetUnknownKey(t *testing.T) {
	store, _ := newTestStore(2 * time.Minute)

	_, found, err := store.Get(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatal("unknown key must not be found")
	}
}
