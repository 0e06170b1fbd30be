package locking

import (
	"errors"
	"sync"
	"testing"
	"time"

	"modelkiosk/sources/tracing"
)

type fakeLeaseStore struct {
	mu        sync.Mutex
	acquireOK bool
	hbHeld    bool
	hbErr     error
	hbCalls   int
	released  int
}

func (f *fakeLeaseStore) TryAcquire(log *tracing.Logger, name, holderID string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquireOK, nil
}

func (f *fakeLeaseStore) Heartbeat(log *tracing.Logger, name, holderID string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hbCalls++
	if f.hbErr != nil {
		return false, f.hbErr
	}
	return f.hbHeld, nil
}

func (f *fakeLeaseStore) Release(log *tracing.Logger, name, holderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return nil
}

func (f *fakeLeaseStore) set(fn func(*fakeLeaseStore)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeLeaseStore) heartbeats() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hbCalls
}

func newTestRunner(config *LockingConfig, store LeaseStore) *Runner {
	return &Runner{
		config:   config,
		leases:   store,
		log:      tracing.NewConsoleLogger().With(tracing.Scope, "locking"),
		holderID: "test-holder",
	}
}

func fastConfig() *LockingConfig {
	return &LockingConfig{
		LeaseName:       "test-active",
		LeaseTTL:        30 * time.Millisecond,
		Heartbeat:       10 * time.Millisecond,
		AcquireRetries:  2,
		AcquireInterval: 5 * time.Millisecond,
		StandbyInterval: time.Hour,
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestRunnerBecomesActiveAndReleasesOnStop(t *testing.T) {
	store := &fakeLeaseStore{acquireOK: true, hbHeld: true}
	runner := newTestRunner(fastConfig(), store)

	runner.Start()
	waitFor(t, runner.IsActive, "runner never became active")

	runner.Stop()
	if runner.IsActive() {
		t.Fatal("runner must be inactive after Stop")
	}
	if store.released != 1 {
		t.Fatalf("released = %d, want 1", store.released)
	}
}

func TestRunnerParksInStandbyWhenLeaseHeldElsewhere(t *testing.T) {
	store := &fakeLeaseStore{acquireOK: false}
	runner := newTestRunner(fastConfig(), store)

	runner.Start()
	time.Sleep(60 * time.Millisecond)
	if runner.IsActive() {
		t.Fatal("runner must stay in standby while the lease is held elsewhere")
	}
	runner.Stop()
}

func TestRunnerDropsToStandbyWhenLeaseLost(t *testing.T) {
	store := &fakeLeaseStore{acquireOK: true, hbHeld: true}
	runner := newTestRunner(fastConfig(), store)

	runner.Start()
	waitFor(t, runner.IsActive, "runner never became active")

	store.set(func(f *fakeLeaseStore) {
		f.acquireOK = false
		f.hbHeld = false
	})
	waitFor(t, func() bool { return !runner.IsActive() }, "runner kept the lease after losing it")
	runner.Stop()
}

func TestRunnerDropsToStandbyAfterHeartbeatErrorsSpanTTL(t *testing.T) {
	store := &fakeLeaseStore{acquireOK: true, hbHeld: true}
	runner := newTestRunner(fastConfig(), store)

	runner.Start()
	waitFor(t, runner.IsActive, "runner never became active")

	store.set(func(f *fakeLeaseStore) {
		f.acquireOK = false
		f.hbErr = errors.New("database is down")
	})
	waitFor(t, func() bool { return !runner.IsActive() }, "runner stayed active past the lease TTL with a failing heartbeat")
	runner.Stop()
}

func TestRunnerToleratesTransientHeartbeatError(t *testing.T) {
	config := fastConfig()
	config.LeaseTTL = 500 * time.Millisecond

	store := &fakeLeaseStore{acquireOK: true, hbHeld: true}
	runner := newTestRunner(config, store)

	runner.Start()
	waitFor(t, runner.IsActive, "runner never became active")

	before := store.heartbeats()
	store.set(func(f *fakeLeaseStore) { f.hbErr = errors.New("connection reset") })
	waitFor(t, func() bool { return store.heartbeats() > before }, "heartbeat never fired")
	store.set(func(f *fakeLeaseStore) { f.hbErr = nil })

	time.Sleep(3 * config.Heartbeat)
	if !runner.IsActive() {
		t.Fatal("a transient heartbeat error inside the TTL window must not drop the lease")
	}
	runner.Stop()
}
