package locking

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"modelkiosk/sources/repository"
	"modelkiosk/sources/tracing"

	"github.com/google/uuid"
)

// LeaseStore is the slice of the lease repository the runner drives.
type LeaseStore interface {
	TryAcquire(log *tracing.Logger, name, holderID string, ttl time.Duration) (bool, error)
	Heartbeat(log *tracing.Logger, name, holderID string, ttl time.Duration) (bool, error)
	Release(log *tracing.Logger, name, holderID string) error
}

// Runner maintains the singleton instance lease. Exactly one instance per
// deployment may serve traffic; the rest sit in standby and retry until the
// holder dies or steps down. IsActive is the gate every state-changing
// operation checks.
type Runner struct {
	config   *LockingConfig
	leases   LeaseStore
	log      *tracing.Logger
	holderID string

	active atomic.Bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(config *LockingConfig, leases *repository.LeaseRepository, log *tracing.Logger) *Runner {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	return &Runner{
		config:   config,
		leases:   leases,
		log:      log.With(tracing.Scope, "locking"),
		holderID: fmt.Sprintf("%s-%s", hostname, strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
	}
}

func (x *Runner) IsActive() bool {
	return x.active.Load()
}

func (x *Runner) HolderID() string {
	return x.holderID
}

// Start attempts a bounded series of acquisitions, then either becomes active
// or parks in a standby loop. It never fails the boot: a standby instance is
// a valid deployment state.
func (x *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	x.cancel = cancel

	log := x.log.With(tracing.LeaseHolder, x.holderID)

	x.wg.Add(1)
	go x.acquire(ctx, log)
}

func (x *Runner) acquire(ctx context.Context, log *tracing.Logger) {
	defer x.wg.Done()

	for attempt := 1; attempt <= x.config.AcquireRetries; attempt++ {
		acquired, err := x.leases.TryAcquire(log, x.config.LeaseName, x.holderID, x.config.LeaseTTL)
		if err == nil && acquired {
			x.becomeActive(ctx, log)
			return
		}

		log.I("Lease is held elsewhere, retrying", tracing.LeaseSeq, attempt)
		select {
		case <-ctx.Done():
			return
		case <-time.After(x.config.AcquireInterval):
		}
	}

	log.W("Entering standby, another instance holds the lease")
	x.wg.Add(1)
	go x.standby(ctx, log)
}

func (x *Runner) becomeActive(ctx context.Context, log *tracing.Logger) {
	x.active.Store(true)
	log.I("Instance is now active")

	x.wg.Add(1)
	go x.heartbeat(ctx, log)
}

func (x *Runner) standby(ctx context.Context, log *tracing.Logger) {
	defer x.wg.Done()

	ticker := time.NewTicker(x.config.StandbyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			acquired, err := x.leases.TryAcquire(log, x.config.LeaseName, x.holderID, x.config.LeaseTTL)
			if err != nil {
				log.W("Standby acquisition attempt failed", tracing.InnerError, err)
				continue
			}
			if acquired {
				x.becomeActive(ctx, log)
				return
			}
		}
	}
}

// heartbeat extends the lease until shutdown. A lost extension means the
// lease is gone; the instance drops to standby so two actives can never
// overlap. Transient errors are tolerated only while the lease is still
// provably ours: once consecutive failures span the TTL, another instance
// may already hold it, so the runner steps down.
func (x *Runner) heartbeat(ctx context.Context, log *tracing.Logger) {
	defer x.wg.Done()

	ticker := time.NewTicker(x.config.Heartbeat)
	defer ticker.Stop()

	maxMisses := int(x.config.LeaseTTL / x.config.Heartbeat)
	if maxMisses < 1 {
		maxMisses = 1
	}

	misses := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			held, err := x.leases.Heartbeat(log, x.config.LeaseName, x.holderID, x.config.LeaseTTL)
			if err != nil {
				misses++
				if misses < maxMisses {
					log.W("Heartbeat failed, keeping lease until the TTL window closes", tracing.InnerError, err, tracing.LeaseSeq, misses)
					continue
				}
				log.E("Heartbeat failures spanned the lease TTL, dropping to standby", tracing.InnerError, err)
				x.active.Store(false)
				x.wg.Add(1)
				go x.standby(ctx, log)
				return
			}
			misses = 0
			if !held {
				log.E("Lease lost, dropping to standby")
				x.active.Store(false)
				x.wg.Add(1)
				go x.standby(ctx, log)
				return
			}
		}
	}
}

// Stop cancels the heartbeat before releasing so the release cannot race a
// concurrent extension, then frees the lease for the next instance.
func (x *Runner) Stop() {
	if x.cancel != nil {
		x.cancel()
	}
	x.wg.Wait()

	if x.active.Swap(false) {
		log := x.log.With(tracing.LeaseHolder, x.holderID)
		if err := x.leases.Release(log, x.config.LeaseName, x.holderID); err != nil {
			log.E("Failed to release lease on shutdown", tracing.InnerError, err)
		}
	}
}
