package maintenance

import (
	"context"
	"time"

	"modelkiosk/sources/features"
	"modelkiosk/sources/locking"
	"modelkiosk/sources/repository"
	"modelkiosk/sources/tracing"
)

// Sweeper runs the periodic reconciliation pass: stale pending charges get
// released and old processed update ids get dropped. Only the active instance
// sweeps, so the pass never runs twice concurrently.
type Sweeper struct {
	config   *repository.RetentionConfig
	charges  *repository.ChargesRepository
	updates  *repository.UpdatesRepository
	runner   *locking.Runner
	features *features.FeatureManager
	log      *tracing.Logger
}

type SweepReport struct {
	StaleChargesReleased int64
	UpdatesDropped       int64
}

func NewSweeper(
	config *repository.RetentionConfig,
	charges *repository.ChargesRepository,
	updates *repository.UpdatesRepository,
	runner *locking.Runner,
	features *features.FeatureManager,
	log *tracing.Logger,
) *Sweeper {
	return &Sweeper{
		config:   config,
		charges:  charges,
		updates:  updates,
		runner:   runner,
		features: features,
		log:      log.With(tracing.Scope, "maintenance"),
	}
}

func (x *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(x.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !x.runner.IsActive() {
				continue
			}
			if !x.features.IsEnabledDefault(features.FeatureRetentionSweep, true) {
				continue
			}
			if _, err := x.RunOnce(x.log); err != nil {
				x.log.E("Retention sweep failed", tracing.InnerError, err)
			}
		}
	}
}

// RunOnce executes a single sweep immediately, regardless of the schedule.
// The admin command uses this for manual reconciliation.
func (x *Sweeper) RunOnce(log *tracing.Logger) (*SweepReport, error) {
	defer tracing.ProfilePoint(log, "Retention sweep completed", "maintenance.sweep")()

	report := &SweepReport{}

	released, err := x.charges.ReleaseStale(log, x.config.StaleChargeAge)
	if err != nil {
		return nil, err
	}
	report.StaleChargesReleased = released

	dropped, err := x.updates.CleanupOld(log)
	if err != nil {
		return nil, err
	}
	report.UpdatesDropped = dropped

	log.I("Retention sweep finished", "charges_released", released, "updates_dropped", dropped)
	return report, nil
}
