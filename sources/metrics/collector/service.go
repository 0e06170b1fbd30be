package collector

import (
	"context"
	"time"
	"modelkiosk/sources/metrics"
	"modelkiosk/sources/repository"
	"modelkiosk/sources/tracing"

	"go.uber.org/fx"
)

type StatsCollector struct {
	log         *tracing.Logger
	metrics     *metrics.MetricsService
	users       *repository.UsersRepository
	generations *repository.GenerationsRepository
	charges     *repository.ChargesRepository
}

func NewStatsCollector(
	lc fx.Lifecycle,
	log *tracing.Logger,
	metrics *metrics.MetricsService,
	users *repository.UsersRepository,
	generations *repository.GenerationsRepository,
	charges *repository.ChargesRepository,
) *StatsCollector {
	s := &StatsCollector{
		log:         log,
		metrics:     metrics,
		users:       users,
		generations: generations,
		charges:     charges,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.start()
			return nil
		},
	})

	return s
}

func (s *StatsCollector) start() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	s.collectStats()

	for range ticker.C {
		s.collectStats()
	}
}

func (s *StatsCollector) collectStats() {
	if count, err := s.users.GetTotalUsersCount(s.log); err == nil {
		s.metrics.SetTotalUsers(float64(count))
	} else {
		s.log.E("Failed to collect total users stats", tracing.InnerError, err)
	}

	if count, err := s.generations.GetTotalGenerationsCount(s.log); err == nil {
		s.metrics.SetTotalGenerations(float64(count))
	} else {
		s.log.E("Failed to collect total generations stats", tracing.InnerError, err)
	}

	if revenue, err := s.generations.GetTotalRevenue(s.log); err == nil {
		s.metrics.SetTotalRevenue(revenue.InexactFloat64())
	} else {
		s.log.E("Failed to collect total revenue stats", tracing.InnerError, err)
	}

	if count, err := s.charges.CountPending(s.log); err == nil {
		s.metrics.SetPendingCharges(float64(count))
	} else {
		s.log.E("Failed to collect pending charges stats", tracing.InnerError, err)
	}
}
