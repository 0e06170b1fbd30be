package main

import (
	"context"
	"time"
	"modelkiosk/sources/catalog"
	"modelkiosk/sources/configuration"
	"modelkiosk/sources/external"
	"modelkiosk/sources/features"
	"modelkiosk/sources/idempotency"
	"modelkiosk/sources/kie"
	"modelkiosk/sources/locking"
	"modelkiosk/sources/maintenance"
	"modelkiosk/sources/metrics"
	"modelkiosk/sources/metrics/collector"
	"modelkiosk/sources/network"
	"modelkiosk/sources/payments"
	"modelkiosk/sources/persistence"
	"modelkiosk/sources/platform"
	"modelkiosk/sources/pricing"
	"modelkiosk/sources/repository"
	"modelkiosk/sources/telegram"
	"modelkiosk/sources/throttler"
	"modelkiosk/sources/tracing"

	"go.uber.org/fx"
)

var (
	version   = "0.0.0"
	buildTime = "1970-01-01"
)

func main() {
	platform.SetAppManifest(version, buildTime, time.Now())

	fx.New(
		tracing.Module,
		configuration.Module,
		external.Module,
		network.Module,
		persistence.Module,
		repository.Module,
		throttler.Module,
		features.Module,
		catalog.Module,
		pricing.Module,
		idempotency.Module,
		locking.Module,
		kie.Module,
		payments.Module,
		metrics.Module,
		collector.Module,
		maintenance.Module,
		telegram.Module,

		fx.Invoke(func(lc fx.Lifecycle, log *tracing.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					log.I("Model kiosk started successfully", "version", version, "build_time", buildTime)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					log.I("Model kiosk stopped", "version", version, "build_time", buildTime)
					return nil
				},
			})
		}),
	).Run()
}
