package locking

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("locking",
	fx.Provide(
		NewLockingConfig,
		NewRunner,
	),
	fx.Invoke(func(lc fx.Lifecycle, runner *Runner) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				runner.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				runner.Stop()
				return nil
			},
		})
	}),
)
