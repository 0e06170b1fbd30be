package payments

import (
	"modelkiosk/sources/catalog"
	"modelkiosk/sources/features"
	"modelkiosk/sources/kie"
	"modelkiosk/sources/locking"
	"modelkiosk/sources/pricing"
	"modelkiosk/sources/repository"

	"go.uber.org/fx"
)

var Module = fx.Module("payments",
	fx.Provide(
		func(
			config *pricing.PricingConfig,
			registry *catalog.Registry,
			resolver *pricing.Resolver,
			freeTier *pricing.FreeTier,
			charges *repository.ChargesRepository,
			users *repository.UsersRepository,
			client *kie.Client,
			generations *repository.GenerationsRepository,
			toggles *features.FeatureManager,
			runner *locking.Runner,
		) *Coordinator {
			return NewCoordinator(config, registry, resolver, freeTier, charges, users, client, generations, toggles, runner)
		},
	),
)
