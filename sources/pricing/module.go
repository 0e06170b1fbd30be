package pricing

import (
	"modelkiosk/sources/catalog"
	"modelkiosk/sources/tracing"

	"go.uber.org/fx"
)

var Module = fx.Module("pricing",
	fx.Provide(
		NewPricingConfig,
		NewResolver,
		NewFreeTier,
	),

	fx.Invoke(func(config *PricingConfig, tier *FreeTier, log *tracing.Logger) {
		if !config.Markup.IsPositive() {
			log.F("PRICING_MARKUP must be positive", tracing.PriceMarkup, config.Markup)
		}
		if !config.UsdToRub.IsPositive() {
			log.F("USD_TO_RUB_RATE must be positive", tracing.FxRate, config.UsdToRub)
		}

		for _, id := range tier.IDs() {
			price, _ := tier.Price(id)
			log.I("Free tier model configured", tracing.ModelId, id, tracing.ChargeAmount, price)
		}
	}),
)

// NewFreeTier derives the tier at startup. A catalog without enough
// monetizable models blocks boot instead of degrading to a smaller tier.
func NewFreeTier(registry *catalog.Registry, resolver *Resolver, config *PricingConfig, log *tracing.Logger) (*FreeTier, error) {
	defer tracing.ProfilePoint(log, "Free tier computed", "pricing.freetier.compute")()

	tier, err := Compute(registry, resolver, config.FreeTierSize)
	if err != nil {
		log.E("Failed to compute free tier", tracing.InnerError, err)
		return nil, err
	}

	log.I("Free tier computed", "size", config.FreeTierSize, "models", tier.IDs())
	return tier, nil
}
