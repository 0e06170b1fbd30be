package pricing

import (
	"modelkiosk/sources/platform"

	"github.com/shopspring/decimal"
)

type PricingConfig struct {
	Markup         decimal.Decimal
	UsdToRub       decimal.Decimal
	CreditsToUsd   decimal.Decimal
	FreeTierSize   int
	ReferralMaxRub decimal.Decimal
	ReserveBalance bool
}

func NewPricingConfig() *PricingConfig {
	return &PricingConfig{
		Markup:         platform.GetDecimal("PRICING_MARKUP", "2.0"),
		UsdToRub:       platform.GetDecimal("USD_TO_RUB_RATE", "95.0"),
		CreditsToUsd:   platform.GetDecimal("KIE_CREDITS_TO_USD", "0.005"),
		FreeTierSize:   platform.GetAsInt("FREE_TIER_SIZE", 5),
		ReferralMaxRub: platform.GetDecimal("REFERRAL_MAX_RUB", "10.0"),
		ReserveBalance: platform.GetAsBool("CHARGE_RESERVE_BALANCE", false),
	}
}
