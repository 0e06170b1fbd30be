package catalog

import (
	"github.com/shopspring/decimal"
)

// PriceModel carries the three mutually exclusive pricing bases a model can be
// sold on. Per-gen and per-use keys are aliases kept for source compatibility.
type PriceModel struct {
	RubPerGen     decimal.Decimal `json:"rub_per_gen"`
	RubPerUse     decimal.Decimal `json:"rub_per_use"`
	UsdPerGen     decimal.Decimal `json:"usd_per_gen"`
	UsdPerUse     decimal.Decimal `json:"usd_per_use"`
	CreditsPerGen decimal.Decimal `json:"credits_per_gen"`
	CreditsPerUse decimal.Decimal `json:"credits_per_use"`
}

func (p PriceModel) Rub() decimal.Decimal {
	if p.RubPerGen.IsPositive() {
		return p.RubPerGen
	}
	return p.RubPerUse
}

func (p PriceModel) Usd() decimal.Decimal {
	if p.UsdPerGen.IsPositive() {
		return p.UsdPerGen
	}
	return p.UsdPerUse
}

func (p PriceModel) Credits() decimal.Decimal {
	if p.CreditsPerGen.IsPositive() {
		return p.CreditsPerGen
	}
	return p.CreditsPerUse
}

type Model struct {
	ID      string     `json:"model_id"`
	Name    string     `json:"name"`
	Enabled *bool      `json:"enabled"`
	Pricing PriceModel `json:"pricing"`
}
