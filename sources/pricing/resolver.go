package pricing

import (
	"modelkiosk/sources/catalog"

	"github.com/shopspring/decimal"
)

type Basis = string

const (
	BasisLocal   Basis = "rub"
	BasisForeign Basis = "usd"
	BasisCredit  Basis = "credits"
	BasisNone    Basis = "none"
)

// Effective computes the price charged to the user for one generation.
// Bases are tried in fixed priority order: explicit local currency first,
// then foreign currency through FX and markup, then abstract credits through
// the credit rate. A model matching no basis is not monetizable.
func Effective(p catalog.PriceModel, fx, markup, creditsToUsd decimal.Decimal) (decimal.Decimal, Basis) {
	if rub := p.Rub(); rub.IsPositive() {
		return rub, BasisLocal
	}

	if usd := p.Usd(); usd.IsPositive() {
		return usd.Mul(fx).Mul(markup), BasisForeign
	}

	if credits := p.Credits(); credits.IsPositive() {
		return credits.Mul(creditsToUsd).Mul(fx).Mul(markup), BasisCredit
	}

	return decimal.Zero, BasisNone
}

type Resolver struct {
	config *PricingConfig
}

func NewResolver(config *PricingConfig) *Resolver {
	return &Resolver{config: config}
}

func (x *Resolver) Effective(p catalog.PriceModel) (decimal.Decimal, Basis) {
	return Effective(p, x.config.UsdToRub, x.config.Markup, x.config.CreditsToUsd)
}

// EffectiveFor resolves a model id against the registry.
func (x *Resolver) EffectiveFor(registry *catalog.Registry, modelID string) (decimal.Decimal, Basis, error) {
	p, err := registry.PriceModel(modelID)
	if err != nil {
		return decimal.Zero, BasisNone, err
	}
	price, basis := x.Effective(p)
	return price, basis, nil
}
