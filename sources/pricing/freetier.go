package pricing

import (
	"fmt"
	"sort"
	"modelkiosk/sources/catalog"

	"github.com/shopspring/decimal"
)

// FreeTier is the derived set of the N cheapest monetizable models. It is a
// pure function of catalog and rate data and is never hand-overridden.
type FreeTier struct {
	ids    []string
	prices map[string]decimal.Decimal
}

// Compute selects the size cheapest enabled models with a positive effective
// price, ascending by price, ties broken by model id. Fewer than size
// monetizable models is a configuration error: the tier must never silently
// shrink.
func Compute(registry *catalog.Registry, resolver *Resolver, size int) (*FreeTier, error) {
	type priced struct {
		id    string
		price decimal.Decimal
	}

	candidates := make([]priced, 0, registry.Len())
	for _, model := range registry.EnabledModels() {
		price, basis := resolver.Effective(model.Pricing)
		if basis == BasisNone || !price.IsPositive() {
			continue
		}
		candidates = append(candidates, priced{id: model.ID, price: price})
	}

	if len(candidates) < size {
		return nil, fmt.Errorf("free tier requires %d monetizable models, catalog has %d", size, len(candidates))
	}

	// EnabledModels iterates in sorted key order, so a stable sort keeps the
	// lexicographic tie-break.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].price.LessThan(candidates[j].price)
	})

	tier := &FreeTier{
		ids:    make([]string, 0, size),
		prices: make(map[string]decimal.Decimal, size),
	}
	for _, c := range candidates[:size] {
		tier.ids = append(tier.ids, c.id)
		tier.prices[c.id] = c.price
	}

	return tier, nil
}

func (x *FreeTier) Contains(modelID string) bool {
	_, ok := x.prices[modelID]
	return ok
}

func (x *FreeTier) IDs() []string {
	out := make([]string, len(x.ids))
	copy(out, x.ids)
	return out
}

func (x *FreeTier) Price(modelID string) (decimal.Decimal, bool) {
	price, ok := x.prices[modelID]
	return price, ok
}
