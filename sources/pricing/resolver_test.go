package pricing

import (
	"testing"
	"modelkiosk/sources/catalog"

	"github.com/shopspring/decimal"
)

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestEffective(t *testing.T) {
	fx := d("100")
	markup := d("2")
	creditsToUsd := d("0.005")

	tests := []struct {
		name     string
		pricing  catalog.PriceModel
		expected string
		basis    Basis
	}{
		{
			name:     "Local currency wins outright",
			pricing:  catalog.PriceModel{RubPerGen: d("15"), UsdPerGen: d("1")},
			expected: "15",
			basis:    BasisLocal,
		},
		{
			name:     "Per-use alias counts as local",
			pricing:  catalog.PriceModel{RubPerUse: d("7.50")},
			expected: "7.50",
			basis:    BasisLocal,
		},
		{
			name:     "Foreign currency converted with markup",
			pricing:  catalog.PriceModel{UsdPerGen: d("0.25")},
			expected: "50",
			basis:    BasisForeign,
		},
		{
			name:     "Foreign takes priority over credits",
			pricing:  catalog.PriceModel{UsdPerUse: d("0.10"), CreditsPerGen: d("100")},
			expected: "20",
			basis:    BasisForeign,
		},
		{
			name:     "Credits converted through credit rate",
			pricing:  catalog.PriceModel{CreditsPerGen: d("40")},
			expected: "40",
			basis:    BasisCredit,
		},
		{
			name:     "No configured basis is not monetizable",
			pricing:  catalog.PriceModel{},
			expected: "0",
			basis:    BasisNone,
		},
		{
			name:     "Zero rates fall through to next basis",
			pricing:  catalog.PriceModel{RubPerGen: d("0"), UsdPerGen: d("0"), CreditsPerUse: d("2")},
			expected: "2",
			basis:    BasisCredit,
		},
		{
			name:     "Full precision is retained",
			pricing:  catalog.PriceModel{UsdPerGen: d("0.333")},
			expected: "66.6",
			basis:    BasisForeign,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, basis := Effective(tt.pricing, fx, markup, creditsToUsd)
			if !price.Equal(d(tt.expected)) {
				t.Errorf("Effective() price = %s, expected %s", price, tt.expected)
			}
			if basis != tt.basis {
				t.Errorf("Effective() basis = %s, expected %s", basis, tt.basis)
			}
		})
	}
}

func TestEffectiveIsDeterministic(t *testing.T) {
	pricing := catalog.PriceModel{CreditsPerGen: d("17")}
	first, _ := Effective(pricing, d("92.5"), d("2"), d("0.005"))
	second, _ := Effective(pricing, d("92.5"), d("2"), d("0.005"))
	if !first.Equal(second) {
		t.Errorf("Effective() not deterministic: %s vs %s", first, second)
	}
}
