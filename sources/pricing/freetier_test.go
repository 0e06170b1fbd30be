package pricing

import (
	"reflect"
	"testing"
	"modelkiosk/sources/catalog"

	"github.com/shopspring/decimal"
)

func testResolver() *Resolver {
	return NewResolver(&PricingConfig{
		Markup:       decimal.NewFromInt(2),
		UsdToRub:     decimal.NewFromInt(100),
		CreditsToUsd: decimal.RequireFromString("0.005"),
	})
}

func rubModel(id, rub string) *catalog.Model {
	return &catalog.Model{ID: id, Pricing: catalog.PriceModel{RubPerGen: decimal.RequireFromString(rub)}}
}

func TestComputeSelectsCheapestFive(t *testing.T) {
	registry := catalog.NewRegistryFromModels(map[string]*catalog.Model{
		"alpha":   rubModel("alpha", "5"),
		"bravo":   rubModel("bravo", "3"),
		"charlie": rubModel("charlie", "8"),
		"delta":   rubModel("delta", "3"),
		"echo":    rubModel("echo", "1"),
		"foxtrot": rubModel("foxtrot", "20"),
	})

	tier, err := Compute(registry, testResolver(), 5)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}

	expected := []string{"echo", "bravo", "delta", "alpha", "charlie"}
	if !reflect.DeepEqual(tier.IDs(), expected) {
		t.Errorf("Compute() = %v, expected %v", tier.IDs(), expected)
	}

	if tier.Contains("foxtrot") {
		t.Error("most expensive model must not be in the free tier")
	}
}

func TestComputeTieBreakIsLexicographic(t *testing.T) {
	registry := catalog.NewRegistryFromModels(map[string]*catalog.Model{
		"zulu":  rubModel("zulu", "2"),
		"alpha": rubModel("alpha", "2"),
		"mike":  rubModel("mike", "2"),
	})

	tier, err := Compute(registry, testResolver(), 3)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}

	expected := []string{"alpha", "mike", "zulu"}
	if !reflect.DeepEqual(tier.IDs(), expected) {
		t.Errorf("Compute() = %v, expected %v", tier.IDs(), expected)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	models := map[string]*catalog.Model{
		"alpha":   rubModel("alpha", "5"),
		"bravo":   rubModel("bravo", "3"),
		"charlie": rubModel("charlie", "8"),
		"delta":   rubModel("delta", "3"),
		"echo":    rubModel("echo", "1"),
	}

	first, err := Compute(catalog.NewRegistryFromModels(models), testResolver(), 5)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}
	second, err := Compute(catalog.NewRegistryFromModels(models), testResolver(), 5)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first.IDs(), second.IDs()) {
		t.Errorf("Compute() not deterministic: %v vs %v", first.IDs(), second.IDs())
	}
}

func TestComputePriceDropReplacesMostExpensive(t *testing.T) {
	models := map[string]*catalog.Model{
		"alpha":   rubModel("alpha", "5"),
		"bravo":   rubModel("bravo", "3"),
		"charlie": rubModel("charlie", "8"),
		"delta":   rubModel("delta", "3"),
		"echo":    rubModel("echo", "1"),
		"foxtrot": rubModel("foxtrot", "20"),
	}

	tier, err := Compute(catalog.NewRegistryFromModels(models), testResolver(), 5)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}
	if tier.Contains("foxtrot") || !tier.Contains("charlie") {
		t.Fatalf("unexpected initial tier: %v", tier.IDs())
	}

	// Dropping foxtrot below the old fifth-cheapest swaps exactly that slot.
	models["foxtrot"] = rubModel("foxtrot", "4")
	tier, err = Compute(catalog.NewRegistryFromModels(models), testResolver(), 5)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}
	if !tier.Contains("foxtrot") || tier.Contains("charlie") {
		t.Errorf("expected foxtrot to replace charlie, got %v", tier.IDs())
	}
}

func TestComputeRefusesUnderfilledTier(t *testing.T) {
	registry := catalog.NewRegistryFromModels(map[string]*catalog.Model{
		"alpha": rubModel("alpha", "5"),
		"bravo": rubModel("bravo", "3"),
		"gratis": {ID: "gratis"},
	})

	if _, err := Compute(registry, testResolver(), 5); err == nil {
		t.Error("Compute() expected error for underfilled tier, got nil")
	}
}

func TestComputeSkipsDisabledAndUnpriced(t *testing.T) {
	disabled := false
	registry := catalog.NewRegistryFromModels(map[string]*catalog.Model{
		"alpha":  rubModel("alpha", "5"),
		"bravo":  rubModel("bravo", "3"),
		"closed": {ID: "closed", Enabled: &disabled, Pricing: catalog.PriceModel{RubPerGen: decimal.NewFromInt(1)}},
		"gratis": {ID: "gratis"},
	})

	tier, err := Compute(registry, testResolver(), 2)
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}

	expected := []string{"bravo", "alpha"}
	if !reflect.DeepEqual(tier.IDs(), expected) {
		t.Errorf("Compute() = %v, expected %v", tier.IDs(), expected)
	}
}
