package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"modelkiosk/sources/configuration"
	"modelkiosk/sources/platform"
	"modelkiosk/sources/tracing"
)

var (
	ErrModelNotFound = errors.New("model not found in catalog")
	ErrCatalogEmpty  = errors.New("catalog contains no enabled models")
)

// Registry is the read-only source of truth for sellable models. Loaded once
// at startup; iteration order is the sorted key order so every derived
// computation (free tier included) is deterministic.
type Registry struct {
	keys   []string
	models map[string]*Model
}

func NewRegistry(config *configuration.Config, log *tracing.Logger) (*Registry, error) {
	defer tracing.ProfilePoint(log, "Catalog loaded", "catalog.load")()

	path := config.Catalog.SourcePath
	if path == "" {
		path = "models/source_of_truth.json"
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.E("Failed to read catalog source of truth", tracing.InnerError, err, "path", path)
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var payload struct {
		Models map[string]*Model `json:"models"`
	}
	if err := json.Unmarshal(content, &payload); err != nil {
		log.E("Failed to parse catalog source of truth", tracing.InnerError, err, "path", path)
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	registry := NewRegistryFromModels(payload.Models)
	if len(registry.EnabledModels()) == 0 {
		return nil, ErrCatalogEmpty
	}

	log.I("Catalog initialized", "models_total", len(registry.keys), "models_enabled", len(registry.EnabledModels()))
	return registry, nil
}

func NewRegistryFromModels(models map[string]*Model) *Registry {
	keys := make([]string, 0, len(models))
	for id, model := range models {
		if model.ID == "" {
			model.ID = id
		}
		keys = append(keys, id)
	}
	sort.Strings(keys)

	return &Registry{keys: keys, models: models}
}

func (x *Registry) Get(id string) (*Model, error) {
	model, ok := x.models[id]
	if !ok {
		return nil, ErrModelNotFound
	}
	return model, nil
}

func (x *Registry) Has(id string) bool {
	_, ok := x.models[id]
	return ok
}

func (x *Registry) PriceModel(id string) (PriceModel, error) {
	model, err := x.Get(id)
	if err != nil {
		return PriceModel{}, err
	}
	return model.Pricing, nil
}

// EnabledModels returns enabled models in sorted key order.
func (x *Registry) EnabledModels() []*Model {
	out := make([]*Model, 0, len(x.keys))
	for _, id := range x.keys {
		model := x.models[id]
		if platform.BoolValue(model.Enabled, true) {
			out = append(out, model)
		}
	}
	return out
}

func (x *Registry) Len() int {
	return len(x.keys)
}
