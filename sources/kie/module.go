package kie

import "go.uber.org/fx"

var Module = fx.Module("kie", fx.Provide(NewKieConfig, NewClient))
