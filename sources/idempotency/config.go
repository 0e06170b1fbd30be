package idempotency

import (
	"time"
	"modelkiosk/sources/platform"
)

type IdempotencyConfig struct {
	Backend string
	TTL     time.Duration
}

func NewIdempotencyConfig() *IdempotencyConfig {
	return &IdempotencyConfig{
		Backend: platform.Get("IDEMPOTENCY_BACKEND", "memory"),
		TTL:     platform.GetAsDuration("IDEMPOTENCY_TTL", "120s"),
	}
}
