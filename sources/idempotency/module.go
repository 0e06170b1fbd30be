package idempotency

import (
	"modelkiosk/sources/tracing"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("idempotency",
	fx.Provide(
		NewIdempotencyConfig,
		func(config *IdempotencyConfig, client *redis.Client, log *tracing.Logger) (Store, error) {
			switch config.Backend {
			case "memory":
				log.I("Idempotency store initialized", "backend", config.Backend, "ttl", config.TTL.String())
				return NewMemoryStore(config.TTL), nil
			case "redis":
				log.I("Idempotency store initialized", "backend", config.Backend, "ttl", config.TTL.String())
				return NewRedisStore(client, config.TTL), nil
			default:
				return nil, ErrUnknownBackend
			}
		},
	),
)
