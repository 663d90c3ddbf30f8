package app

import (
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/shiikun-cn/tarot-mcp/internal/config"
	"github.com/shiikun-cn/tarot-mcp/internal/events"
	"github.com/shiikun-cn/tarot-mcp/internal/redis"
)

type Infra struct {
	Redis *redis.Client // nil when sessions are in-memory
	NATS  *nats.Conn    // nil when draw events are disabled
}

// setupInfra connects the optional external services. An unreachable
// backend is logged and left nil so the service degrades instead of
// refusing to start.
func setupInfra(cfg config.Config) *Infra {
	infra := &Infra{}

	if cfg.RedisURL != "" {
		client, err := redis.New(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unreachable, falling back to in-memory sessions")
		} else {
			infra.Redis = client
			log.Info().Msg("redis ready")
		}
	}

	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			log.Warn().Err(err).Msg("nats unreachable, draw events disabled")
		} else {
			infra.NATS = nc
			log.Info().Msg("nats ready")
		}
	}

	return infra
}
