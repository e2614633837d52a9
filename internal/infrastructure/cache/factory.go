package cache

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/clinica-stock-api/internal/application/ports"
)

// Store es un IdempotencyStore que además se puede cerrar.
type Store interface {
	ports.IdempotencyStore
	io.Closer
}

// NewIdempotencyStore devuelve el store de Redis si cfg.Addr está definido y responde.
// Sin Addr, o si Redis no responde y allowFallback es true, usa memoria.
func NewIdempotencyStore(ctx context.Context, cfg RedisConfig, allowFallback bool, log zerolog.Logger) (Store, error) {
	if cfg.Addr == "" {
		log.Info().Msg("idempotencia en memoria (REDIS_ADDR vacío)")
		return NewMemoryIdempotencyStore(5 * time.Minute), nil
	}
	store, err := NewRedisIdempotencyStore(ctx, cfg)
	if err == nil {
		log.Info().Str("addr", cfg.Addr).Msg("idempotencia en Redis")
		return store, nil
	}
	if !allowFallback {
		return nil, err
	}
	log.Warn().Err(err).Msg("Redis no disponible, idempotencia en memoria")
	return NewMemoryIdempotencyStore(5 * time.Minute), nil
}
