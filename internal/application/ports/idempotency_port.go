package ports

import (
	"context"
	"time"
)

// IdempotencyStore define el puerto para recordar claves Idempotency-Key ya usadas.
// Cualquier adaptador (Redis, memoria) debe implementar esta interfaz.
type IdempotencyStore interface {
	// MarkProcessed registra la clave con TTL. Devuelve false si ya estaba registrada.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release libera la clave para permitir reintentos cuando la operación falló.
	Release(ctx context.Context, key string) error
}
