package repository

import (
	"context"

	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por lote (y ubicación o titular).
// Los métodos ForUpdate solo tienen sentido dentro de una transacción.
type StockRepository interface {
	// ListByHolder devuelve el stock personal del usuario.
	ListByHolder(ctx context.Context, userID string) ([]*entity.StockEntry, error)
	// ListByLocation devuelve el stock por ubicación; locationID vacío = todas las ubicaciones.
	ListByLocation(ctx context.Context, locationID string) ([]*entity.StockEntry, error)

	// ListHeldForUpdate bloquea (SELECT FOR UPDATE) las filas personales del lote.
	ListHeldForUpdate(ctx context.Context, userID, batchID string) ([]*entity.StockEntry, error)
	// GetAtLocationForUpdate bloquea la fila del lote en la ubicación.
	// Si no existe devuelve una entrada con cantidad cero y sin ID.
	GetAtLocationForUpdate(ctx context.Context, batchID, locationID string) (*entity.StockEntry, error)

	// Save inserta la entrada si no tiene ID, o actualiza su cantidad.
	Save(ctx context.Context, entry *entity.StockEntry) error
}
