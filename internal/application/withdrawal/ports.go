package withdrawal

import (
	"context"

	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		withdrawalRepo repository.WithdrawalRepository,
	) error) error
}

// Lookup resuelve, para una fila borrador, la unidad elegida y el stock del origen.
// Lo implementa pkg/client contra la API HTTP; en tests, un fake en memoria.
type Lookup interface {
	Unit(ctx context.Context, unitID string) (*entity.ProductUnit, error)
	PersonalStock(ctx context.Context) ([]*entity.StockEntry, error)
	LocationStock(ctx context.Context, locationID string) ([]*entity.StockEntry, error)
}
