package repository

import (
	"context"

	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

// ProductRepository define el puerto de lectura de productos y lotes.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBatch(ctx context.Context, batchID string) (*entity.Batch, error)
}

// ProductUnitRepository define el puerto de persistencia para unidades de producto.
type ProductUnitRepository interface {
	// Create persiste la unidad; si IsDefault desmarca la anterior y, si el producto no tiene
	// unidad por defecto, marca la nueva como defecto.
	Create(ctx context.Context, unit *entity.ProductUnit) error
	GetByID(ctx context.Context, id string) (*entity.ProductUnit, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.ProductUnit, error)
}
