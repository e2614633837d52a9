package repository

import (
	"context"

	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

// WithdrawalRepository define el puerto de persistencia para solicitudes de retiro y sus filas.
type WithdrawalRepository interface {
	// Create persiste la cabecera y todas las filas.
	Create(ctx context.Context, w *entity.WithdrawalRequest) error
	// GetByID devuelve la solicitud con filas, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.WithdrawalRequest, error)
	// GetForUpdate igual que GetByID pero bloquea la cabecera.
	GetForUpdate(ctx context.Context, id string) (*entity.WithdrawalRequest, error)
	// UpdateReview guarda Status, ReviewedBy y ReviewedAt.
	UpdateReview(ctx context.Context, w *entity.WithdrawalRequest) error
}
