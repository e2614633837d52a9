package usecase

import (
	"context"

	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/repository"
)

// StockUseCase consultas de stock personal y por ubicación.
type StockUseCase struct {
	repo repository.StockRepository
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(repo repository.StockRepository) *StockUseCase {
	return &StockUseCase{repo: repo}
}

// ListPersonal devuelve el stock a cargo del usuario.
func (uc *StockUseCase) ListPersonal(ctx context.Context, userID string) ([]dto.StockEntryResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	entries, err := uc.repo.ListByHolder(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toStockResponses(entries), nil
}

// ListByLocation devuelve el stock por ubicación; locationID vacío lista todas.
func (uc *StockUseCase) ListByLocation(ctx context.Context, locationID string) ([]dto.StockEntryResponse, error) {
	entries, err := uc.repo.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return toStockResponses(entries), nil
}

func toStockResponses(entries []*entity.StockEntry) []dto.StockEntryResponse {
	out := make([]dto.StockEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.StockEntryResponse{
			ID:           e.ID,
			ProductID:    e.ProductID,
			BatchID:      e.BatchID,
			BatchNumber:  e.BatchNumber,
			ExpiryDate:   e.ExpiryDate,
			LocationID:   e.LocationID,
			LocationName: e.LocationName,
			Quantity:     e.QuantityBase,
			UpdatedAt:    e.UpdatedAt,
		})
	}
	return out
}
