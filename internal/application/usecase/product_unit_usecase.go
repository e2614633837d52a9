package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-stock-api/internal/domain/repository"
)

// ProductUnitUseCase casos de uso para unidades de presentación de un producto.
type ProductUnitUseCase struct {
	repo        repository.ProductUnitRepository
	productRepo repository.ProductRepository
}

// NewProductUnitUseCase construye el caso de uso.
func NewProductUnitUseCase(repo repository.ProductUnitRepository, productRepo repository.ProductRepository) *ProductUnitUseCase {
	return &ProductUnitUseCase{repo: repo, productRepo: productRepo}
}

// ListByProduct devuelve las unidades del producto; la unidad por defecto primero.
func (uc *ProductUnitUseCase) ListByProduct(ctx context.Context, productID string) ([]dto.ProductUnitResponse, error) {
	units, err := uc.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductUnitResponse, 0, len(units))
	if len(units) == 0 {
		return out, nil
	}
	def, err := inventory.DefaultUnit(units)
	if err != nil {
		return nil, fmt.Errorf("unidades del producto %s: %w", productID, err)
	}
	out = append(out, toUnitResponse(def))
	for _, u := range units {
		if u != def {
			out = append(out, toUnitResponse(u))
		}
	}
	return out, nil
}

// GetByID obtiene una unidad por ID.
func (uc *ProductUnitUseCase) GetByID(ctx context.Context, id string) (*dto.ProductUnitResponse, error) {
	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	resp := toUnitResponse(u)
	return &resp, nil
}

// Create agrega una unidad al producto.
// La primera unidad de un producto siempre queda como defecto; si la nueva se marca
// como defecto, la anterior deja de serlo. El conjunto resultante debe tener una sola.
func (uc *ProductUnitUseCase) Create(ctx context.Context, in dto.CreateProductUnitRequest) (*dto.ProductUnitResponse, error) {
	if !in.ConversionToBase.IsPositive() {
		return nil, fmt.Errorf("el factor de conversión debe ser mayor que cero: %w", domain.ErrInvalidInput)
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	existing, err := uc.repo.ListByProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	for _, u := range existing {
		if u.Name == in.Name {
			return nil, fmt.Errorf("unidad %q: %w", in.Name, domain.ErrDuplicate)
		}
	}

	now := time.Now()
	unit := &entity.ProductUnit{
		ID:               uuid.New().String(),
		ProductID:        in.ProductID,
		Name:             in.Name,
		ConversionToBase: in.ConversionToBase,
		IsDefault:        in.IsDefault || len(existing) == 0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	after := make([]*entity.ProductUnit, 0, len(existing)+1)
	for _, u := range existing {
		c := *u
		if unit.IsDefault {
			c.IsDefault = false
		}
		after = append(after, &c)
	}
	after = append(after, unit)
	if err := inventory.ValidateUnitSet(after); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if err := uc.repo.Create(ctx, unit); err != nil {
		return nil, err
	}
	resp := toUnitResponse(unit)
	return &resp, nil
}

func toUnitResponse(u *entity.ProductUnit) dto.ProductUnitResponse {
	return dto.ProductUnitResponse{
		ID:               u.ID,
		ProductID:        u.ProductID,
		Name:             u.Name,
		ConversionToBase: u.ConversionToBase,
		IsDefault:        u.IsDefault,
	}
}
