package withdrawal

import (
	"context"
	"fmt"

	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/repository"
)

// SlipItem fila de la solicitud enriquecida con nombres legibles para el comprobante.
type SlipItem struct {
	entity.WithdrawalItem
	ProductName      string
	BaseUnitName     string
	BatchNumber      string
	UnitName         string
	FromLocationName string
	ToLocationName   string
}

// SlipGenerator puerto de salida para generar el comprobante PDF de una solicitud.
type SlipGenerator interface {
	GenerateSlip(ctx context.Context, w *entity.WithdrawalRequest, requester *entity.User, items []SlipItem) ([]byte, error)
}

// SlipUseCase genera el comprobante imprimible de una solicitud de retiro.
type SlipUseCase struct {
	withdrawals  *WithdrawalUseCase
	productRepo  repository.ProductRepository
	unitRepo     repository.ProductUnitRepository
	locationRepo repository.LocationRepository
	userRepo     repository.UserRepository
	generator    SlipGenerator
}

// NewSlipUseCase construye el caso de uso.
func NewSlipUseCase(
	withdrawals *WithdrawalUseCase,
	productRepo repository.ProductRepository,
	unitRepo repository.ProductUnitRepository,
	locationRepo repository.LocationRepository,
	userRepo repository.UserRepository,
	generator SlipGenerator,
) *SlipUseCase {
	return &SlipUseCase{
		withdrawals:  withdrawals,
		productRepo:  productRepo,
		unitRepo:     unitRepo,
		locationRepo: locationRepo,
		userRepo:     userRepo,
		generator:    generator,
	}
}

// Render devuelve los bytes del PDF y el nombre de archivo sugerido.
// Los nombres que no se encuentran se reemplazan por el ID.
func (uc *SlipUseCase) Render(ctx context.Context, userID string, role entity.Role, id string) ([]byte, string, error) {
	w, err := uc.withdrawals.load(ctx, userID, role, id)
	if err != nil {
		return nil, "", err
	}

	requester, err := uc.userRepo.GetByID(ctx, w.RequestedBy)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: obtener usuario: %w", err)
	}
	if requester == nil {
		requester = &entity.User{ID: w.RequestedBy, Name: w.RequestedBy}
	}

	locations := make(map[string]string)
	items := make([]SlipItem, 0, len(w.Items))
	for _, it := range w.Items {
		si := SlipItem{
			WithdrawalItem: it,
			ProductName:    it.ProductID,
			BatchNumber:    it.BatchID,
			UnitName:       it.UnitID,
		}
		if p, pErr := uc.productRepo.GetByID(ctx, it.ProductID); pErr == nil && p != nil {
			si.ProductName = p.Name
			si.BaseUnitName = p.BaseUnitName
		}
		if b, bErr := uc.productRepo.GetBatch(ctx, it.BatchID); bErr == nil && b != nil {
			si.BatchNumber = b.BatchNumber
		}
		if u, uErr := uc.unitRepo.GetByID(ctx, it.UnitID); uErr == nil && u != nil {
			si.UnitName = u.Name
		}
		si.FromLocationName = uc.locationName(ctx, it.FromLocationID, locations)
		si.ToLocationName = uc.locationName(ctx, it.ToLocationID, locations)
		items = append(items, si)
	}

	pdf, err := uc.generator.GenerateSlip(ctx, w, requester, items)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: generación fallida: %w", err)
	}
	return pdf, fmt.Sprintf("retiro_%s.pdf", w.ID), nil
}

func (uc *SlipUseCase) locationName(ctx context.Context, id string, cache map[string]string) string {
	if id == "" {
		return ""
	}
	if name, ok := cache[id]; ok {
		return name
	}
	name := id
	if loc, err := uc.locationRepo.GetByID(ctx, id); err == nil && loc != nil {
		name = loc.Name
	}
	cache[id] = name
	return name
}
