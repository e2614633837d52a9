package withdrawal

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-stock-api/internal/domain/repository"
)

// DefaultWorkers límite de consultas concurrentes por verificación.
const DefaultWorkers = 8

// AvailabilityUseCase valida filas borrador sin registrar nada.
// Cada fila se evalúa por separado contra el stock actual.
type AvailabilityUseCase struct {
	stockRepo repository.StockRepository
	unitRepo  repository.ProductUnitRepository
	workers   int
}

// NewAvailabilityUseCase construye el caso de uso. workers <= 0 usa DefaultWorkers.
func NewAvailabilityUseCase(stockRepo repository.StockRepository, unitRepo repository.ProductUnitRepository, workers int) *AvailabilityUseCase {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &AvailabilityUseCase{stockRepo: stockRepo, unitRepo: unitRepo, workers: workers}
}

// Check resuelve unidades y stock de todas las filas en paralelo y aplica CheckAvailability a cada una.
// Alcance personal: stock del usuario por lote. Traslado: stock por (lote, ubicación de origen).
func (uc *AvailabilityUseCase) Check(ctx context.Context, userID string, in dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	if in.Kind != entity.WithdrawalKindPersonal && in.Kind != entity.WithdrawalKindTransfer {
		return nil, fmt.Errorf("tipo de retiro %q: %w", in.Kind, domain.ErrInvalidInput)
	}

	unitIDs := distinct(in.Items, func(r dto.AvailabilityRowRequest) string { return r.UnitID })
	var sources []string
	if in.Kind == entity.WithdrawalKindTransfer {
		sources = distinct(in.Items, func(r dto.AvailabilityRowRequest) string { return r.FromLocationID })
	} else {
		sources = []string{userID}
	}

	units := make([]*entity.ProductUnit, len(unitIDs))
	stock := make([][]*entity.StockEntry, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, id := range unitIDs {
		g.Go(func() error {
			u, err := uc.unitRepo.GetByID(gctx, id)
			if err != nil {
				return fmt.Errorf("obtener unidad %s: %w", id, err)
			}
			units[i] = u
			return nil
		})
	}
	for i, src := range sources {
		g.Go(func() error {
			var (
				entries []*entity.StockEntry
				err     error
			)
			if in.Kind == entity.WithdrawalKindPersonal {
				entries, err = uc.stockRepo.ListByHolder(gctx, src)
			} else {
				entries, err = uc.stockRepo.ListByLocation(gctx, src)
			}
			if err != nil {
				return fmt.Errorf("obtener stock: %w", err)
			}
			stock[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	unitByID := make(map[string]*entity.ProductUnit, len(units))
	for _, u := range units {
		if u != nil {
			unitByID[u.ID] = u
		}
	}
	var all []*entity.StockEntry
	for _, s := range stock {
		all = append(all, s...)
	}
	index := inventory.NewStockIndex(all)

	out := &dto.AvailabilityResponse{Valid: true, Items: make([]dto.AvailabilityRowResponse, 0, len(in.Items))}
	for i, row := range in.Items {
		var conversion *decimal.Decimal
		if row.UnitID != "" {
			u := unitByID[row.UnitID]
			if u == nil {
				return nil, fmt.Errorf("fila %d: unidad %s: %w", i, row.UnitID, domain.ErrNotFound)
			}
			if u.ProductID != row.ProductID {
				return nil, fmt.Errorf("fila %d: la unidad no pertenece al producto: %w", i, domain.ErrInvalidInput)
			}
			c := u.ConversionToBase
			conversion = &c
		}

		selected := row.BatchID != ""
		var available decimal.Decimal
		if in.Kind == entity.WithdrawalKindPersonal {
			available = index.AvailableForBatch(row.BatchID)
		} else {
			selected = selected && row.FromLocationID != ""
			available = index.AvailableAt(row.BatchID, row.FromLocationID)
		}

		a := inventory.CheckAvailability(inventory.AvailabilityInput{
			RequestedQuantity: row.Quantity,
			ConversionToBase:  conversion,
			BatchSelected:     selected,
			AvailableBase:     available,
		})
		if !a.Valid {
			out.Valid = false
		}
		out.Items = append(out.Items, ToRowResponse(inventory.RowAvailability{Index: i, Availability: a}))
	}
	return out, nil
}

// distinct devuelve los valores no vacíos sin repetir, en orden de aparición.
func distinct(rows []dto.AvailabilityRowRequest, field func(dto.AvailabilityRowRequest) string) []string {
	seen := make(map[string]bool, len(rows))
	var out []string
	for _, r := range rows {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
