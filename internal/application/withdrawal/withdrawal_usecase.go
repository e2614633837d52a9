package withdrawal

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

// WithdrawalUseCase registra y revisa solicitudes de retiro de stock.
// Envío y aprobación corren en una transacción con las filas de stock bloqueadas (SELECT FOR UPDATE),
// de modo que la validación de disponibilidad del servidor es la que manda.
type WithdrawalUseCase struct {
	txRunner       TxRunner
	withdrawalRepo repository.WithdrawalRepository
	unitRepo       repository.ProductUnitRepository
	productRepo    repository.ProductRepository
	locationRepo   repository.LocationRepository
	now            func() time.Time
}

// NewWithdrawalUseCase construye el caso de uso.
func NewWithdrawalUseCase(
	txRunner TxRunner,
	withdrawalRepo repository.WithdrawalRepository,
	unitRepo repository.ProductUnitRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
) *WithdrawalUseCase {
	return &WithdrawalUseCase{
		txRunner:       txRunner,
		withdrawalRepo: withdrawalRepo,
		unitRepo:       unitRepo,
		productRepo:    productRepo,
		locationRepo:   locationRepo,
		now:            time.Now,
	}
}

// SubmitPersonal registra un retiro desde el stock personal del usuario.
func (uc *WithdrawalUseCase) SubmitPersonal(ctx context.Context, userID string, in dto.CreateWithdrawalRequest) (*dto.WithdrawalResponse, error) {
	return uc.submit(ctx, entity.WithdrawalKindPersonal, userID, in)
}

// SubmitTransfer registra un traslado de stock entre ubicaciones.
func (uc *WithdrawalUseCase) SubmitTransfer(ctx context.Context, userID string, in dto.CreateWithdrawalRequest) (*dto.WithdrawalResponse, error) {
	return uc.submit(ctx, entity.WithdrawalKindTransfer, userID, in)
}

// submit valida las filas, bloquea el stock de origen, repite CheckAvailability por fila y
// persiste la solicitud como pendiente. Si alguna fila no alcanza no se guarda nada y se
// devuelve *inventory.AvailabilityError.
func (uc *WithdrawalUseCase) submit(ctx context.Context, kind, userID string, in dto.CreateWithdrawalRequest) (*dto.WithdrawalResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	items, err := uc.prepare(ctx, kind, in)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	w := &entity.WithdrawalRequest{
		ID:          uuid.New().String(),
		Kind:        kind,
		Status:      entity.WithdrawalStatusPending,
		RequestedBy: userID,
		Notes:       in.Notes,
		CreatedAt:   now,
	}
	for i := range items {
		items[i].ID = uuid.New().String()
		items[i].WithdrawalID = w.ID
	}
	w.Items = items

	err = uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, withdrawalRepo repository.WithdrawalRepository) error {
		ledger := newStockLedger(stockRepo, userID)
		if err := ledger.lock(ctx, kind, w.Items, false); err != nil {
			return err
		}
		failed, err := evaluate(ledger, kind, w.Items)
		if err != nil {
			return err
		}
		if len(failed) > 0 {
			return &inventory.AvailabilityError{Rows: failed}
		}
		return withdrawalRepo.Create(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return toWithdrawalResponse(w), nil
}

// prepare resuelve unidad y lote de cada fila y verifica que pertenezcan al producto.
func (uc *WithdrawalUseCase) prepare(ctx context.Context, kind string, in dto.CreateWithdrawalRequest) ([]entity.WithdrawalItem, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("la solicitud no tiene filas: %w", domain.ErrInvalidInput)
	}
	knownLocations := make(map[string]bool)
	items := make([]entity.WithdrawalItem, 0, len(in.Items))
	for i, row := range in.Items {
		if row.ProductID == "" || row.BatchID == "" || row.UnitID == "" {
			return nil, fmt.Errorf("fila %d: producto, lote y unidad son obligatorios: %w", i, domain.ErrInvalidInput)
		}
		if !row.Quantity.IsPositive() {
			return nil, fmt.Errorf("fila %d: la cantidad debe ser mayor que cero: %w", i, domain.ErrInvalidInput)
		}
		item := entity.WithdrawalItem{
			ProductID:         row.ProductID,
			BatchID:           row.BatchID,
			RequestedQuantity: row.Quantity,
		}

		if kind == entity.WithdrawalKindTransfer {
			if row.FromLocationID == "" || row.ToLocationID == "" {
				return nil, fmt.Errorf("fila %d: origen y destino son obligatorios: %w", i, domain.ErrInvalidInput)
			}
			if row.FromLocationID == row.ToLocationID {
				return nil, fmt.Errorf("fila %d: origen y destino deben ser distintos: %w", i, domain.ErrInvalidInput)
			}
			for _, id := range []string{row.FromLocationID, row.ToLocationID} {
				if err := uc.ensureLocation(ctx, id, knownLocations); err != nil {
					return nil, fmt.Errorf("fila %d: %w", i, err)
				}
			}
			item.FromLocationID = row.FromLocationID
			item.ToLocationID = row.ToLocationID
		}

		unit, err := uc.unitRepo.GetByID(ctx, row.UnitID)
		if err != nil {
			return nil, fmt.Errorf("fila %d: obtener unidad: %w", i, err)
		}
		if unit == nil {
			return nil, fmt.Errorf("fila %d: unidad %s: %w", i, row.UnitID, domain.ErrNotFound)
		}
		if unit.ProductID != row.ProductID {
			return nil, fmt.Errorf("fila %d: la unidad no pertenece al producto: %w", i, domain.ErrInvalidInput)
		}
		batch, err := uc.productRepo.GetBatch(ctx, row.BatchID)
		if err != nil {
			return nil, fmt.Errorf("fila %d: obtener lote: %w", i, err)
		}
		if batch == nil {
			return nil, fmt.Errorf("fila %d: lote %s: %w", i, row.BatchID, domain.ErrNotFound)
		}
		if batch.ProductID != row.ProductID {
			return nil, fmt.Errorf("fila %d: el lote no pertenece al producto: %w", i, domain.ErrInvalidInput)
		}

		item.UnitID = unit.ID
		item.ConversionToBase = unit.ConversionToBase
		item.QuantityBase = inventory.ToBase(row.Quantity, unit.ConversionToBase)
		items = append(items, item)
	}
	return items, nil
}

func (uc *WithdrawalUseCase) ensureLocation(ctx context.Context, id string, known map[string]bool) error {
	if known[id] {
		return nil
	}
	loc, err := uc.locationRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("obtener ubicación: %w", err)
	}
	if loc == nil {
		return fmt.Errorf("ubicación %s: %w", id, domain.ErrNotFound)
	}
	known[id] = true
	return nil
}

// GetByID devuelve la solicitud. Solo la ve quien la pidió o quien puede revisarla.
func (uc *WithdrawalUseCase) GetByID(ctx context.Context, userID string, role entity.Role, id string) (*dto.WithdrawalResponse, error) {
	w, err := uc.load(ctx, userID, role, id)
	if err != nil {
		return nil, err
	}
	return toWithdrawalResponse(w), nil
}

func (uc *WithdrawalUseCase) load(ctx context.Context, userID string, role entity.Role, id string) (*entity.WithdrawalRequest, error) {
	w, err := uc.withdrawalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.ErrNotFound
	}
	if w.RequestedBy != userID && !entity.Can(role, entity.CapReviewWithdrawal) {
		return nil, domain.ErrForbidden
	}
	return w, nil
}

// Approve aprueba una solicitud pendiente: vuelve a validar cada fila contra el stock actual
// bloqueado, descuenta del origen y, en traslados, suma en la ubicación destino.
func (uc *WithdrawalUseCase) Approve(ctx context.Context, reviewerID, id string) (*dto.WithdrawalResponse, error) {
	var approved *entity.WithdrawalRequest
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, withdrawalRepo repository.WithdrawalRepository) error {
		w, err := lockPending(ctx, withdrawalRepo, id)
		if err != nil {
			return err
		}
		ledger := newStockLedger(stockRepo, w.RequestedBy)
		if err := ledger.lock(ctx, w.Kind, w.Items, true); err != nil {
			return err
		}
		failed, err := evaluate(ledger, w.Kind, w.Items)
		if err != nil {
			return err
		}
		if len(failed) > 0 {
			return &inventory.AvailabilityError{Rows: failed}
		}
		if w.Kind == entity.WithdrawalKindTransfer {
			for i := range w.Items {
				ledger.deposit(&w.Items[i])
			}
		}

		now := uc.now()
		if err := ledger.flush(ctx, now); err != nil {
			return err
		}
		w.Status = entity.WithdrawalStatusApproved
		w.ReviewedBy = reviewerID
		w.ReviewedAt = &now
		if err := withdrawalRepo.UpdateReview(ctx, w); err != nil {
			return err
		}
		approved = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toWithdrawalResponse(approved), nil
}

// Reject marca una solicitud pendiente como rechazada; el stock no cambia.
func (uc *WithdrawalUseCase) Reject(ctx context.Context, reviewerID, id string) (*dto.WithdrawalResponse, error) {
	var rejected *entity.WithdrawalRequest
	err := uc.txRunner.Run(ctx, func(_ repository.StockRepository, withdrawalRepo repository.WithdrawalRepository) error {
		w, err := lockPending(ctx, withdrawalRepo, id)
		if err != nil {
			return err
		}
		now := uc.now()
		w.Status = entity.WithdrawalStatusRejected
		w.ReviewedBy = reviewerID
		w.ReviewedAt = &now
		if err := withdrawalRepo.UpdateReview(ctx, w); err != nil {
			return err
		}
		rejected = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toWithdrawalResponse(rejected), nil
}

func lockPending(ctx context.Context, repo repository.WithdrawalRepository, id string) (*entity.WithdrawalRequest, error) {
	w, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.ErrNotFound
	}
	if !w.IsPending() {
		return nil, fmt.Errorf("la solicitud está en estado %s: %w", w.Status, domain.ErrConflict)
	}
	return w, nil
}
