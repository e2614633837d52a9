package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
)

// ErrStaleLookup indica que la fila cambió mientras se resolvía la consulta; el resultado se descarta.
var ErrStaleLookup = errors.New("consulta obsoleta: la fila cambió")

// DraftState valores elegidos en una fila del formulario. Quantity en la unidad elegida.
type DraftState struct {
	ProductID  string
	BatchID    string
	LocationID string
	UnitID     string
	Quantity   decimal.Decimal
}

// DraftRow es una fila del formulario de retiro antes de enviarse.
// Cada Update incrementa la generación y cancela la consulta anterior; una respuesta
// que llega con una generación vieja nunca pisa el estado de la selección actual.
type DraftRow struct {
	lookup Lookup
	kind   string

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  DraftState
	result inventory.Availability
	ready  bool
}

// NewDraftRow crea una fila vacía para el tipo de retiro indicado.
func NewDraftRow(lookup Lookup, kind string) *DraftRow {
	return &DraftRow{lookup: lookup, kind: kind}
}

// Update aplica el nuevo estado y recalcula la disponibilidad.
// Devuelve ErrStaleLookup si otra llamada a Update (o Close) llegó antes de terminar.
func (r *DraftRow) Update(ctx context.Context, s DraftState) (inventory.Availability, error) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	a, err := r.resolve(ctx, s)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return inventory.Availability{}, ErrStaleLookup
	}
	r.cancel = nil
	if err != nil {
		return inventory.Availability{}, err
	}
	r.state = s
	r.result = a
	r.ready = true
	return a, nil
}

// Current devuelve el último estado aceptado y su disponibilidad. ok es false si aún no hay ninguno.
func (r *DraftRow) Current() (DraftState, inventory.Availability, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.result, r.ready
}

// Close cancela la consulta en curso; la fila se abandona.
func (r *DraftRow) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *DraftRow) resolve(ctx context.Context, s DraftState) (inventory.Availability, error) {
	var (
		conversion *decimal.Decimal
		entries    []*entity.StockEntry
	)
	selected := s.BatchID != ""
	if r.kind == entity.WithdrawalKindTransfer {
		selected = selected && s.LocationID != ""
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.UnitID != "" {
		g.Go(func() error {
			u, err := r.lookup.Unit(gctx, s.UnitID)
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("unidad %s: %w", s.UnitID, domain.ErrNotFound)
			}
			if u.ProductID != s.ProductID {
				return fmt.Errorf("la unidad no pertenece al producto: %w", domain.ErrInvalidInput)
			}
			c := u.ConversionToBase
			conversion = &c
			return nil
		})
	}
	if selected {
		g.Go(func() error {
			var err error
			if r.kind == entity.WithdrawalKindTransfer {
				entries, err = r.lookup.LocationStock(gctx, s.LocationID)
			} else {
				entries, err = r.lookup.PersonalStock(gctx)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return inventory.Availability{}, err
	}

	index := inventory.NewStockIndex(entries)
	var available decimal.Decimal
	if r.kind == entity.WithdrawalKindTransfer {
		available = index.AvailableAt(s.BatchID, s.LocationID)
	} else {
		available = index.AvailableForBatch(s.BatchID)
	}
	return inventory.CheckAvailability(inventory.AvailabilityInput{
		RequestedQuantity: s.Quantity,
		ConversionToBase:  conversion,
		BatchSelected:     selected,
		AvailableBase:     available,
	}), nil
}
