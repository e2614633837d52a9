package withdrawal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-stock-api/internal/domain/repository"
)

type stockKey struct {
	batchID    string
	locationID string
}

// stockLedger guarda las filas de stock bloqueadas dentro de una transacción.
// Las cantidades se modifican en memoria; flush persiste solo las filas tocadas.
type stockLedger struct {
	repo   repository.StockRepository
	holder string
	held   map[string][]*entity.StockEntry
	at     map[stockKey]*entity.StockEntry
	dirty  []*entity.StockEntry
	seen   map[*entity.StockEntry]bool
}

func newStockLedger(repo repository.StockRepository, holderUserID string) *stockLedger {
	return &stockLedger{
		repo:   repo,
		holder: holderUserID,
		held:   make(map[string][]*entity.StockEntry),
		at:     make(map[stockKey]*entity.StockEntry),
		seen:   make(map[*entity.StockEntry]bool),
	}
}

// lock bloquea (SELECT FOR UPDATE) las filas que tocan los ítems, ordenadas por lote y ubicación
// para que dos transacciones concurrentes no se interbloqueen.
func (l *stockLedger) lock(ctx context.Context, kind string, items []entity.WithdrawalItem, withDestination bool) error {
	switch kind {
	case entity.WithdrawalKindPersonal:
		batches := make([]string, 0, len(items))
		for _, it := range items {
			if _, ok := l.held[it.BatchID]; ok {
				continue
			}
			l.held[it.BatchID] = nil
			batches = append(batches, it.BatchID)
		}
		sort.Strings(batches)
		for _, b := range batches {
			entries, err := l.repo.ListHeldForUpdate(ctx, l.holder, b)
			if err != nil {
				return fmt.Errorf("bloquear stock personal lote %s: %w", b, err)
			}
			l.held[b] = entries
		}
	case entity.WithdrawalKindTransfer:
		set := make(map[stockKey]bool)
		for _, it := range items {
			set[stockKey{batchID: it.BatchID, locationID: it.FromLocationID}] = true
			if withDestination {
				set[stockKey{batchID: it.BatchID, locationID: it.ToLocationID}] = true
			}
		}
		keys := make([]stockKey, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].batchID != keys[j].batchID {
				return keys[i].batchID < keys[j].batchID
			}
			return keys[i].locationID < keys[j].locationID
		})
		for _, k := range keys {
			e, err := l.repo.GetAtLocationForUpdate(ctx, k.batchID, k.locationID)
			if err != nil {
				return fmt.Errorf("bloquear stock lote %s ubicación %s: %w", k.batchID, k.locationID, err)
			}
			if e == nil {
				e = &entity.StockEntry{BatchID: k.batchID, LocationID: k.locationID}
			}
			l.at[k] = e
		}
	default:
		return fmt.Errorf("tipo de retiro %q: %w", kind, domain.ErrInvalidInput)
	}
	return nil
}

// available devuelve lo que queda en el origen del ítem, en unidad base.
func (l *stockLedger) available(kind string, it *entity.WithdrawalItem) decimal.Decimal {
	if kind == entity.WithdrawalKindPersonal {
		total := decimal.Zero
		for _, e := range l.held[it.BatchID] {
			total = total.Add(e.QuantityBase)
		}
		return total
	}
	if e := l.at[stockKey{batchID: it.BatchID, locationID: it.FromLocationID}]; e != nil {
		return e.QuantityBase
	}
	return decimal.Zero
}

// withdraw descuenta QuantityBase del origen del ítem.
func (l *stockLedger) withdraw(kind string, it *entity.WithdrawalItem) error {
	if kind == entity.WithdrawalKindPersonal {
		touched, err := inventory.Deduct(l.held[it.BatchID], it.QuantityBase)
		if err != nil {
			return err
		}
		for _, e := range touched {
			l.markDirty(e)
		}
		return nil
	}
	src := l.at[stockKey{batchID: it.BatchID, locationID: it.FromLocationID}]
	if src == nil {
		return domain.ErrInsufficientStock
	}
	touched, err := inventory.Deduct([]*entity.StockEntry{src}, it.QuantityBase)
	if err != nil {
		return err
	}
	for _, e := range touched {
		l.markDirty(e)
	}
	return nil
}

// deposit suma QuantityBase en la ubicación destino; la fila se crea si no existía.
func (l *stockLedger) deposit(it *entity.WithdrawalItem) {
	k := stockKey{batchID: it.BatchID, locationID: it.ToLocationID}
	dst := l.at[k]
	if dst == nil {
		dst = &entity.StockEntry{BatchID: it.BatchID, LocationID: it.ToLocationID}
		l.at[k] = dst
	}
	if dst.ProductID == "" {
		dst.ProductID = it.ProductID
	}
	dst.QuantityBase = dst.QuantityBase.Add(it.QuantityBase)
	l.markDirty(dst)
}

func (l *stockLedger) markDirty(e *entity.StockEntry) {
	if l.seen[e] {
		return
	}
	l.seen[e] = true
	l.dirty = append(l.dirty, e)
}

func (l *stockLedger) flush(ctx context.Context, now time.Time) error {
	for _, e := range l.dirty {
		e.UpdatedAt = now
		if err := l.repo.Save(ctx, e); err != nil {
			return fmt.Errorf("guardar stock lote %s: %w", e.BatchID, err)
		}
	}
	return nil
}

// evaluate valida los ítems en orden contra el ledger y descuenta los que alcanzan.
// Ítems del mismo lote y origen compiten por la misma existencia.
func evaluate(l *stockLedger, kind string, items []entity.WithdrawalItem) ([]inventory.RowAvailability, error) {
	var failed []inventory.RowAvailability
	for i := range items {
		it := &items[i]
		conversion := it.ConversionToBase
		a := inventory.CheckAvailability(inventory.AvailabilityInput{
			RequestedQuantity: it.RequestedQuantity,
			ConversionToBase:  &conversion,
			BatchSelected:     true,
			AvailableBase:     l.available(kind, it),
		})
		if !a.Valid {
			failed = append(failed, inventory.RowAvailability{Index: i, Availability: a})
			continue
		}
		it.QuantityBase = a.RequestedBase
		if err := l.withdraw(kind, it); err != nil {
			return nil, err
		}
	}
	return failed, nil
}
