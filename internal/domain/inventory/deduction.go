package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

// Deduct descuenta quantityBase de las entradas en orden, vaciando una antes de pasar a la siguiente.
// Acepta un faltante de hasta Epsilon (la última entrada queda en cero).
// Devuelve las entradas modificadas; si el total no alcanza devuelve ErrInsufficientStock
// sin modificar nada.
func Deduct(entries []*entity.StockEntry, quantityBase decimal.Decimal) ([]*entity.StockEntry, error) {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.QuantityBase)
	}
	if quantityBase.GreaterThan(total) && !WithinEpsilon(quantityBase, total) {
		return nil, domain.ErrInsufficientStock
	}

	remaining := quantityBase
	var touched []*entity.StockEntry
	for _, e := range entries {
		if !remaining.IsPositive() {
			break
		}
		if !e.QuantityBase.IsPositive() {
			continue
		}
		take := decimal.Min(e.QuantityBase, remaining)
		e.QuantityBase = e.QuantityBase.Sub(take)
		remaining = remaining.Sub(take)
		touched = append(touched, e)
	}
	return touched, nil
}
