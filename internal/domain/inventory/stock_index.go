package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

type stockKey struct {
	batchID    string
	locationID string
}

// StockIndex resuelve la cantidad disponible (unidad base) por lote o por lote+ubicación.
type StockIndex struct {
	byBatch    map[string]decimal.Decimal
	byLocation map[stockKey]decimal.Decimal
}

// NewStockIndex indexa las entradas recibidas.
func NewStockIndex(entries []*entity.StockEntry) *StockIndex {
	idx := &StockIndex{
		byBatch:    make(map[string]decimal.Decimal, len(entries)),
		byLocation: make(map[stockKey]decimal.Decimal, len(entries)),
	}
	for _, e := range entries {
		if e == nil {
			continue
		}
		idx.byBatch[e.BatchID] = idx.byBatch[e.BatchID].Add(e.QuantityBase)
		k := stockKey{batchID: e.BatchID, locationID: e.LocationID}
		idx.byLocation[k] = idx.byLocation[k].Add(e.QuantityBase)
	}
	return idx
}

// AvailableForBatch suma todo lo disponible del lote (alcance personal).
func (i *StockIndex) AvailableForBatch(batchID string) decimal.Decimal {
	return i.byBatch[batchID]
}

// AvailableAt devuelve lo disponible del lote en la ubicación. Sin coincidencia: cero.
func (i *StockIndex) AvailableAt(batchID, locationID string) decimal.Decimal {
	return i.byLocation[stockKey{batchID: batchID, locationID: locationID}]
}
