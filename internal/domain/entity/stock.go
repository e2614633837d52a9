package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEntry representa la existencia de un lote de producto, expresada en unidad base.
// Stock personal: HolderUserID definido (lo que el usuario tiene a su cargo).
// Stock por ubicación: LocationID definido.
type StockEntry struct {
	ID           string
	ProductID    string
	BatchID      string
	BatchNumber  string
	ExpiryDate   *time.Time
	LocationID   string
	LocationName string
	HolderUserID string
	QuantityBase decimal.Decimal
	UpdatedAt    time.Time
}

// IsPersonal indica si la entrada pertenece al stock personal de un usuario.
func (s *StockEntry) IsPersonal() bool {
	return s.HolderUserID != ""
}
