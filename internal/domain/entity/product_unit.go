package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductUnit es una unidad de presentación de un producto (ej. "caja x5").
// ConversionToBase multiplica una cantidad en esta unidad para llevarla a unidad base.
type ProductUnit struct {
	ID               string
	ProductID        string
	Name             string
	ConversionToBase decimal.Decimal
	IsDefault        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
