package entity

import "time"

// Product representa un insumo de la clínica. El stock siempre se guarda en BaseUnitName.
type Product struct {
	ID           string
	Name         string
	BaseUnitName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Batch es un lote fabricado de un producto; es la granularidad mínima del stock.
type Batch struct {
	ID          string
	ProductID   string
	BatchNumber string
	ExpiryDate  *time.Time
	CreatedAt   time.Time
}
