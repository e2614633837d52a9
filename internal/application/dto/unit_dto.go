package dto

import "github.com/shopspring/decimal"

// CreateProductUnitRequest entrada para crear una unidad de producto.
type CreateProductUnitRequest struct {
	ProductID        string          `json:"productId" validate:"required"`
	Name             string          `json:"name" validate:"required,min=1,max=50"`
	ConversionToBase decimal.Decimal `json:"conversionToBase"`
	IsDefault        bool            `json:"isDefault"`
}

// ProductUnitResponse salida de una unidad.
type ProductUnitResponse struct {
	ID               string          `json:"_id"`
	ProductID        string          `json:"productId"`
	Name             string          `json:"name"`
	ConversionToBase decimal.Decimal `json:"conversionToBase"`
	IsDefault        bool            `json:"isDefault"`
}
