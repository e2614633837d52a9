package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEntryResponse una entrada de stock (personal o por ubicación). Quantity en unidad base.
type StockEntryResponse struct {
	ID           string          `json:"_id"`
	ProductID    string          `json:"productId"`
	BatchID      string          `json:"batchId"`
	BatchNumber  string          `json:"batchNumber"`
	ExpiryDate   *time.Time      `json:"expiryDate,omitempty"`
	LocationID   string          `json:"locationId,omitempty"`
	LocationName string          `json:"locationName,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// AvailabilityRowRequest fila borrador a validar. BatchID y UnitID pueden venir vacíos.
type AvailabilityRowRequest struct {
	ProductID      string          `json:"productId" validate:"required"`
	BatchID        string          `json:"batchId"`
	UnitID         string          `json:"unitId"`
	FromLocationID string          `json:"fromLocationId"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// AvailabilityRequest body para POST /api/inventory/availability.
type AvailabilityRequest struct {
	Kind  string                   `json:"kind" validate:"required,oneof=personal location_transfer"`
	Items []AvailabilityRowRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

// AvailabilityRowResponse resultado del validador para una fila.
type AvailabilityRowResponse struct {
	Index           int             `json:"index"`
	Valid           bool            `json:"valid"`
	Reason          string          `json:"reason,omitempty"`
	Deferred        bool            `json:"deferred,omitempty"`
	InputEnabled    bool            `json:"inputEnabled"`
	RequestedBase   decimal.Decimal `json:"requestedBase"`
	AvailableBase   decimal.Decimal `json:"availableBase"`
	AvailableInUnit decimal.Decimal `json:"availableInUnit"`
}

// AvailabilityResponse Valid es verdadero solo si todas las filas lo son.
type AvailabilityResponse struct {
	Valid bool                      `json:"valid"`
	Items []AvailabilityRowResponse `json:"items"`
}

// WithdrawalItemRequest fila de una solicitud de retiro. Quantity en la unidad elegida.
type WithdrawalItemRequest struct {
	ProductID      string          `json:"productId" validate:"required"`
	BatchID        string          `json:"batchId" validate:"required"`
	UnitID         string          `json:"unitId" validate:"required"`
	FromLocationID string          `json:"fromLocationId"`
	ToLocationID   string          `json:"toLocationId"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// CreateWithdrawalRequest body para POST /api/inventory/stockwithdrawal y /loctolocstockwithdrawal.
type CreateWithdrawalRequest struct {
	Notes string                  `json:"notes" validate:"max=500"`
	Items []WithdrawalItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

// WithdrawalItemResponse fila persistida.
type WithdrawalItemResponse struct {
	ID               string          `json:"_id"`
	ProductID        string          `json:"productId"`
	BatchID          string          `json:"batchId"`
	UnitID           string          `json:"unitId"`
	FromLocationID   string          `json:"fromLocationId,omitempty"`
	ToLocationID     string          `json:"toLocationId,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	ConversionToBase decimal.Decimal `json:"conversionToBase"`
	QuantityBase     decimal.Decimal `json:"quantityBase"`
}

// WithdrawalResponse solicitud de retiro con sus filas.
type WithdrawalResponse struct {
	ID          string                   `json:"_id"`
	Kind        string                   `json:"kind"`
	Status      string                   `json:"status"`
	RequestedBy string                   `json:"requestedBy"`
	ReviewedBy  string                   `json:"reviewedBy,omitempty"`
	Notes       string                   `json:"notes,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
	ReviewedAt  *time.Time               `json:"reviewedAt,omitempty"`
	Items       []WithdrawalItemResponse `json:"items"`
}
