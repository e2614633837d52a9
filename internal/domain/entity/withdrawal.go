package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de solicitud de retiro.
const (
	WithdrawalKindPersonal = "personal"          // retiro desde el stock personal del usuario
	WithdrawalKindTransfer = "location_transfer" // traslado entre ubicaciones
)

// Estados de una solicitud de retiro.
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// WithdrawalRequest es la intención de descontar o trasladar stock, pendiente de revisión.
type WithdrawalRequest struct {
	ID          string
	Kind        string
	Status      string
	RequestedBy string
	ReviewedBy  string
	Notes       string
	Items       []WithdrawalItem
	CreatedAt   time.Time
	ReviewedAt  *time.Time
}

// IsPending indica si la solicitud aún puede aprobarse o rechazarse.
func (w *WithdrawalRequest) IsPending() bool {
	return w.Status == WithdrawalStatusPending
}

// WithdrawalItem es una fila de la solicitud.
// RequestedQuantity está en la unidad elegida; QuantityBase = RequestedQuantity * ConversionToBase.
type WithdrawalItem struct {
	ID                string
	WithdrawalID      string
	ProductID         string
	BatchID           string
	UnitID            string
	FromLocationID    string
	ToLocationID      string
	RequestedQuantity decimal.Decimal
	ConversionToBase  decimal.Decimal
	QuantityBase      decimal.Decimal
}
