package inventory

import "github.com/shopspring/decimal"

// Motivos legibles cuando una fila no puede atenderse.
const (
	ReasonExceedsStock    = "exceeds available stock"
	ReasonNoStock         = "no stock available"
	ReasonInvalidQuantity = "quantity must be greater than zero"
	ReasonInvalidUnit     = "invalid unit conversion"
)

// AvailabilityInput son los datos de una fila de retiro ya resueltos.
// ConversionToBase nil significa que aún no se eligió unidad.
// BatchSelected false significa que aún no se eligió lote (disponible = 0).
type AvailabilityInput struct {
	RequestedQuantity decimal.Decimal
	ConversionToBase  *decimal.Decimal
	BatchSelected     bool
	AvailableBase     decimal.Decimal
}

// Availability es el resultado de CheckAvailability.
type Availability struct {
	Valid           bool
	Reason          string
	Deferred        bool // sin unidad elegida: se valida cuando la haya
	InputEnabled    bool // false mientras no haya lote elegido
	RequestedBase   decimal.Decimal
	AvailableBase   decimal.Decimal
	AvailableInUnit decimal.Decimal
}

// CheckAvailability decide si la fila puede atenderse desde el origen elegido.
// Es una función pura: se recalcula ante cualquier cambio de producto, lote, ubicación,
// unidad o cantidad, y el servidor la repite con las filas bloqueadas al enviar.
func CheckAvailability(in AvailabilityInput) Availability {
	available := in.AvailableBase
	if !in.BatchSelected {
		available = decimal.Zero
	}
	out := Availability{
		AvailableBase: available,
		InputEnabled:  in.BatchSelected,
	}

	if in.ConversionToBase == nil {
		out.Valid = true
		out.Deferred = true
		return out
	}
	conversion := *in.ConversionToBase
	if !conversion.IsPositive() {
		out.Reason = ReasonInvalidUnit
		return out
	}
	out.AvailableInUnit = FromBase(available, conversion)

	if !in.RequestedQuantity.IsPositive() {
		out.Reason = ReasonInvalidQuantity
		return out
	}
	out.RequestedBase = ToBase(in.RequestedQuantity, conversion)

	if out.RequestedBase.LessThanOrEqual(available) || WithinEpsilon(out.RequestedBase, available) {
		out.Valid = true
		return out
	}
	if !available.IsPositive() {
		out.Reason = ReasonNoStock
	} else {
		out.Reason = ReasonExceedsStock
	}
	return out
}
