package inventory

import "github.com/shopspring/decimal"

// Epsilon absorbe el redondeo acumulado al multiplicar y dividir por factores de conversión.
var Epsilon = decimal.New(1, -4)

// ToBase convierte una cantidad expresada en una unidad a unidad base.
// baseQuantity = quantity * conversionToBase
func ToBase(quantity, conversionToBase decimal.Decimal) decimal.Decimal {
	return quantity.Mul(conversionToBase)
}

// FromBase convierte una cantidad en unidad base a la unidad indicada.
// Con factor no positivo devuelve cero.
func FromBase(baseQuantity, conversionToBase decimal.Decimal) decimal.Decimal {
	if !conversionToBase.IsPositive() {
		return decimal.Zero
	}
	return baseQuantity.Div(conversionToBase)
}

// WithinEpsilon indica si a y b difieren como máximo en Epsilon.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}
