package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func conv(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func check(requested, conversion, available string) inventory.Availability {
	return inventory.CheckAvailability(inventory.AvailabilityInput{
		RequestedQuantity: dec(requested),
		ConversionToBase:  conv(conversion),
		BatchSelected:     true,
		AvailableBase:     dec(available),
	})
}

func TestCheckAvailability_UnidadBase(t *testing.T) {
	ok := check("10", "1", "10")
	assert.True(t, ok.Valid)
	assert.Empty(t, ok.Reason)
	assert.True(t, ok.RequestedBase.Equal(dec("10")))

	over := check("10.001", "1", "10")
	assert.False(t, over.Valid)
	assert.Equal(t, inventory.ReasonExceedsStock, over.Reason)
}

func TestCheckAvailability_CajaDeCinco(t *testing.T) {
	two := check("2", "5", "10")
	assert.True(t, two.Valid)
	assert.True(t, two.RequestedBase.Equal(dec("10")))
	assert.True(t, two.AvailableInUnit.Equal(dec("2")))

	three := check("3", "5", "10")
	assert.False(t, three.Valid)
	assert.True(t, three.RequestedBase.Equal(dec("15")))
	assert.Equal(t, inventory.ReasonExceedsStock, three.Reason)
}

func TestCheckAvailability_ToleranciaEpsilon(t *testing.T) {
	// 3 unidades de 1/3 dan 0.9999... en base; debe aceptarse contra 1 disponible.
	third := decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	res := inventory.CheckAvailability(inventory.AvailabilityInput{
		RequestedQuantity: dec("3"),
		ConversionToBase:  &third,
		BatchSelected:     true,
		AvailableBase:     dec("1"),
	})
	assert.True(t, res.Valid)

	assert.True(t, check("10.0001", "1", "10").Valid, "dentro de epsilon")
	assert.False(t, check("10.00011", "1", "10").Valid, "fuera de epsilon")
}

func TestCheckAvailability_SinUnidadSeDifiere(t *testing.T) {
	res := inventory.CheckAvailability(inventory.AvailabilityInput{
		RequestedQuantity: dec("1000"),
		BatchSelected:     true,
		AvailableBase:     dec("1"),
	})
	assert.True(t, res.Valid)
	assert.True(t, res.Deferred)
}

func TestCheckAvailability_SinLote(t *testing.T) {
	res := inventory.CheckAvailability(inventory.AvailabilityInput{
		RequestedQuantity: dec("1"),
		ConversionToBase:  conv("1"),
		BatchSelected:     false,
		AvailableBase:     dec("50"),
	})
	assert.False(t, res.Valid)
	assert.False(t, res.InputEnabled)
	assert.True(t, res.AvailableBase.IsZero())
	assert.Equal(t, inventory.ReasonNoStock, res.Reason)
	assert.NotEqual(t, inventory.ReasonExceedsStock, res.Reason)
}

func TestCheckAvailability_LoteSinStock(t *testing.T) {
	res := check("1", "1", "0")
	assert.False(t, res.Valid)
	assert.True(t, res.InputEnabled)
	assert.Equal(t, inventory.ReasonNoStock, res.Reason)
}

func TestCheckAvailability_EntradasInvalidas(t *testing.T) {
	assert.Equal(t, inventory.ReasonInvalidQuantity, check("0", "1", "10").Reason)
	assert.Equal(t, inventory.ReasonInvalidQuantity, check("-2", "1", "10").Reason)
	assert.Equal(t, inventory.ReasonInvalidUnit, check("1", "0", "10").Reason)
	assert.False(t, check("1", "-5", "10").Valid)
}

func TestCheckAvailability_Propiedades(t *testing.T) {
	requested := []string{"0.5", "1", "2", "3.25", "7", "12"}
	conversions := []string{"1", "2.5", "5", "10", "0.1"}
	available := []string{"0", "1", "10", "12.5", "100"}

	for _, r := range requested {
		for _, c := range conversions {
			for _, a := range available {
				base := dec(r).Mul(dec(c))
				res := check(r, c, a)
				if base.LessThanOrEqual(dec(a)) {
					assert.True(t, res.Valid, "r=%s c=%s a=%s", r, c, a)
				}
				if base.GreaterThan(dec(a).Add(inventory.Epsilon)) {
					assert.False(t, res.Valid, "r=%s c=%s a=%s", r, c, a)
					assert.NotEmpty(t, res.Reason)
				}
			}
		}
	}
}
