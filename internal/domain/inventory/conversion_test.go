package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
)

func TestConversion_IdaYVuelta(t *testing.T) {
	bases := []string{"0", "1", "10", "17.5", "333.3333", "1000"}
	factors := []string{"1", "3", "5", "7", "12", "0.25", "2.5"}
	for _, b := range bases {
		for _, f := range factors {
			base := dec(b)
			factor := dec(f)
			inUnit := inventory.FromBase(base, factor)
			back := inventory.ToBase(inUnit, factor)
			assert.True(t, inventory.WithinEpsilon(base, back), "base=%s factor=%s back=%s", b, f, back)
		}
	}
}

func TestFromBase_FactorNoPositivo(t *testing.T) {
	assert.True(t, inventory.FromBase(dec("10"), decimal.Zero).IsZero())
	assert.True(t, inventory.FromBase(dec("10"), dec("-1")).IsZero())
}

func TestCheckAvailability_CambioDeUnidadRecalcula(t *testing.T) {
	box := check("1", "5", "12")
	unit := check("1", "1", "12")
	assert.True(t, box.AvailableInUnit.Equal(dec("2.4")))
	assert.True(t, unit.AvailableInUnit.Equal(dec("12")))
}
