package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
)

func TestDeduct_RecorreEntradas(t *testing.T) {
	a := &entity.StockEntry{ID: "a", QuantityBase: dec("3")}
	b := &entity.StockEntry{ID: "b", QuantityBase: dec("0")}
	c := &entity.StockEntry{ID: "c", QuantityBase: dec("4")}

	touched, err := inventory.Deduct([]*entity.StockEntry{a, b, c}, dec("5"))
	require.NoError(t, err)
	require.Len(t, touched, 2)
	assert.True(t, a.QuantityBase.IsZero())
	assert.True(t, c.QuantityBase.Equal(dec("2")))
}

func TestDeduct_Insuficiente(t *testing.T) {
	a := &entity.StockEntry{QuantityBase: dec("3")}
	_, err := inventory.Deduct([]*entity.StockEntry{a}, dec("3.5"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, a.QuantityBase.Equal(dec("3")), "no debe modificar si falla")
}

func TestDeduct_FaltanteDentroDeEpsilon(t *testing.T) {
	a := &entity.StockEntry{QuantityBase: dec("1")}
	_, err := inventory.Deduct([]*entity.StockEntry{a}, dec("1.00005"))
	require.NoError(t, err)
	assert.True(t, a.QuantityBase.IsZero(), "nunca queda negativo")
}
