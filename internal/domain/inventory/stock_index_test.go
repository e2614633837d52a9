package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
)

func TestStockIndex_MismoLoteDistintaUbicacion(t *testing.T) {
	idx := inventory.NewStockIndex([]*entity.StockEntry{
		{BatchID: "b1", LocationID: "loc-a", QuantityBase: dec("5")},
		{BatchID: "b1", LocationID: "loc-b", QuantityBase: dec("0")},
	})

	assert.True(t, idx.AvailableAt("b1", "loc-a").Equal(dec("5")))
	assert.True(t, idx.AvailableAt("b1", "loc-b").IsZero())
	assert.True(t, idx.AvailableAt("b1", "loc-c").IsZero(), "sin coincidencia es cero")

	inA := check("5", "1", idx.AvailableAt("b1", "loc-a").String())
	inB := check("5", "1", idx.AvailableAt("b1", "loc-b").String())
	assert.True(t, inA.Valid)
	assert.False(t, inB.Valid)
	assert.Equal(t, inventory.ReasonNoStock, inB.Reason)
}

func TestStockIndex_PorLoteSuma(t *testing.T) {
	idx := inventory.NewStockIndex([]*entity.StockEntry{
		{BatchID: "b1", HolderUserID: "u1", QuantityBase: dec("2")},
		{BatchID: "b1", HolderUserID: "u1", LocationID: "loc-a", QuantityBase: dec("3")},
		{BatchID: "b2", HolderUserID: "u1", QuantityBase: dec("9")},
		nil,
	})
	assert.True(t, idx.AvailableForBatch("b1").Equal(dec("5")))
	assert.True(t, idx.AvailableForBatch("b2").Equal(dec("9")))
	assert.True(t, idx.AvailableForBatch("zz").IsZero())
}
