package withdrawal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
)

func newAvailability(f *fixture) *withdrawal.AvailabilityUseCase {
	return withdrawal.NewAvailabilityUseCase(f.store.StockRepo(), f.store.UnitRepo(), 2)
}

func TestCheck_Personal(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)
	f.store.AddHeld(f.doctor, f.batch, "10")

	resp, err := newAvailability(f).Check(context.Background(), f.doctor, dto.AvailabilityRequest{
		Kind: entity.WithdrawalKindPersonal,
		Items: []dto.AvailabilityRowRequest{
			{ProductID: f.product.ID, BatchID: f.batch.ID, UnitID: f.box.ID, Quantity: dec("2")},
			{ProductID: f.product.ID, BatchID: f.batch.ID, UnitID: f.box.ID, Quantity: dec("3")},
		},
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	require.Len(t, resp.Items, 2)

	assert.True(t, resp.Items[0].Valid)
	assert.True(t, resp.Items[0].AvailableInUnit.Equal(dec("2")))
	assert.True(t, resp.Items[0].RequestedBase.Equal(dec("10")))

	assert.False(t, resp.Items[1].Valid)
	assert.Equal(t, 1, resp.Items[1].Index)
	assert.Equal(t, inventory.ReasonExceedsStock, resp.Items[1].Reason)
}

func TestCheck_SinUnidadYSinLote(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)
	f.store.AddHeld(f.doctor, f.batch, "10")

	resp, err := newAvailability(f).Check(context.Background(), f.doctor, dto.AvailabilityRequest{
		Kind: entity.WithdrawalKindPersonal,
		Items: []dto.AvailabilityRowRequest{
			{ProductID: f.product.ID, BatchID: f.batch.ID, Quantity: dec("100")},
			{ProductID: f.product.ID, UnitID: f.unit.ID, Quantity: dec("1")},
		},
	})
	require.NoError(t, err)

	deferred := resp.Items[0]
	assert.True(t, deferred.Valid)
	assert.True(t, deferred.Deferred)

	noBatch := resp.Items[1]
	assert.False(t, noBatch.Valid)
	assert.False(t, noBatch.InputEnabled)
	assert.True(t, noBatch.AvailableBase.IsZero())
	assert.Equal(t, inventory.ReasonNoStock, noBatch.Reason)
}

func TestCheck_TrasladoPorUbicacion(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)
	f.store.AddAt(f.farmacia, f.batch, "5")
	f.store.AddAt(f.consulta, f.batch, "0")

	row := func(loc *entity.Location) dto.AvailabilityRowRequest {
		return dto.AvailabilityRowRequest{
			ProductID: f.product.ID, BatchID: f.batch.ID, UnitID: f.unit.ID,
			FromLocationID: loc.ID, Quantity: dec("3"),
		}
	}
	resp, err := newAvailability(f).Check(context.Background(), f.admin, dto.AvailabilityRequest{
		Kind:  entity.WithdrawalKindTransfer,
		Items: []dto.AvailabilityRowRequest{row(f.farmacia), row(f.consulta)},
	})
	require.NoError(t, err)
	assert.True(t, resp.Items[0].Valid)
	assert.True(t, resp.Items[0].AvailableBase.Equal(dec("5")))
	assert.False(t, resp.Items[1].Valid)
	assert.Equal(t, inventory.ReasonNoStock, resp.Items[1].Reason)
}

func TestCheck_TrasladoSinOrigenDeshabilitaCantidad(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)
	f.store.AddAt(f.farmacia, f.batch, "5")

	resp, err := newAvailability(f).Check(context.Background(), f.admin, dto.AvailabilityRequest{
		Kind: entity.WithdrawalKindTransfer,
		Items: []dto.AvailabilityRowRequest{
			{ProductID: f.product.ID, BatchID: f.batch.ID, UnitID: f.unit.ID, Quantity: dec("1")},
		},
	})
	require.NoError(t, err)
	assert.False(t, resp.Items[0].InputEnabled)
	assert.False(t, resp.Items[0].Valid)
}

func TestCheck_Errores(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)
	uc := newAvailability(f)
	ctx := context.Background()

	_, err := uc.Check(ctx, f.doctor, dto.AvailabilityRequest{Kind: "otro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Check(ctx, f.doctor, dto.AvailabilityRequest{
		Kind:  entity.WithdrawalKindPersonal,
		Items: []dto.AvailabilityRowRequest{{ProductID: f.product.ID, BatchID: f.batch.ID, UnitID: "no-existe", Quantity: dec("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.store.Fail = errors.New("db caída")
	_, err = uc.Check(ctx, f.doctor, dto.AvailabilityRequest{
		Kind:  entity.WithdrawalKindPersonal,
		Items: []dto.AvailabilityRowRequest{{ProductID: f.product.ID, BatchID: f.batch.ID, UnitID: f.unit.ID, Quantity: dec("1")}},
	})
	assert.Error(t, err)
}
