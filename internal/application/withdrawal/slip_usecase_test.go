package withdrawal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
)

type captureGenerator struct {
	w     *entity.WithdrawalRequest
	user  *entity.User
	items []withdrawal.SlipItem
}

func (g *captureGenerator) GenerateSlip(_ context.Context, w *entity.WithdrawalRequest, u *entity.User, items []withdrawal.SlipItem) ([]byte, error) {
	g.w, g.user, g.items = w, u, items
	return []byte("%PDF-fake"), nil
}

func TestSlipRender_ResuelveNombres(t *testing.T) {
	f := newFixture(t)
	f.store.AddAt(f.farmacia, f.batch, "20")
	ctx := context.Background()

	req, err := f.uc.SubmitTransfer(ctx, f.admin, dto.CreateWithdrawalRequest{Items: []dto.WithdrawalItemRequest{f.transferRow("4")}})
	require.NoError(t, err)

	gen := &captureGenerator{}
	slips := withdrawal.NewSlipUseCase(f.uc, f.store.ProductRepo(), f.store.UnitRepo(), f.store.LocationRepo(), f.store.UserRepo(), gen)

	pdf, filename, err := slips.Render(ctx, f.admin, entity.RoleAdmin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fake"), pdf)
	assert.Equal(t, "retiro_"+req.ID+".pdf", filename)

	require.Len(t, gen.items, 1)
	it := gen.items[0]
	assert.Equal(t, "Gasa estéril", it.ProductName)
	assert.Equal(t, "L-001", it.BatchNumber)
	assert.Equal(t, "unidad", it.UnitName)
	assert.Equal(t, "Farmacia", it.FromLocationName)
	assert.Equal(t, "Consultorio 1", it.ToLocationName)
	assert.Equal(t, "admin@clinica.test", gen.user.Email)
}

func TestSlipRender_SinPermiso(t *testing.T) {
	f := newFixture(t)
	f.store.AddHeld(f.doctor, f.batch, "5")
	ctx := context.Background()

	req, err := f.uc.SubmitPersonal(ctx, f.doctor, dto.CreateWithdrawalRequest{Items: []dto.WithdrawalItemRequest{f.personalRow(f.unit, "1")}})
	require.NoError(t, err)

	slips := withdrawal.NewSlipUseCase(f.uc, f.store.ProductRepo(), f.store.UnitRepo(), f.store.LocationRepo(), f.store.UserRepo(), &captureGenerator{})
	_, _, err = slips.Render(ctx, "otro", entity.RoleStaff, req.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
