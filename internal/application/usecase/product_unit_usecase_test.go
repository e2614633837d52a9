package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/application/usecase"
	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-stock-api/internal/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProductUnitCreate_PrimeraQuedaPorDefecto(t *testing.T) {
	s := testutil.NewStore()
	p := s.AddProduct("Suero", "ml")
	uc := usecase.NewProductUnitUseCase(s.UnitRepo(), s.ProductRepo())
	ctx := context.Background()

	first, err := uc.Create(ctx, dto.CreateProductUnitRequest{ProductID: p.ID, Name: "ml", ConversionToBase: dec("1")})
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := uc.Create(ctx, dto.CreateProductUnitRequest{ProductID: p.ID, Name: "bolsa 500", ConversionToBase: dec("500")})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	third, err := uc.Create(ctx, dto.CreateProductUnitRequest{ProductID: p.ID, Name: "bolsa 1000", ConversionToBase: dec("1000"), IsDefault: true})
	require.NoError(t, err)
	assert.True(t, third.IsDefault)

	units, err := uc.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, third.ID, units[0].ID, "la unidad por defecto va primero")
	defaults := 0
	for _, u := range units {
		if u.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestProductUnitCreate_Invalida(t *testing.T) {
	s := testutil.NewStore()
	p := s.AddProduct("Suero", "ml")
	uc := usecase.NewProductUnitUseCase(s.UnitRepo(), s.ProductRepo())
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateProductUnitRequest{ProductID: p.ID, Name: "x", ConversionToBase: dec("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, dto.CreateProductUnitRequest{ProductID: "no-existe", Name: "x", ConversionToBase: dec("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Create(ctx, dto.CreateProductUnitRequest{ProductID: p.ID, Name: "ml", ConversionToBase: dec("1")})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateProductUnitRequest{ProductID: p.ID, Name: "ml", ConversionToBase: dec("1")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUnitGetByID_NoExiste(t *testing.T) {
	s := testutil.NewStore()
	uc := usecase.NewProductUnitUseCase(s.UnitRepo(), s.ProductRepo())
	_, err := uc.GetByID(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocationUseCase_CreaYLista(t *testing.T) {
	s := testutil.NewStore()
	uc := usecase.NewLocationUseCase(s.LocationRepo())
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.CreateLocationRequest{Name: "Farmacia"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateLocationRequest{Name: "Bodega"})
	require.NoError(t, err)

	list, err := uc.List(ctx, dto.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 20, list.Page.Limit)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Bodega", list.Items[0].Name)
}

func TestStockUseCase_PersonalYUbicacion(t *testing.T) {
	s := testutil.NewStore()
	p := s.AddProduct("Gasa", "unidad")
	b := s.AddBatch(p.ID, "L-1")
	loc := s.AddLocation("Farmacia")
	s.AddHeld("u1", b, "3")
	s.AddAt(loc, b, "7")
	uc := usecase.NewStockUseCase(s.StockRepo())
	ctx := context.Background()

	mine, err := uc.ListPersonal(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.ID, mine[0].BatchID)
	assert.True(t, mine[0].Quantity.Equal(dec("3")))

	atLoc, err := uc.ListByLocation(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, atLoc, 1)
	assert.Equal(t, "Farmacia", atLoc[0].LocationName)

	_, err = uc.ListPersonal(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestProductUnitListByProduct_SinDefectoUnico(t *testing.T) {
	s := testutil.NewStore()
	p := s.AddProduct("Suero", "ml")
	uc := usecase.NewProductUnitUseCase(s.UnitRepo(), s.ProductRepo())
	ctx := context.Background()

	empty, err := uc.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	s.AddUnit(p.ID, "ml", "1", true)
	s.AddUnit(p.ID, "bolsa 500", "500", true)
	_, err = uc.ListByProduct(ctx, p.ID)
	assert.ErrorIs(t, err, inventory.ErrDefaultUnit)
}
