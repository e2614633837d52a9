package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/clinica-stock-api/internal/application/dto"
	"github.com/jhoicas/clinica-stock-api/internal/application/usecase"
	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-stock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/clinica-stock-api/pkg/config"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestPool levanta PostgreSQL en un contenedor y aplica las migraciones embebidas.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integración con PostgreSQL omitida en modo -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("clinica_stock_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "contenedor PostgreSQL")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	m, err := postgres.NewMigrator(pool, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return pool
}

// fixture datos base: un producto con lote y dos unidades, dos usuarios y una bodega con stock.
type fixture struct {
	pool      *pgxpool.Pool
	requester string
	reviewer  string
	product   string
	batch     string
	unit      string // factor 1, por defecto
	box       string // factor 5
	warehouse string
}

func seed(t *testing.T, pool *pgxpool.Pool, warehouseStock string) fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	f := fixture{pool: pool}

	users := postgres.NewUserRepository(pool)
	for _, u := range []struct {
		id   *string
		role entity.Role
	}{{&f.requester, entity.RoleStaff}, {&f.reviewer, entity.RoleAdmin}} {
		*u.id = uuid.New().String()
		require.NoError(t, users.Create(ctx, &entity.User{
			ID: *u.id, Email: *u.id + "@clinica.test", PasswordHash: "x", Name: string(u.role),
			Role: u.role, Status: entity.UserStatusActive, CreatedAt: now, UpdatedAt: now,
		}))
	}

	f.product = uuid.New().String()
	_, err := pool.Exec(ctx, `INSERT INTO products (id, name, base_unit_name) VALUES ($1, $2, 'unidad')`, f.product, "Gasa "+f.product[:8])
	require.NoError(t, err)
	f.batch = uuid.New().String()
	_, err = pool.Exec(ctx, `INSERT INTO batches (id, product_id, batch_number) VALUES ($1, $2, 'L-1')`, f.batch, f.product)
	require.NoError(t, err)

	units := usecase.NewProductUnitUseCase(postgres.NewProductUnitRepository(pool), postgres.NewProductRepository(pool))
	u, err := units.Create(ctx, dto.CreateProductUnitRequest{ProductID: f.product, Name: "unidad", ConversionToBase: dec("1")})
	require.NoError(t, err)
	f.unit = u.ID
	b, err := units.Create(ctx, dto.CreateProductUnitRequest{ProductID: f.product, Name: "caja x5", ConversionToBase: dec("5")})
	require.NoError(t, err)
	f.box = b.ID

	f.warehouse = f.location(t, "Bodega")
	_, err = pool.Exec(ctx, `
		INSERT INTO stock_entries (id, product_id, batch_id, location_id, quantity_base)
		VALUES ($1, $2, $3, $4, $5)`, uuid.New().String(), f.product, f.batch, f.warehouse, dec(warehouseStock))
	require.NoError(t, err)
	return f
}

func (f fixture) location(t *testing.T, name string) string {
	t.Helper()
	now := time.Now()
	l := &entity.Location{ID: uuid.New().String(), Name: name + " " + uuid.NewString()[:8], CreatedAt: now, UpdatedAt: now}
	require.NoError(t, postgres.NewLocationRepository(f.pool).Create(context.Background(), l))
	return l.ID
}

func (f fixture) withdrawals() *withdrawal.WithdrawalUseCase {
	return withdrawal.NewWithdrawalUseCase(
		postgres.NewTxRunner(f.pool),
		postgres.NewWithdrawalRepository(f.pool),
		postgres.NewProductUnitRepository(f.pool),
		postgres.NewProductRepository(f.pool),
		postgres.NewLocationRepository(f.pool),
	)
}

func (f fixture) transfer(to, unit, qty string) dto.CreateWithdrawalRequest {
	return dto.CreateWithdrawalRequest{Items: []dto.WithdrawalItemRequest{{
		ProductID: f.product, BatchID: f.batch, UnitID: unit,
		FromLocationID: f.warehouse, ToLocationID: to, Quantity: dec(qty),
	}}}
}

func (f fixture) qtyAt(t *testing.T, locationID string) decimal.Decimal {
	t.Helper()
	entries, err := postgres.NewStockRepository(f.pool).ListByLocation(context.Background(), locationID)
	require.NoError(t, err)
	total := decimal.Zero
	for _, e := range entries {
		if e.BatchID == f.batch {
			total = total.Add(e.QuantityBase)
		}
	}
	return total
}

func TestPostgres(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	t.Run("traslado hacia destino sin fila", func(t *testing.T) {
		f := seed(t, pool, "10")
		dest := f.location(t, "Consultorio")
		uc := f.withdrawals()

		w, err := uc.SubmitTransfer(ctx, f.requester, f.transfer(dest, f.box, "1"))
		require.NoError(t, err)
		assert.Equal(t, entity.WithdrawalStatusPending, w.Status)

		stored, err := postgres.NewWithdrawalRepository(pool).GetByID(ctx, w.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		require.Len(t, stored.Items, 1)
		assert.True(t, stored.Items[0].QuantityBase.Equal(dec("5")))
		assert.Equal(t, dest, stored.Items[0].ToLocationID)
		assert.True(t, f.qtyAt(t, f.warehouse).Equal(dec("10")), "el envío no mueve stock")

		approved, err := uc.Approve(ctx, f.reviewer, w.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.WithdrawalStatusApproved, approved.Status)
		assert.True(t, f.qtyAt(t, f.warehouse).Equal(dec("5")))
		assert.True(t, f.qtyAt(t, dest).Equal(dec("5")))

		reloaded, err := postgres.NewWithdrawalRepository(pool).GetByID(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, f.reviewer, reloaded.ReviewedBy)
		require.NotNil(t, reloaded.ReviewedAt)
	})

	t.Run("envío sin stock suficiente no persiste nada", func(t *testing.T) {
		f := seed(t, pool, "4")
		dest := f.location(t, "Consultorio")

		_, err := f.withdrawals().SubmitTransfer(ctx, f.requester, f.transfer(dest, f.box, "1"))
		var availErr *inventory.AvailabilityError
		require.True(t, errors.As(err, &availErr), "err=%v", err)
		require.Len(t, availErr.Rows, 1)
		assert.Equal(t, inventory.ReasonExceedsStock, availErr.Rows[0].Reason)

		var n int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM withdrawal_requests WHERE requested_by = $1`, f.requester).Scan(&n))
		assert.Zero(t, n)
		assert.Empty(t, mustList(t, pool, dest), "el envío no toca el destino")
	})

	t.Run("filas acumuladas del mismo origen", func(t *testing.T) {
		f := seed(t, pool, "8")
		dest := f.location(t, "Consultorio")
		in := f.transfer(dest, f.box, "1")
		in.Items = append(in.Items, f.transfer(dest, f.unit, "4").Items[0])

		_, err := f.withdrawals().SubmitTransfer(ctx, f.requester, in)
		var availErr *inventory.AvailabilityError
		require.True(t, errors.As(err, &availErr), "5 + 4 supera 8")
		assert.Equal(t, 1, availErr.Rows[0].Index)
	})

	t.Run("aprobaciones concurrentes hacia el mismo destino nuevo", func(t *testing.T) {
		f := seed(t, pool, "20")
		dest := f.location(t, "Esterilización")
		uc := f.withdrawals()

		const n = 4
		ids := make([]string, n)
		for i := range ids {
			w, err := uc.SubmitTransfer(ctx, f.requester, f.transfer(dest, f.unit, "2"))
			require.NoError(t, err)
			ids[i] = w.ID
		}

		var g errgroup.Group
		for _, id := range ids {
			g.Go(func() error {
				_, err := uc.Approve(ctx, f.reviewer, id)
				return err
			})
		}
		require.NoError(t, g.Wait())

		assert.True(t, f.qtyAt(t, dest).Equal(dec("8")))
		assert.True(t, f.qtyAt(t, f.warehouse).Equal(dec("12")))
		assert.Len(t, mustList(t, pool, dest), 1, "una sola fila por lote y ubicación")
	})

	t.Run("stock personal", func(t *testing.T) {
		f := seed(t, pool, "0")
		stock := postgres.NewStockRepository(pool)
		held := &entity.StockEntry{BatchID: f.batch, HolderUserID: f.requester, QuantityBase: dec("7"), UpdatedAt: time.Now()}
		require.NoError(t, stock.Save(ctx, held), "el producto se toma del lote")
		require.NotEmpty(t, held.ID)

		mine, err := stock.ListByHolder(ctx, f.requester)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, f.product, mine[0].ProductID)
		assert.Equal(t, "L-1", mine[0].BatchNumber)

		uc := f.withdrawals()
		w, err := uc.SubmitPersonal(ctx, f.requester, dto.CreateWithdrawalRequest{Items: []dto.WithdrawalItemRequest{
			{ProductID: f.product, BatchID: f.batch, UnitID: f.box, Quantity: dec("1")},
			{ProductID: f.product, BatchID: f.batch, UnitID: f.unit, Quantity: dec("2")},
		}})
		require.NoError(t, err)
		_, err = uc.Approve(ctx, f.reviewer, w.ID)
		require.NoError(t, err)

		mine, err = stock.ListByHolder(ctx, f.requester)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.True(t, mine[0].QuantityBase.IsZero())
	})

	t.Run("unidad por defecto", func(t *testing.T) {
		f := seed(t, pool, "0")
		repo := postgres.NewProductUnitRepository(pool)
		units := usecase.NewProductUnitUseCase(repo, postgres.NewProductRepository(pool))

		list, err := units.ListByProduct(ctx, f.product)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, f.unit, list[0].ID, "la primera unidad queda por defecto")

		bag, err := units.Create(ctx, dto.CreateProductUnitRequest{ProductID: f.product, Name: "bolsa x100", ConversionToBase: dec("100"), IsDefault: true})
		require.NoError(t, err)
		list, err = units.ListByProduct(ctx, f.product)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, bag.ID, list[0].ID)
		assert.Equal(t, 1, countDefaults(list))

		old, err := repo.GetByID(ctx, f.unit)
		require.NoError(t, err)
		assert.False(t, old.IsDefault)

		_, err = units.Create(ctx, dto.CreateProductUnitRequest{ProductID: f.product, Name: "unidad", ConversionToBase: dec("1")})
		assert.Error(t, err, "nombre repetido")
	})

	t.Run("altas concurrentes en producto sin unidades", func(t *testing.T) {
		product := uuid.New().String()
		_, err := pool.Exec(ctx, `INSERT INTO products (id, name, base_unit_name) VALUES ($1, 'Suero', 'ml')`, product)
		require.NoError(t, err)
		repo := postgres.NewProductUnitRepository(pool)

		var g errgroup.Group
		for i := 1; i <= 4; i++ {
			g.Go(func() error {
				now := time.Now()
				return repo.Create(ctx, &entity.ProductUnit{
					ID: uuid.New().String(), ProductID: product, Name: fmt.Sprintf("bolsa x%d", i*100),
					ConversionToBase: decimal.NewFromInt(int64(i * 100)), CreatedAt: now, UpdatedAt: now,
				})
			})
		}
		require.NoError(t, g.Wait())

		list, err := repo.ListByProduct(ctx, product)
		require.NoError(t, err)
		require.Len(t, list, 4)
		defaults := 0
		for _, u := range list {
			if u.IsDefault {
				defaults++
			}
		}
		assert.Equal(t, 1, defaults)
	})

	t.Run("índice de una unidad por defecto", func(t *testing.T) {
		f := seed(t, pool, "0")
		_, err := pool.Exec(ctx, `
			INSERT INTO product_units (id, product_id, name, conversion_to_base, is_default)
			VALUES ($1, $2, 'otra', 2, true)`, uuid.New().String(), f.product)
		assert.Error(t, err)
	})
}

func mustList(t *testing.T, pool *pgxpool.Pool, locationID string) []*entity.StockEntry {
	t.Helper()
	entries, err := postgres.NewStockRepository(pool).ListByLocation(context.Background(), locationID)
	require.NoError(t, err)
	return entries
}

func countDefaults(list []dto.ProductUnitResponse) int {
	n := 0
	for _, u := range list {
		if u.IsDefault {
			n++
		}
	}
	return n
}
