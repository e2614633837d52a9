package withdrawal_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jhoicas/clinica-stock-api/internal/application/withdrawal"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/inventory"
)

// fakeLookup responde desde mapas; si gate tiene canal para la ubicación, espera a que se cierre.
type fakeLookup struct {
	mu      sync.Mutex
	units   map[string]*entity.ProductUnit
	held    []*entity.StockEntry
	byLoc   map[string][]*entity.StockEntry
	gate    map[string]chan struct{}
	started chan string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		units:   make(map[string]*entity.ProductUnit),
		byLoc:   make(map[string][]*entity.StockEntry),
		gate:    make(map[string]chan struct{}),
		started: make(chan string, 8),
	}
}

func (l *fakeLookup) Unit(_ context.Context, id string) (*entity.ProductUnit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.units[id], nil
}

func (l *fakeLookup) PersonalStock(_ context.Context) ([]*entity.StockEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held, nil
}

func (l *fakeLookup) LocationStock(ctx context.Context, locationID string) ([]*entity.StockEntry, error) {
	l.mu.Lock()
	gate := l.gate[locationID]
	entries := l.byLoc[locationID]
	l.mu.Unlock()

	l.started <- locationID
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			// responde tarde igual, como un servidor que ignora la cancelación
			<-gate
		}
	}
	return entries, nil
}

func TestDraftRow_Personal(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := newFakeLookup()
	l.units["caja"] = &entity.ProductUnit{ID: "caja", ProductID: "p1", ConversionToBase: dec("5")}
	l.held = []*entity.StockEntry{{BatchID: "b1", QuantityBase: dec("10")}}
	row := withdrawal.NewDraftRow(l, entity.WithdrawalKindPersonal)
	defer row.Close()

	a, err := row.Update(context.Background(), withdrawal.DraftState{ProductID: "p1", BatchID: "b1", UnitID: "caja", Quantity: dec("2")})
	require.NoError(t, err)
	assert.True(t, a.Valid)
	assert.True(t, a.AvailableInUnit.Equal(dec("2")))

	a, err = row.Update(context.Background(), withdrawal.DraftState{ProductID: "p1", BatchID: "b1", UnitID: "caja", Quantity: dec("3")})
	require.NoError(t, err)
	assert.False(t, a.Valid)
	assert.Equal(t, inventory.ReasonExceedsStock, a.Reason)

	_, cur, ok := row.Current()
	require.True(t, ok)
	assert.Equal(t, inventory.ReasonExceedsStock, cur.Reason)
}

func TestDraftRow_SinUnidadQuedaDiferida(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := newFakeLookup()
	l.held = []*entity.StockEntry{{BatchID: "b1", QuantityBase: dec("1")}}
	row := withdrawal.NewDraftRow(l, entity.WithdrawalKindPersonal)

	a, err := row.Update(context.Background(), withdrawal.DraftState{ProductID: "p1", BatchID: "b1", Quantity: dec("50")})
	require.NoError(t, err)
	assert.True(t, a.Valid)
	assert.True(t, a.Deferred)
}

// Una respuesta lenta para una ubicación abandonada no debe pisar la selección actual.
func TestDraftRow_RespuestaObsoletaSeDescarta(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := newFakeLookup()
	l.units["u"] = &entity.ProductUnit{ID: "u", ProductID: "p1", ConversionToBase: dec("1")}
	l.byLoc["lenta"] = []*entity.StockEntry{{BatchID: "b1", LocationID: "lenta", QuantityBase: dec("100")}}
	l.byLoc["actual"] = []*entity.StockEntry{{BatchID: "b1", LocationID: "actual", QuantityBase: dec("2")}}
	release := make(chan struct{})
	l.gate["lenta"] = release

	row := withdrawal.NewDraftRow(l, entity.WithdrawalKindTransfer)
	defer row.Close()

	var (
		wg       sync.WaitGroup
		staleErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, staleErr = row.Update(context.Background(), withdrawal.DraftState{ProductID: "p1", BatchID: "b1", LocationID: "lenta", UnitID: "u", Quantity: dec("50")})
	}()
	require.Equal(t, "lenta", <-l.started)

	a, err := row.Update(context.Background(), withdrawal.DraftState{ProductID: "p1", BatchID: "b1", LocationID: "actual", UnitID: "u", Quantity: dec("50")})
	require.NoError(t, err)
	assert.False(t, a.Valid)
	require.Equal(t, "actual", <-l.started)

	close(release)
	wg.Wait()
	assert.True(t, errors.Is(staleErr, withdrawal.ErrStaleLookup))

	state, cur, ok := row.Current()
	require.True(t, ok)
	assert.Equal(t, "actual", state.LocationID)
	assert.False(t, cur.Valid)
	assert.True(t, cur.AvailableBase.Equal(dec("2")))
}

func TestDraftRow_UnidadDeOtroProducto(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := newFakeLookup()
	l.units["u"] = &entity.ProductUnit{ID: "u", ProductID: "otro", ConversionToBase: dec("1")}
	row := withdrawal.NewDraftRow(l, entity.WithdrawalKindPersonal)

	_, err := row.Update(context.Background(), withdrawal.DraftState{ProductID: "p1", BatchID: "b1", UnitID: "u", Quantity: dec("1")})
	assert.Error(t, err)
	_, _, ok := row.Current()
	assert.False(t, ok)
}
