// Package testutil provee repositorios en memoria para tests de casos de uso y handlers.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/repository"
)

// Store guarda todas las tablas en memoria. Los repositorios devuelven copias, de modo que
// modificar una entidad leída no cambia el Store hasta llamar a Save/Create/Update.
type Store struct {
	txMu sync.Mutex // serializa Run, hace las veces de SELECT FOR UPDATE
	mu   sync.Mutex

	stock       []entity.StockEntry
	products    map[string]entity.Product
	batches     map[string]entity.Batch
	units       map[string]entity.ProductUnit
	unitOrder   []string
	locations   map[string]entity.Location
	withdrawals map[string]entity.WithdrawalRequest
	users       map[string]entity.User

	// Fail, si no es nil, lo devuelven todas las operaciones de stock.
	Fail error
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		products:    make(map[string]entity.Product),
		batches:     make(map[string]entity.Batch),
		units:       make(map[string]entity.ProductUnit),
		locations:   make(map[string]entity.Location),
		withdrawals: make(map[string]entity.WithdrawalRequest),
		users:       make(map[string]entity.User),
	}
}

// ── Carga de datos ───────────────────────────────────────────────────────────

// AddProduct registra un producto con su unidad base.
func (s *Store) AddProduct(name, baseUnit string) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := entity.Product{ID: uuid.New().String(), Name: name, BaseUnitName: baseUnit, CreatedAt: time.Now()}
	s.products[p.ID] = p
	return &p
}

// AddBatch registra un lote del producto.
func (s *Store) AddBatch(productID, number string) *entity.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := entity.Batch{ID: uuid.New().String(), ProductID: productID, BatchNumber: number, CreatedAt: time.Now()}
	s.batches[b.ID] = b
	return &b
}

// AddUnit registra una unidad; conversion en texto decimal (ej. "5").
func (s *Store) AddUnit(productID, name, conversion string, isDefault bool) *entity.ProductUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := entity.ProductUnit{
		ID:               uuid.New().String(),
		ProductID:        productID,
		Name:             name,
		ConversionToBase: decimal.RequireFromString(conversion),
		IsDefault:        isDefault,
	}
	s.units[u.ID] = u
	s.unitOrder = append(s.unitOrder, u.ID)
	return &u
}

// AddLocation registra una ubicación.
func (s *Store) AddLocation(name string) *entity.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := entity.Location{ID: uuid.New().String(), Name: name, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.locations[l.ID] = l
	return &l
}

// AddUser registra un usuario activo con el hash indicado.
func (s *Store) AddUser(email string, role entity.Role, passwordHash string) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       entity.UserStatusActive,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	return &u
}

// AddHeld registra stock personal del usuario (cantidad en unidad base).
func (s *Store) AddHeld(userID string, batch *entity.Batch, qty string) *entity.StockEntry {
	return s.addStock(entity.StockEntry{HolderUserID: userID, ProductID: batch.ProductID, BatchID: batch.ID, BatchNumber: batch.BatchNumber}, qty)
}

// AddAt registra stock de un lote en una ubicación (cantidad en unidad base).
func (s *Store) AddAt(location *entity.Location, batch *entity.Batch, qty string) *entity.StockEntry {
	return s.addStock(entity.StockEntry{
		LocationID:   location.ID,
		LocationName: location.Name,
		ProductID:    batch.ProductID,
		BatchID:      batch.ID,
		BatchNumber:  batch.BatchNumber,
	}, qty)
}

func (s *Store) addStock(e entity.StockEntry, qty string) *entity.StockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.New().String()
	e.QuantityBase = decimal.RequireFromString(qty)
	e.UpdatedAt = time.Now()
	s.stock = append(s.stock, e)
	return &e
}

// ── Lectura directa para asserts ─────────────────────────────────────────────

// HeldTotal suma el stock personal del usuario para el lote.
func (s *Store) HeldTotal(userID, batchID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, e := range s.stock {
		if e.HolderUserID == userID && e.BatchID == batchID {
			total = total.Add(e.QuantityBase)
		}
	}
	return total
}

// QuantityAt devuelve el stock del lote en la ubicación (cero si no hay fila).
func (s *Store) QuantityAt(batchID, locationID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.stock {
		if e.HolderUserID == "" && e.BatchID == batchID && e.LocationID == locationID {
			return e.QuantityBase
		}
	}
	return decimal.Zero
}

// WithdrawalCount número de solicitudes guardadas.
func (s *Store) WithdrawalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.withdrawals)
}

// ── Repositorios ─────────────────────────────────────────────────────────────

// StockRepo devuelve el repositorio de stock sobre el Store.
func (s *Store) StockRepo() repository.StockRepository { return &stockRepo{s: s} }

// ProductRepo devuelve el repositorio de productos y lotes.
func (s *Store) ProductRepo() repository.ProductRepository { return &productRepo{s: s} }

// UnitRepo devuelve el repositorio de unidades.
func (s *Store) UnitRepo() repository.ProductUnitRepository { return &unitRepo{s: s} }

// LocationRepo devuelve el repositorio de ubicaciones.
func (s *Store) LocationRepo() repository.LocationRepository { return &locationRepo{s: s} }

// WithdrawalRepo devuelve el repositorio de solicitudes.
func (s *Store) WithdrawalRepo() repository.WithdrawalRepository { return &withdrawalRepo{s: s} }

// UserRepo devuelve el repositorio de usuarios.
func (s *Store) UserRepo() repository.UserRepository { return &userRepo{s: s} }

// Run ejecuta fn en una "transacción": las transacciones se serializan y, si fn falla,
// el Store vuelve al estado previo.
func (s *Store) Run(_ context.Context, fn func(repository.StockRepository, repository.WithdrawalRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	stock := append([]entity.StockEntry(nil), s.stock...)
	withdrawals := make(map[string]entity.WithdrawalRequest, len(s.withdrawals))
	for k, v := range s.withdrawals {
		withdrawals[k] = v
	}
	s.mu.Unlock()

	if err := fn(s.StockRepo(), s.WithdrawalRepo()); err != nil {
		s.mu.Lock()
		s.stock = stock
		s.withdrawals = withdrawals
		s.mu.Unlock()
		return err
	}
	return nil
}

type stockRepo struct{ s *Store }

func (r *stockRepo) ListByHolder(_ context.Context, userID string) ([]*entity.StockEntry, error) {
	return r.filter(func(e entity.StockEntry) bool { return e.HolderUserID == userID })
}

func (r *stockRepo) ListByLocation(_ context.Context, locationID string) ([]*entity.StockEntry, error) {
	return r.filter(func(e entity.StockEntry) bool {
		return e.HolderUserID == "" && e.LocationID != "" && (locationID == "" || e.LocationID == locationID)
	})
}

func (r *stockRepo) ListHeldForUpdate(_ context.Context, userID, batchID string) ([]*entity.StockEntry, error) {
	return r.filter(func(e entity.StockEntry) bool { return e.HolderUserID == userID && e.BatchID == batchID })
}

func (r *stockRepo) GetAtLocationForUpdate(_ context.Context, batchID, locationID string) (*entity.StockEntry, error) {
	list, err := r.filter(func(e entity.StockEntry) bool {
		return e.HolderUserID == "" && e.BatchID == batchID && e.LocationID == locationID
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return &entity.StockEntry{BatchID: batchID, LocationID: locationID}, nil
	}
	return list[0], nil
}

func (r *stockRepo) Save(_ context.Context, entry *entity.StockEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return r.s.Fail
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
		r.s.stock = append(r.s.stock, *entry)
		return nil
	}
	for i := range r.s.stock {
		if r.s.stock[i].ID == entry.ID {
			r.s.stock[i].QuantityBase = entry.QuantityBase
			r.s.stock[i].UpdatedAt = entry.UpdatedAt
			return nil
		}
	}
	r.s.stock = append(r.s.stock, *entry)
	return nil
}

func (r *stockRepo) filter(keep func(entity.StockEntry) bool) ([]*entity.StockEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Fail != nil {
		return nil, r.s.Fail
	}
	var out []*entity.StockEntry
	for _, e := range r.s.stock {
		if keep(e) {
			c := e
			out = append(out, &c)
		}
	}
	return out, nil
}

type productRepo struct{ s *Store }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) GetBatch(_ context.Context, batchID string) (*entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[batchID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

type unitRepo struct{ s *Store }

func (r *unitRepo) Create(_ context.Context, unit *entity.ProductUnit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	hasDefault := false
	for id, u := range r.s.units {
		if u.ProductID != unit.ProductID || !u.IsDefault {
			continue
		}
		if unit.IsDefault {
			u.IsDefault = false
			r.s.units[id] = u
		}
		hasDefault = true
	}
	if !hasDefault {
		unit.IsDefault = true
	}
	r.s.units[unit.ID] = *unit
	r.s.unitOrder = append(r.s.unitOrder, unit.ID)
	return nil
}

func (r *unitRepo) GetByID(_ context.Context, id string) (*entity.ProductUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.units[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *unitRepo) ListByProduct(_ context.Context, productID string) ([]*entity.ProductUnit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ProductUnit
	for _, id := range r.s.unitOrder {
		if u := r.s.units[id]; u.ProductID == productID {
			out = append(out, &u)
		}
	}
	return out, nil
}

type locationRepo struct{ s *Store }

func (r *locationRepo) Create(_ context.Context, l *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.locations[l.ID] = *l
	return nil
}

func (r *locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *locationRepo) List(_ context.Context, limit, offset int) ([]*entity.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*entity.Location, 0, len(r.s.locations))
	for _, l := range r.s.locations {
		c := l
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if offset >= len(all) {
		return []*entity.Location{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

type withdrawalRepo struct{ s *Store }

func (r *withdrawalRepo) Create(_ context.Context, w *entity.WithdrawalRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *w
	c.Items = append([]entity.WithdrawalItem(nil), w.Items...)
	r.s.withdrawals[w.ID] = c
	return nil
}

func (r *withdrawalRepo) GetByID(_ context.Context, id string) (*entity.WithdrawalRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.withdrawals[id]
	if !ok {
		return nil, nil
	}
	w.Items = append([]entity.WithdrawalItem(nil), w.Items...)
	return &w, nil
}

func (r *withdrawalRepo) GetForUpdate(ctx context.Context, id string) (*entity.WithdrawalRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *withdrawalRepo) UpdateReview(_ context.Context, w *entity.WithdrawalRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.withdrawals[w.ID]
	if !ok {
		return nil
	}
	cur.Status = w.Status
	cur.ReviewedBy = w.ReviewedBy
	cur.ReviewedAt = w.ReviewedAt
	r.s.withdrawals[w.ID] = cur
	return nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.ID] = *u
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, nil
}
