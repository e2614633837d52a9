package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockSelect = `
	SELECT s.id, s.product_id, s.batch_id, b.batch_number, b.expiry_date,
	       COALESCE(s.location_id::text, ''), COALESCE(l.name, ''),
	       COALESCE(s.holder_user_id::text, ''), s.quantity_base, s.updated_at
	FROM stock_entries s
	JOIN batches b ON b.id = s.batch_id
	LEFT JOIN locations l ON l.id = s.location_id`

// ListByHolder devuelve el stock personal del usuario.
func (r *StockRepo) ListByHolder(ctx context.Context, userID string) ([]*entity.StockEntry, error) {
	query := stockSelect + `
		WHERE s.holder_user_id = $1
		ORDER BY b.expiry_date NULLS LAST, b.batch_number`
	return r.list(ctx, "list personal stock", query, userID)
}

// ListByLocation devuelve el stock por ubicación; locationID vacío = todas.
func (r *StockRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.StockEntry, error) {
	if locationID == "" {
		query := stockSelect + `
			WHERE s.holder_user_id IS NULL
			ORDER BY l.name, b.batch_number`
		return r.list(ctx, "list location stock", query)
	}
	query := stockSelect + `
		WHERE s.holder_user_id IS NULL AND s.location_id = $1
		ORDER BY b.batch_number`
	return r.list(ctx, "list location stock", query, locationID)
}

// ListHeldForUpdate bloquea las filas personales del lote, más antiguas primero.
func (r *StockRepo) ListHeldForUpdate(ctx context.Context, userID, batchID string) ([]*entity.StockEntry, error) {
	query := stockSelect + `
		WHERE s.holder_user_id = $1 AND s.batch_id = $2
		ORDER BY s.updated_at, s.id
		FOR UPDATE OF s`
	return r.list(ctx, "lock personal stock", query, userID, batchID)
}

// GetAtLocationForUpdate bloquea la fila del lote en la ubicación (SELECT FOR UPDATE).
// Primero crea la fila en cero si falta (ON CONFLICT DO NOTHING), así dos aprobaciones
// hacia un destino nuevo se serializan sobre la misma fila en lugar de chocar en el INSERT.
// Si el lote o la ubicación no existen devuelve una entrada en cero sin ID.
func (r *StockRepo) GetAtLocationForUpdate(ctx context.Context, batchID, locationID string) (*entity.StockEntry, error) {
	ensure := `
		INSERT INTO stock_entries (id, product_id, batch_id, location_id, quantity_base, updated_at)
		SELECT $1, b.product_id, b.id, l.id, 0, now()
		FROM batches b, locations l
		WHERE b.id = $2 AND l.id = $3
		ON CONFLICT (batch_id, location_id) WHERE holder_user_id IS NULL DO NOTHING`
	if _, err := r.q.Exec(ctx, ensure, uuid.New().String(), batchID, locationID); err != nil {
		return nil, fmt.Errorf("ensure location stock: %w", err)
	}

	query := stockSelect + `
		WHERE s.holder_user_id IS NULL AND s.batch_id = $1 AND s.location_id = $2
		FOR UPDATE OF s`
	e, err := scanStock(r.q.QueryRow(ctx, query, batchID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockEntry{BatchID: batchID, LocationID: locationID}, nil
		}
		return nil, fmt.Errorf("lock location stock: %w", err)
	}
	return e, nil
}

// Save inserta la entrada si no tiene ID o actualiza su cantidad.
func (r *StockRepo) Save(ctx context.Context, entry *entity.StockEntry) error {
	if entry.ID != "" {
		query := `UPDATE stock_entries SET quantity_base = $2, updated_at = $3 WHERE id = $1`
		if _, err := r.q.Exec(ctx, query, entry.ID, entry.QuantityBase, entry.UpdatedAt); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		return nil
	}

	id := uuid.New().String()
	query := `
		INSERT INTO stock_entries (id, product_id, batch_id, location_id, holder_user_id, quantity_base, updated_at)
		VALUES ($1,
		        COALESCE(NULLIF($2, '')::uuid, (SELECT product_id FROM batches WHERE id = $3)),
		        $3, NULLIF($4, '')::uuid, NULLIF($5, '')::uuid, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		id, entry.ProductID, entry.BatchID, entry.LocationID, entry.HolderUserID, entry.QuantityBase, entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert stock: %w", domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert stock: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert stock: %w", err)
	}
	entry.ID = id
	return nil
}

func (r *StockRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*entity.StockEntry
	for rows.Next() {
		e, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanStock(row pgx.Row) (*entity.StockEntry, error) {
	var e entity.StockEntry
	err := row.Scan(
		&e.ID, &e.ProductID, &e.BatchID, &e.BatchNumber, &e.ExpiryDate,
		&e.LocationID, &e.LocationName, &e.HolderUserID, &e.QuantityBase, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
