package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/clinica-stock-api/internal/domain"
	"github.com/jhoicas/clinica-stock-api/internal/domain/entity"
	"github.com/jhoicas/clinica-stock-api/internal/domain/repository"
)

var _ repository.WithdrawalRepository = (*WithdrawalRepo)(nil)

// WithdrawalRepo persistencia de solicitudes de retiro (cabecera + filas).
type WithdrawalRepo struct {
	q Querier
}

// NewWithdrawalRepository construye el adaptador. Create debe correr dentro de una tx para ser atómico.
func NewWithdrawalRepository(q Querier) *WithdrawalRepo {
	return &WithdrawalRepo{q: q}
}

// Create inserta la cabecera y todas las filas.
func (r *WithdrawalRepo) Create(ctx context.Context, w *entity.WithdrawalRequest) error {
	header := `
		INSERT INTO withdrawal_requests (id, kind, status, requested_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.q.Exec(ctx, header, w.ID, w.Kind, w.Status, w.RequestedBy, w.Notes, w.CreatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert withdrawal: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("insert withdrawal: %w", err)
	}

	item := `
		INSERT INTO withdrawal_items (id, withdrawal_id, position, product_id, batch_id, unit_id,
		                              from_location_id, to_location_id,
		                              requested_quantity, conversion_to_base, quantity_base)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, NULLIF($8, '')::uuid, $9, $10, $11)`
	batch := &pgx.Batch{}
	for i, it := range w.Items {
		batch.Queue(item,
			it.ID, w.ID, i, it.ProductID, it.BatchID, it.UnitID,
			it.FromLocationID, it.ToLocationID,
			it.RequestedQuantity, it.ConversionToBase, it.QuantityBase,
		)
	}
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert withdrawal items: %w", err)
	}
	return nil
}

// GetByID devuelve la solicitud con sus filas o nil si no existe.
func (r *WithdrawalRepo) GetByID(ctx context.Context, id string) (*entity.WithdrawalRequest, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate igual que GetByID pero bloquea la cabecera (SELECT FOR UPDATE).
func (r *WithdrawalRepo) GetForUpdate(ctx context.Context, id string) (*entity.WithdrawalRequest, error) {
	return r.get(ctx, id, true)
}

func (r *WithdrawalRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.WithdrawalRequest, error) {
	query := `
		SELECT id, kind, status, requested_by, COALESCE(reviewed_by::text, ''), notes, created_at, reviewed_at
		FROM withdrawal_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var w entity.WithdrawalRequest
	err := r.q.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.Kind, &w.Status, &w.RequestedBy, &w.ReviewedBy, &w.Notes, &w.CreatedAt, &w.ReviewedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}

	items := `
		SELECT id, withdrawal_id, product_id, batch_id, unit_id,
		       COALESCE(from_location_id::text, ''), COALESCE(to_location_id::text, ''),
		       requested_quantity, conversion_to_base, quantity_base
		FROM withdrawal_items WHERE withdrawal_id = $1
		ORDER BY position`
	rows, err := r.q.Query(ctx, items, id)
	if err != nil {
		return nil, fmt.Errorf("get withdrawal items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.WithdrawalItem
		if err := rows.Scan(
			&it.ID, &it.WithdrawalID, &it.ProductID, &it.BatchID, &it.UnitID,
			&it.FromLocationID, &it.ToLocationID,
			&it.RequestedQuantity, &it.ConversionToBase, &it.QuantityBase,
		); err != nil {
			return nil, fmt.Errorf("scan withdrawal item: %w", err)
		}
		w.Items = append(w.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &w, nil
}

// UpdateReview guarda el resultado de la revisión.
func (r *WithdrawalRepo) UpdateReview(ctx context.Context, w *entity.WithdrawalRequest) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $2, reviewed_by = NULLIF($3, '')::uuid, reviewed_at = $4
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, w.ID, w.Status, w.ReviewedBy, w.ReviewedAt)
	if err != nil {
		return fmt.Errorf("update withdrawal review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
