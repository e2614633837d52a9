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

var (
	_ repository.ProductRepository     = (*ProductRepo)(nil)
	_ repository.ProductUnitRepository = (*ProductUnitRepo)(nil)
)

// ProductRepo lectura de productos y lotes.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de productos.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID. nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, name, base_unit_name, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.BaseUnitName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetBatch obtiene un lote por ID. nil si no existe.
func (r *ProductRepo) GetBatch(ctx context.Context, batchID string) (*entity.Batch, error) {
	query := `
		SELECT id, product_id, batch_number, expiry_date, created_at
		FROM batches WHERE id = $1`
	var b entity.Batch
	err := r.q.QueryRow(ctx, query, batchID).Scan(&b.ID, &b.ProductID, &b.BatchNumber, &b.ExpiryDate, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

// ProductUnitRepo persistencia de unidades de producto.
type ProductUnitRepo struct {
	q Querier
}

// NewProductUnitRepository construye el adaptador de unidades.
func NewProductUnitRepository(q Querier) *ProductUnitRepo {
	return &ProductUnitRepo{q: q}
}

// Create inserta la unidad con el producto bloqueado, de modo que las altas concurrentes
// del mismo producto se serializan. Si la nueva es la unidad por defecto desmarca la anterior;
// si el producto aún no tiene unidad por defecto, la nueva pasa a serlo.
func (r *ProductUnitRepo) Create(ctx context.Context, u *entity.ProductUnit) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin product unit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	if err := tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, u.ProductID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock product: %w", err)
	}

	if u.IsDefault {
		clearDefault := `UPDATE product_units SET is_default = false, updated_at = $2 WHERE product_id = $1 AND is_default`
		if _, err := tx.Exec(ctx, clearDefault, u.ProductID, u.UpdatedAt); err != nil {
			return fmt.Errorf("clear default unit: %w", err)
		}
	} else {
		var hasDefault bool
		check := `SELECT EXISTS (SELECT 1 FROM product_units WHERE product_id = $1 AND is_default)`
		if err := tx.QueryRow(ctx, check, u.ProductID).Scan(&hasDefault); err != nil {
			return fmt.Errorf("check default unit: %w", err)
		}
		u.IsDefault = !hasDefault
	}

	insert := `
		INSERT INTO product_units (id, product_id, name, conversion_to_base, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.Exec(ctx, insert, u.ID, u.ProductID, u.Name, u.ConversionToBase, u.IsDefault, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert product unit: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit product unit: %w", err)
	}
	return nil
}

// GetByID obtiene una unidad por ID. nil si no existe.
func (r *ProductUnitRepo) GetByID(ctx context.Context, id string) (*entity.ProductUnit, error) {
	query := `
		SELECT id, product_id, name, conversion_to_base, is_default, created_at, updated_at
		FROM product_units WHERE id = $1`
	u, err := scanUnit(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product unit: %w", err)
	}
	return u, nil
}

// ListByProduct lista las unidades del producto, la de defecto primero.
func (r *ProductUnitRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.ProductUnit, error) {
	query := `
		SELECT id, product_id, name, conversion_to_base, is_default, created_at, updated_at
		FROM product_units WHERE product_id = $1
		ORDER BY is_default DESC, conversion_to_base, name`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list product units: %w", err)
	}
	defer rows.Close()
	var out []*entity.ProductUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product unit: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUnit(row pgx.Row) (*entity.ProductUnit, error) {
	var u entity.ProductUnit
	if err := row.Scan(&u.ID, &u.ProductID, &u.Name, &u.ConversionToBase, &u.IsDefault, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
