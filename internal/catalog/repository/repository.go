package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orderdesk_backend/internal/catalog/domain"
	"orderdesk_backend/platform/apperr"
)

const productNotFoundMessage = "product not found"

const productColumns = `id, organization_id, canonical, variant, brand, base_unit, price_per_unit, is_active, created_at, updated_at`

// Repo implements the catalog repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a new catalog product.
func (r *Repo) Create(ctx context.Context, params CreateProductParams) (domain.Product, error) {
	query := `
		INSERT INTO catalog_products (organization_id, canonical, variant, brand, base_unit, price_per_unit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	row := r.pool.QueryRow(ctx, query,
		params.OrganizationID, params.Canonical, params.Variant,
		params.Brand, params.BaseUnit, params.PricePerUnit,
	)
	product, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return product, nil
}

// Update patches a catalog product. Nil params keep the current value.
func (r *Repo) Update(ctx context.Context, params UpdateProductParams) (domain.Product, error) {
	query := `
		UPDATE catalog_products
		SET canonical = COALESCE($3, canonical),
			variant = COALESCE($4, variant),
			brand = COALESCE($5, brand),
			base_unit = COALESCE($6, base_unit),
			price_per_unit = COALESCE($7, price_per_unit),
			is_active = COALESCE($8, is_active),
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + productColumns

	row := r.pool.QueryRow(ctx, query,
		params.ID, params.OrganizationID, params.Canonical, params.Variant,
		params.Brand, params.BaseUnit, params.PricePerUnit, params.IsActive,
	)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// Delete removes a catalog product.
func (r *Repo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	query := `DELETE FROM catalog_products WHERE id = $1 AND organization_id = $2`
	result, err := r.pool.Exec(ctx, query, id, organizationID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(productNotFoundMessage)
	}
	return nil
}

// GetByID retrieves a catalog product by ID.
func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM catalog_products
		WHERE id = $1 AND organization_id = $2`

	product, err := scanProduct(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, apperr.NotFound(productNotFoundMessage)
		}
		return domain.Product{}, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// List retrieves catalog products with filters and pagination.
func (r *Repo) List(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error) {
	whereClauses := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}
	argIdx := 2

	if !params.IncludeRetired {
		whereClauses = append(whereClauses, "is_active = TRUE")
	}
	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(canonical ILIKE $%d OR variant ILIKE $%d OR brand ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM catalog_products WHERE %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM catalog_products
		WHERE %s
		ORDER BY canonical ASC, variant ASC, created_at ASC
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, product)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", rows.Err())
	}

	return items, total, nil
}

// ListActive retrieves all active products for an organization in a
// stable order. The matcher depends on this ordering being fixed.
func (r *Repo) ListActive(ctx context.Context, organizationID uuid.UUID) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM catalog_products
		WHERE organization_id = $1 AND is_active = TRUE
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan active product: %w", err)
		}
		items = append(items, product)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate active products: %w", rows.Err())
	}

	return items, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var product domain.Product
	err := row.Scan(
		&product.ID, &product.OrganizationID, &product.Canonical, &product.Variant,
		&product.Brand, &product.BaseUnit, &product.PricePerUnit, &product.IsActive,
		&product.CreatedAt, &product.UpdatedAt,
	)
	return product, err
}
