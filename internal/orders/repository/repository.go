package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orderdesk_backend/internal/orders/domain"
	"orderdesk_backend/platform/apperr"
)

const orderNotFoundMessage = "order not found"

const orderColumns = `id, organization_id, customer_phone, customer_name, status, lines, order_total, parse_reason, last_edit_reason, shipping_address, created_at, updated_at`

// Repo implements the orders repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new orders repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a new order.
func (r *Repo) Create(ctx context.Context, params CreateOrderParams) (domain.Order, error) {
	status := params.Status
	if status == "" {
		status = domain.StatusPending
	}

	query := `
		INSERT INTO orders (organization_id, customer_phone, customer_name, status, lines, order_total, parse_reason, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + orderColumns

	row := r.pool.QueryRow(ctx, query,
		params.OrganizationID, params.CustomerPhone, params.CustomerName, status,
		domain.SanitizeLines(params.Lines), params.OrderTotal, params.ParseReason, params.ShippingAddress,
	)
	order, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// GetByID retrieves an order by ID.
func (r *Repo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND organization_id = $2`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return domain.Order{}, fmt.Errorf("get order by id: %w", err)
	}
	return order, nil
}

// ListByOrganization retrieves all orders for an organization, newest first.
func (r *Repo) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE organization_id = $1
		ORDER BY created_at DESC, id DESC`

	return r.queryOrders(ctx, query, organizationID)
}

// ListByCustomer retrieves a customer's orders, matched on digit-only
// phone equality, newest first.
func (r *Repo) ListByCustomer(ctx context.Context, organizationID uuid.UUID, phoneDigits string) ([]domain.Order, error) {
	if phoneDigits == "" {
		return []domain.Order{}, nil
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE organization_id = $1
		  AND regexp_replace(customer_phone, '\D', '', 'g') = $2
		ORDER BY created_at DESC, id DESC`

	return r.queryOrders(ctx, query, organizationID, phoneDigits)
}

// SetLines replaces an order's line items.
func (r *Repo) SetLines(ctx context.Context, params SetLinesParams) (domain.Order, error) {
	query := `
		UPDATE orders
		SET lines = $3,
			order_total = CASE WHEN $4::boolean THEN NULL ELSE COALESCE($5, order_total) END,
			last_edit_reason = $6,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + orderColumns

	row := r.pool.QueryRow(ctx, query,
		params.ID, params.OrganizationID, domain.SanitizeLines(params.Lines),
		params.ClearTotal, params.OrderTotal, params.Reason,
	)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return domain.Order{}, fmt.Errorf("set order lines: %w", err)
	}
	return order, nil
}

// SetStatus updates an order's status. Transition rules are enforced by
// the service; this is a plain write.
func (r *Repo) SetStatus(ctx context.Context, organizationID, id uuid.UUID, status domain.Status) (domain.Order, error) {
	query := `
		UPDATE orders
		SET status = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + orderColumns

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id, organizationID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return domain.Order{}, fmt.Errorf("set order status: %w", err)
	}
	return order, nil
}

// SetShippingAddress updates an order's shipping address.
func (r *Repo) SetShippingAddress(ctx context.Context, organizationID, id uuid.UUID, address string) (domain.Order, error) {
	query := `
		UPDATE orders
		SET shipping_address = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + orderColumns

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id, organizationID, address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return domain.Order{}, fmt.Errorf("set shipping address: %w", err)
	}
	return order, nil
}

// MergeInto appends the source order's lines to the target order and
// deletes the source, in one transaction. The target's stored total is
// cleared because it no longer covers the combined lines.
func (r *Repo) MergeInto(ctx context.Context, organizationID, sourceID, targetID uuid.UUID) (domain.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin merge: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	source, err := getForUpdate(ctx, tx, organizationID, sourceID)
	if err != nil {
		return domain.Order{}, err
	}
	target, err := getForUpdate(ctx, tx, organizationID, targetID)
	if err != nil {
		return domain.Order{}, err
	}

	combined := append(append([]domain.OrderLine{}, target.Lines...), source.Lines...)

	query := `
		UPDATE orders
		SET lines = $3, order_total = NULL, last_edit_reason = 'merged_append', updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + orderColumns

	merged, err := scanOrder(tx.QueryRow(ctx, query, target.ID, organizationID, combined))
	if err != nil {
		return domain.Order{}, fmt.Errorf("merge orders: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND organization_id = $2`, source.ID, organizationID); err != nil {
		return domain.Order{}, fmt.Errorf("delete merged order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, fmt.Errorf("commit merge: %w", err)
	}
	return merged, nil
}

// Split moves a subset of an order's lines to a new pending order for
// the same customer, in one transaction.
func (r *Repo) Split(ctx context.Context, organizationID, id uuid.UUID, kept, moved []domain.OrderLine) (domain.Order, domain.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, domain.Order{}, fmt.Errorf("begin split: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	original, err := getForUpdate(ctx, tx, organizationID, id)
	if err != nil {
		return domain.Order{}, domain.Order{}, err
	}

	updateQuery := `
		UPDATE orders
		SET lines = $3, order_total = NULL, last_edit_reason = 'split_lines', updated_at = now()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + orderColumns

	updated, err := scanOrder(tx.QueryRow(ctx, updateQuery, id, organizationID, domain.SanitizeLines(kept)))
	if err != nil {
		return domain.Order{}, domain.Order{}, fmt.Errorf("update split order: %w", err)
	}

	insertQuery := `
		INSERT INTO orders (organization_id, customer_phone, customer_name, status, lines, parse_reason, shipping_address)
		VALUES ($1, $2, $3, $4, $5, 'split_lines', $6)
		RETURNING ` + orderColumns

	created, err := scanOrder(tx.QueryRow(ctx, insertQuery,
		organizationID, original.CustomerPhone, original.CustomerName,
		domain.StatusPending, domain.SanitizeLines(moved), original.ShippingAddress,
	))
	if err != nil {
		return domain.Order{}, domain.Order{}, fmt.Errorf("insert split order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, domain.Order{}, fmt.Errorf("commit split: %w", err)
	}
	return updated, created, nil
}

// Delete removes an order.
func (r *Repo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(orderNotFoundMessage)
	}
	return nil
}

func (r *Repo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		items = append(items, order)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate orders: %w", rows.Err())
	}
	return items, nil
}

func getForUpdate(ctx context.Context, tx pgx.Tx, organizationID, id uuid.UUID) (domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND organization_id = $2
		FOR UPDATE`

	order, err := scanOrder(tx.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, apperr.NotFound(orderNotFoundMessage)
		}
		return domain.Order{}, fmt.Errorf("lock order: %w", err)
	}
	return order, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.OrganizationID, &order.CustomerPhone, &order.CustomerName,
		&order.Status, &order.Lines, &order.OrderTotal, &order.ParseReason,
		&order.LastEditReason, &order.ShippingAddress, &order.CreatedAt, &order.UpdatedAt,
	)
	return order, err
}
