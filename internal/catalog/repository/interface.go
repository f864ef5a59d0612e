package repository

import (
	"context"

	"orderdesk_backend/internal/catalog/domain"

	"github.com/google/uuid"
)

// CreateProductParams contains data for creating a product.
type CreateProductParams struct {
	OrganizationID uuid.UUID
	Canonical      string
	Variant        string
	Brand          string
	BaseUnit       string
	PricePerUnit   *float64
}

// UpdateProductParams contains data for updating a product.
// Nil fields are left unchanged.
type UpdateProductParams struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Canonical      *string
	Variant        *string
	Brand          *string
	BaseUnit       *string
	PricePerUnit   *float64
	IsActive       *bool
}

// ListProductsParams defines filters for listing products.
type ListProductsParams struct {
	OrganizationID uuid.UUID
	Search         string
	IncludeRetired bool
	Offset         int
	Limit          int
}

// Repository defines catalog persistence operations.
type Repository interface {
	Create(ctx context.Context, params CreateProductParams) (domain.Product, error)
	Update(ctx context.Context, params UpdateProductParams) (domain.Product, error)
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Product, error)
	List(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error)
	ListActive(ctx context.Context, organizationID uuid.UUID) ([]domain.Product, error)
}
