package repository

import (
	"context"

	"orderdesk_backend/internal/orders/domain"

	"github.com/google/uuid"
)

// CreateOrderParams contains data for creating an order.
type CreateOrderParams struct {
	OrganizationID  uuid.UUID
	CustomerPhone   string
	CustomerName    string
	Status          domain.Status
	Lines           []domain.OrderLine
	OrderTotal      *float64
	ParseReason     string
	ShippingAddress string
}

// SetLinesParams contains data for replacing an order's lines.
type SetLinesParams struct {
	OrganizationID uuid.UUID
	ID             uuid.UUID
	Lines          []domain.OrderLine
	OrderTotal     *float64
	ClearTotal     bool
	Reason         string
}

// Repository defines order persistence operations.
type Repository interface {
	Create(ctx context.Context, params CreateOrderParams) (domain.Order, error)
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (domain.Order, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]domain.Order, error)
	ListByCustomer(ctx context.Context, organizationID uuid.UUID, phoneDigits string) ([]domain.Order, error)
	SetLines(ctx context.Context, params SetLinesParams) (domain.Order, error)
	SetStatus(ctx context.Context, organizationID, id uuid.UUID, status domain.Status) (domain.Order, error)
	SetShippingAddress(ctx context.Context, organizationID, id uuid.UUID, address string) (domain.Order, error)
	MergeInto(ctx context.Context, organizationID, sourceID, targetID uuid.UUID) (domain.Order, error)
	Split(ctx context.Context, organizationID, id uuid.UUID, kept, moved []domain.OrderLine) (domain.Order, domain.Order, error)
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
}
