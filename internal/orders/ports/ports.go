// Package ports defines the interfaces the orders module needs from
// other modules. Adapters in the composition root satisfy them,
// keeping orders free of direct cross-module dependencies.
package ports

import (
	"context"

	catdomain "orderdesk_backend/internal/catalog/domain"

	"github.com/google/uuid"
)

// CatalogSource provides the active product snapshot used for matching
// and display pricing. Implemented by the catalog index.
type CatalogSource interface {
	Products(ctx context.Context, organizationID uuid.UUID) ([]catdomain.Product, error)
}
