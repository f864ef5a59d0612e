// Package ports defines the interfaces the inbox module needs from
// other modules, keeping it decoupled from their implementations.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	catalogdomain "orderdesk_backend/internal/catalog/domain"
)

// CatalogSource provides the active product list used to link
// inquiries to catalog items.
type CatalogSource interface {
	Products(ctx context.Context, orgID uuid.UUID) ([]catalogdomain.Product, error)
}

// TaskEnqueuer schedules background work for the inbox: outbound
// message delivery and inquiry follow-up reminders.
type TaskEnqueuer interface {
	EnqueueOutboxDispatch(ctx context.Context, outboxID, orgID uuid.UUID) error
	EnqueueInquiryFollowUp(ctx context.Context, orgID uuid.UUID, phone string, delay time.Duration) error
}
