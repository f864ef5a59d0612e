// Package console holds the operator console state: order and inbox
// views kept fresh by polling, with optimistic updates that roll back
// when the backend rejects them.
package console

import (
	"context"

	"github.com/google/uuid"

	catalogdomain "orderdesk_backend/internal/catalog/domain"
	inboxdomain "orderdesk_backend/internal/inbox/domain"
	ordersdomain "orderdesk_backend/internal/orders/domain"
)

// Backend is the API surface the console drives. In production this is
// an HTTP client for the orderdesk API; tests substitute a fake.
type Backend interface {
	ListOrders(ctx context.Context, orgID uuid.UUID) ([]ordersdomain.Order, error)
	ListProducts(ctx context.Context, orgID uuid.UUID) ([]catalogdomain.Product, error)
	SetOrderLines(ctx context.Context, orgID, orderID uuid.UUID, lines []ordersdomain.OrderLine, reason string) (ordersdomain.Order, error)
	SetOrderStatus(ctx context.Context, orgID, orderID uuid.UUID, status ordersdomain.Status) (ordersdomain.Order, error)
	MergeOrder(ctx context.Context, orgID, orderID uuid.UUID) (ordersdomain.Order, error)

	ListConversations(ctx context.Context, orgID uuid.UUID) ([]inboxdomain.Conversation, error)
	ListMessages(ctx context.Context, orgID uuid.UUID, phone string, limit int) ([]inboxdomain.Message, error)
	SendMessage(ctx context.Context, orgID uuid.UUID, phone, text string) (inboxdomain.Message, error)
	CustomerAutoReply(ctx context.Context, orgID uuid.UUID, phone string) (inboxdomain.InteractionState, error)
	SetCustomerAutoReply(ctx context.Context, orgID uuid.UUID, phone string, enabled bool) error
	SetOrgAutoReply(ctx context.Context, orgID uuid.UUID, enabled bool) error
	ResolveInquiry(ctx context.Context, orgID uuid.UUID, phone string) error
}
