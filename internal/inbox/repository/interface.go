package repository

import (
	"context"

	"github.com/google/uuid"

	"orderdesk_backend/internal/inbox/domain"
)

// CreateMessageParams holds the fields needed to record a message on a
// customer thread.
type CreateMessageParams struct {
	OrganizationID uuid.UUID
	CustomerPhone  string
	Direction      domain.Direction
	Text           string
}

// Repository persists inbox threads, per-customer interaction state,
// organization settings and the outbound delivery queue.
type Repository interface {
	CreateMessage(ctx context.Context, params CreateMessageParams) (*domain.Message, error)
	ListMessages(ctx context.Context, orgID uuid.UUID, phone string, limit int) ([]domain.Message, error)
	ListConversations(ctx context.Context, orgID uuid.UUID) ([]domain.Conversation, error)

	GetInteractionState(ctx context.Context, orgID uuid.UUID, phone string) (*domain.InteractionState, error)
	SetAutoReply(ctx context.Context, orgID uuid.UUID, phone string, enabled bool) error
	SetLastInquiry(ctx context.Context, orgID uuid.UUID, phone string, inquiry domain.Inquiry) error
	ResolveInquiry(ctx context.Context, orgID uuid.UUID, phone string) error

	GetOrgSettings(ctx context.Context, orgID uuid.UUID) (*domain.OrgSettings, error)
	SetOrgAutoReply(ctx context.Context, orgID uuid.UUID, enabled bool) error

	EnqueueOutbox(ctx context.Context, orgID uuid.UUID, toPhone, text string) (*domain.OutboxMessage, error)
	GetOutbox(ctx context.Context, id uuid.UUID) (*domain.OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, id uuid.UUID) error
	MarkOutboxFailed(ctx context.Context, id uuid.UUID, reason string) error
}
