package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orderdesk_backend/internal/inbox/domain"
	"orderdesk_backend/platform/apperr"
)

const messageColumns = `id, organization_id, customer_phone, direction, text, created_at`

const outboxColumns = `id, organization_id, to_phone, text, status, attempts, last_error, created_at, sent_at`

// Repo is the PostgreSQL-backed inbox repository.
type Repo struct {
	db *pgxpool.Pool
}

var _ Repository = (*Repo)(nil)

func New(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateMessage(ctx context.Context, params CreateMessageParams) (*domain.Message, error) {
	query := `
		INSERT INTO inbox_messages (organization_id, customer_phone, direction, text)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns

	row := r.db.QueryRow(ctx, query,
		params.OrganizationID, params.CustomerPhone, params.Direction, params.Text)

	msg, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

func (r *Repo) ListMessages(ctx context.Context, orgID uuid.UUID, phone string, limit int) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM inbox_messages
		WHERE organization_id = $1 AND customer_phone = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, orgID, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

// ListConversations returns one row per customer thread, newest thread
// first. The customer name is taken from that customer's most recent
// order, when one exists.
func (r *Repo) ListConversations(ctx context.Context, orgID uuid.UUID) ([]domain.Conversation, error) {
	query := `
		SELECT last.organization_id, last.customer_phone,
		       COALESCE(o.customer_name, ''), last.text, last.direction, last.created_at
		FROM (
			SELECT DISTINCT ON (customer_phone)
			       organization_id, customer_phone, direction, text, created_at
			FROM inbox_messages
			WHERE organization_id = $1
			ORDER BY customer_phone, created_at DESC
		) last
		LEFT JOIN LATERAL (
			SELECT customer_name
			FROM orders
			WHERE organization_id = last.organization_id
			  AND regexp_replace(customer_phone, '\D', '', 'g') = last.customer_phone
			ORDER BY created_at DESC
			LIMIT 1
		) o ON true
		ORDER BY last.created_at DESC`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.OrganizationID, &c.CustomerPhone, &c.CustomerName,
			&c.LastText, &c.LastDirection, &c.LastAt); err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// GetInteractionState returns the per-customer automation state. A
// customer with no stored row gets the organization default.
func (r *Repo) GetInteractionState(ctx context.Context, orgID uuid.UUID, phone string) (*domain.InteractionState, error) {
	query := `
		SELECT organization_id, customer_phone, auto_reply_enabled,
		       inquiry_text, inquiry_kind, inquiry_canonical, inquiry_status, inquiry_asked_at
		FROM inbox_interaction_state
		WHERE organization_id = $1 AND customer_phone = $2`

	var (
		state     domain.InteractionState
		text      *string
		kind      *string
		canonical *string
		status    *string
		askedAt   *time.Time
	)
	err := r.db.QueryRow(ctx, query, orgID, phone).Scan(
		&state.OrganizationID, &state.CustomerPhone, &state.AutoReplyEnabled,
		&text, &kind, &canonical, &status, &askedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		settings, err := r.GetOrgSettings(ctx, orgID)
		if err != nil {
			return nil, err
		}
		return &domain.InteractionState{
			OrganizationID:   orgID,
			CustomerPhone:    phone,
			AutoReplyEnabled: settings.AutoReplyEnabled,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get interaction state: %w", err)
	}

	if text != nil {
		state.LastInquiry = &domain.Inquiry{
			Text:      *text,
			Kind:      domain.InquiryKind(deref(kind)),
			Canonical: deref(canonical),
			Status:    domain.InquiryStatus(deref(status)),
		}
		if askedAt != nil {
			state.LastInquiry.AskedAt = *askedAt
		}
	}
	return &state, nil
}

func (r *Repo) SetAutoReply(ctx context.Context, orgID uuid.UUID, phone string, enabled bool) error {
	query := `
		INSERT INTO inbox_interaction_state (organization_id, customer_phone, auto_reply_enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, customer_phone)
		DO UPDATE SET auto_reply_enabled = $3, updated_at = now()`

	if _, err := r.db.Exec(ctx, query, orgID, phone, enabled); err != nil {
		return fmt.Errorf("set auto reply: %w", err)
	}
	return nil
}

func (r *Repo) SetLastInquiry(ctx context.Context, orgID uuid.UUID, phone string, inquiry domain.Inquiry) error {
	query := `
		INSERT INTO inbox_interaction_state
			(organization_id, customer_phone, auto_reply_enabled,
			 inquiry_text, inquiry_kind, inquiry_canonical, inquiry_status, inquiry_asked_at)
		VALUES ($1, $2, true, $3, $4, $5, $6, $7)
		ON CONFLICT (organization_id, customer_phone)
		DO UPDATE SET
			inquiry_text = $3, inquiry_kind = $4, inquiry_canonical = $5,
			inquiry_status = $6, inquiry_asked_at = $7, updated_at = now()`

	_, err := r.db.Exec(ctx, query, orgID, phone,
		inquiry.Text, inquiry.Kind, inquiry.Canonical, inquiry.Status, inquiry.AskedAt)
	if err != nil {
		return fmt.Errorf("set last inquiry: %w", err)
	}
	return nil
}

func (r *Repo) ResolveInquiry(ctx context.Context, orgID uuid.UUID, phone string) error {
	query := `
		UPDATE inbox_interaction_state
		SET inquiry_status = $3, updated_at = now()
		WHERE organization_id = $1 AND customer_phone = $2 AND inquiry_text IS NOT NULL`

	if _, err := r.db.Exec(ctx, query, orgID, phone, domain.InquiryResolved); err != nil {
		return fmt.Errorf("resolve inquiry: %w", err)
	}
	return nil
}

// GetOrgSettings returns the organization's inbox settings, falling
// back to defaults when no row exists yet.
func (r *Repo) GetOrgSettings(ctx context.Context, orgID uuid.UUID) (*domain.OrgSettings, error) {
	query := `
		SELECT organization_id, auto_reply_enabled, ingest_mode
		FROM inbox_org_settings
		WHERE organization_id = $1`

	var settings domain.OrgSettings
	var mode string
	err := r.db.QueryRow(ctx, query, orgID).Scan(
		&settings.OrganizationID, &settings.AutoReplyEnabled, &mode)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.OrgSettings{
			OrganizationID:   orgID,
			AutoReplyEnabled: true,
			IngestMode:       domain.IngestLocalBridge,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get org settings: %w", err)
	}
	settings.IngestMode = domain.ParseIngestMode(mode)
	return &settings, nil
}

func (r *Repo) SetOrgAutoReply(ctx context.Context, orgID uuid.UUID, enabled bool) error {
	query := `
		INSERT INTO inbox_org_settings (organization_id, auto_reply_enabled)
		VALUES ($1, $2)
		ON CONFLICT (organization_id)
		DO UPDATE SET auto_reply_enabled = $2, updated_at = now()`

	if _, err := r.db.Exec(ctx, query, orgID, enabled); err != nil {
		return fmt.Errorf("set org auto reply: %w", err)
	}
	return nil
}

func (r *Repo) EnqueueOutbox(ctx context.Context, orgID uuid.UUID, toPhone, text string) (*domain.OutboxMessage, error) {
	query := `
		INSERT INTO whatsapp_outbox (organization_id, to_phone, text, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + outboxColumns

	row := r.db.QueryRow(ctx, query, orgID, toPhone, text, domain.OutboxPending)
	msg, err := scanOutbox(row)
	if err != nil {
		return nil, fmt.Errorf("enqueue outbox: %w", err)
	}
	return msg, nil
}

func (r *Repo) GetOutbox(ctx context.Context, id uuid.UUID) (*domain.OutboxMessage, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM whatsapp_outbox
		WHERE id = $1`

	msg, err := scanOutbox(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("outbox message not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get outbox: %w", err)
	}
	return msg, nil
}

func (r *Repo) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE whatsapp_outbox
		SET status = $2, attempts = attempts + 1, sent_at = now()
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, domain.OutboxSent); err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

func (r *Repo) MarkOutboxFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE whatsapp_outbox
		SET status = $2, attempts = attempts + 1, last_error = $3
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, domain.OutboxFailed, reason); err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	if err := row.Scan(&m.ID, &m.OrganizationID, &m.CustomerPhone,
		&m.Direction, &m.Text, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func scanOutbox(row pgx.Row) (*domain.OutboxMessage, error) {
	var (
		m         domain.OutboxMessage
		lastError *string
	)
	if err := row.Scan(&m.ID, &m.OrganizationID, &m.ToPhone, &m.Text,
		&m.Status, &m.Attempts, &lastError, &m.CreatedAt, &m.SentAt); err != nil {
		return nil, err
	}
	m.LastError = deref(lastError)
	return &m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
