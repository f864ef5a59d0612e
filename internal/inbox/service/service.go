// Package service implements inbox business logic: thread listing,
// inbound classification, operator replies and auto-reply state.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"orderdesk_backend/internal/catalog/match"
	"orderdesk_backend/internal/events"
	"orderdesk_backend/internal/inbox/domain"
	"orderdesk_backend/internal/inbox/parse"
	"orderdesk_backend/internal/inbox/ports"
	"orderdesk_backend/internal/inbox/repository"
	"orderdesk_backend/internal/inbox/transport"
	"orderdesk_backend/platform/apperr"
	"orderdesk_backend/platform/logger"
	"orderdesk_backend/platform/phone"
)

const defaultMessageLimit = 200

type Service struct {
	repo          repository.Repository
	catalog       ports.CatalogSource
	tasks         ports.TaskEnqueuer
	bus           events.Bus
	log           *logger.Logger
	followUpDelay time.Duration
}

func New(repo repository.Repository, catalog ports.CatalogSource, tasks ports.TaskEnqueuer, bus events.Bus, log *logger.Logger, followUpDelay time.Duration) *Service {
	return &Service{
		repo:          repo,
		catalog:       catalog,
		tasks:         tasks,
		bus:           bus,
		log:           log,
		followUpDelay: followUpDelay,
	}
}

// ListConversations returns all threads for the organization with
// their triage status, newest activity first.
func (s *Service) ListConversations(ctx context.Context, orgID uuid.UUID) (transport.ConversationListResponse, error) {
	conversations, err := s.repo.ListConversations(ctx, orgID)
	if err != nil {
		return transport.ConversationListResponse{}, err
	}

	items := make([]transport.ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		state, err := s.repo.GetInteractionState(ctx, orgID, conv.CustomerPhone)
		if err != nil {
			return transport.ConversationListResponse{}, err
		}
		items = append(items, transport.ConversationResponse{
			CustomerPhone: conv.CustomerPhone,
			CustomerName:  conv.CustomerName,
			LastText:      conv.LastText,
			LastDirection: string(conv.LastDirection),
			LastAt:        conv.LastAt.Format(time.RFC3339),
			Status:        string(domain.StatusOf(conv, *state)),
		})
	}
	return transport.ConversationListResponse{Conversations: items, Total: len(items)}, nil
}

func (s *Service) ListMessages(ctx context.Context, orgID uuid.UUID, rawPhone string, limit int) (transport.MessageListResponse, error) {
	digits := phone.Digits(rawPhone)
	if digits == "" {
		return transport.MessageListResponse{}, apperr.Validation("phone is required")
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	messages, err := s.repo.ListMessages(ctx, orgID, digits, limit)
	if err != nil {
		return transport.MessageListResponse{}, err
	}

	items := make([]transport.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		items = append(items, toMessageResponse(msg))
	}
	return transport.MessageListResponse{Messages: items, Total: len(items)}, nil
}

// Send records an operator reply, queues it for WhatsApp delivery, and
// applies the manual-reply side effects: the customer's open inquiry is
// resolved and their auto-reply is switched off so the bot does not
// talk over the operator.
func (s *Service) Send(ctx context.Context, orgID uuid.UUID, req transport.SendMessageRequest) (transport.MessageResponse, error) {
	digits := phone.Digits(req.Phone)
	if digits == "" {
		return transport.MessageResponse{}, apperr.Validation("phone is required")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return transport.MessageResponse{}, apperr.Validation("message text is required")
	}

	msg, err := s.repo.CreateMessage(ctx, repository.CreateMessageParams{
		OrganizationID: orgID,
		CustomerPhone:  digits,
		Direction:      domain.DirectionOut,
		Text:           text,
	})
	if err != nil {
		return transport.MessageResponse{}, err
	}

	outbox, err := s.repo.EnqueueOutbox(ctx, orgID, digits, text)
	if err != nil {
		return transport.MessageResponse{}, fmt.Errorf("queue outbound message: %w", err)
	}
	if s.tasks != nil {
		if err := s.tasks.EnqueueOutboxDispatch(ctx, outbox.ID, orgID); err != nil {
			s.log.Error("outbox dispatch enqueue failed",
				"outbox_id", outbox.ID.String(), "error", err.Error())
		}
	}

	state, err := s.repo.GetInteractionState(ctx, orgID, digits)
	if err != nil {
		return transport.MessageResponse{}, err
	}
	if state.LastInquiry != nil && state.LastInquiry.Status == domain.InquiryUnresolved {
		if err := s.repo.ResolveInquiry(ctx, orgID, digits); err != nil {
			return transport.MessageResponse{}, err
		}
		s.bus.Publish(ctx, events.InquiryResolved{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: orgID,
			CustomerPhone:  digits,
		})
	}
	if state.AutoReplyEnabled {
		if err := s.repo.SetAutoReply(ctx, orgID, digits, false); err != nil {
			return transport.MessageResponse{}, err
		}
		s.bus.Publish(ctx, events.AutoReplyChanged{
			BaseEvent:      events.NewBaseEvent(),
			OrganizationID: orgID,
			CustomerPhone:  digits,
			Enabled:        false,
		})
	}

	return toMessageResponse(*msg), nil
}

// RecordInbound stores an inbound message and classifies it. A message
// that carries a kind label from the upstream parser, or that trips the
// needs-help heuristic, becomes the customer's latest unresolved
// inquiry and schedules a follow-up reminder.
func (s *Service) RecordInbound(ctx context.Context, orgID uuid.UUID, req transport.InboundMessageRequest) (transport.MessageResponse, error) {
	digits := phone.Digits(req.Phone)
	if digits == "" {
		return transport.MessageResponse{}, apperr.Validation("phone is required")
	}

	msg, err := s.repo.CreateMessage(ctx, repository.CreateMessageParams{
		OrganizationID: orgID,
		CustomerPhone:  digits,
		Direction:      domain.DirectionIn,
		Text:           req.Text,
	})
	if err != nil {
		return transport.MessageResponse{}, err
	}

	s.bus.Publish(ctx, events.InboundMessageReceived{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: orgID,
		CustomerPhone:  digits,
		Text:           req.Text,
		ReceivedAt:     msg.CreatedAt,
	})

	kind, isInquiry := s.classify(req.Kind, req.Text)
	if !isInquiry {
		return toMessageResponse(*msg), nil
	}

	inquiry := domain.Inquiry{
		Text:      req.Text,
		Kind:      kind,
		Canonical: s.linkedProduct(ctx, orgID, req.Text),
		Status:    domain.InquiryUnresolved,
		AskedAt:   msg.CreatedAt,
	}
	if err := s.repo.SetLastInquiry(ctx, orgID, digits, inquiry); err != nil {
		return transport.MessageResponse{}, err
	}

	s.bus.Publish(ctx, events.InquiryDetected{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: orgID,
		CustomerPhone:  digits,
		Kind:           string(kind),
		Canonical:      inquiry.Canonical,
		Text:           req.Text,
	})

	if s.tasks != nil {
		if err := s.tasks.EnqueueInquiryFollowUp(ctx, orgID, digits, s.followUpDelay); err != nil {
			s.log.Error("inquiry follow-up enqueue failed",
				"customer_phone", digits, "error", err.Error())
		}
	}

	return toMessageResponse(*msg), nil
}

func (s *Service) CustomerAutoReply(ctx context.Context, orgID uuid.UUID, rawPhone string) (transport.AutoReplyResponse, error) {
	digits := phone.Digits(rawPhone)
	if digits == "" {
		return transport.AutoReplyResponse{}, apperr.Validation("phone is required")
	}
	state, err := s.repo.GetInteractionState(ctx, orgID, digits)
	if err != nil {
		return transport.AutoReplyResponse{}, err
	}
	return toAutoReplyResponse(*state), nil
}

func (s *Service) SetCustomerAutoReply(ctx context.Context, orgID uuid.UUID, rawPhone string, enabled bool) (transport.AutoReplyResponse, error) {
	digits := phone.Digits(rawPhone)
	if digits == "" {
		return transport.AutoReplyResponse{}, apperr.Validation("phone is required")
	}
	if err := s.repo.SetAutoReply(ctx, orgID, digits, enabled); err != nil {
		return transport.AutoReplyResponse{}, err
	}
	s.bus.Publish(ctx, events.AutoReplyChanged{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: orgID,
		CustomerPhone:  digits,
		Enabled:        enabled,
	})

	state, err := s.repo.GetInteractionState(ctx, orgID, digits)
	if err != nil {
		return transport.AutoReplyResponse{}, err
	}
	return toAutoReplyResponse(*state), nil
}

func (s *Service) OrgSettings(ctx context.Context, orgID uuid.UUID) (transport.OrgSettingsResponse, error) {
	settings, err := s.repo.GetOrgSettings(ctx, orgID)
	if err != nil {
		return transport.OrgSettingsResponse{}, err
	}
	return transport.OrgSettingsResponse{
		AutoReplyEnabled: settings.AutoReplyEnabled,
		IngestMode:       string(settings.IngestMode),
	}, nil
}

func (s *Service) SetOrgAutoReply(ctx context.Context, orgID uuid.UUID, enabled bool) (transport.OrgSettingsResponse, error) {
	if err := s.repo.SetOrgAutoReply(ctx, orgID, enabled); err != nil {
		return transport.OrgSettingsResponse{}, err
	}
	s.bus.Publish(ctx, events.AutoReplyChanged{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: orgID,
		Enabled:        enabled,
	})
	return s.OrgSettings(ctx, orgID)
}

// MarkInquiryResolved closes a customer's open inquiry without sending
// a message, for cases handled outside the chat.
func (s *Service) MarkInquiryResolved(ctx context.Context, orgID uuid.UUID, rawPhone string) error {
	digits := phone.Digits(rawPhone)
	if digits == "" {
		return apperr.Validation("phone is required")
	}
	state, err := s.repo.GetInteractionState(ctx, orgID, digits)
	if err != nil {
		return err
	}
	if state.LastInquiry == nil || state.LastInquiry.Status != domain.InquiryUnresolved {
		return apperr.Conflict("no unresolved inquiry for this customer")
	}
	if err := s.repo.ResolveInquiry(ctx, orgID, digits); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.InquiryResolved{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: orgID,
		CustomerPhone:  digits,
	})
	return nil
}

func (s *Service) classify(kindLabel, text string) (domain.InquiryKind, bool) {
	label := strings.TrimSpace(kindLabel)
	if label != "" {
		return parse.Kind(label), true
	}
	if parse.NeedsHelp(text) {
		return domain.KindOther, true
	}
	return "", false
}

// linkedProduct finds the first active product whose canonical name
// appears in the inquiry text. Catalog failures degrade to no link.
func (s *Service) linkedProduct(ctx context.Context, orgID uuid.UUID, text string) string {
	if s.catalog == nil {
		return ""
	}
	products, err := s.catalog.Products(ctx, orgID)
	if err != nil {
		s.log.Warn("catalog unavailable for inquiry linking", "error", err.Error())
		return ""
	}
	normalized := match.Normalize(text)
	for i := range products {
		canonical := match.Normalize(products[i].Canonical)
		if canonical != "" && strings.Contains(normalized, canonical) {
			return products[i].Canonical
		}
	}
	return ""
}

func toMessageResponse(m domain.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:            m.ID,
		CustomerPhone: m.CustomerPhone,
		Direction:     string(m.Direction),
		Text:          m.Text,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
}

func toAutoReplyResponse(state domain.InteractionState) transport.AutoReplyResponse {
	resp := transport.AutoReplyResponse{
		CustomerPhone: state.CustomerPhone,
		Enabled:       state.AutoReplyEnabled,
	}
	if state.LastInquiry != nil {
		resp.Inquiry = &transport.InquiryResponse{
			Text:      state.LastInquiry.Text,
			Kind:      string(state.LastInquiry.Kind),
			Canonical: state.LastInquiry.Canonical,
			Status:    string(state.LastInquiry.Status),
			AskedAt:   state.LastInquiry.AskedAt.Format(time.RFC3339),
		}
	}
	return resp
}
