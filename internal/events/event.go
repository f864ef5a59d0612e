// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"orderdesk_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Orders Domain Events
// =============================================================================

// OrderStatusChanged is published after an order status transition commits.
type OrderStatusChanged struct {
	BaseEvent
	OrderID        uuid.UUID `json:"orderId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	FromStatus     string    `json:"fromStatus"`
	ToStatus       string    `json:"toStatus"`
	PricingFrozen  bool      `json:"pricingFrozen"`
}

func (e OrderStatusChanged) EventName() string { return "orders.status.changed" }

// OrderLinesUpdated is published when an order's line items are replaced.
type OrderLinesUpdated struct {
	BaseEvent
	OrderID        uuid.UUID `json:"orderId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Reason         string    `json:"reason"`
	LineCount      int       `json:"lineCount"`
}

func (e OrderLinesUpdated) EventName() string { return "orders.lines.updated" }

// OrdersMerged is published when one order is merged into another.
type OrdersMerged struct {
	BaseEvent
	SurvivorID     uuid.UUID `json:"survivorId"`
	MergedID       uuid.UUID `json:"mergedId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	CustomerPhone  string    `json:"customerPhone"`
}

func (e OrdersMerged) EventName() string { return "orders.merged" }

// =============================================================================
// Inbox Domain Events
// =============================================================================

// InboundMessageReceived is published for every inbound WhatsApp message.
type InboundMessageReceived struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	CustomerPhone  string    `json:"customerPhone"`
	Text           string    `json:"text"`
	ReceivedAt     time.Time `json:"receivedAt"`
}

func (e InboundMessageReceived) EventName() string { return "inbox.message.received" }

// InquiryDetected is published when an inbound message is classified
// as a customer inquiry that needs an operator response.
type InquiryDetected struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	CustomerPhone  string    `json:"customerPhone"`
	Kind           string    `json:"kind"`
	Canonical      string    `json:"canonical,omitempty"`
	Text           string    `json:"text"`
}

func (e InquiryDetected) EventName() string { return "inbox.inquiry.detected" }

// InquiryResolved is published when an operator reply resolves an open inquiry.
type InquiryResolved struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	CustomerPhone  string    `json:"customerPhone"`
}

func (e InquiryResolved) EventName() string { return "inbox.inquiry.resolved" }

// AutoReplyChanged is published when the auto-reply toggle flips,
// either for a single customer or for the whole organization.
type AutoReplyChanged struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
	CustomerPhone  string    `json:"customerPhone,omitempty"` // empty for org-wide changes
	Enabled        bool      `json:"enabled"`
}

func (e AutoReplyChanged) EventName() string { return "inbox.autoreply.changed" }
