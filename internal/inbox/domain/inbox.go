// Package domain contains shared inbox types used across modules.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Direction of a WhatsApp message relative to the merchant.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Message is a single WhatsApp message on a customer thread.
type Message struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	CustomerPhone  string // digit-only key
	Direction      Direction
	Text           string
	CreatedAt      time.Time
}

// Key identifies a message for client-side deduplication. Two polls
// returning the same message must collapse to one entry.
func (m Message) Key() string {
	return fmt.Sprintf("%s|%s|%d", m.Direction, m.Text, m.CreatedAt.UnixMilli())
}

// Conversation summarizes a customer thread for the inbox list.
type Conversation struct {
	OrganizationID uuid.UUID
	CustomerPhone  string
	CustomerName   string
	LastText       string
	LastDirection  Direction
	LastAt         time.Time
}

// InquiryKind classifies what a customer inquiry is about.
type InquiryKind string

const (
	KindPrice        InquiryKind = "price"
	KindAvailability InquiryKind = "availability"
	KindMenu         InquiryKind = "menu"
	KindOrderStatus  InquiryKind = "order_status"
	KindDelivery     InquiryKind = "delivery"
	KindComplaint    InquiryKind = "complaint"
	KindOther        InquiryKind = "other"
)

// Valid reports whether k is a known inquiry kind.
func (k InquiryKind) Valid() bool {
	switch k {
	case KindPrice, KindAvailability, KindMenu, KindOrderStatus, KindDelivery, KindComplaint, KindOther:
		return true
	}
	return false
}

// InquiryStatus is the resolution state of a customer inquiry.
type InquiryStatus string

const (
	InquiryUnresolved InquiryStatus = "unresolved"
	InquiryResolved   InquiryStatus = "resolved"
)

// Inquiry is the latest question a customer asked that may still need
// an operator response.
type Inquiry struct {
	Text      string
	Kind      InquiryKind
	Canonical string // matched product name, when the inquiry names one
	Status    InquiryStatus
	AskedAt   time.Time
}

// InteractionState is the per-customer automation state.
type InteractionState struct {
	OrganizationID   uuid.UUID
	CustomerPhone    string
	AutoReplyEnabled bool
	LastInquiry      *Inquiry
}

// IngestMode says how an organization's WhatsApp traffic reaches us:
// through the Cloud API (waba) or through an operator-driven web bridge
// that polls and relays messages locally.
type IngestMode string

const (
	IngestWABA        IngestMode = "waba"
	IngestLocalBridge IngestMode = "local_bridge"
)

// ParseIngestMode maps a stored mode string to a known mode, defaulting
// to the local bridge for anything unrecognized.
func ParseIngestMode(s string) IngestMode {
	if IngestMode(s) == IngestWABA {
		return IngestWABA
	}
	return IngestLocalBridge
}

// OrgSettings holds organization-wide inbox settings.
type OrgSettings struct {
	OrganizationID   uuid.UUID
	AutoReplyEnabled bool
	IngestMode       IngestMode
}

// OutboxStatus tracks delivery of a queued outbound message.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// OutboxMessage is an outbound WhatsApp message queued for delivery by
// the scheduler. Messages stay in the outbox until sent or until the
// attempt budget is exhausted.
type OutboxMessage struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ToPhone        string
	Text           string
	Status         OutboxStatus
	Attempts       int
	LastError      string
	CreatedAt      time.Time
	SentAt         *time.Time
}

// ThreadStatus is the triage state of a conversation in the inbox.
type ThreadStatus string

const (
	ThreadNew     ThreadStatus = "new"     // customer spoke last, no inquiry recorded yet
	ThreadPending ThreadStatus = "pending" // unresolved inquiry waiting on an operator
	ThreadReplied ThreadStatus = "replied" // merchant spoke last
)

// StatusOf computes the triage state for a conversation.
func StatusOf(conv Conversation, state InteractionState) ThreadStatus {
	if state.LastInquiry != nil && state.LastInquiry.Status == InquiryUnresolved {
		return ThreadPending
	}
	if conv.LastDirection == DirectionOut {
		return ThreadReplied
	}
	return ThreadNew
}
