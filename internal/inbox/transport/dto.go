package transport

import "github.com/google/uuid"

type SendMessageRequest struct {
	Phone string `json:"phone" validate:"required,phone_digits,max=30"`
	Text  string `json:"text" validate:"required,max=4000"`
}

type InboundMessageRequest struct {
	Phone string `json:"phone" validate:"required,phone_digits,max=30"`
	Text  string `json:"text" validate:"required,max=4000"`
	Kind  string `json:"kind,omitempty" validate:"omitempty,max=50"`
}

type SetAutoReplyRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type MessageResponse struct {
	ID            uuid.UUID `json:"id"`
	CustomerPhone string    `json:"customerPhone"`
	Direction     string    `json:"direction"`
	Text          string    `json:"text"`
	CreatedAt     string    `json:"createdAt"`
}

type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
	Total    int               `json:"total"`
}

type ConversationResponse struct {
	CustomerPhone string `json:"customerPhone"`
	CustomerName  string `json:"customerName,omitempty"`
	LastText      string `json:"lastText"`
	LastDirection string `json:"lastDirection"`
	LastAt        string `json:"lastAt"`
	Status        string `json:"status"`
}

type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	Total         int                    `json:"total"`
}

type InquiryResponse struct {
	Text      string `json:"text"`
	Kind      string `json:"kind"`
	Canonical string `json:"canonical,omitempty"`
	Status    string `json:"status"`
	AskedAt   string `json:"askedAt"`
}

type AutoReplyResponse struct {
	CustomerPhone string           `json:"customerPhone"`
	Enabled       bool             `json:"enabled"`
	Inquiry       *InquiryResponse `json:"inquiry,omitempty"`
}

type OrgSettingsResponse struct {
	AutoReplyEnabled bool   `json:"autoReplyEnabled"`
	IngestMode       string `json:"ingestMode"`
}
