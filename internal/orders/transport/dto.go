package transport

import "github.com/google/uuid"

type OrderLineDTO struct {
	Qty          *float64 `json:"qty,omitempty"`
	Unit         string   `json:"unit,omitempty"`
	Canonical    string   `json:"canonical" validate:"required,max=200"`
	Variant      string   `json:"variant,omitempty" validate:"max=100"`
	Brand        string   `json:"brand,omitempty" validate:"max=100"`
	Notes        string   `json:"notes,omitempty" validate:"max=500"`
	PricePerUnit *float64 `json:"pricePerUnit,omitempty"`
	LineTotal    *float64 `json:"lineTotal,omitempty"`
}

type CreateOrderRequest struct {
	CustomerPhone   string         `json:"customerPhone" validate:"required,phone_digits,max=30"`
	CustomerName    string         `json:"customerName" validate:"max=200"`
	Lines           []OrderLineDTO `json:"lines" validate:"required,min=1,dive"`
	OrderTotal      *float64       `json:"orderTotal,omitempty"`
	ParseReason     string         `json:"parseReason,omitempty" validate:"max=500"`
	ShippingAddress string         `json:"shippingAddress,omitempty" validate:"max=500"`
}

type SetLinesRequest struct {
	Lines  []OrderLineDTO `json:"lines" validate:"required,dive"`
	Reason string         `json:"reason,omitempty" validate:"omitempty,max=100"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending shipped paid cancelled"`
}

type ShippingAddressRequest struct {
	Address string `json:"address" validate:"required,max=500"`
}

type SplitRequest struct {
	LineIndexes []int `json:"lineIndexes" validate:"required,min=1"`
}

type OrderResponse struct {
	ID              uuid.UUID      `json:"id"`
	CustomerPhone   string         `json:"customerPhone"`
	CustomerName    string         `json:"customerName,omitempty"`
	Status          string         `json:"status"`
	Frozen          bool           `json:"frozen"`
	Lines           []OrderLineDTO `json:"lines"`
	OrderTotal      *float64       `json:"orderTotal,omitempty"`
	Subtotal        float64        `json:"subtotal"`
	HasAnyPrice     bool           `json:"hasAnyPrice"`
	DisplayTotal    *float64       `json:"displayTotal,omitempty"`
	ParseReason     string         `json:"parseReason,omitempty"`
	LastEditReason  string         `json:"lastEditReason,omitempty"`
	ShippingAddress string         `json:"shippingAddress,omitempty"`
	CreatedAt       string         `json:"createdAt"`
	UpdatedAt       string         `json:"updatedAt"`
}

type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Total int             `json:"total"`
}

type SessionResponse struct {
	CustomerPhone string          `json:"customerPhone"`
	All           []OrderResponse `json:"all"`
	Live          []OrderResponse `json:"live"`
	Past          []OrderResponse `json:"past"`
	ActiveOrderID *uuid.UUID      `json:"activeOrderId,omitempty"`
}

type MergeResponse struct {
	Survivor OrderResponse `json:"survivor"`
	Merged   int           `json:"merged"`
}

type SplitResponse struct {
	Original OrderResponse `json:"original"`
	Created  OrderResponse `json:"created"`
}

type SummaryResponse struct {
	Text    string `json:"text"`
	WebLink string `json:"webLink"`
}
