// Package domain contains shared order types used across modules.
package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// OrderLine is a single parsed line item. Money fields are absent when
// nil or NaN; upstream parsing emits both forms and they mean the same
// thing.
type OrderLine struct {
	Qty          *float64 `json:"qty,omitempty"`
	Unit         string   `json:"unit,omitempty"`
	Canonical    string   `json:"canonical"`
	Variant      string   `json:"variant,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	PricePerUnit *float64 `json:"price_per_unit,omitempty"`
	LineTotal    *float64 `json:"line_total,omitempty"`
}

// Order is a customer order assembled from WhatsApp messages.
type Order struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	CustomerPhone   string
	CustomerName    string
	Status          Status
	Lines           []OrderLine
	OrderTotal      *float64
	ParseReason     string
	LastEditReason  string
	ShippingAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Num extracts a usable number from an optional money field.
// Returns false for nil and NaN; both mean the value is absent.
func Num(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) {
		return 0, false
	}
	return *v, true
}

// QtyOrOne returns the line quantity, defaulting to 1 when absent or
// non-positive.
func (l OrderLine) QtyOrOne() float64 {
	if q, ok := Num(l.Qty); ok && q > 0 {
		return q
	}
	return 1
}

// Float returns a pointer to v, for building optional money fields.
func Float(v float64) *float64 {
	return &v
}

// SanitizeLines replaces NaN money fields with nil so lines can be
// persisted as JSON. NaN is only ever an in-flight sentinel.
func SanitizeLines(lines []OrderLine) []OrderLine {
	out := make([]OrderLine, len(lines))
	for i, line := range lines {
		if _, ok := Num(line.Qty); !ok {
			line.Qty = nil
		}
		if _, ok := Num(line.PricePerUnit); !ok {
			line.PricePerUnit = nil
		}
		if _, ok := Num(line.LineTotal); !ok {
			line.LineTotal = nil
		}
		out[i] = line
	}
	return out
}
