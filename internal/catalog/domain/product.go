// Package domain contains shared catalog types used across modules.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a merchant catalog entry. Canonical is the normalized base
// name order lines are matched against; Variant distinguishes entries
// that share a base name (size, color, grade).
type Product struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Canonical      string
	Variant        string
	Brand          string
	BaseUnit       string
	PricePerUnit   *float64
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
