// Package lifecycle encodes the order status machine and its pricing
// freeze rules.
package lifecycle

import "orderdesk_backend/internal/orders/domain"

// transitions maps each status to the statuses it may move to.
var transitions = map[domain.Status][]domain.Status{
	domain.StatusPending:   {domain.StatusShipped, domain.StatusCancelled},
	domain.StatusShipped:   {domain.StatusPaid, domain.StatusCancelled},
	domain.StatusPaid:      {},
	domain.StatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to
// another. Same-status transitions are rejected.
func CanTransition(from, to domain.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsFrozen reports whether an order's pricing must no longer change.
// Frozen orders are skipped by display enrichment; their stored lines
// are the authoritative record of what was charged.
func IsFrozen(status domain.Status) bool {
	switch status {
	case domain.StatusShipped, domain.StatusPaid, domain.StatusCancelled:
		return true
	}
	return false
}

// FreezesPricing reports whether entering the given status requires
// persisting a pricing snapshot first.
func FreezesPricing(to domain.Status) bool {
	return to == domain.StatusShipped || to == domain.StatusPaid
}

// IsLive reports whether an order still needs operator attention.
func IsLive(status domain.Status) bool {
	return status == domain.StatusPending || status == domain.StatusShipped
}
