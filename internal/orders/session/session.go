// Package session groups a customer's orders into the view the operator
// console works with: live versus past orders, the active order, and
// the merge plan for collapsing duplicate pending orders.
package session

import (
	"sort"

	"orderdesk_backend/internal/orders/domain"
	"orderdesk_backend/internal/orders/lifecycle"
	"orderdesk_backend/platform/phone"

	"github.com/google/uuid"
)

// Session is one customer's order history, newest first.
type Session struct {
	CustomerPhone string
	All           []domain.Order
	Live          []domain.Order
	Past          []domain.Order
	// Active is the order console actions target: the pinned order when
	// one is selected and still present, otherwise the newest live
	// order. Nil when the customer has no live orders.
	Active *domain.Order
}

// For builds the session for a customer identified by phone. Orders are
// grouped by digit-only phone equality, so formatting differences in
// stored numbers do not split a customer. A phone with no digits never
// groups anything.
func For(customerPhone string, pinnedOrderID uuid.UUID, orders []domain.Order) Session {
	key := phone.Digits(customerPhone)
	sess := Session{CustomerPhone: customerPhone}
	if key == "" {
		return sess
	}

	for _, order := range orders {
		if phone.Digits(order.CustomerPhone) == key {
			sess.All = append(sess.All, order)
		}
	}

	sort.SliceStable(sess.All, func(i, j int) bool {
		return sess.All[i].CreatedAt.After(sess.All[j].CreatedAt)
	})

	for i := range sess.All {
		if lifecycle.IsLive(sess.All[i].Status) {
			sess.Live = append(sess.Live, sess.All[i])
		} else {
			sess.Past = append(sess.Past, sess.All[i])
		}
	}

	if pinnedOrderID != uuid.Nil {
		for i := range sess.All {
			if sess.All[i].ID == pinnedOrderID {
				sess.Active = &sess.All[i]
				break
			}
		}
	}
	if sess.Active == nil && len(sess.Live) > 0 {
		sess.Active = &sess.Live[0]
	}

	return sess
}

// MergePlan lists the merges needed to collapse a customer's pending
// orders into one. The oldest pending order survives; the others are
// merged into it newest first. Returns a nil survivor when there is
// nothing to merge.
func MergePlan(sess Session) (survivor *domain.Order, toMerge []domain.Order) {
	var pending []domain.Order
	for _, order := range sess.Live {
		if order.Status == domain.StatusPending {
			pending = append(pending, order)
		}
	}
	if len(pending) < 2 {
		return nil, nil
	}

	// Live is newest first, so the survivor is the last entry and the
	// merge queue keeps newest-first order.
	survivor = &pending[len(pending)-1]
	toMerge = pending[:len(pending)-1]
	return survivor, toMerge
}
