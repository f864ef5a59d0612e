// Package pricing computes line and order totals from partially priced
// data. Explicit prices on a line always win over catalog prices.
package pricing

import (
	catdomain "orderdesk_backend/internal/catalog/domain"
	"orderdesk_backend/internal/catalog/match"
	"orderdesk_backend/internal/orders/domain"
	"orderdesk_backend/internal/orders/lifecycle"
)

// Totals summarizes the money state of an order for display.
type Totals struct {
	Subtotal    float64
	HasAnyPrice bool
	// Display is the amount shown to the operator: the stored order
	// total when present, otherwise the computed subtotal. Valid only
	// when HasAnyPrice or the order carries a stored total.
	Display    float64
	HasDisplay bool
}

// PriceLine fills in missing pricing on a line from the catalog.
// An explicit usable price on the line is never overwritten. The line
// total is recomputed whenever a unit price is available.
func PriceLine(line domain.OrderLine, products []catdomain.Product) domain.OrderLine {
	price, hasPrice := domain.Num(line.PricePerUnit)

	if !hasPrice {
		if found := match.Find(line.Canonical, line.Variant, products); found != nil {
			if p, ok := domain.Num(found.PricePerUnit); ok {
				price, hasPrice = p, true
				line.PricePerUnit = domain.Float(p)
				if line.Unit == "" {
					line.Unit = found.BaseUnit
				}
			}
		}
	}

	if hasPrice {
		line.LineTotal = domain.Float(price * line.QtyOrOne())
	}

	return line
}

// PriceLines enriches every line against the same catalog snapshot.
func PriceLines(lines []domain.OrderLine, products []catdomain.Product) []domain.OrderLine {
	out := make([]domain.OrderLine, len(lines))
	for i, line := range lines {
		out[i] = PriceLine(line, products)
	}
	return out
}

// EnrichForDisplay returns the order with display pricing applied.
// Frozen orders are returned untouched: their stored lines already
// reflect what was (or will be) charged.
func EnrichForDisplay(order domain.Order, products []catdomain.Product) domain.Order {
	if lifecycle.IsFrozen(order.Status) {
		return order
	}
	order.Lines = PriceLines(order.Lines, products)
	return order
}

// OrderTotals computes the display totals for an order from its lines
// as stored. A line contributes its unit price times quantity when a
// usable unit price exists, otherwise its explicit line total, and
// otherwise nothing.
func OrderTotals(order domain.Order) Totals {
	var t Totals
	for _, line := range order.Lines {
		if price, ok := domain.Num(line.PricePerUnit); ok {
			t.Subtotal += price * line.QtyOrOne()
			t.HasAnyPrice = true
			continue
		}
		if total, ok := domain.Num(line.LineTotal); ok {
			t.Subtotal += total
			t.HasAnyPrice = true
		}
	}

	// The stored order total is authoritative when the backend set one,
	// and counts as a price signal on its own.
	if stored, ok := domain.Num(order.OrderTotal); ok {
		t.Display = stored
		t.HasDisplay = true
		t.HasAnyPrice = true
		return t
	}

	if t.HasAnyPrice {
		t.Display = t.Subtotal
		t.HasDisplay = true
	}
	return t
}
