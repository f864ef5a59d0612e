// Package summary renders the customer-facing bill text for an order.
package summary

import (
	"fmt"
	"strconv"
	"strings"

	"orderdesk_backend/internal/orders/domain"
	"orderdesk_backend/internal/orders/pricing"
)

// Build renders the order as a WhatsApp-ready bill. Lines without any
// price data are listed without an amount; the total row is omitted
// when nothing on the order is priced.
func Build(order domain.Order, currency string) string {
	var b strings.Builder
	b.WriteString("Order summary:\n")

	for i, line := range order.Lines {
		b.WriteString(fmt.Sprintf("%d. ", i+1))

		if qty, ok := domain.Num(line.Qty); ok && qty > 0 {
			b.WriteString(formatQty(qty))
			if line.Unit != "" {
				b.WriteString(" " + line.Unit)
			}
			b.WriteString(" ")
		}

		b.WriteString(line.Canonical)
		if line.Variant != "" {
			b.WriteString(" (" + line.Variant + ")")
		}

		if total, ok := domain.Num(line.LineTotal); ok {
			b.WriteString(fmt.Sprintf(" - %s %.2f", currency, total))
		}
		b.WriteString("\n")
	}

	totals := pricing.OrderTotals(order)
	if totals.HasDisplay {
		b.WriteString(fmt.Sprintf("Total: %s %.2f\n", currency, totals.Display))
	}

	b.WriteString("Reply YES to confirm.")
	return b.String()
}

func formatQty(qty float64) string {
	return strconv.FormatFloat(qty, 'f', -1, 64)
}
