// Package match resolves order line names against the merchant catalog.
// Matching is purely lexical and runs against an in-memory product
// snapshot; it never touches the database.
package match

import (
	"regexp"
	"strings"

	"orderdesk_backend/internal/catalog/domain"
)

// Placeholder values produced by upstream parsing that carry no signal.
var blankPattern = regexp.MustCompile(`^(n/?a|none|unknown|unspecified)$`)

// Normalize lowercases a name and collapses runs of whitespace to a
// single space for comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// IsBlank reports whether a value is empty or a known placeholder.
func IsBlank(s string) bool {
	n := Normalize(s)
	return n == "" || blankPattern.MatchString(n)
}

// Find resolves a (canonical, variant) pair to a catalog product.
//
// Candidates are gathered in two tiers: exact canonical equality first,
// bidirectional substring containment only when the first tier is empty.
// When several candidates remain and a usable variant was supplied, an
// exact variant match wins; otherwise the first candidate in catalog
// order is returned. Returns nil when nothing matches.
//
// Catalog order is the caller's slice order, so a fixed snapshot always
// yields the same result for the same input.
func Find(canonical, variant string, products []domain.Product) *domain.Product {
	if IsBlank(canonical) {
		return nil
	}
	canonKey := Normalize(canonical)

	varKey := ""
	if !IsBlank(variant) {
		varKey = Normalize(variant)
	}

	var candidates []*domain.Product
	for i := range products {
		if Normalize(products[i].Canonical) == canonKey {
			candidates = append(candidates, &products[i])
		}
	}

	if len(candidates) == 0 {
		for i := range products {
			base := Normalize(products[i].Canonical)
			if base == "" {
				continue
			}
			if strings.Contains(base, canonKey) || strings.Contains(canonKey, base) {
				candidates = append(candidates, &products[i])
			}
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	if len(candidates) > 1 && varKey != "" {
		for _, c := range candidates {
			if Normalize(c.Variant) == varKey {
				return c
			}
		}
	}

	return candidates[0]
}
