// Package parse extracts structured signals from upstream parser output:
// inquiry kinds, order edit provenance flags, and a needs-help heuristic
// for messages the parser could not classify.
package parse

import (
	"strings"
	"time"

	"orderdesk_backend/internal/inbox/domain"
)

// Flags carries the provenance markers embedded in an order's parse
// reason string. Markers are comma separated; msgid and edited_at carry
// a value after a colon.
type Flags struct {
	EditedReplace bool
	MergedAppend  bool
	MessageID     string
	EditedAt      time.Time
}

// ReasonFlags parses an order's reason string into flags. Unknown
// markers are ignored.
func ReasonFlags(reason string) Flags {
	var f Flags
	for _, part := range strings.Split(reason, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "edited_replace":
			f.EditedReplace = true
		case part == "merged_append":
			f.MergedAppend = true
		case strings.HasPrefix(part, "msgid:"):
			f.MessageID = strings.TrimPrefix(part, "msgid:")
		case strings.HasPrefix(part, "edited_at:"):
			if ts, err := time.Parse(time.RFC3339, strings.TrimPrefix(part, "edited_at:")); err == nil {
				f.EditedAt = ts
			}
		}
	}
	return f
}

// Kind validates an upstream kind label, falling back to "other" for
// anything unknown so a misbehaving parser cannot poison state.
func Kind(label string) domain.InquiryKind {
	kind := domain.InquiryKind(strings.ToLower(strings.TrimSpace(label)))
	if !kind.Valid() {
		return domain.KindOther
	}
	return kind
}

// Phrases that suggest a customer is asking something rather than
// ordering. Checked only when the upstream parser produced no kind.
var helpHints = []string{
	"?",
	"how much",
	"price",
	"available",
	"in stock",
	"when",
	"where is",
	"status",
	"help",
	"cancel",
	"refund",
	"wrong",
}

// NeedsHelp reports whether an unclassified message still looks like it
// needs an operator.
func NeedsHelp(text string) bool {
	lowered := strings.ToLower(text)
	for _, hint := range helpHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}
