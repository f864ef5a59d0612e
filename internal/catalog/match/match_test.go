package match

import (
	"testing"

	"orderdesk_backend/internal/catalog/domain"
)

func product(canonical, variant string) domain.Product {
	return domain.Product{Canonical: canonical, Variant: variant}
}

func TestIsBlank_Placeholders(t *testing.T) {
	blanks := []string{"", "   ", "n/a", "N/A", "na", "NA", "none", "None", "unknown", "UNSPECIFIED"}
	for _, v := range blanks {
		if !IsBlank(v) {
			t.Fatalf("expected %q to be blank", v)
		}
	}

	notBlanks := []string{"onion", "nano", "banana", "nacho", "u", "0"}
	for _, v := range notBlanks {
		if IsBlank(v) {
			t.Fatalf("expected %q not to be blank", v)
		}
	}
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Onion  Small ", "onion small"},
		{"onion\tsmall", "onion small"},
		{"ONION   \n small", "onion small"},
		{"onion", "onion"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFind_RaggedCatalogSpacingStillMatches(t *testing.T) {
	catalog := []domain.Product{product("onion  small", "")}

	got := Find("onion small", "", catalog)
	if got == nil || got.Canonical != "onion  small" {
		t.Fatalf("expected ragged-spacing entry to match, got %v", got)
	}
}

func TestFind_ExactCanonicalBeatsSubstring(t *testing.T) {
	catalog := []domain.Product{
		product("red onion jumbo", ""),
		product("onion", ""),
	}

	got := Find("Onion", "", catalog)
	if got == nil || got.Canonical != "onion" {
		t.Fatalf("expected exact match on onion, got %+v", got)
	}
}

func TestFind_SubstringBothDirections(t *testing.T) {
	catalog := []domain.Product{
		product("red onion", ""),
	}

	// line name contained in catalog name
	if got := Find("onion", "", catalog); got == nil {
		t.Fatal("expected substring match for onion in red onion")
	}

	// catalog name contained in line name
	if got := Find("fresh red onion bunch", "", catalog); got == nil {
		t.Fatal("expected substring match for red onion in line name")
	}
}

func TestFind_VariantNarrowsMultipleCandidates(t *testing.T) {
	catalog := []domain.Product{
		product("onion", "big"),
		product("onion", "small"),
	}

	got := Find("onion", "small", catalog)
	if got == nil || got.Variant != "small" {
		t.Fatalf("expected small variant, got %+v", got)
	}

	got = Find("onion", "big", catalog)
	if got == nil || got.Variant != "big" {
		t.Fatalf("expected big variant, got %+v", got)
	}
}

func TestFind_UnknownVariantFallsBackToFirstCandidate(t *testing.T) {
	catalog := []domain.Product{
		product("onion", "big"),
		product("onion", "small"),
	}

	got := Find("onion", "medium", catalog)
	if got == nil || got.Variant != "big" {
		t.Fatalf("expected fallback to first candidate, got %+v", got)
	}
}

func TestFind_BlankVariantSkipsNarrowing(t *testing.T) {
	catalog := []domain.Product{
		product("onion", "big"),
		product("onion", "small"),
	}

	got := Find("onion", "n/a", catalog)
	if got == nil || got.Variant != "big" {
		t.Fatalf("expected first candidate for placeholder variant, got %+v", got)
	}
}

func TestFind_BlankCanonicalNeverMatches(t *testing.T) {
	catalog := []domain.Product{
		product("onion", ""),
	}

	for _, name := range []string{"", "n/a", "unknown"} {
		if got := Find(name, "big", catalog); got != nil {
			t.Fatalf("expected no match for blank canonical %q, got %+v", name, got)
		}
	}
}

func TestFind_NoMatchReturnsNil(t *testing.T) {
	catalog := []domain.Product{
		product("onion", ""),
		product("tomato", ""),
	}

	if got := Find("cucumber", "", catalog); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestFind_DeterministicForFixedSnapshot(t *testing.T) {
	catalog := []domain.Product{
		product("green onion", ""),
		product("onion rings", ""),
	}

	first := Find("onion", "", catalog)
	for i := 0; i < 10; i++ {
		got := Find("onion", "", catalog)
		if got != first {
			t.Fatalf("expected identical result on repeat, got %+v and %+v", first, got)
		}
	}
	if first == nil || first.Canonical != "green onion" {
		t.Fatalf("expected first candidate in catalog order, got %+v", first)
	}
}
