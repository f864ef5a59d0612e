package validator

import "testing"

func TestPhoneDigits(t *testing.T) {
	val := New()

	if err := val.Var("+971 50 123 4567", "phone_digits"); err != nil {
		t.Fatalf("expected formatted number to pass, got %v", err)
	}
	if err := val.Var("+- ()", "phone_digits"); err == nil {
		t.Fatal("expected punctuation-only value to fail")
	}
}

func TestStructTags(t *testing.T) {
	val := New()

	type req struct {
		Phone string `validate:"required,phone_digits"`
	}

	if err := val.Struct(req{Phone: "0501234567"}); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}
	if err := val.Struct(req{}); err == nil {
		t.Fatal("expected required violation")
	}
}
