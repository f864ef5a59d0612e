// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"github.com/go-playground/validator/v10"

	"orderdesk_backend/platform/phone"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator with the domain rules registered.
func New() *Validator {
	v := validator.New()
	// Registration only fails for an empty tag name.
	_ = v.RegisterValidation("phone_digits", validPhoneDigits)
	return &Validator{v: v}
}

// validPhoneDigits accepts values that keep at least one digit after
// normalization, so a phone field cannot consist of punctuation only.
func validPhoneDigits(fl validator.FieldLevel) bool {
	return phone.Digits(fl.Field().String()) != ""
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
