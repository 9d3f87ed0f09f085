package utils

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"
	"unicode/utf8"

	autologerrors "github.com/toyz/autolog/internal/errors"
)

// Validator represents a validation function
type Validator[T any] func(T) error

// ValidatorChain allows chaining multiple validators
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a new validator chain
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Add adds a validator to the chain
func (vc *ValidatorChain[T]) Add(validator Validator[T]) *ValidatorChain[T] {
	vc.validators = append(vc.validators, validator)
	return vc
}

// Validate runs the validators in order and stops at the first failure
func (vc *ValidatorChain[T]) Validate(value T) error {
	for _, validator := range vc.validators {
		if err := validator(value); err != nil {
			return err
		}
	}
	return nil
}

// NotEmpty validates that a string is not empty
func NotEmpty(field string) Validator[string] {
	return func(value string) error {
		if value == "" {
			return autologerrors.NewValidationError(field, "a value", "nothing")
		}
		return nil
	}
}

// IsValidGoIdentifier validates that a string is a valid Go identifier
func IsValidGoIdentifier(field string) Validator[string] {
	return func(value string) error {
		if value == "" {
			return autologerrors.NewValidationError(field, "a Go identifier", "nothing")
		}
		if !token.IsIdentifier(value) {
			return autologerrors.NewValidationError(field, "a Go identifier", strconv.Quote(value))
		}
		return nil
	}
}

// IsOneOf validates that a value is one of the allowed values
func IsOneOf[T comparable](field string, allowed ...T) Validator[T] {
	return func(value T) error {
		for _, allowedValue := range allowed {
			if value == allowedValue {
				return nil
			}
		}
		return autologerrors.NewValidationError(field, fmt.Sprintf("one of %v", allowed), fmt.Sprint(value))
	}
}

// IsText validates that a string can be emitted verbatim as a quoted Go
// string literal: valid UTF-8 with no NUL bytes
func IsText(field string) Validator[string] {
	return func(value string) error {
		if !utf8.ValidString(value) {
			return autologerrors.NewValidationError(field, "valid UTF-8", strconv.Quote(value))
		}
		if strings.ContainsRune(value, 0) {
			return autologerrors.NewValidationError(field, "text without NUL bytes", strconv.Quote(value))
		}
		return nil
	}
}

// NotIn validates that a string avoids a set of reserved names
func NotIn(field string, reserved ...string) Validator[string] {
	return func(value string) error {
		for _, name := range reserved {
			if value == name {
				return autologerrors.NewValidationError(field,
					fmt.Sprintf("a name other than %s", strings.Join(reserved, ", ")), strconv.Quote(value))
			}
		}
		return nil
	}
}

// Custom validates using a custom function. expected describes a passing value.
func Custom[T any](field, expected string, validatorFunc func(T) bool) Validator[T] {
	return func(value T) error {
		if !validatorFunc(value) {
			return autologerrors.NewValidationError(field, expected, fmt.Sprint(value))
		}
		return nil
	}
}

// ValidateEach validates each item in a slice using the provided validator
func ValidateEach[T any](field string, itemValidator Validator[T]) Validator[[]T] {
	return func(value []T) error {
		for i, item := range value {
			if err := itemValidator(item); err != nil {
				return autologerrors.WrapValidationError(fmt.Sprintf("%s[%d]", field, i), err)
			}
		}
		return nil
	}
}
