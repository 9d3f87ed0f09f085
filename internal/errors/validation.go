package errors

import "fmt"

// ValidationError represents a validation error with detailed context
type ValidationError struct {
	*BaseError
	Field    string // field that failed validation
	Expected string // what was expected
	Actual   string // what was provided
}

// NewValidationError creates a new validation error
func NewValidationError(field, expected, actual string) *ValidationError {
	message := fmt.Sprintf("validation failed for field '%s': expected %s, got %s", field, expected, actual)

	return &ValidationError{
		BaseError: New(ValidationErrorCode, message),
		Field:     field,
		Expected:  expected,
		Actual:    actual,
	}
}

// WithLocation adds location information to the error
func (e *ValidationError) WithLocation(loc SourceLocation) *ValidationError {
	e.BaseError.WithLocation(loc)
	return e
}

// WithSuggestion adds a helpful suggestion
func (e *ValidationError) WithSuggestion(suggestion string) *ValidationError {
	e.BaseError.WithSuggestion(suggestion)
	return e
}

// SyntaxError represents an annotation that could not be parsed
type SyntaxError struct {
	*BaseError
	Annotation string // raw annotation text
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(message, annotation string) *SyntaxError {
	return &SyntaxError{
		BaseError:  New(SyntaxErrorCode, message),
		Annotation: annotation,
	}
}

// WithLocation adds location information to the error
func (e *SyntaxError) WithLocation(loc SourceLocation) *SyntaxError {
	e.BaseError.WithLocation(loc)
	return e
}

// InstrumentationError represents a failure while rewriting one package
type InstrumentationError struct {
	*BaseError
	TypeName string // type being instrumented, if known
	Stage    string // parse, plan, rewrite or write
}

// NewInstrumentationError creates a new instrumentation error
func NewInstrumentationError(stage, typeName string, cause error) *InstrumentationError {
	message := fmt.Sprintf("failed to %s", stage)
	if typeName != "" {
		message = fmt.Sprintf("failed to %s type %s", stage, typeName)
	}
	return &InstrumentationError{
		BaseError: Wrap(InstrumentationErrorCode, message, cause),
		TypeName:  typeName,
		Stage:     stage,
	}
}

// WithLocation adds location information to the error
func (e *InstrumentationError) WithLocation(loc SourceLocation) *InstrumentationError {
	e.BaseError.WithLocation(loc)
	return e
}
