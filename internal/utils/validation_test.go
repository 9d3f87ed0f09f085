package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autologerrors "github.com/toyz/autolog/internal/errors"
)

func TestValidatorChain(t *testing.T) {
	chain := NewValidatorChain(NotEmpty("name")).
		Add(IsValidGoIdentifier("name")).
		Add(NotIn("name", "autolog"))

	assert.NoError(t, chain.Validate("OrderService"))

	err := chain.Validate("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'name': expected a value, got nothing")

	err = chain.Validate("Order Service")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected a Go identifier, got "Order Service"`)

	err = chain.Validate("autolog")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected a name other than autolog, got "autolog"`)

	var validation *autologerrors.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "name", validation.Field)
	assert.Equal(t, autologerrors.ValidationErrorCode, validation.ErrorCode())
}

func TestIsOneOf(t *testing.T) {
	v := IsOneOf("policy", "abort", "continue")
	assert.NoError(t, v("abort"))

	err := v("retry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one of [abort continue], got retry")
}

func TestIsText(t *testing.T) {
	v := IsText("message")
	assert.NoError(t, v("héllo %CLASS"))
	assert.ErrorContains(t, v("a\x00b"), "without NUL bytes")
	assert.ErrorContains(t, v("\xff"), "valid UTF-8")
}

func TestCustom(t *testing.T) {
	even := Custom("count", "an even number", func(n int) bool { return n%2 == 0 })
	assert.NoError(t, even(4))
	assert.ErrorContains(t, even(3), "expected an even number, got 3")
}

func TestValidateEach(t *testing.T) {
	v := ValidateEach("exclude", IsValidGoIdentifier("method name"))
	assert.NoError(t, v([]string{"String", "Close"}))

	err := v([]string{"String", "a.b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to validate exclude[1]")
	assert.Contains(t, err.Error(), `got "a.b"`)

	var validation *autologerrors.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "exclude[1]", validation.Field)
}
