package annotations

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T) *ParticipleParser {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, RegisterBuiltinSchemas(registry))
	return NewParticipleParser(registry)
}

func TestParticipleParser_ParseAnnotation(t *testing.T) {
	parser := newTestParser(t)
	location := SourceLocation{File: "orders.go", Line: 3, Column: 1}

	tests := []struct {
		name     string
		input    string
		expected map[string]interface{}
	}{
		{
			name:     "bare annotation",
			input:    "//autolog::log",
			expected: map[string]interface{}{},
		},
		{
			name:     "level",
			input:    "//autolog::log -Level=WARN",
			expected: map[string]interface{}{"Level": "WARN"},
		},
		{
			name:     "case-insensitive names",
			input:    "//autolog::log -level=debug -timing",
			expected: map[string]interface{}{"Level": "debug", "Timing": true},
		},
		{
			name:  "quoted templates with spaces and equals",
			input: `//autolog::log -Before="start %CLASS.%METHOD a=b" -After="done \"%METHOD\""`,
			expected: map[string]interface{}{
				"Before": "start %CLASS.%METHOD a=b",
				"After":  `done "%METHOD"`,
			},
		},
		{
			name:     "exclude list",
			input:    "//autolog::log -Exclude=String, -Timing",
			expected: map[string]interface{}{"Exclude": []string{"String"}, "Timing": true},
		},
		{
			name:     "exclude several",
			input:    "//autolog::log -Exclude=String,Close,reset",
			expected: map[string]interface{}{"Exclude": []string{"String", "Close", "reset"}},
		},
		{
			name:     "explicit boolean",
			input:    "//autolog::log -Timing=false",
			expected: map[string]interface{}{"Timing": false},
		},
		{
			name:     "pattern",
			input:    `//autolog::log -Pattern="%d{HH:mm:ss} %-5level %msg%n"`,
			expected: map[string]interface{}{"Pattern": "%d{HH:mm:ss} %-5level %msg%n"},
		},
		{
			name:     "leading whitespace and tabs",
			input:    "  //autolog::log\t-Level=ERROR  ",
			expected: map[string]interface{}{"Level": "ERROR"},
		},
		{
			name:     "gofmt spacing",
			input:    "// autolog::log -Level=WARN -Timing",
			expected: map[string]interface{}{"Level": "WARN", "Timing": true},
		},
		{
			name:     "tab after slashes",
			input:    "//\tautolog::log -Exclude=String",
			expected: map[string]interface{}{"Exclude": []string{"String"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parser.ParseAnnotation(tt.input, location)
			require.NoError(t, err)
			assert.Equal(t, LogAnnotation, parsed.Type)
			assert.Equal(t, tt.expected, parsed.Parameters)
			assert.Equal(t, location, parsed.Location)
		})
	}
}

func TestParticipleParser_Errors(t *testing.T) {
	parser := newTestParser(t)
	location := SourceLocation{File: "orders.go", Line: 7, Column: 1}

	tests := []struct {
		name   string
		input  string
		code   ErrorCode
		column int
	}{
		{"not an annotation", "// plain comment", SyntaxErrorCode, 1},
		{"unknown type", "//autolog::trace", SchemaErrorCode, 1},
		{"unknown parameter", "//autolog::log -Colour=red", SchemaErrorCode, 16},
		{"invalid level", "//autolog::log -Level=LOUD", ValidationErrorCode, 16},
		{"duplicate parameter", "//autolog::log -Level=WARN -Level=INFO", SyntaxErrorCode, 28},
		{"unterminated quote", `//autolog::log -Before="oops`, SyntaxErrorCode, 0},
		{"exclude needs a value", "//autolog::log -Exclude", ValidationErrorCode, 16},
		{"exclude with bad name", "//autolog::log -Exclude=a.b", ValidationErrorCode, 16},
		{"bad boolean", "//autolog::log -Timing=sometimes", ValidationErrorCode, 16},
		{"bad pattern", `//autolog::log -Pattern="%q"`, ValidationErrorCode, 16},
		{"stray word", "//autolog::log verbose", SyntaxErrorCode, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseAnnotation(tt.input, location)
			require.Error(t, err)

			var annErr AnnotationError
			require.True(t, errors.As(err, &annErr), "expected AnnotationError, got %T", err)
			assert.Equal(t, tt.code, annErr.Code(), err.Error())
			assert.Equal(t, "orders.go", annErr.Location().File)
			assert.Equal(t, 7, annErr.Location().Line)
			if tt.column > 0 {
				assert.Equal(t, tt.column, annErr.Location().Column)
			}
		})
	}
}

func TestParticipleParser_MultipleErrors(t *testing.T) {
	parser := newTestParser(t)

	_, err := parser.ParseAnnotation("//autolog::log -Level=LOUD -Colour=red", SourceLocation{File: "a.go", Line: 1})
	require.Error(t, err)

	var multi *MultipleAnnotationErrors
	require.True(t, errors.As(err, &multi))
	assert.Len(t, multi.Errors, 2)
	assert.True(t, multi.HasType(ValidationErrorCode))
	assert.True(t, multi.HasType(SchemaErrorCode))
	assert.Contains(t, err.Error(), "multiple annotation errors (2 total)")
}

func TestIsAnnotation(t *testing.T) {
	assert.True(t, IsAnnotation("//autolog::log"))
	assert.True(t, IsAnnotation("  //autolog::log -Timing"))
	assert.True(t, IsAnnotation("// autolog::log"))
	assert.True(t, IsAnnotation("//  autolog::log -Level=WARN"))
	assert.False(t, IsAnnotation("// autolog:instrumented"))
	assert.False(t, IsAnnotation("// see autolog::log"))
	assert.False(t, IsAnnotation("/* autolog::log */"))
	assert.False(t, IsAnnotation("//wire::core"))
}
