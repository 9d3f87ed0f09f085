package annotations

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Prefix starts every autolog annotation comment. gofmt rewrites it to
// "// autolog::" inside doc comments, and both spellings are accepted.
const Prefix = "//autolog::"

const marker = "autolog::"

// AnnotationType represents the type of annotation
type AnnotationType int

const (
	LogAnnotation AnnotationType = iota
)

// String returns the string representation of the annotation type
func (a AnnotationType) String() string {
	switch a {
	case LogAnnotation:
		return "log"
	default:
		return "unknown"
	}
}

// ParseAnnotationType converts string to AnnotationType
func ParseAnnotationType(s string) (AnnotationType, error) {
	switch s {
	case "log":
		return LogAnnotation, nil
	default:
		return 0, fmt.Errorf("unknown annotation type: %s", s)
	}
}

// IsAnnotation reports whether a comment line is an autolog annotation
func IsAnnotation(comment string) bool {
	_, ok := annotationBody(comment)
	return ok
}

// annotationBody returns the text after "//" and any whitespace when it
// starts with autolog::
func annotationBody(comment string) (string, bool) {
	text := strings.TrimSpace(comment)
	if !strings.HasPrefix(text, "//") {
		return "", false
	}
	body := strings.TrimLeftFunc(text[2:], unicode.IsSpace)
	if !strings.HasPrefix(body, marker) {
		return "", false
	}
	return body, true
}

// SourceLocation represents the location of an annotation in source code
type SourceLocation struct {
	File   string // File path
	Line   int    // Line number (1-based)
	Column int    // Column number (1-based)
}

func (l SourceLocation) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ParsedAnnotation represents a fully parsed annotation with type-safe parameters
type ParsedAnnotation struct {
	Type       AnnotationType         // Annotation type enum
	Target     string                 // Target type name
	Parameters map[string]interface{} // Typed parameters, keyed by canonical name
	Location   SourceLocation         // Source location
	Raw        string                 // Original annotation text
}

// GetString returns a string parameter value with optional default
func (p *ParsedAnnotation) GetString(paramName string, defaultValue ...string) string {
	if value, exists := p.Parameters[paramName]; exists {
		if strValue, ok := value.(string); ok {
			return strValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetBool returns a boolean parameter value with optional default
func (p *ParsedAnnotation) GetBool(paramName string, defaultValue ...bool) bool {
	if value, exists := p.Parameters[paramName]; exists {
		if boolValue, ok := value.(bool); ok {
			return boolValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}

// GetStringSlice returns a string slice parameter value with optional default
func (p *ParsedAnnotation) GetStringSlice(paramName string, defaultValue ...[]string) []string {
	if value, exists := p.Parameters[paramName]; exists {
		if sliceValue, ok := value.([]string); ok {
			return sliceValue
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return nil
}

// HasParameter checks if a parameter exists
func (p *ParsedAnnotation) HasParameter(paramName string) bool {
	_, exists := p.Parameters[paramName]
	return exists
}

// ParameterType represents the type of a parameter
type ParameterType int

const (
	StringType ParameterType = iota
	BoolType
	StringSliceType
)

// String returns the string representation of the parameter type
func (p ParameterType) String() string {
	switch p {
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case StringSliceType:
		return "[]string"
	default:
		return "unknown"
	}
}

// ParameterSpec defines the specification for an annotation parameter
type ParameterSpec struct {
	Type         ParameterType           // Parameter type
	Required     bool                    // Whether parameter is required
	DefaultValue interface{}             // Default value if not provided
	Description  string                  // Parameter description
	Validator    func(interface{}) error // Custom validator function
}

// AnnotationSchema defines the schema for an annotation type
type AnnotationSchema struct {
	Type        AnnotationType           // Annotation type enum
	Description string                   // Human-readable description
	Parameters  map[string]ParameterSpec // Parameter specifications
	Examples    []string                 // Usage examples
}

// CanonicalParameter finds the declared spelling of a parameter name.
// Parameter names match case-insensitively.
func (s AnnotationSchema) CanonicalParameter(name string) (string, bool) {
	if _, ok := s.Parameters[name]; ok {
		return name, true
	}
	for declared := range s.Parameters {
		if strings.EqualFold(declared, name) {
			return declared, true
		}
	}
	return "", false
}

// convertValue turns the raw text of a parameter into the schema type.
// present reports whether the parameter carried a value at all.
func convertValue(spec ParameterSpec, raw string, present bool) (interface{}, error) {
	switch spec.Type {
	case BoolType:
		if !present {
			return true, nil
		}
		return parseBoolString(raw)
	case StringSliceType:
		if !present {
			return nil, fmt.Errorf("a value is required")
		}
		return parseCommaSeparated(raw), nil
	case StringType:
		if !present {
			if def, ok := spec.DefaultValue.(string); ok {
				return def, nil
			}
			return nil, fmt.Errorf("a value is required")
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %s", spec.Type)
	}
}

func parseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean string: %s", s)
	}
	return b, nil
}

// parseCommaSeparated splits a list value, dropping empty entries
func parseCommaSeparated(s string) []string {
	parts := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
