package annotations

import (
	"fmt"

	"github.com/toyz/autolog/internal/models"
	"github.com/toyz/autolog/internal/utils"
	"github.com/toyz/autolog/pkg/autolog"
)

// ValidateLevel validates a level name against the closed level set
func ValidateLevel(v interface{}) error {
	name, ok := v.(string)
	if !ok {
		return fmt.Errorf("level must be a string, got %T", v)
	}
	_, err := models.ParseLevel(name)
	return err
}

// ValidateTemplate rejects message templates that cannot be emitted as a
// Go string literal verbatim
func ValidateTemplate(v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("template must be a string, got %T", v)
	}
	return utils.IsText("template")(s)
}

// ValidatePattern checks that a layout compiles for the text sink
func ValidatePattern(v interface{}) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("pattern must be a string, got %T", v)
	}
	if err := ValidateTemplate(s); err != nil {
		return err
	}
	_, err := autolog.CompilePattern(s)
	return err
}

// ValidateMethodNames checks that every entry of an exclusion list is a
// method identifier
func ValidateMethodNames(v interface{}) error {
	names, ok := v.([]string)
	if !ok {
		return fmt.Errorf("exclude must be a list of names, got %T", v)
	}
	return utils.ValidateEach("Exclude", utils.IsValidGoIdentifier("method name"))(names)
}

// LevelParameterSpec returns the Level parameter specification
func LevelParameterSpec() ParameterSpec {
	return ParameterSpec{
		Type:         StringType,
		DefaultValue: models.LevelInfo.String(),
		Description:  "Level for entry and exit messages: INFO (default), WARN, ERROR, FATAL, DEBUG or TRACE",
		Validator:    ValidateLevel,
	}
}

// TemplateParameterSpec returns a message template parameter specification
func TemplateParameterSpec(defaultValue, description string) ParameterSpec {
	return ParameterSpec{
		Type:         StringType,
		DefaultValue: defaultValue,
		Description:  description,
		Validator:    ValidateTemplate,
	}
}

// PatternParameterSpec returns the Pattern parameter specification
func PatternParameterSpec() ParameterSpec {
	return ParameterSpec{
		Type:         StringType,
		DefaultValue: models.DefaultPattern,
		Description:  "Output layout for the text sink",
		Validator:    ValidatePattern,
	}
}

// ExcludeParameterSpec returns the Exclude parameter specification
func ExcludeParameterSpec() ParameterSpec {
	return ParameterSpec{
		Type:        StringSliceType,
		Description: "Comma-separated list of method names that are not instrumented",
		Validator:   ValidateMethodNames,
	}
}

// TimingParameterSpec returns the Timing parameter specification
func TimingParameterSpec() ParameterSpec {
	return ParameterSpec{
		Type:         BoolType,
		DefaultValue: false,
		Description:  "Append the elapsed time to the exit message",
	}
}
