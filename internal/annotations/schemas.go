package annotations

import "github.com/toyz/autolog/internal/models"

// Built-in annotation schemas

// LogAnnotationSchema defines the schema for //autolog::log annotations
var LogAnnotationSchema = AnnotationSchema{
	Type:        LogAnnotation,
	Description: "Marks a type so that its methods log on entry and exit",
	Parameters: map[string]ParameterSpec{
		"Level":   LevelParameterSpec(),
		"Before":  TemplateParameterSpec(models.DefaultBeforeTemplate, "Entry message, %CLASS and %METHOD are substituted"),
		"After":   TemplateParameterSpec(models.DefaultAfterTemplate, "Exit message, %CLASS and %METHOD are substituted"),
		"Pattern": PatternParameterSpec(),
		"Exclude": ExcludeParameterSpec(),
		"Timing":  TimingParameterSpec(),
	},
	Examples: []string{
		"//autolog::log",
		"//autolog::log -Level=WARN",
		`//autolog::log -Before="start %CLASS.%METHOD" -After="end %CLASS.%METHOD"`,
		"//autolog::log -Exclude=String,Close",
		"//autolog::log -Timing",
		`//autolog::log -Level=DEBUG -Pattern="%d{HH:mm:ss.SSS} %-5level %logger - %msg%n" -Timing`,
	},
}

// RegisterBuiltinSchemas registers all built-in annotation schemas
func RegisterBuiltinSchemas(registry AnnotationRegistry) error {
	schemas := []AnnotationSchema{
		LogAnnotationSchema,
	}

	for _, schema := range schemas {
		if err := registry.Register(schema.Type, schema); err != nil {
			return err
		}
	}

	return nil
}
