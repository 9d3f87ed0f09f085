package annotations

import (
	"fmt"

	"github.com/toyz/autolog/internal/models"
)

// ToLogSpec converts a parsed log annotation into a LogSpec. Parameters the
// annotation leaves out keep their defaults.
func ToLogSpec(a *ParsedAnnotation) (models.LogSpec, error) {
	if a.Type != LogAnnotation {
		return models.LogSpec{}, fmt.Errorf("%s: expected a log annotation, got %s", a.Location, a.Type)
	}

	spec := models.DefaultLogSpec()

	if a.HasParameter("Level") {
		level, err := models.ParseLevel(a.GetString("Level"))
		if err != nil {
			return models.LogSpec{}, &ValidationError{
				Parameter: "Level",
				Expected:  "valid value",
				Actual:    a.GetString("Level"),
				Loc:       a.Location,
				Hint:      err.Error(),
			}
		}
		spec.Level = level
	}

	spec.Before = a.GetString("Before", spec.Before)
	spec.After = a.GetString("After", spec.After)
	spec.Pattern = a.GetString("Pattern", spec.Pattern)
	spec.Exclude = a.GetStringSlice("Exclude")
	spec.Timing = a.GetBool("Timing")

	return spec.Normalized(), nil
}

// ParseLogSpec parses an annotation comment with the default registry and
// converts it in one step
func ParseLogSpec(comment string, location SourceLocation) (models.LogSpec, error) {
	parsed, err := NewParticipleParser(DefaultRegistry()).ParseAnnotation(comment, location)
	if err != nil {
		return models.LogSpec{}, err
	}
	return ToLogSpec(parsed)
}
