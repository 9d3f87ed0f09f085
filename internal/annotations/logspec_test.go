package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/autolog/internal/models"
)

func TestToLogSpec_Defaults(t *testing.T) {
	spec, err := ParseLogSpec("//autolog::log", SourceLocation{File: "svc.go", Line: 1})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLogSpec(), spec)
}

func TestToLogSpec_AllParameters(t *testing.T) {
	comment := `//autolog::log -Level=warn -Before="in %METHOD" -After="out %METHOD" -Pattern="%msg%n" -Exclude=b,a,b -Timing`

	spec, err := ParseLogSpec(comment, SourceLocation{File: "svc.go", Line: 10})
	require.NoError(t, err)

	assert.Equal(t, models.LogSpec{
		Level:   models.LevelWarn,
		Before:  "in %METHOD",
		After:   "out %METHOD",
		Pattern: "%msg%n",
		Exclude: []string{"a", "b"},
		Timing:  true,
	}, spec)
}

func TestToLogSpec_EveryLevel(t *testing.T) {
	for _, level := range models.Levels {
		t.Run(level.String(), func(t *testing.T) {
			spec, err := ParseLogSpec("//autolog::log -Level="+level.String(), SourceLocation{})
			require.NoError(t, err)
			assert.Equal(t, level, spec.Level)
		})
	}
}

func TestToLogSpec_RejectsOtherTypes(t *testing.T) {
	_, err := ToLogSpec(&ParsedAnnotation{Type: AnnotationType(42)})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, RegisterBuiltinSchemas(registry))

	assert.True(t, registry.IsRegistered(LogAnnotation))
	assert.Equal(t, []AnnotationType{LogAnnotation}, registry.ListTypes())

	schema, err := registry.GetSchema(LogAnnotation)
	require.NoError(t, err)
	assert.Len(t, schema.Parameters, 6)

	err = registry.Register(LogAnnotation, LogAnnotationSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	mismatched := LogAnnotationSchema
	mismatched.Type = AnnotationType(9)
	assert.Error(t, NewRegistry().Register(LogAnnotation, mismatched))

	_, err = NewRegistry().GetSchema(LogAnnotation)
	assert.Error(t, err)
}

func TestLogAnnotationSchema_Examples(t *testing.T) {
	parser := NewParticipleParser(DefaultRegistry())
	for _, example := range LogAnnotationSchema.Examples {
		t.Run(example, func(t *testing.T) {
			_, err := parser.ParseAnnotation(example, SourceLocation{File: "example.go", Line: 1})
			assert.NoError(t, err)
		})
	}
}

func TestCanonicalParameter(t *testing.T) {
	name, ok := LogAnnotationSchema.CanonicalParameter("EXCLUDE")
	assert.True(t, ok)
	assert.Equal(t, "Exclude", name)

	_, ok = LogAnnotationSchema.CanonicalParameter("Mode")
	assert.False(t, ok)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateLevel("trace"))
	assert.Error(t, ValidateLevel("verbose"))
	assert.Error(t, ValidateLevel(3))

	assert.NoError(t, ValidateTemplate("%CLASS->%METHOD"))
	assert.Error(t, ValidateTemplate("bad\x00byte"))
	assert.Error(t, ValidateTemplate(string([]byte{0xff, 0xfe})))

	assert.NoError(t, ValidatePattern(models.DefaultPattern))
	assert.Error(t, ValidatePattern("%d{yyyy"))

	assert.NoError(t, ValidateMethodNames([]string{"String", "close"}))
	assert.Error(t, ValidateMethodNames([]string{"1abc"}))
}
