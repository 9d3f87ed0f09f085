package models

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "default before",
			template: DefaultBeforeTemplate,
			want:     "OrderService->placeOrder - ENTER",
		},
		{
			name:     "every occurrence replaced",
			template: "%CLASS.%METHOD: %METHOD of %CLASS (%CLASS)",
			want:     "OrderService.placeOrder: placeOrder of OrderService (OrderService)",
		},
		{
			name:     "literal text kept verbatim",
			template: `say "hi" 100% \n %CLAS %METHO`,
			want:     `say "hi" 100% \n %CLAS %METHO`,
		},
		{
			name:     "no placeholders",
			template: "static",
			want:     "static",
		},
		{
			name:     "empty",
			template: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.template, "OrderService", "placeOrder"))
		})
	}
}

func TestResolve_NoReexpansion(t *testing.T) {
	// a type name that looks like a placeholder must not be expanded again
	assert.Equal(t, "%METHOD->run", Resolve("%CLASS->%METHOD", "%METHOD", "run"))
}

func TestDefaultLogSpec(t *testing.T) {
	spec := DefaultLogSpec()
	assert.Equal(t, LevelInfo, spec.Level)
	assert.Equal(t, "%CLASS->%METHOD - ENTER", spec.Before)
	assert.Equal(t, "%CLASS->%METHOD - LEAVE", spec.After)
	assert.Equal(t, DefaultPattern, spec.Pattern)
	assert.Empty(t, spec.Exclude)
	assert.False(t, spec.Timing)

	assert.Equal(t, "OrderService->placeOrder - ENTER", spec.BeforeMessage("OrderService", "placeOrder"))
	assert.Equal(t, "OrderService->placeOrder - LEAVE", spec.AfterMessage("OrderService", "placeOrder"))
}

func TestLogSpec_Excludes(t *testing.T) {
	spec := DefaultLogSpec()
	spec.Exclude = []string{"String", "close"}

	assert.True(t, spec.Excludes("String"))
	assert.True(t, spec.Excludes("close"))
	assert.False(t, spec.Excludes("Close"), "matching is case-sensitive")
	assert.False(t, spec.Excludes("Str"))
}

func TestLogSpec_Normalized(t *testing.T) {
	spec := LogSpec{Exclude: []string{"b", " a ", "b", ""}}
	assert.Equal(t, []string{"a", "b"}, spec.Normalized().Exclude)
	assert.Nil(t, LogSpec{Exclude: []string{}}.Normalized().Exclude)
}

func TestParseLevel(t *testing.T) {
	for _, l := range Levels {
		got, err := ParseLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
		assert.True(t, got.Valid())
	}

	got, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, got)

	_, err = ParseLevel("VERBOSE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INFO, WARN, ERROR, FATAL, DEBUG, TRACE")

	assert.False(t, Level(42).Valid())
}

func TestLevel_RuntimeConst(t *testing.T) {
	assert.Equal(t, "LevelInfo", LevelInfo.RuntimeConst())
	assert.Equal(t, "LevelWarn", LevelWarn.RuntimeConst())
	assert.Equal(t, "LevelError", LevelError.RuntimeConst())
	assert.Equal(t, "LevelFatal", LevelFatal.RuntimeConst())
	assert.Equal(t, "LevelDebug", LevelDebug.RuntimeConst())
	assert.Equal(t, "LevelTrace", LevelTrace.RuntimeConst())
}

func TestGroupByDir(t *testing.T) {
	a := &CompiledType{Name: "A", Dir: "/x"}
	b := &CompiledType{Name: "B", Dir: "/y"}
	c := &CompiledType{Name: "C", Dir: "/x"}

	groups := GroupByDir([]*CompiledType{a, b, c})
	require.Len(t, groups, 2)
	assert.Equal(t, "/x", groups[0].Dir)
	assert.Equal(t, []*CompiledType{a, c}, groups[0].Types)
	assert.Equal(t, "/y", groups[1].Dir)
}

func TestSpecSet(t *testing.T) {
	set := SpecSet{
		"example.com/b.Svc": DefaultLogSpec(),
		"example.com/a.Svc": DefaultLogSpec(),
	}
	assert.Equal(t, []TypeKey{"example.com/a.Svc", "example.com/b.Svc"}, set.Keys())

	_, ok := set.Lookup(&CompiledType{Key: NewTypeKey("example.com/a", "Svc")})
	assert.True(t, ok)
	_, ok = set.Lookup(&CompiledType{Key: NewTypeKey("example.com/c", "Svc")})
	assert.False(t, ok)

	assert.Equal(t, TypeKey("Svc"), NewTypeKey("", "Svc"))
}

func TestGeneratorError(t *testing.T) {
	cause := fs.ErrPermission
	err := &GeneratorError{Type: ErrorTypeFileSystem, File: "a.go", Line: 3, Message: "write failed", Cause: cause}
	assert.Equal(t, "a.go:3: write failed", err.Error())
	assert.True(t, errors.Is(err, fs.ErrPermission))

	err = &GeneratorError{File: "a.go", Message: "oops"}
	assert.Equal(t, "a.go: oops", err.Error())
	assert.Equal(t, "file system", ErrorTypeFileSystem.String())
}
