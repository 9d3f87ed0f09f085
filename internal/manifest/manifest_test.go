package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	autologerrors "github.com/toyz/autolog/internal/errors"
	"github.com/toyz/autolog/internal/models"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	warn := models.DefaultLogSpec()
	warn.Level = models.LevelWarn
	warn.Exclude = []string{"String", "Close"}
	warn.Timing = true

	specs := models.SpecSet{
		"example.com/shop/orders.OrderService": warn,
		"example.com/shop/billing.Invoicer":    models.DefaultLogSpec(),
	}

	require.NoError(t, Save(path, "example.com/shop", specs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "version: 1\nmodule: example.com/shop\n"), text)
	assert.Less(t, strings.Index(text, "billing.Invoicer"), strings.Index(text, "orders.OrderService"),
		"entries must be ordered by key")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, models.SpecSet{
		"example.com/shop/orders.OrderService": warn.Normalized(),
		"example.com/shop/billing.Invoicer":    models.DefaultLogSpec(),
	}, loaded)
}

func TestDecode_DefaultsForOmittedFields(t *testing.T) {
	m, err := Decode(strings.NewReader(`
version: 1
types:
  - key: example.com/app.Service
    level: debug
  - key: Local
    exclude: [b, a]
`))
	require.NoError(t, err)

	specs, err := m.SpecSet()
	require.NoError(t, err)

	svc := specs["example.com/app.Service"]
	assert.Equal(t, models.LevelDebug, svc.Level)
	assert.Equal(t, models.DefaultBeforeTemplate, svc.Before)
	assert.Equal(t, models.DefaultAfterTemplate, svc.After)
	assert.Equal(t, models.DefaultPattern, svc.Pattern)

	assert.Equal(t, []string{"a", "b"}, specs["Local"].Exclude)
}

func TestSpecSet_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"bad version", "version: 2\ntypes: []\n", "unsupported manifest version"},
		{"bad level", "version: 1\ntypes:\n  - key: a.B\n    level: LOUD\n", "field 'level': expected one of [INFO WARN ERROR FATAL DEBUG TRACE], got LOUD"},
		{"bad key", "version: 1\ntypes:\n  - key: example.com/x.1bad\n", "field 'type name': expected a Go identifier, got \"1bad\""},
		{"empty key", "version: 1\ntypes:\n  - level: INFO\n", "field 'key': expected a value, got nothing"},
		{"bad exclude", "version: 1\ntypes:\n  - key: a.B\n    exclude: [\"x y\"]\n", "failed to validate exclude[0]"},
		{"nul before", "version: 1\ntypes:\n  - key: a.B\n    before: \"a\\0b\"\n", "field 'before': expected text without NUL bytes"},
		{"duplicate", "version: 1\ntypes:\n  - key: a.B\n  - key: a.B\n", "duplicate key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode(strings.NewReader(tt.doc))
			require.NoError(t, err)
			_, err = m.SpecSet()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			var base *autologerrors.BaseError
			require.True(t, errors.As(err, &base))
			assert.Equal(t, autologerrors.ManifestErrorCode, base.ErrorCode())
		})
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("version: 1\ntypes:\n  - key: a.B\n    colour: red\n"))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open manifest")
}

func TestEncode_OmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	m := &Manifest{Version: Version, Types: []TypeEntry{{Key: "a.B", Level: "INFO"}}}
	require.NoError(t, m.Encode(&buf))
	assert.Equal(t, "version: 1\ntypes:\n  - key: a.B\n    level: INFO\n", buf.String())
}
