package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ErrorPolicy
		wantErr bool
	}{
		{"", PolicyAbort, false},
		{"abort", PolicyAbort, false},
		{" Continue ", PolicyContinue, false},
		{"retry", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseErrorPolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, PolicyAbort, cfg.Policy())
	assert.False(t, cfg.Instrument.FailBuild)
	assert.Empty(t, cfg.Runtime.Import)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[runtime]
import = "example.com/obs/tracing"
name = "obs"

[instrument]
on_error = "continue"
fail_build = true
manifest = "specs/autolog.yaml"
skip_dirs = ["generated", "mocks"]
`), 0644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, RuntimeConfig{Import: "example.com/obs/tracing", Name: "obs"}, cfg.Runtime)
	assert.Equal(t, PolicyContinue, cfg.Policy())
	assert.True(t, cfg.Instrument.FailBuild)
	assert.Equal(t, filepath.Join(dir, "specs", "autolog.yaml"), cfg.Instrument.Manifest)
	assert.Equal(t, []string{"generated", "mocks"}, cfg.Instrument.SkipDirs)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad toml", "[runtime\nimport = 1", "failed to parse configuration"},
		{"unknown key", "[instrument]\nretries = 3\n", "unknown keys: instrument.retries"},
		{"bad policy", "[instrument]\non_error = \"retry\"\n", "on_error must be"},
		{"bad skip dir", "[instrument]\nskip_dirs = [\"a/b\"]\n", "expected a plain directory name, got a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfigFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig_DiscoversUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), []byte("[instrument]\non_error = \"continue\"\n"), 0644))
	nested := filepath.Join(root, "internal", "orders")
	require.NoError(t, os.MkdirAll(nested, 0755))

	cfg, err := LoadConfig("", []string{nested + "/..."})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ConfigFileName), cfg.Path)
	assert.Equal(t, PolicyContinue, cfg.Policy())
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[runtime]\nname = \"obs\"\n"), 0644))

	cfg, err := LoadConfig(path, []string{"./..."})
	require.NoError(t, err)
	assert.Equal(t, "obs", cfg.Runtime.Name)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.Error(t, err)
}

func TestBaseDir(t *testing.T) {
	assert.Equal(t, ".", BaseDir("./..."))
	assert.Equal(t, ".", BaseDir("..."))
	assert.Equal(t, "./internal", BaseDir("./internal/..."))
	assert.Equal(t, "pkg/orders", BaseDir("pkg/orders"))
	assert.Equal(t, "/", BaseDir("/..."))
}
