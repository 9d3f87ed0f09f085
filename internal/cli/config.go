package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	autologerrors "github.com/toyz/autolog/internal/errors"
	"github.com/toyz/autolog/internal/utils"
)

// ConfigFileName is looked up from the first root towards the filesystem root
const ConfigFileName = ".autolog.toml"

// ErrorPolicy decides what happens after a package fails
type ErrorPolicy string

const (
	// PolicyAbort stops at the first failing package
	PolicyAbort ErrorPolicy = "abort"
	// PolicyContinue reports the failure and moves on to the next package
	PolicyContinue ErrorPolicy = "continue"
)

// ParseErrorPolicy converts a config or flag value. Empty means abort.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyAbort):
		return PolicyAbort, nil
	case string(PolicyContinue):
		return PolicyContinue, nil
	default:
		return "", fmt.Errorf("on_error must be %q or %q, got %q", PolicyAbort, PolicyContinue, s)
	}
}

// Config holds the configuration for an instrumentation run
type Config struct {
	// Directories is the list of roots to scan; "./..." style suffixes are accepted
	Directories []string `toml:"-"`

	// Verbose enables detailed logging and error reporting
	Verbose bool `toml:"-"`

	// DryRun computes every rewrite without writing files
	DryRun bool `toml:"-"`

	// Path is the config file the values were read from, if any
	Path string `toml:"-"`

	Runtime    RuntimeConfig    `toml:"runtime"`
	Instrument InstrumentConfig `toml:"instrument"`
}

// RuntimeConfig selects the package injected code calls
type RuntimeConfig struct {
	Import string `toml:"import"`
	Name   string `toml:"name"`
}

// InstrumentConfig controls how failures and specs are handled
type InstrumentConfig struct {
	OnError   string   `toml:"on_error"`
	FailBuild bool     `toml:"fail_build"`
	Manifest  string   `toml:"manifest"`
	SkipDirs  []string `toml:"skip_dirs"`
}

// DefaultConfig returns the configuration used when no file is found
func DefaultConfig() Config {
	return Config{
		Instrument: InstrumentConfig{OnError: string(PolicyAbort)},
	}
}

// Policy returns the parsed error policy. Validate must have succeeded.
func (c Config) Policy() ErrorPolicy {
	policy, err := ParseErrorPolicy(c.Instrument.OnError)
	if err != nil {
		return PolicyAbort
	}
	return policy
}

var validSkipDirs = utils.ValidateEach("skip_dirs", utils.Custom("directory", "a plain directory name",
	func(dir string) bool { return dir != "" && !strings.ContainsAny(dir, `/\`) }))

// Validate checks the values a config file or flags can get wrong
func (c Config) Validate() error {
	if _, err := ParseErrorPolicy(c.Instrument.OnError); err != nil {
		return autologerrors.WrapConfigurationError("instrument", "validate", err)
	}
	if err := validSkipDirs(c.Instrument.SkipDirs); err != nil {
		return autologerrors.WrapConfigurationError("instrument", "validate", err)
	}
	return nil
}

// FindConfigFile walks up from startDir to locate .autolog.toml
func FindConfigFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadConfigFile reads one config file. Unknown keys are rejected and a
// relative manifest path is resolved against the file's directory.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, autologerrors.WrapConfigurationError("toml", "parse", fmt.Errorf("%s: %w", path, err))
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return Config{}, autologerrors.WrapConfigurationError("toml", "parse",
			fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", ")))
	}

	if cfg.Instrument.Manifest != "" && !filepath.IsAbs(cfg.Instrument.Manifest) {
		cfg.Instrument.Manifest = filepath.Join(filepath.Dir(path), cfg.Instrument.Manifest)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads explicitPath when set, otherwise the nearest config file
// above the first root. No file yields the defaults.
func LoadConfig(explicitPath string, roots []string) (Config, error) {
	if explicitPath != "" {
		return LoadConfigFile(explicitPath)
	}

	start := "."
	if len(roots) > 0 {
		start = BaseDir(roots[0])
	}
	path, ok, err := FindConfigFile(start)
	if err != nil {
		return Config{}, autologerrors.WrapConfigurationError("toml", "locate", err)
	}
	if !ok {
		return DefaultConfig(), nil
	}
	return LoadConfigFile(path)
}
