// Package manifest stores a SpecSet as a YAML document so that types can be
// instrumented without carrying annotations in their source.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	autologerrors "github.com/toyz/autolog/internal/errors"
	"github.com/toyz/autolog/internal/models"
	"github.com/toyz/autolog/internal/utils"
)

// Version is the manifest format version written by Save
const Version = 1

// DefaultFileName is the manifest name used when none is given
const DefaultFileName = "autolog.yaml"

// Manifest is the on-disk form of a SpecSet
type Manifest struct {
	Version int         `yaml:"version"`
	Module  string      `yaml:"module,omitempty"`
	Types   []TypeEntry `yaml:"types"`
}

// TypeEntry is the spec for one type. Fields left empty take their defaults
// on load.
type TypeEntry struct {
	Key     string   `yaml:"key"`
	Level   string   `yaml:"level,omitempty"`
	Before  string   `yaml:"before,omitempty"`
	After   string   `yaml:"after,omitempty"`
	Pattern string   `yaml:"pattern,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
	Timing  bool     `yaml:"timing,omitempty"`
}

// FromSpecSet builds a manifest with entries ordered by key
func FromSpecSet(modulePath string, specs models.SpecSet) *Manifest {
	m := &Manifest{Version: Version, Module: modulePath, Types: make([]TypeEntry, 0, len(specs))}
	for _, key := range specs.Keys() {
		spec := specs[key].Normalized()
		m.Types = append(m.Types, TypeEntry{
			Key:     string(key),
			Level:   spec.Level.String(),
			Before:  spec.Before,
			After:   spec.After,
			Pattern: spec.Pattern,
			Exclude: spec.Exclude,
			Timing:  spec.Timing,
		})
	}
	return m
}

// SpecSet validates every entry and converts the manifest back
func (m *Manifest) SpecSet() (models.SpecSet, error) {
	if m.Version != Version {
		return nil, autologerrors.Newf(autologerrors.ManifestErrorCode,
			"unsupported manifest version %d, expected %d", m.Version, Version)
	}

	specs := make(models.SpecSet, len(m.Types))
	errs := autologerrors.NewMultipleErrors()
	for i, entry := range m.Types {
		spec, err := entry.toLogSpec()
		if err != nil {
			errs.Add(autologerrors.Wrapf(autologerrors.ManifestErrorCode, err, "types[%d]", i).
				WithContext("key", entry.Key))
			continue
		}
		key := models.TypeKey(entry.Key)
		if _, dup := specs[key]; dup {
			errs.Add(autologerrors.Newf(autologerrors.ManifestErrorCode, "types[%d]: duplicate key %s", i, entry.Key))
			continue
		}
		specs[key] = spec
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return specs, nil
}

var (
	validTypeName = utils.NewValidatorChain(utils.IsValidGoIdentifier("type name"), utils.NotIn("type name", "_"))
	validExclude  = utils.ValidateEach("exclude", utils.IsValidGoIdentifier("method name"))
	validLevel    = utils.IsOneOf("level", levelNames()...)
)

func levelNames() []string {
	names := make([]string, len(models.Levels))
	for i, l := range models.Levels {
		names[i] = l.String()
	}
	return names
}

func (e TypeEntry) toLogSpec() (models.LogSpec, error) {
	if err := ValidateKey(e.Key); err != nil {
		return models.LogSpec{}, err
	}

	spec := models.DefaultLogSpec()
	if e.Level != "" {
		name := strings.ToUpper(strings.TrimSpace(e.Level))
		if err := validLevel(name); err != nil {
			return models.LogSpec{}, err
		}
		spec.Level, _ = models.ParseLevel(name)
	}
	texts := []struct {
		field string
		value string
		dst   *string
	}{
		{"before", e.Before, &spec.Before},
		{"after", e.After, &spec.After},
		{"pattern", e.Pattern, &spec.Pattern},
	}
	for _, text := range texts {
		if text.value == "" {
			continue
		}
		if err := utils.IsText(text.field)(text.value); err != nil {
			return models.LogSpec{}, err
		}
		*text.dst = text.value
	}

	exclude := make([]string, len(e.Exclude))
	for i, name := range e.Exclude {
		exclude[i] = strings.TrimSpace(name)
	}
	if err := validExclude(exclude); err != nil {
		return models.LogSpec{}, err
	}
	if len(e.Exclude) > 0 {
		spec.Exclude = e.Exclude
	}
	spec.Timing = e.Timing
	return spec.Normalized(), nil
}

// ValidateKey checks the importpath.TypeName form of a key. Keys without an
// import path name a type in a directory outside any module.
func ValidateKey(key string) error {
	if err := utils.NotEmpty("key")(key); err != nil {
		return err
	}
	importPath, name := "", key
	if i := strings.LastIndex(key, "."); i >= 0 {
		importPath, name = key[:i], key[i+1:]
	}
	if err := validTypeName.Validate(name); err != nil {
		return autologerrors.WrapValidationError(fmt.Sprintf("key %q", key), err)
	}
	if importPath != "" {
		if err := module.CheckImportPath(importPath); err != nil {
			return autologerrors.WrapValidationError(fmt.Sprintf("key %q", key), err)
		}
	}
	return nil
}

// Encode writes the manifest as YAML
func (m *Manifest) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

// Decode reads a manifest, rejecting unknown fields
func Decode(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("manifest is empty")
		}
		return nil, err
	}
	return &m, nil
}

// Save writes specs to path
func Save(path, modulePath string, specs models.SpecSet) error {
	var buf bytes.Buffer
	if err := FromSpecSet(modulePath, specs).Encode(&buf); err != nil {
		return autologerrors.WrapManifestError(path, "encode", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return autologerrors.WrapManifestError(path, "write", err)
	}
	return nil
}

// Load reads and validates the manifest at path
func Load(path string) (models.SpecSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, autologerrors.WrapManifestError(path, "open", err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, autologerrors.WrapManifestError(path, "decode", err)
	}
	specs, err := m.SpecSet()
	if err != nil {
		return nil, autologerrors.WrapManifestError(path, "validate", err)
	}
	return specs, nil
}
