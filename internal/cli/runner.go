package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/toyz/autolog/internal/annotations"
	autologerrors "github.com/toyz/autolog/internal/errors"
	"github.com/toyz/autolog/internal/instrument"
	"github.com/toyz/autolog/internal/manifest"
	"github.com/toyz/autolog/internal/models"
	"github.com/toyz/autolog/internal/parser"
	"github.com/toyz/autolog/internal/utils"
)

// Summary collects the counts reported at the end of a run
type Summary struct {
	PackagesProcessed    int
	TypesInstrumented    int
	MethodsInstrumented  int
	TypesAlreadyDone     int
	PackagesFailed       int
	WrittenFiles         []string
	MissingManifestTypes []models.TypeKey
}

// Stats returns the summary in the shape DiagnosticSystem.Summary expects
func (s Summary) Stats() map[string]interface{} {
	return map[string]interface{}{
		"Packages processed":   s.PackagesProcessed,
		"Types instrumented":   s.TypesInstrumented,
		"Methods instrumented": s.MethodsInstrumented,
		"Already instrumented": s.TypesAlreadyDone,
		"Files written":        len(s.WrittenFiles),
		"Packages failed":      s.PackagesFailed,
	}
}

// Runner coordinates discovery, spec selection and instrumentation
type Runner struct {
	scanner      *Scanner
	instrumenter *instrument.Instrumenter
	diagnostics  *utils.DiagnosticSystem
	summary      Summary
}

// NewRunner creates a runner for cfg. The runtime binding is resolved here so
// a bad [runtime] section fails before any file is touched.
func NewRunner(cfg Config, diagnostics *utils.DiagnosticSystem) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	binding, err := instrument.NewRuntimeBinding(cfg.Runtime.Import, cfg.Runtime.Name)
	if err != nil {
		return nil, autologerrors.WrapConfigurationError("runtime", "validate", err)
	}
	return &Runner{
		scanner:      NewScanner(cfg.Instrument.SkipDirs, diagnostics),
		instrumenter: instrument.New(instrument.WithRuntime(binding), instrument.WithDryRun(cfg.DryRun)),
		diagnostics:  diagnostics,
	}, nil
}

// GetSummary returns the summary of the last run
func (r *Runner) GetSummary() Summary {
	return r.summary
}

// Run instruments every package below cfg.Directories, one package at a time.
// With no packages or no annotated types it warns and returns nil.
func (r *Runner) Run(cfg Config) error {
	startTime := time.Now()
	r.summary = Summary{}

	r.diagnostics.Verbose("Starting instrumentation at %s", startTime.Format("15:04:05"))
	r.diagnostics.Debug("Scanning directories: %v", cfg.Directories)
	if cfg.Path != "" {
		r.diagnostics.Verbose("Using configuration %s", cfg.Path)
	}

	specSource, err := r.loadManifest(cfg)
	if err != nil {
		return err
	}

	packageDirs, err := r.scanner.PackageDirs(cfg.Directories)
	if err != nil {
		r.diagnostics.Error("Failed to scan directories: %v", err)
		return &models.GeneratorError{
			Type:    models.ErrorTypeFileSystem,
			Message: fmt.Sprintf("Failed to scan directories: %v", err),
			Cause:   err,
			Suggestions: []string{
				"Check that the specified directories exist",
				"Ensure you have read permissions for the directories",
			},
			Context: map[string]interface{}{"directories": cfg.Directories},
		}
	}

	if len(packageDirs) == 0 {
		r.diagnostics.Warn("No Go packages found in %v, nothing to instrument", cfg.Directories)
		return nil
	}

	r.diagnostics.Verbose("Found %d packages to process", len(packageDirs))
	r.diagnostics.Indent()
	for _, dir := range packageDirs {
		r.diagnostics.Debug("%s", dir)
	}
	r.diagnostics.Unindent()

	policy := cfg.Policy()
	errs := autologerrors.NewMultipleErrors()
	seen := make(map[models.TypeKey]bool)
	candidates := 0

	for _, dir := range packageDirs {
		n, err := r.processPackage(dir, specSource, seen)
		candidates += n
		if err == nil {
			continue
		}

		r.summary.PackagesFailed++
		wrapped := packageError(dir, err)
		if policy == PolicyAbort {
			return wrapped
		}
		r.diagnostics.Error("%v", wrapped)
		errs.Add(wrapped)
	}

	if specSource != nil {
		for _, key := range specSource.Keys() {
			if !seen[key] {
				r.summary.MissingManifestTypes = append(r.summary.MissingManifestTypes, key)
				r.diagnostics.Warn("Manifest type %s was not found in the scanned packages", key)
			}
		}
	}

	if candidates == 0 && errs.IsEmpty() {
		r.diagnostics.Warn("No annotated types found, nothing to instrument")
	}

	r.diagnostics.Verbose("Instrumentation finished in %s", time.Since(startTime).Round(time.Millisecond))
	return errs.ErrorOrNil()
}

func (r *Runner) loadManifest(cfg Config) (models.SpecSet, error) {
	if cfg.Instrument.Manifest == "" {
		return nil, nil
	}
	specs, err := manifest.Load(cfg.Instrument.Manifest)
	if err != nil {
		r.diagnostics.Error("Failed to load manifest: %v", err)
		return nil, err
	}
	r.diagnostics.Verbose("Loaded %d types from manifest %s", len(specs), cfg.Instrument.Manifest)
	return specs, nil
}

// processPackage parses and instruments one directory and returns how many
// of its types had a spec. Annotations are the spec source unless a manifest
// was loaded.
func (r *Runner) processPackage(dir string, manifestSpecs models.SpecSet, seen map[models.TypeKey]bool) (int, error) {
	types, err := r.scanner.ParsePackage(dir)
	if err != nil {
		return 0, err
	}
	if len(types) == 0 {
		return 0, nil
	}
	r.summary.PackagesProcessed++

	specs := manifestSpecs
	if specs == nil {
		specs = parser.ExtractSpecs(types)
	}

	candidates := 0
	for _, t := range types {
		if _, ok := specs.Lookup(t); ok {
			seen[t.Key] = true
			candidates++
		}
	}
	if candidates == 0 {
		return 0, nil
	}

	result, err := r.instrumenter.Package(dir, types, specs)
	if result != nil {
		r.record(result)
	}
	return candidates, err
}

func (r *Runner) record(result *instrument.Result) {
	for _, t := range result.Types {
		r.diagnostics.Info("Add logger to type: %s", t.Name)
		r.diagnostics.Indent()
		for _, m := range t.Methods {
			r.diagnostics.Verbose("%s.%s", t.Name, m)
		}
		for _, m := range t.Skipped {
			r.diagnostics.Debug("%s.%s left alone", t.Name, m)
		}
		r.diagnostics.Unindent()
	}
	for _, s := range result.Skipped {
		r.diagnostics.Warn("Type %s is %s, skipping", s.Name, s.Reason)
	}

	r.summary.TypesInstrumented += len(result.Types)
	r.summary.MethodsInstrumented += result.MethodCount()
	r.summary.TypesAlreadyDone += len(result.Skipped)
	r.summary.WrittenFiles = append(r.summary.WrittenFiles, result.Files...)
}

// packageError attaches the package and a hint to a failure
func packageError(dir string, err error) *models.GeneratorError {
	genErr := &models.GeneratorError{
		Type:    models.ErrorTypeValidation,
		Message: fmt.Sprintf("Failed to instrument package %s: %v", dir, err),
		Cause:   err,
		Context: map[string]interface{}{"package_directory": dir},
	}

	var annErr annotations.AnnotationError
	var autoErr autologerrors.AutologError
	switch {
	case errors.As(err, &annErr):
		genErr.Type = models.ErrorTypeAnnotationSyntax
		genErr.Suggestions = []string{"Check the //autolog::log annotation syntax"}
		if hint := annErr.Suggestion(); hint != "" {
			genErr.Suggestions = append(genErr.Suggestions, hint)
		}
	case errors.As(err, &autoErr):
		switch autoErr.ErrorCode() {
		case autologerrors.SyntaxErrorCode:
			genErr.Type = models.ErrorTypeAnnotationSyntax
			genErr.Suggestions = []string{"Check for syntax errors in Go files"}
		case autologerrors.InstrumentationErrorCode:
			genErr.Type = models.ErrorTypeInstrumentation
		case autologerrors.FileSystemErrorCode:
			genErr.Type = models.ErrorTypeFileSystem
			genErr.Suggestions = []string{"Ensure you have write permissions for the package files"}
		}
		genErr.Suggestions = append(genErr.Suggestions, autoErr.Suggestions()...)
	}
	return genErr
}
