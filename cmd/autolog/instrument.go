package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toyz/autolog/internal/cli"
	"github.com/toyz/autolog/internal/models"
	"github.com/toyz/autolog/internal/utils"
)

type instrumentOptions struct {
	config      string
	manifest    string
	runtime     string
	runtimeName string
	onError     string
	failOnError bool
	dryRun      bool
	skipDirs    []string
}

func newInstrumentCmd(root *rootOptions) *cobra.Command {
	opts := &instrumentOptions{}

	cmd := &cobra.Command{
		Use:   "instrument [directories...]",
		Short: "Rewrite annotated types so their methods log entry and exit",
		Long: `Scan the given directories for types annotated with //autolog::log and
rewrite their methods in place. Directories accept the Go-style "./..."
suffix and default to the current module.

Examples:
  autolog instrument ./...
  autolog instrument --on-error=continue ./internal/...
  autolog instrument --manifest autolog.yaml ./...
  autolog instrument --runtime example.com/obs/tracing --runtime-name obs ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstrument(cmd, root, opts, rootsOrDefault(args))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.config, "config", "", "Path to the config file (defaults to the nearest "+cli.ConfigFileName+")")
	flags.StringVar(&opts.manifest, "manifest", "", "Take specs from a YAML manifest instead of annotations")
	flags.StringVar(&opts.runtime, "runtime", "", "Import path of the logging runtime the injected code calls")
	flags.StringVar(&opts.runtimeName, "runtime-name", "", "Package name of the runtime, if it differs from the last path element")
	flags.StringVar(&opts.onError, "on-error", "", "What to do when a package fails: abort or continue")
	flags.BoolVar(&opts.failOnError, "fail-on-error", false, "Exit non-zero when any package fails")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Report what would change without writing files")
	flags.StringSliceVar(&opts.skipDirs, "skip-dir", nil, "Additional directory names to skip while scanning")
	return cmd
}

// loadConfig reads the config file and lets explicitly set flags override it
func (o *instrumentOptions) loadConfig(cmd *cobra.Command, roots []string) (cli.Config, error) {
	cfg, err := cli.LoadConfig(o.config, roots)
	if err != nil {
		return cli.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("manifest") {
		cfg.Instrument.Manifest = o.manifest
	}
	if flags.Changed("runtime") {
		cfg.Runtime.Import = o.runtime
		cfg.Runtime.Name = ""
	}
	if flags.Changed("runtime-name") {
		cfg.Runtime.Name = o.runtimeName
	}
	if flags.Changed("on-error") {
		cfg.Instrument.OnError = o.onError
	}
	if flags.Changed("fail-on-error") {
		cfg.Instrument.FailBuild = o.failOnError
	}
	cfg.Instrument.SkipDirs = append(cfg.Instrument.SkipDirs, o.skipDirs...)
	cfg.Directories = roots
	cfg.DryRun = o.dryRun

	return cfg, cfg.Validate()
}

func runInstrument(cmd *cobra.Command, root *rootOptions, opts *instrumentOptions, roots []string) error {
	diagnostics := root.diagnostics(cmd.OutOrStdout(), cmd.ErrOrStderr())
	diagnostics.Section("autolog")

	cfg, err := opts.loadConfig(cmd, roots)
	if err != nil {
		return err
	}
	cfg.Verbose = root.verbose

	if root.verbose {
		diagnostics.Subsection("Configuration")
		diagnostics.List("Target directories: %s", strings.Join(roots, ", "))
		if cfg.Path != "" {
			diagnostics.List("Config file: %s", cfg.Path)
		}
		if cfg.Instrument.Manifest != "" {
			diagnostics.List("Manifest: %s", cfg.Instrument.Manifest)
		}
		if cfg.Runtime.Import != "" {
			diagnostics.List("Runtime: %s", cfg.Runtime.Import)
		}
		diagnostics.List("On error: %s", cfg.Policy())
		if cfg.DryRun {
			diagnostics.List("Dry run: enabled")
		}
	}

	runner, err := cli.NewRunner(cfg, diagnostics)
	if err != nil {
		return err
	}

	runErr := runner.Run(cfg)
	summary := runner.GetSummary()
	diagnostics.Summary("Instrumentation Complete!", summary.Stats())

	if root.verbose && len(summary.WrittenFiles) > 0 {
		if cfg.DryRun {
			diagnostics.Subsection("Files That Would Change")
		} else {
			diagnostics.Subsection("Written Files")
		}
		for _, file := range summary.WrittenFiles {
			diagnostics.List("%s", file)
		}
	}

	if runErr == nil {
		return nil
	}
	if cfg.Policy() == cli.PolicyAbort {
		reportFailure(diagnostics, runErr)
	}
	if cfg.Instrument.FailBuild {
		return runErr
	}
	diagnostics.Warn("Instrumentation reported errors; exiting cleanly because fail_build is off")
	return nil
}

// reportFailure prints an aborted run's error with its hints
func reportFailure(diagnostics *utils.DiagnosticSystem, err error) {
	diagnostics.Error("%v", err)

	var genErr *models.GeneratorError
	if !errors.As(err, &genErr) || len(genErr.Suggestions) == 0 {
		return
	}
	diagnostics.Indent()
	for _, hint := range genErr.Suggestions {
		diagnostics.List("%s", hint)
	}
	diagnostics.Unindent()
}
