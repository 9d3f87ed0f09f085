package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/toyz/autolog/internal/cli"
	"github.com/toyz/autolog/internal/manifest"
	"github.com/toyz/autolog/internal/models"
	"github.com/toyz/autolog/internal/parser"
	"github.com/toyz/autolog/internal/utils"
)

type extractOptions struct {
	output   string
	skipDirs []string
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [directories...]",
		Short: "Write the specs of annotated types to a YAML manifest",
		Long: `Collect every //autolog::log annotation below the given directories and
write them as a manifest. "instrument --manifest" can then apply the same
specs without the annotations. Use "-o -" to print to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, root, opts, rootsOrDefault(args))
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", manifest.DefaultFileName, "Manifest file to write")
	cmd.Flags().StringSliceVar(&opts.skipDirs, "skip-dir", nil, "Additional directory names to skip while scanning")
	return cmd
}

func runExtract(cmd *cobra.Command, root *rootOptions, opts *extractOptions, roots []string) error {
	diagnostics := root.diagnostics(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.output == "-" {
		// keep stdout clean for the manifest
		diagnostics.WithOutput(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	}

	types, err := cli.NewScanner(opts.skipDirs, diagnostics).Discover(roots)
	if err != nil {
		return err
	}
	specs := parser.ExtractSpecs(types)
	for _, group := range models.GroupByDir(types) {
		annotated := 0
		for _, t := range group.Types {
			if t.Annotated() {
				annotated++
			}
		}
		diagnostics.Verbose("%s: %d annotated of %d types", group.Dir, annotated, len(group.Types))
	}
	if len(specs) == 0 {
		diagnostics.Warn("No annotated types found, nothing to extract")
		return nil
	}

	modulePath := ""
	gomod := utils.NewGoModParser()
	if goModFile, err := gomod.FindGoModFile(filepath.Clean(cli.BaseDir(roots[0]))); err == nil {
		if name, err := gomod.ParseModuleName(goModFile); err == nil {
			modulePath = name
		}
	}

	if opts.output == "-" {
		return manifest.FromSpecSet(modulePath, specs).Encode(cmd.OutOrStdout())
	}
	if err := manifest.Save(opts.output, modulePath, specs); err != nil {
		return err
	}
	diagnostics.Success("Wrote %d types to %s", len(specs), opts.output)
	return nil
}
