package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/toyz/autolog/internal/utils"
)

// Version is stamped at build time with -ldflags "-X main.Version=..."
var Version = "dev"

type rootOptions struct {
	verbose bool
	quiet   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "autolog",
		Short: "Inject entry and exit logging into annotated Go types",
		Long: `autolog rewrites Go packages in place. Every method of a type annotated
with //autolog::log logs when it is entered and, through defer, when it
returns or panics.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose output and detailed error reporting")
	root.PersistentFlags().BoolVar(&opts.quiet, "quiet", false, "Only show errors and final results")

	root.AddCommand(newInstrumentCmd(opts))
	root.AddCommand(newExtractCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// diagnostics picks the output level from the global flags. Quiet wins.
func (o *rootOptions) diagnostics(out, errOut io.Writer) *utils.DiagnosticSystem {
	var d *utils.DiagnosticSystem
	switch {
	case o.quiet:
		d = utils.NewQuietDiagnostics()
	case o.verbose:
		d = utils.NewVerboseDiagnostics()
	default:
		d = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	return d.WithOutput(out, errOut)
}

// rootsOrDefault scans the current module when no roots are given
func rootsOrDefault(args []string) []string {
	if len(args) == 0 {
		return []string{"./..."}
	}
	return args
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
