package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the autolog version",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "autolog %s\n", Version)
			if !full {
				return nil
			}

			fmt.Fprintf(out, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			if info, ok := debug.ReadBuildInfo(); ok {
				fmt.Fprintf(out, "module: %s %s\n", info.Main.Path, info.Main.Version)
				for _, setting := range info.Settings {
					if setting.Key == "vcs.revision" || setting.Key == "vcs.time" {
						fmt.Fprintf(out, "%s: %s\n", setting.Key, setting.Value)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Include toolchain and build metadata")
	return cmd
}
