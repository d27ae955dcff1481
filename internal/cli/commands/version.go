package commands

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time.
var Version = "dev"

const modulePath = "github.com/ccollicutt/spilltrace"

// buildInfo reports the main module path and the VCS revision stamped by the
// go tool, if any.
func buildInfo() (path, revision string) {
	path = modulePath
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return path, ""
	}
	if bi.Main.Path != "" {
		path = bi.Main.Path
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			revision = s.Value
		}
	}
	return path, revision
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print the spilltrace version, module path, Go toolchain and platform.",
		Run: func(cmd *cobra.Command, args []string) {
			path, rev := buildInfo()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "spilltrace %s\n", Version)
			fmt.Fprintf(w, "  module:   %s\n", path)
			if rev != "" {
				fmt.Fprintf(w, "  revision: %s\n", rev)
			}
			fmt.Fprintf(w, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
