package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gomdlint/mdcompose/pkg/mdcompose"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Display detailed version information for mdcompose including build details.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mdcompose version %s\n", version)
			fmt.Fprintf(out, "  library: %s\n", mdcompose.GetVersion())
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built: %s\n", date)
			fmt.Fprintf(out, "  go: %s\n", runtime.Version())
		},
	}
}
