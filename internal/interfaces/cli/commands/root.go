package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gomdlint/mdcompose/internal/domain/value"
	"github.com/gomdlint/mdcompose/internal/interfaces/cli/output"
	"github.com/gomdlint/mdcompose/pkg/mdcompose"
)

// NewRootCommand creates the mdcompose command with all subcommands attached.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mdcompose",
		Short: "Compose extended markdown documents",
		Long: `mdcompose parses extended markdown documents, resolves their imports
and cross-references, and prints the composed result.`,
		Version:       fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(
		NewComposeCommand(),
		NewConfigCommand(),
		NewCacheCommand(),
		NewVersionCommand(version, commit, date),
	)

	return rootCmd
}

func addGlobalFlags(cmd *cobra.Command) {
	// Configuration flags
	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	cmd.PersistentFlags().Bool("no-config", false, "Ignore configuration files")

	// Output flags
	cmd.PersistentFlags().Bool("color", true, "Enable colored output")
	cmd.PersistentFlags().Bool("quiet", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}

// globalOptions reads the persistent flags shared by all commands.
type globalOptions struct {
	configFile string
	noConfig   bool
	color      bool
	quiet      bool
	verbose    bool
}

func readGlobalOptions(cmd *cobra.Command) globalOptions {
	var opts globalOptions
	opts.configFile, _ = cmd.Flags().GetString("config")
	opts.noConfig, _ = cmd.Flags().GetBool("no-config")
	opts.color, _ = cmd.Flags().GetBool("color")
	opts.quiet, _ = cmd.Flags().GetBool("quiet")
	opts.verbose, _ = cmd.Flags().GetBool("verbose")
	return opts
}

// newLogger builds a development logger for --verbose and a production
// logger that only reports warnings otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

// newThemedOutput creates the output for cmd, themed by the configuration
// that applies to path. The default theme is used when it cannot be loaded.
func newThemedOutput(cmd *cobra.Command, path string, global globalOptions) *output.ThemedOutput {
	opts := mdcompose.ComposeOptions{ConfigFile: global.configFile, NoConfig: global.noConfig}

	var themed *output.ThemedOutput
	if config, err := mdcompose.LoadConfig(cmd.Context(), path, opts); err == nil {
		themed, _ = output.NewThemedOutput(config.Output)
	}
	if themed == nil {
		themed, _ = output.NewThemedOutput(value.NewThemeConfig())
	}

	return themed.
		WithWriter(cmd.OutOrStdout()).
		WithErrorWriter(cmd.ErrOrStderr()).
		WithColors(global.color)
}
