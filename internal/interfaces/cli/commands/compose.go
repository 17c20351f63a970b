package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gomdlint/mdcompose/pkg/mdcompose"
)

// Output formats of the compose command.
const (
	formatOutline = "outline"
	formatJSON    = "json"
)

// NewComposeCommand creates the compose command.
func NewComposeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose <file>",
		Short: "Compose a document with its imports",
		Long: `Parse a document, resolve its imports and cross-references, and print
an outline or the full document tree.

Examples:
  mdcompose compose book.md
  mdcompose compose --format json --output book.json book.md
  mdcompose compose --no-cache --concurrency 1 book.md`,
		Args: cobra.ExactArgs(1),
		RunE: runCompose,
	}

	cmd.Flags().StringP("format", "f", formatOutline, "Output format (outline, json)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Bool("no-cache", false, "Disable the parse cache")
	cmd.Flags().Int("concurrency", 0, "Number of documents parsed at once (0 = configured)")

	return cmd
}

func runCompose(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	global := readGlobalOptions(cmd)

	format, _ := cmd.Flags().GetString("format")
	outputFile, _ := cmd.Flags().GetString("output")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	if format != formatOutline && format != formatJSON {
		return fmt.Errorf("unknown format %q (expected %s or %s)", format, formatOutline, formatJSON)
	}
	if concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", concurrency)
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}

	logger, err := newLogger(global.verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	themed := newThemedOutput(cmd, path, global)

	result, err := mdcompose.Compose(ctx, path, mdcompose.ComposeOptions{
		ConfigFile:  global.configFile,
		NoConfig:    global.noConfig,
		Concurrency: concurrency,
		NoCache:     noCache,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("composition failed: %w", err)
	}

	var rendered string
	switch format {
	case formatJSON:
		if rendered, err = result.ToJSON(); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		rendered += "\n"
	default:
		var buf strings.Builder
		themed.WithWriter(&buf).WithColors(global.color && outputFile == "").Outline(result)
		rendered = buf.String()
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(rendered), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	} else {
		themed.Plain("%s", rendered)
	}

	themed.Diagnostics(result)
	if !global.quiet {
		themed.Summary(result)
	}

	if result.HasErrors() {
		return fmt.Errorf("composition of %s reported %d diagnostics", path, len(result.Diagnostics))
	}
	return nil
}
