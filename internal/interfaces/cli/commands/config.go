package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gomdlint/mdcompose/internal/app/service"
	"github.com/gomdlint/mdcompose/internal/domain/value"
	"github.com/gomdlint/mdcompose/internal/shared/utils"
)

// NewConfigCommand creates the config command for configuration management.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  `Inspect and create mdcompose configuration files.`,
	}

	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigShowCommand(),
		newConfigWhichCommand(),
	)

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a new configuration file",
		Long: `Create an mdcompose.toml holding the default configuration in the given
directory, or in the current directory when none is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, dirArg(args))
		},
	}
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [dir]",
		Short: "Show effective configuration",
		Long:  `Display the merged configuration that applies to documents in the given directory.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, dirArg(args))
		},
	}
}

func newConfigWhichCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "which [dir]",
		Short: "Show which configuration files are being used",
		Long: `Display the configuration files merged for documents in the given directory,
lowest priority first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return whichConfig(cmd, dirArg(args))
		},
	}
}

func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// resolveConfig resolves the configuration for dir honouring the global flags.
func resolveConfig(cmd *cobra.Command, dir string) (*service.ResolvedConfig, error) {
	global := readGlobalOptions(cmd)
	if global.noConfig {
		return &service.ResolvedConfig{Config: value.NewConfig()}, nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	result := service.NewConfigResolver(nil).ResolveConfig(cmd.Context(), abs, global.configFile)
	if result.IsErr() {
		return nil, fmt.Errorf("failed to load configuration: %w", result.Error())
	}
	return result.Unwrap(), nil
}

func encodeConfig(config *value.Config) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return "", fmt.Errorf("failed to format configuration: %w", err)
	}
	return buf.String(), nil
}

func initConfig(cmd *cobra.Command, dir string) error {
	configFile := filepath.Join(dir, utils.GetConfigFilenames()[0])

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("configuration file %s already exists", configFile)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := encodeConfig(value.NewConfig())
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFile, []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	absPath, _ := filepath.Abs(configFile)
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", absPath)
	return nil
}

func showConfig(cmd *cobra.Command, dir string) error {
	resolved, err := resolveConfig(cmd, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(resolved.Sources) == 0 {
		fmt.Fprintln(out, "# No configuration files found - using built-in defaults")
	} else {
		fmt.Fprintln(out, "# Configuration merged from:")
		for i, source := range resolved.Sources {
			fmt.Fprintf(out, "#   %d. %s\n", i+1, source)
		}
		fmt.Fprintln(out, "# Higher-numbered sources override lower-numbered sources")
	}
	fmt.Fprintln(out)

	data, err := encodeConfig(resolved.Config)
	if err != nil {
		return err
	}
	fmt.Fprint(out, data)
	return nil
}

// configStyles holds the styling for configuration output
type configStyles struct {
	header     lipgloss.Style
	treeBranch lipgloss.Style
	path       lipgloss.Style
	priority   lipgloss.Style
}

// newConfigStyles creates styled output for configuration display
func newConfigStyles(enableColors bool) configStyles {
	if !enableColors {
		plain := lipgloss.NewStyle()
		return configStyles{plain, plain, plain, plain}
	}

	return configStyles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")), // Bright blue
		treeBranch: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")), // Gray
		path: lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")), // Cyan
		priority: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Faint(true),
	}
}

// whichConfig shows a tree of the configuration files that were merged.
func whichConfig(cmd *cobra.Command, dir string) error {
	resolved, err := resolveConfig(cmd, dir)
	if err != nil {
		return err
	}
	if len(resolved.Sources) == 0 {
		return fmt.Errorf("no configuration files found - using built-in defaults")
	}

	styles := newConfigStyles(readGlobalOptions(cmd).color)
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, styles.header.Render(fmt.Sprintf("Configuration hierarchy (%d files merged):", len(resolved.Sources))))
	for i, source := range resolved.Sources {
		treeChar := "├─"
		if i == len(resolved.Sources)-1 {
			treeChar = "└─"
		}
		fmt.Fprintf(out, "%s %s %s\n",
			styles.treeBranch.Render(treeChar),
			renderPath(source, styles),
			styles.priority.Render(fmt.Sprintf("[%d]", i+1)))
	}
	return nil
}

// renderPath formats the file path, shortening the home directory.
func renderPath(filePath string, styles configStyles) string {
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		if strings.HasPrefix(filePath, homeDir+string(filepath.Separator)) {
			filePath = "~" + strings.TrimPrefix(filePath, homeDir)
		}
	}
	return styles.path.Render(filePath)
}
