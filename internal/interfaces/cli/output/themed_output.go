package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gomdlint/mdcompose/internal/domain/value"
	"github.com/gomdlint/mdcompose/pkg/mdcompose"
)

// styles holds the lipgloss styles used for terminal output.
type styles struct {
	header  lipgloss.Style
	path    lipgloss.Style
	faint   lipgloss.Style
	success lipgloss.Style
	errors  lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
}

func newStyles(enableColors bool) styles {
	if !enableColors {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}

	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")), // Bright blue
		path: lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")), // Cyan
		faint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Faint(true),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")), // Green
		errors: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")). // Red
			Bold(true),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")), // Yellow
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")),
	}
}

// ThemedOutput writes compositions and status messages using a theme.
// Results go to the writer, status messages and diagnostics to the error writer.
type ThemedOutput struct {
	theme        value.Theme
	writer       io.Writer
	errorWriter  io.Writer
	enableColors bool
	styles       styles
}

// NewThemedOutput creates a new themed output with the specified theme.
func NewThemedOutput(themeConfig value.ThemeConfig) (*ThemedOutput, error) {
	theme, err := value.NewTheme(themeConfig)
	if err != nil {
		return nil, err
	}

	return &ThemedOutput{
		theme:        theme,
		writer:       os.Stdout,
		errorWriter:  os.Stderr,
		enableColors: true,
		styles:       newStyles(true),
	}, nil
}

// WithWriter sets the output writer.
func (to *ThemedOutput) WithWriter(writer io.Writer) *ThemedOutput {
	out := *to
	out.writer = writer
	return &out
}

// WithErrorWriter sets the error output writer.
func (to *ThemedOutput) WithErrorWriter(writer io.Writer) *ThemedOutput {
	out := *to
	out.errorWriter = writer
	return &out
}

// WithColors enables or disables color output.
func (to *ThemedOutput) WithColors(enable bool) *ThemedOutput {
	out := *to
	out.enableColors = enable
	out.styles = newStyles(enable)
	return &out
}

// Theme returns the current theme.
func (to *ThemedOutput) Theme() value.Theme {
	return to.theme
}

// Success prints a success message.
func (to *ThemedOutput) Success(format string, args ...interface{}) {
	to.printWithSymbol(to.errorWriter, to.theme.Symbols().Success, fmt.Sprintf(format, args...), to.styles.success)
}

// Error prints an error message.
func (to *ThemedOutput) Error(format string, args ...interface{}) {
	to.printWithSymbol(to.errorWriter, to.theme.Symbols().Error, fmt.Sprintf(format, args...), to.styles.errors)
}

// Warning prints a warning message.
func (to *ThemedOutput) Warning(format string, args ...interface{}) {
	to.printWithSymbol(to.errorWriter, to.theme.Symbols().Warning, fmt.Sprintf(format, args...), to.styles.warning)
}

// Info prints an info message.
func (to *ThemedOutput) Info(format string, args ...interface{}) {
	to.printWithSymbol(to.errorWriter, to.theme.Symbols().Info, fmt.Sprintf(format, args...), to.styles.info)
}

// Plain prints a message without any theming.
func (to *ThemedOutput) Plain(format string, args ...interface{}) {
	fmt.Fprintf(to.writer, format, args...)
}

// Diagnostics prints every diagnostic of result to the error writer.
func (to *ThemedOutput) Diagnostics(result *mdcompose.Result) {
	for _, d := range result.Diagnostics {
		location := d.Path
		if d.Line > 0 {
			location = fmt.Sprintf("%s:%d:%d", d.Path, d.Line, d.Column)
		}

		style := to.styles.info
		symbol := to.theme.Symbols().Info
		switch d.Severity {
		case value.SeverityError.String():
			style, symbol = to.styles.errors, to.theme.Symbols().Error
		case value.SeverityWarning.String():
			style, symbol = to.styles.warning, to.theme.Symbols().Warning
		}

		message := fmt.Sprintf("%s %s %s", to.styles.path.Render(location), style.Render(d.Kind), d.Message)
		to.printWithSymbol(to.errorWriter, symbol, message, lipgloss.NewStyle())
	}
}

// Outline prints the table of contents, the cited references, the used
// glossary terms and the stylesheets of result.
func (to *ThemedOutput) Outline(result *mdcompose.Result) {
	symbols := to.theme.Symbols()
	var b strings.Builder

	b.WriteString(to.styles.header.Render(result.Path))
	b.WriteString("\n")

	minLevel := 0
	for _, entry := range result.TOC {
		if minLevel == 0 || entry.Level < minLevel {
			minLevel = entry.Level
		}
	}
	for _, entry := range result.TOC {
		indent := strings.Repeat("  ", entry.Level-minLevel)
		fmt.Fprintf(&b, "%s%s %s %s\n", indent, symbols.Section, entry.Title, to.styles.faint.Render("#"+entry.Anchor))
	}

	if len(result.References) > 0 {
		b.WriteString("\n")
		b.WriteString(to.styles.header.Render("References"))
		b.WriteString("\n")
		for _, ref := range result.References {
			title := ref.Fields["title"]
			if title == "" {
				title = ref.Fields["url"]
			}
			fmt.Fprintf(&b, "[%d] %s %s\n", ref.Number, ref.Key, to.styles.faint.Render(title))
		}
	}

	if len(result.Terms) > 0 {
		b.WriteString("\n")
		b.WriteString(to.styles.header.Render("Glossary"))
		b.WriteString("\n")
		for _, term := range result.Terms {
			fmt.Fprintf(&b, "%s %s: %s\n", symbols.Bullet, term.Key, term.Long)
		}
	}

	if len(result.Stylesheets) > 0 {
		b.WriteString("\n")
		b.WriteString(to.styles.header.Render("Stylesheets"))
		b.WriteString("\n")
		for _, sheet := range result.Stylesheets {
			fmt.Fprintf(&b, "%s %s\n", symbols.Bullet, to.styles.path.Render(sheet))
		}
	}

	fmt.Fprint(to.writer, b.String())
}

// Summary prints one status line describing result.
func (to *ThemedOutput) Summary(result *mdcompose.Result) {
	message := fmt.Sprintf("Composed %s: %d parsed, %d cached, %d diagnostics in %s",
		result.Path, result.Stats.Parsed, result.Stats.CacheHits, len(result.Diagnostics), result.Stats.Duration)
	if result.HasErrors() {
		to.Warning("%s", message)
		return
	}
	to.Success("%s", message)
}

// printWithSymbol prints a message with symbol and style.
func (to *ThemedOutput) printWithSymbol(writer io.Writer, symbol, message string, style lipgloss.Style) {
	var output strings.Builder

	if symbol != "" {
		output.WriteString(symbol)
		output.WriteString(" ")
	}
	output.WriteString(message)

	line := output.String()
	if to.enableColors {
		line = style.Render(line)
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	fmt.Fprint(writer, line)
}
