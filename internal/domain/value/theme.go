package value

import (
	"fmt"
)

// ThemeConfig selects the symbol set used for terminal output.
type ThemeConfig struct {
	ThemeName      string `toml:"theme"`
	SuppressEmojis bool   `toml:"suppress-emojis"`
}

// Theme is an immutable set of output symbols.
type Theme struct {
	name    string
	symbols ThemeSymbols
}

// ThemeSymbols defines the visual symbols used in output.
type ThemeSymbols struct {
	Success string
	Error   string
	Warning string
	Info    string
	Section string
	Hidden  string
	Bullet  string
}

// NewThemeConfig creates a new ThemeConfig with sensible defaults.
func NewThemeConfig() ThemeConfig {
	return ThemeConfig{ThemeName: "default"}
}

// NewTheme creates a Theme for the given configuration.
func NewTheme(config ThemeConfig) (Theme, error) {
	var symbols ThemeSymbols
	switch config.ThemeName {
	case "", "default":
		symbols = defaultThemeSymbols()
	case "ascii":
		symbols = asciiThemeSymbols()
	default:
		return Theme{}, fmt.Errorf("unknown theme %q", config.ThemeName)
	}
	if config.SuppressEmojis {
		symbols = asciiThemeSymbols()
	}
	name := config.ThemeName
	if name == "" {
		name = "default"
	}
	return Theme{name: name, symbols: symbols}, nil
}

func defaultThemeSymbols() ThemeSymbols {
	return ThemeSymbols{
		Success: "✅",
		Error:   "❌",
		Warning: "⚠️",
		Info:    "ℹ️",
		Section: "§",
		Hidden:  "◌",
		Bullet:  "•",
	}
}

func asciiThemeSymbols() ThemeSymbols {
	return ThemeSymbols{
		Success: "[OK]",
		Error:   "[ERROR]",
		Warning: "[WARN]",
		Info:    "[INFO]",
		Section: "#",
		Hidden:  "(hidden)",
		Bullet:  "-",
	}
}

// Name returns the theme name.
func (t Theme) Name() string {
	return t.name
}

// Symbols returns the theme symbols.
func (t Theme) Symbols() ThemeSymbols {
	return t.symbols
}

// SeveritySymbol returns the symbol used for diagnostics of the given severity.
func (t Theme) SeveritySymbol(s Severity) string {
	switch s {
	case SeverityError:
		return t.symbols.Error
	case SeverityWarning:
		return t.symbols.Warning
	default:
		return t.symbols.Info
	}
}
