package value

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Config represents the configuration for composition runs.
type Config struct {
	// Concurrency bounds the number of documents parsed at once.
	Concurrency int `toml:"concurrency"`

	Cache    CacheConfig   `toml:"cache"`
	Features FeatureConfig `toml:"features"`
	Imports  ImportConfig  `toml:"imports"`
	Output   ThemeConfig   `toml:"output"`
}

// CacheConfig controls the persistent parse cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // empty means the XDG cache home
}

// FeatureConfig toggles optional syntax.
type FeatureConfig struct {
	SmartArrows bool `toml:"smart-arrows"`
}

// ImportConfig controls implicit and ignored imports.
type ImportConfig struct {
	// Sidecar is the manifest file next to the root document that is imported
	// as configuration before anything else.
	Sidecar string `toml:"sidecar"`

	IncludedStylesheets  []string `toml:"included-stylesheets"`
	IncludedBibliography []string `toml:"included-bibliography"`
	IncludedGlossary     []string `toml:"included-glossary"`

	// Ignored lists file names (or glob patterns) whose import directives are skipped.
	Ignored []string `toml:"ignored-imports"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Concurrency: runtime.NumCPU(),
		Cache: CacheConfig{
			Enabled: true,
		},
		Features: FeatureConfig{
			SmartArrows: true,
		},
		Imports: ImportConfig{
			Sidecar:              "Manifest.toml",
			IncludedStylesheets:  []string{"style.css"},
			IncludedBibliography: []string{"Bibliography.toml"},
			IncludedGlossary:     []string{"Glossary.toml"},
			Ignored:              make([]string, 0),
		},
		Output: NewThemeConfig(),
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	newConfig := *c
	newConfig.Imports.IncludedStylesheets = append([]string(nil), c.Imports.IncludedStylesheets...)
	newConfig.Imports.IncludedBibliography = append([]string(nil), c.Imports.IncludedBibliography...)
	newConfig.Imports.IncludedGlossary = append([]string(nil), c.Imports.IncludedGlossary...)
	newConfig.Imports.Ignored = append([]string(nil), c.Imports.Ignored...)
	return &newConfig
}

// WithConcurrency sets the worker pool size.
func (c *Config) WithConcurrency(n int) *Config {
	newConfig := c.Clone()
	newConfig.Concurrency = n
	return newConfig
}

// WithCacheEnabled enables or disables the persistent cache.
func (c *Config) WithCacheEnabled(enabled bool) *Config {
	newConfig := c.Clone()
	newConfig.Cache.Enabled = enabled
	return newConfig
}

// WithCacheDir sets the cache directory.
func (c *Config) WithCacheDir(dir string) *Config {
	newConfig := c.Clone()
	newConfig.Cache.Dir = dir
	return newConfig
}

// WithSmartArrows toggles smart-arrow substitution.
func (c *Config) WithSmartArrows(enabled bool) *Config {
	newConfig := c.Clone()
	newConfig.Features.SmartArrows = enabled
	return newConfig
}

// WithIgnoredImports replaces the ignored-imports list.
func (c *Config) WithIgnoredImports(names []string) *Config {
	newConfig := c.Clone()
	newConfig.Imports.Ignored = append([]string(nil), names...)
	return newConfig
}

// IsIgnored reports whether an import of path is listed in ignored-imports.
// Entries match either the base name or the whole path, and may be glob patterns.
func (c *Config) IsIgnored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range c.Imports.Ignored {
		if pattern == base || pattern == path {
			return true
		}
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	for _, pattern := range c.Imports.Ignored {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid ignored-imports pattern %q: %w", pattern, err)
		}
	}
	if _, err := NewTheme(c.Output); err != nil {
		return fmt.Errorf("invalid output config: %w", err)
	}
	return nil
}
