package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	require.NotNil(t, cfg)
	assert.GreaterOrEqual(t, cfg.Concurrency, 1)
	assert.True(t, cfg.Cache.Enabled, "cache should default to enabled")
	assert.True(t, cfg.Features.SmartArrows, "smart arrows should default to enabled")
	assert.Equal(t, "Manifest.toml", cfg.Imports.Sidecar)
	assert.Equal(t, []string{"style.css"}, cfg.Imports.IncludedStylesheets)
	assert.Equal(t, []string{"Bibliography.toml"}, cfg.Imports.IncludedBibliography)
	assert.Equal(t, []string{"Glossary.toml"}, cfg.Imports.IncludedGlossary)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_WithMethods(t *testing.T) {
	base := NewConfig()

	t.Run("WithConcurrency", func(t *testing.T) {
		cfg := base.WithConcurrency(3)

		assert.Equal(t, 3, cfg.Concurrency)
		assert.NotSame(t, base, cfg, "should return new instance")
	})

	t.Run("WithCacheEnabled", func(t *testing.T) {
		cfg := base.WithCacheEnabled(false)

		assert.False(t, cfg.Cache.Enabled)
		assert.True(t, base.Cache.Enabled, "original should remain unchanged")
	})

	t.Run("WithCacheDir", func(t *testing.T) {
		cfg := base.WithCacheDir("/tmp/cache")

		assert.Equal(t, "/tmp/cache", cfg.Cache.Dir)
		assert.Empty(t, base.Cache.Dir)
	})

	t.Run("WithSmartArrows", func(t *testing.T) {
		cfg := base.WithSmartArrows(false)

		assert.False(t, cfg.Features.SmartArrows)
	})

	t.Run("WithIgnoredImports", func(t *testing.T) {
		names := []string{"draft.md"}
		cfg := base.WithIgnoredImports(names)
		names[0] = "changed.md"

		assert.Equal(t, []string{"draft.md"}, cfg.Imports.Ignored)
		assert.Empty(t, base.Imports.Ignored)
	})
}

func TestConfig_IsIgnored(t *testing.T) {
	cfg := NewConfig().WithIgnoredImports([]string{"draft.md", "*.tmp.md", "/abs/skip.md"})

	scenarios := []struct {
		path     string
		expected bool
	}{
		{"/docs/draft.md", true},
		{"/docs/notes.tmp.md", true},
		{"/abs/skip.md", true},
		{"/docs/chapter.md", false},
	}

	for _, s := range scenarios {
		t.Run(s.path, func(t *testing.T) {
			assert.Equal(t, s.expected, cfg.IsIgnored(s.path))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	scenarios := []struct {
		name        string
		config      *Config
		expectError bool
	}{
		{"defaults", NewConfig(), false},
		{"zero concurrency", NewConfig().WithConcurrency(0), true},
		{"bad pattern", NewConfig().WithIgnoredImports([]string{"[bad"}), true},
		{"unknown theme", func() *Config {
			c := NewConfig()
			c.Output.ThemeName = "neon"
			return c
		}(), true},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			err := s.config.Validate()
			if s.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewTheme(t *testing.T) {
	theme, err := NewTheme(ThemeConfig{ThemeName: "ascii"})
	require.NoError(t, err)
	assert.Equal(t, "[ERROR]", theme.SeveritySymbol(SeverityError))
	assert.Equal(t, "[WARN]", theme.SeveritySymbol(SeverityWarning))

	suppressed, err := NewTheme(ThemeConfig{ThemeName: "default", SuppressEmojis: true})
	require.NoError(t, err)
	assert.Equal(t, "[INFO]", suppressed.SeveritySymbol(SeverityInfo))
}
