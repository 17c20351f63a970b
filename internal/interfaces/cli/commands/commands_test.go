package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomdlint/mdcompose/internal/domain/value"
	"github.com/gomdlint/mdcompose/pkg/mdcompose"
	"github.com/gomdlint/mdcompose/test/helpers"
)

func TestComposeCommand_Outline(t *testing.T) {
	isolateXDG(t)
	dir := helpers.CreateTestProject(t, helpers.TestProject{Files: helpers.BookFiles()})

	stdout, stderr, err := executeCommand(t, "compose", "--no-cache", "--color=false", filepath.Join(dir, "book.md"))

	require.NoError(t, err)
	out := stdout.String()
	assert.Contains(t, out, "§ The Book #TheBook\n")
	assert.Contains(t, out, "  § Chapter One #ChapterOne\n")
	assert.NotContains(t, out, "Appendix", "hidden sections stay out of the outline")
	assert.Contains(t, out, "[1] spec The Specification\n")
	assert.Contains(t, out, "[2] book The Go Programming Language\n")
	assert.Contains(t, out, "HTML: Hypertext Markup Language")
	assert.Contains(t, stderr.String(), "Composed "+filepath.Join(dir, "book.md")+": 4 parsed, 0 cached, 0 diagnostics")
}

func TestComposeCommand_JSON(t *testing.T) {
	isolateXDG(t)
	dir := helpers.CreateTestProject(t, helpers.TestProject{Files: helpers.BookFiles()})

	stdout, _, err := executeCommand(t, "compose", "--no-cache", "--quiet", "--format", "json", filepath.Join(dir, "book.md"))

	require.NoError(t, err)
	var result mdcompose.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Len(t, result.TOC, 3)
	assert.Len(t, result.References, 2)
	assert.Equal(t, "document", result.Tree.Kind)
}

func TestComposeCommand_OutputFile(t *testing.T) {
	isolateXDG(t)
	dir := helpers.CreateTestProject(t, helpers.TestProject{Files: helpers.BookFiles()})
	target := filepath.Join(t.TempDir(), "book.json")

	stdout, _, err := executeCommand(t, "compose", "--no-cache", "-f", "json", "-o", target, filepath.Join(dir, "book.md"))

	require.NoError(t, err)
	assert.Empty(t, stdout.String())
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestComposeCommand_Errors(t *testing.T) {
	isolateXDG(t)
	dir := helpers.CreateTestProject(t, helpers.TestProject{
		Files: []helpers.TestFile{
			{Path: "doc.md", Content: "# Doc\n<[missing.md]\n"},
			{Path: "broken.md", Content: helpers.MarkdownFiles.Broken},
		},
	})

	scenarios := []struct {
		name          string
		args          []string
		expectedError string
		expectedLog   string
	}{
		{
			name:          "no file",
			args:          []string{"compose"},
			expectedError: "accepts 1 arg",
		},
		{
			name:          "unknown format",
			args:          []string{"compose", "--format", "html", filepath.Join(dir, "doc.md")},
			expectedError: "unknown format",
		},
		{
			name:          "negative concurrency",
			args:          []string{"compose", "--concurrency", "-1", filepath.Join(dir, "doc.md")},
			expectedError: "must not be negative",
		},
		{
			name:          "broken root",
			args:          []string{"compose", "--no-cache", filepath.Join(dir, "broken.md")},
			expectedError: "composition failed",
		},
		{
			name:          "failed import",
			args:          []string{"compose", "--no-cache", "--color=false", filepath.Join(dir, "doc.md")},
			expectedError: "reported 1 diagnostics",
			expectedLog:   "import-not-found",
		},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			_, stderr, err := executeCommand(t, s.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), s.expectedError)
			if s.expectedLog != "" {
				assert.Contains(t, stderr.String(), s.expectedLog)
			}
		})
	}
}

func TestComposeCommand_CacheLifecycle(t *testing.T) {
	root := isolateXDG(t)
	dir := helpers.CreateTestProject(t, helpers.TestProject{Files: helpers.BookFiles()})
	book := filepath.Join(dir, "book.md")

	compose := func() mdcompose.Result {
		stdout, _, err := executeCommand(t, "compose", "--quiet", "-f", "json", book)
		require.NoError(t, err)
		var result mdcompose.Result
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		return result
	}

	assert.Equal(t, int64(4), compose().Stats.Parsed)
	assert.Equal(t, int64(4), compose().Stats.CacheHits)

	cachePath := filepath.Join(root, "cache", "mdcompose", "documents.db")
	stdout, _, err := executeCommand(t, "cache", "info", dir)
	require.NoError(t, err)
	assert.Equal(t, "Cache: "+cachePath+"\nEntries: 4\n", stdout.String())

	stdout, _, err = executeCommand(t, "cache", "clear", dir)
	require.NoError(t, err)
	assert.Equal(t, "Removed 4 cached documents from "+cachePath+"\n", stdout.String())

	assert.Equal(t, int64(4), compose().Stats.Parsed)
}

func TestCacheCommand_NoCache(t *testing.T) {
	root := isolateXDG(t)
	cachePath := filepath.Join(root, "cache", "mdcompose", "documents.db")

	stdout, _, err := executeCommand(t, "cache", "info", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Cache: "+cachePath+" (not created yet)\n", stdout.String())

	stdout, _, err = executeCommand(t, "cache", "clear", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Nothing to clear")
}

func TestConfigCommand_Init(t *testing.T) {
	isolateXDG(t)
	dir := t.TempDir()

	stdout, _, err := executeCommand(t, "config", "init", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Configuration file created")

	var config value.Config
	_, err = toml.DecodeFile(filepath.Join(dir, "mdcompose.toml"), &config)
	require.NoError(t, err)
	assert.Equal(t, "Manifest.toml", config.Imports.Sidecar)
	assert.True(t, config.Features.SmartArrows)

	_, _, err = executeCommand(t, "config", "init", dir)
	assert.ErrorContains(t, err, "already exists")
}

func TestConfigCommand_ShowAndWhich(t *testing.T) {
	root := isolateXDG(t)
	userConfig := filepath.Join(root, "config", "mdcompose", "mdcompose.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(userConfig), 0755))
	require.NoError(t, os.WriteFile(userConfig, []byte("concurrency = 5\n"), 0644))
	dir := helpers.CreateTestProject(t, helpers.TestProject{
		ConfigFiles: map[string]string{"mdcompose.toml": helpers.ConfigFiles.Project},
	})

	stdout, _, err := executeCommand(t, "config", "show", dir)
	require.NoError(t, err)
	out := stdout.String()
	assert.Contains(t, out, "#   1. "+userConfig)
	assert.Contains(t, out, "#   2. "+filepath.Join(dir, "mdcompose.toml"))
	assert.Contains(t, out, "concurrency = 2")
	assert.Contains(t, out, "smart-arrows = false")

	stdout, _, err = executeCommand(t, "config", "which", "--color=false", dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Configuration hierarchy (2 files merged):", lines[0])
	assert.Equal(t, "├─ "+userConfig+" (user) [1]", lines[1])
	assert.Equal(t, "└─ "+filepath.Join(dir, "mdcompose.toml")+" (project) [2]", lines[2])
}

func TestConfigCommand_Defaults(t *testing.T) {
	isolateXDG(t)
	dir := t.TempDir()

	stdout, _, err := executeCommand(t, "config", "show", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "No configuration files found")

	_, _, err = executeCommand(t, "config", "which", dir)
	assert.ErrorContains(t, err, "no configuration files found")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "version")

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "mdcompose version test")
	assert.Contains(t, stdout.String(), "commit: abc123")
	assert.Contains(t, stdout.String(), "library: "+mdcompose.Version)
}
