package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFile represents a test file with its content
type TestFile struct {
	Path    string
	Content string
	Mode    os.FileMode
}

// TestProject represents a complete test project structure
type TestProject struct {
	Name        string
	BaseDir     string
	Files       []TestFile
	ConfigFiles map[string]string // config filename -> content
}

// CreateTestProject creates a temporary test project with the specified
// structure and returns its directory with symlinks evaluated, so paths in
// results compare equal to paths built from it.
func CreateTestProject(t testing.TB, project TestProject) string {
	t.Helper()

	baseDir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	if project.BaseDir != "" {
		baseDir = filepath.Join(baseDir, project.BaseDir)
		require.NoError(t, os.MkdirAll(baseDir, 0755))
	}

	for _, file := range project.Files {
		fullPath := filepath.Join(baseDir, filepath.FromSlash(file.Path))
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))

		mode := file.Mode
		if mode == 0 {
			mode = 0644
		}
		require.NoError(t, os.WriteFile(fullPath, []byte(file.Content), mode))
	}

	for filename, content := range project.ConfigFiles {
		configPath := filepath.Join(baseDir, filename)
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	}

	return baseDir
}

// MarkdownFiles provides common document templates
var MarkdownFiles = struct {
	Book            string
	ChapterOne      string
	ChapterTwo      string
	Appendix        string
	WithFrontMatter string
	Cyclic          string
	Broken          string
}{
	Book: `# The Book
[[toc]]

<[chapters/one.md]
<[chapters/two.md]
`,
	ChapterOne: `## Chapter One
~HTML is described in [^spec] and [^book].

<[../appendix.md]
`,
	ChapterTwo: `## Chapter Two
~HTML again, cited as [^spec].
`,
	Appendix: `#[toc-hidden] Appendix
Nothing to see.
`,
	WithFrontMatter: `---
title: Front Matter
author: Ann
---
# [[title]]
Written by [[author]].
`,
	Cyclic: `# Loop
<[loop.md]
`,
	Broken: "text\n```\nnever closed\n",
}

// ConfigFiles provides common data file templates
var ConfigFiles = struct {
	Bibliography string
	Glossary     string
	Manifest     string
	Project      string
}{
	Bibliography: `[spec]
title = "The Specification"
url = "https://example.com/spec"

[book]
title = "The Go Programming Language"
year = 2015
`,
	Glossary: `[HTML]
long = "Hypertext Markup Language"
description = "The markup language of the web"
`,
	Manifest: `title = "Manifest Title"
version = "1.0"
`,
	Project: `concurrency = 2

[features]
smart-arrows = false
`,
}

// TestScenario represents a complete end-to-end composition scenario
type TestScenario struct {
	Name        string
	Description string
	Files       []TestFile
	Root        string

	ExpectError       bool
	ExpectDiagnostics []string // error kinds, in order
	ExpectTOC         []string
	ExpectCitations   []int
}

// BookFiles returns the files of a small multi-file book.
func BookFiles() []TestFile {
	return []TestFile{
		{Path: "book.md", Content: MarkdownFiles.Book},
		{Path: "chapters/one.md", Content: MarkdownFiles.ChapterOne},
		{Path: "chapters/two.md", Content: MarkdownFiles.ChapterTwo},
		{Path: "appendix.md", Content: MarkdownFiles.Appendix},
		{Path: "Bibliography.toml", Content: ConfigFiles.Bibliography},
		{Path: "Glossary.toml", Content: ConfigFiles.Glossary},
		{Path: "style.css", Content: "body { margin: 0; }\n"},
	}
}

// CreateTestScenarios returns the end-to-end composition scenarios.
func CreateTestScenarios() []TestScenario {
	return []TestScenario{
		{
			Name:            "Book",
			Description:     "Root importing two chapters, one importing an appendix",
			Files:           BookFiles(),
			Root:            "book.md",
			ExpectTOC:       []string{"The Book", "Chapter One", "Chapter Two"},
			ExpectCitations: []int{1, 2, 1},
		},
		{
			Name:        "Front Matter",
			Description: "Front matter feeds placeholders",
			Files: []TestFile{
				{Path: "doc.md", Content: MarkdownFiles.WithFrontMatter},
			},
			Root:      "doc.md",
			ExpectTOC: []string{"[[title]]"},
		},
		{
			Name:        "Self Import",
			Description: "A document importing itself reports a cycle",
			Files: []TestFile{
				{Path: "loop.md", Content: MarkdownFiles.Cyclic},
			},
			Root:              "loop.md",
			ExpectDiagnostics: []string{"import-cycle"},
			ExpectTOC:         []string{"Loop"},
		},
		{
			Name:        "Broken Import",
			Description: "An unlexable import is dropped, the root survives",
			Files: []TestFile{
				{Path: "root.md", Content: "# Root\n<[broken.md]\n<[missing.md]\n"},
				{Path: "broken.md", Content: MarkdownFiles.Broken},
			},
			Root:              "root.md",
			ExpectDiagnostics: []string{"lex-error", "import-not-found"},
			ExpectTOC:         []string{"Root"},
		},
		{
			Name:        "Diamond Import",
			Description: "Two chapters importing the same appendix splice it once",
			Files: []TestFile{
				{Path: "root.md", Content: "# Root\n<[left.md]\n<[right.md]\n"},
				{Path: "left.md", Content: "## Left\n<[appendix.md]\n"},
				{Path: "right.md", Content: "## Right\n<[appendix.md]\n"},
				{Path: "appendix.md", Content: "## Appendix\n"},
			},
			Root:              "root.md",
			ExpectDiagnostics: []string{"import-duplicate"},
			ExpectTOC:         []string{"Root", "Left", "Appendix", "Right"},
		},
		{
			Name:        "Broken Root",
			Description: "An unlexable root aborts composition",
			Files: []TestFile{
				{Path: "broken.md", Content: MarkdownFiles.Broken},
			},
			Root:        "broken.md",
			ExpectError: true,
		},
	}
}

// ContentOptions controls generated documents.
type ContentOptions struct {
	Title                string
	Sections             int
	ParagraphsPerSection int
	CitationKeys         []string
}

// GenerateMarkdownContent generates a document with the given shape. Each
// paragraph cites the next key of CitationKeys in turn.
func GenerateMarkdownContent(options ContentOptions) string {
	var content strings.Builder

	if options.Title != "" {
		content.WriteString("# " + options.Title + "\n")
	}

	cite := 0
	for i := 0; i < options.Sections; i++ {
		content.WriteString(fmt.Sprintf("## Section %d\n", i+1))
		for j := 0; j < options.ParagraphsPerSection; j++ {
			content.WriteString(fmt.Sprintf("This is paragraph %d in section %d", j+1, i+1))
			if len(options.CitationKeys) > 0 {
				content.WriteString(fmt.Sprintf(" [^%s]", options.CitationKeys[cite%len(options.CitationKeys)]))
				cite++
			}
			content.WriteString(".\n\n")
		}
	}

	return content.String()
}
