package mdcompose

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/gomdlint/mdcompose/internal/app/service"
	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/domain/value"
	"github.com/gomdlint/mdcompose/internal/shared/functional"
)

// Version returns the version of the mdcompose library.
const Version = "0.1.0"

// ComposeOptions represents configuration options for composition.
type ComposeOptions struct {
	// Configuration sources
	ConfigFile string `json:"configFile,omitempty"` // Explicit file, overrides discovered ones
	NoConfig   bool   `json:"noConfig,omitempty"`   // Skip configuration discovery
	ProjectDir string `json:"projectDir,omitempty"` // Defaults to the directory of the root document

	// Overrides applied after the configuration is resolved
	Concurrency int    `json:"concurrency,omitempty"` // 0 keeps the configured value
	NoCache     bool   `json:"noCache,omitempty"`
	CacheDir    string `json:"cacheDir,omitempty"`

	Logger *zap.Logger `json:"-"`
}

// Result is the public view of a composed document.
type Result struct {
	Path        string            `json:"path"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	TOC         []TOCEntry        `json:"toc"`
	References  []Reference       `json:"references"`
	Terms       []Term            `json:"terms"`
	Stylesheets []string          `json:"stylesheets,omitempty"`
	Diagnostics []Diagnostic      `json:"diagnostics"`
	Tree        *Node             `json:"tree"`
	Stats       Stats             `json:"stats"`
}

// TOCEntry is one visible section.
type TOCEntry struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Reference is a cited bibliography entry.
type Reference struct {
	Number int               `json:"number"`
	Key    string            `json:"key"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Term is a referenced glossary entry.
type Term struct {
	Key         string `json:"key"`
	Long        string `json:"long"`
	Description string `json:"description,omitempty"`
}

// Diagnostic is a problem found while composing.
type Diagnostic struct {
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
	Path     string `json:"path,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
}

// Stats summarises the work done by one composition.
type Stats struct {
	Parsed    int64         `json:"parsed"`
	CacheHits int64         `json:"cacheHits"`
	Duration  time.Duration `json:"duration"`
}

// Node is one element of the document tree. Value carries what a renderer
// prints for citations, glossary references and placeholders.
type Node struct {
	Kind     string            `json:"kind"`
	Text     string            `json:"text,omitempty"`
	Target   string            `json:"target,omitempty"`
	Level    int               `json:"level,omitempty"`
	Ordered  bool              `json:"ordered,omitempty"`
	Forced   bool              `json:"forced,omitempty"`
	Header   bool              `json:"header,omitempty"`
	Checked  bool              `json:"checked,omitempty"`
	Number   int               `json:"number,omitempty"`
	Form     string            `json:"form,omitempty"`
	Value    string            `json:"value,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Title    []*Node           `json:"title,omitempty"`
	Children []*Node           `json:"children,omitempty"`
	Line     int               `json:"line,omitempty"`
	Column   int               `json:"column,omitempty"`
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == value.SeverityError.String() {
			return true
		}
	}
	return false
}

// ToJSON returns the result as an indented JSON string.
func (r *Result) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Compose composes the document at path with its imports and resolves its
// references. Problems in imported files are reported as diagnostics; only a
// root document that cannot be read or lexed is an error.
func Compose(ctx context.Context, path string, options ...ComposeOptions) (*Result, error) {
	var opts ComposeOptions
	if len(options) > 0 {
		opts = options[0]
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return run(ctx, abs, opts, func(c *service.Composer) functional.Result[*service.Composition] {
		return c.Compose(ctx, abs)
	})
}

// ComposeString composes content as if it had been read from path. Relative
// imports are resolved against the directory of path.
func ComposeString(ctx context.Context, path, content string, options ...ComposeOptions) (*Result, error) {
	var opts ComposeOptions
	if len(options) > 0 {
		opts = options[0]
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return run(ctx, abs, opts, func(c *service.Composer) functional.Result[*service.Composition] {
		return c.ComposeString(ctx, abs, content)
	})
}

// GetVersion returns the version of the mdcompose library.
func GetVersion() string {
	return Version
}

// LoadConfig resolves the configuration used for a document at path.
func LoadConfig(ctx context.Context, path string, opts ComposeOptions) (*value.Config, error) {
	if opts.NoConfig {
		config := value.NewConfig()
		applyOverrides(config, opts)
		return config, config.Validate()
	}

	projectDir := opts.ProjectDir
	if projectDir == "" {
		projectDir = filepath.Dir(path)
	}
	resolved := service.NewConfigResolver(opts.Logger).ResolveConfig(ctx, projectDir, opts.ConfigFile)
	if resolved.IsErr() {
		return nil, resolved.Error()
	}
	config := resolved.Unwrap().Config
	applyOverrides(config, opts)
	return config, config.Validate()
}

func applyOverrides(config *value.Config, opts ComposeOptions) {
	if opts.Concurrency > 0 {
		config.Concurrency = opts.Concurrency
	}
	if opts.NoCache {
		config.Cache.Enabled = false
	}
	if opts.CacheDir != "" {
		config.Cache.Dir = opts.CacheDir
	}
}

func run(ctx context.Context, path string, opts ComposeOptions, compose func(*service.Composer) functional.Result[*service.Composition]) (*Result, error) {
	config, err := LoadConfig(ctx, path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	composer, err := service.NewComposer(config, service.WithLogger(opts.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create composer: %w", err)
	}
	defer composer.Close()

	result := compose(composer)
	if result.IsErr() {
		return nil, result.Error()
	}
	return convertToPublicResult(result.Unwrap()), nil
}

// convertToPublicResult converts a composition to its public form.
func convertToPublicResult(c *service.Composition) *Result {
	res := c.Resolution
	result := &Result{
		Path:        c.Document.Path,
		Metadata:    convertMetadata(c.Document.Metadata),
		TOC:         make([]TOCEntry, 0, len(res.TOC)),
		References:  make([]Reference, 0, len(res.References)),
		Terms:       make([]Term, 0, len(res.Terms)),
		Stylesheets: c.Document.Stylesheets,
		Diagnostics: make([]Diagnostic, 0),
		Tree:        convertElement(c.Document.Root, res),
		Stats: Stats{
			Parsed:    c.Stats.Parsed,
			CacheHits: c.Stats.CacheHits,
			Duration:  c.Duration,
		},
	}

	for _, entry := range res.TOC {
		result.TOC = append(result.TOC, TOCEntry{Level: entry.Level, Title: entry.Title, Anchor: entry.Anchor})
	}
	for _, entry := range res.References {
		result.References = append(result.References, Reference{
			Number: entry.Number,
			Key:    entry.Key,
			Fields: convertMetadata(entry.Fields),
		})
	}
	for _, entry := range res.Terms {
		result.Terms = append(result.Terms, Term(entry))
	}
	for _, d := range c.Diagnostics() {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Severity: d.Severity.String(),
			Kind:     d.Kind.String(),
			Path:     d.Path,
			Line:     d.Pos.Line,
			Column:   d.Pos.Column,
			Message:  d.Message,
		})
	}
	return result
}

func convertMetadata(m value.Metadata) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for _, e := range m {
		out[e.Key] = e.Value.Text()
	}
	return out
}

// convertElement converts e and its descendants, attaching resolved values.
func convertElement(e *entity.Element, res *entity.Resolution) *Node {
	if e == nil {
		return nil
	}
	node := &Node{
		Kind:     e.Kind.String(),
		Text:     e.Text,
		Target:   e.Target,
		Level:    e.Level,
		Ordered:  e.Ordered,
		Forced:   e.Forced,
		Header:   e.Header,
		Checked:  e.Checked,
		Metadata: convertMetadata(e.Metadata),
		Line:     e.Pos.Line,
		Column:   e.Pos.Column,
	}

	switch e.Kind {
	case entity.KindBibliographyReference:
		node.Number = res.Citations[e]
		node.Value = res.CitationText(e)
	case entity.KindGlossaryReference:
		if use, ok := res.Glossary[e]; ok {
			node.Form = use.Form.String()
			node.Value = use.Text
		}
	case entity.KindPlaceholder:
		node.Value = res.Placeholders[e]
	}

	for _, span := range e.Title {
		node.Title = append(node.Title, convertElement(span, res))
	}
	for _, child := range e.Children {
		node.Children = append(node.Children, convertElement(child, res))
	}
	return node
}
