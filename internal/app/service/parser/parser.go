// Package parser implements the block, inline and metadata grammars of the
// document dialect.
package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"go.uber.org/zap"

	"github.com/gomdlint/mdcompose/internal/app/service/lexer"
	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/domain/value"
	"github.com/gomdlint/mdcompose/internal/shared/functional"
	"github.com/gomdlint/mdcompose/internal/shared/utils"
)

// Options controls optional syntax.
type Options struct {
	// SmartArrows substitutes -->, ==>, <--, <==, <--> and <==> with glyphs.
	SmartArrows bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{SmartArrows: true}
}

// ParserService parses single documents. It is safe for concurrent use;
// every call works on its own state.
type ParserService struct {
	opts   Options
	logger *zap.Logger
}

// NewParserService creates a new parser service.
func NewParserService(logger *zap.Logger, opts Options) *ParserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParserService{opts: opts, logger: logger}
}

// Options returns the parser options.
func (ps *ParserService) Options() Options {
	return ps.opts
}

// WithOptions returns a parser service using opts.
func (ps *ParserService) WithOptions(opts Options) *ParserService {
	return &ParserService{opts: opts, logger: ps.logger}
}

// ParseDocument parses content into a document tree. Import directives are
// left in the tree for the import resolver. Metadata errors become
// diagnostics; only lexical errors fail the parse.
func (ps *ParserService) ParseDocument(ctx context.Context, content string, path string) functional.Result[*entity.Document] {
	doc := entity.NewDocument(path)
	p := &docParser{path: path, opts: ps.opts}

	body, meta := p.frontMatter(content)
	doc.Metadata = meta
	p.src = newSource(body)

	toks, err := lexer.Tokenize(body)
	if err != nil {
		if lexErr, ok := err.(*value.Error); ok {
			err = lexErr.WithPath(path)
		}
		return functional.Err[*entity.Document](err)
	}

	if err := p.parseBlocks(ctx, splitLines(toks, len(body)), doc.Root); err != nil {
		return functional.Err[*entity.Document](fmt.Errorf("parse %s: %w", path, err))
	}

	for _, diag := range p.diags {
		doc.AddDiagnostic(diag)
	}
	ps.logger.Debug("parsed document",
		zap.String("path", path),
		zap.Int("tokens", len(toks)),
		zap.Int("blocks", len(doc.Root.Children)),
		zap.Int("diagnostics", len(p.diags)))

	return functional.Ok(doc)
}

// frontMatter strips a leading YAML (---) or TOML (+++) front matter block
// and returns its flattened metadata. The block is replaced by blank lines so
// line numbers of the body stay intact.
func (p *docParser) frontMatter(content string) (string, value.Metadata) {
	firstLine := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		firstLine = content[:i]
	}
	delim := strings.TrimRight(firstLine, "\r")
	if delim != "---" && delim != "+++" {
		return content, nil
	}
	if !strings.Contains(content[len(firstLine):], "\n"+delim) {
		return content, nil
	}

	var fm map[string]interface{}
	rest, err := frontmatter.Parse(strings.NewReader(content), &fm)
	if err != nil {
		p.diags = append(p.diags, value.NewDiagnostic(value.MetadataSyntaxError, p.path,
			value.NewPosition(1, 1, 0), fmt.Sprintf("invalid front matter: %v", err)))
		return content, nil
	}
	consumed := len(content) - len(rest)
	if consumed <= 0 {
		return content, nil
	}
	return strings.Repeat("\n", strings.Count(content[:consumed], "\n")) + string(rest), utils.FlattenConfig(fm)
}
