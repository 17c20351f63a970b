package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/gomdlint/mdcompose/internal/app/provider/cache"
	"github.com/gomdlint/mdcompose/internal/app/service/imports"
	"github.com/gomdlint/mdcompose/internal/app/service/parser"
	"github.com/gomdlint/mdcompose/internal/app/service/references"
	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/domain/value"
	"github.com/gomdlint/mdcompose/internal/shared/functional"
)

// ErrSuperseded is returned by Recompose when a newer run started before
// this one finished. Its result is discarded.
var ErrSuperseded = errors.New("composition superseded by a newer run")

// Composition is a fully composed and resolved document.
type Composition struct {
	Document   *entity.Document
	Resolution *entity.Resolution
	Generation uint64
	Stats      imports.Stats
	Duration   time.Duration
}

// Diagnostics returns the document diagnostics followed by those of the
// reference pass.
func (c *Composition) Diagnostics() []value.Diagnostic {
	diags := make([]value.Diagnostic, 0, len(c.Document.Diagnostics)+len(c.Resolution.Diagnostics))
	diags = append(diags, c.Document.Diagnostics...)
	return append(diags, c.Resolution.Diagnostics...)
}

// HasErrors reports whether any diagnostic has error severity.
func (c *Composition) HasErrors() bool {
	for _, d := range c.Diagnostics() {
		if d.Severity == value.SeverityError {
			return true
		}
	}
	return false
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithStore sets the parse cache. The composer does not close stores it
// did not open.
func WithStore(store cache.Store) ComposerOption {
	return func(c *Composer) {
		c.store = store
		c.ownsStore = false
	}
}

// WithLoader sets the loader used to read documents and import targets.
func WithLoader(loader imports.Loader) ComposerOption {
	return func(c *Composer) {
		c.loader = loader
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) ComposerOption {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the clock used for date and time placeholders.
func WithClock(clock references.Clock) ComposerOption {
	return func(c *Composer) {
		c.clock = clock
	}
}

// Composer runs the whole pipeline: it parses the root document, resolves
// its imports and runs the reference pass.
type Composer struct {
	config    *value.Config
	parser    *parser.ParserService
	loader    imports.Loader
	store     cache.Store
	ownsStore bool
	logger    *zap.Logger
	clock     references.Clock

	generation atomic.Uint64
}

// NewComposer creates a composer for config. Unless a store is given, the
// persistent cache is opened when config enables it; failing to open it
// only disables caching.
func NewComposer(config *value.Config, opts ...ComposerOption) (*Composer, error) {
	if config == nil {
		config = value.NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Composer{
		config:    config,
		logger:    zap.NewNop(),
		clock:     time.Now,
		loader:    imports.NewFileLoader(),
		ownsStore: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = parser.NewParserService(c.logger, parser.Options{SmartArrows: config.Features.SmartArrows})

	if c.store == nil && c.ownsStore && config.Cache.Enabled {
		dir := config.Cache.Dir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		store, err := cache.OpenBolt(cache.DefaultPath(dir), c.logger)
		if err != nil {
			c.logger.Warn("cache disabled",
				zap.Error(value.WrapError(value.CacheError, dir, err, "open cache")))
		} else {
			c.store = store
		}
	}
	return c, nil
}

// Store returns the parse cache, or nil when caching is disabled.
func (c *Composer) Store() cache.Store {
	return c.store
}

// Close releases the cache if the composer opened it.
func (c *Composer) Close() error {
	if c.store != nil && c.ownsStore {
		return c.store.Close()
	}
	return nil
}

// Compose composes the document at path. Compose runs do not take part in
// generations and are never superseded.
func (c *Composer) Compose(ctx context.Context, path string) functional.Result[*Composition] {
	return c.run(ctx, 0, func(r *imports.Resolver) (*entity.Document, error) {
		return r.Load(ctx, path)
	})
}

// ComposeString composes content as if read from path. Relative imports
// resolve against the directory of path, which need not exist.
func (c *Composer) ComposeString(ctx context.Context, path, content string) functional.Result[*Composition] {
	return c.run(ctx, 0, func(*imports.Resolver) (*entity.Document, error) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		return c.parser.ParseDocument(ctx, content, abs).Value()
	})
}

// Recompose starts a new generation and composes the document at path.
// Runs of older generations that finish afterwards fail with ErrSuperseded.
func (c *Composer) Recompose(ctx context.Context, path string) functional.Result[*Composition] {
	gen := c.generation.Add(1)
	return c.run(ctx, gen, func(r *imports.Resolver) (*entity.Document, error) {
		return r.Load(ctx, path)
	})
}

// Generation returns the current generation.
func (c *Composer) Generation() uint64 {
	return c.generation.Load()
}

// run composes the document returned by load. A zero gen is untracked.
func (c *Composer) run(ctx context.Context, gen uint64, load func(*imports.Resolver) (*entity.Document, error)) functional.Result[*Composition] {
	start := time.Now()
	resolver := imports.NewResolver(c.parser, c.loader, c.store, c.config, c.logger)

	doc, err := load(resolver)
	if err != nil {
		return functional.Err[*Composition](err)
	}
	c.addImplicitImports(doc)

	importErr := resolver.ResolveImports(ctx, doc)
	if err := ctx.Err(); err != nil {
		return functional.Err[*Composition](err)
	}
	if importErr != nil {
		c.logger.Debug("imports failed",
			zap.String("path", doc.Path),
			zap.Int("errors", len(multierr.Errors(importErr))))
	}
	if gen != 0 && c.generation.Load() != gen {
		c.logger.Debug("composition superseded",
			zap.String("path", doc.Path),
			zap.Uint64("generation", gen))
		return functional.Err[*Composition](ErrSuperseded)
	}

	res := references.Resolve(doc, references.WithClock(c.clock), references.WithLogger(c.logger))
	composition := &Composition{
		Document:   doc,
		Resolution: res,
		Generation: gen,
		Stats:      resolver.Stats(),
		Duration:   time.Since(start),
	}
	c.logger.Info("composed",
		zap.String("path", doc.Path),
		zap.Uint64("generation", gen),
		zap.Int64("parsed", composition.Stats.Parsed),
		zap.Int64("cache_hits", composition.Stats.CacheHits),
		zap.Int("diagnostics", len(composition.Diagnostics())),
		zap.Duration("duration", composition.Duration))
	return functional.Ok(composition)
}

// addImplicitImports prepends directives for the sidecar manifest and the
// configured stylesheet, bibliography and glossary files found next to the
// root document. Files that do not exist are skipped silently.
func (c *Composer) addImplicitImports(doc *entity.Document) {
	dir := filepath.Dir(doc.Path)
	var directives []*entity.Element

	add := func(name string, typ imports.Type) {
		if name == "" {
			return
		}
		target := name
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		if target == doc.Path {
			return
		}
		if info, err := os.Stat(target); err != nil || info.IsDir() {
			return
		}
		e := entity.NewElement(entity.KindImport, value.Position{})
		e.Target = target
		e.Metadata.Set("type", value.StringValue(typ.String()))
		directives = append(directives, e)
	}

	add(c.config.Imports.Sidecar, imports.TypeConfig)
	for _, name := range c.config.Imports.IncludedStylesheets {
		add(name, imports.TypeStylesheet)
	}
	for _, name := range c.config.Imports.IncludedBibliography {
		add(name, imports.TypeBibliography)
	}
	for _, name := range c.config.Imports.IncludedGlossary {
		add(name, imports.TypeGlossary)
	}

	if len(directives) > 0 {
		doc.Root.Children = append(directives, doc.Root.Children...)
	}
}
