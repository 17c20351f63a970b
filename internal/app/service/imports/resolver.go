package imports

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/gomdlint/mdcompose/internal/app/provider/cache"
	"github.com/gomdlint/mdcompose/internal/app/service/parser"
	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/domain/value"
	"github.com/gomdlint/mdcompose/internal/shared/functional"
)

// Stats counts the document parses of a resolver.
type Stats struct {
	Parsed    int64 // documents parsed from source
	CacheHits int64 // documents served from the cache
}

// Resolver loads import targets and splices them into the importing
// document. Sibling imports are resolved concurrently; parsing is bounded by
// the configured concurrency.
type Resolver struct {
	parser *parser.ParserService
	loader Loader
	store  cache.Store // nil disables caching
	config *value.Config
	logger *zap.Logger

	sem    *semaphore.Weighted
	flight singleflight.Group

	parsed    atomic.Int64
	cacheHits atomic.Int64
}

// NewResolver creates a resolver. A nil store disables caching; a nil
// config uses the defaults.
func NewResolver(ps *parser.ParserService, loader Loader, store cache.Store, config *value.Config, logger *zap.Logger) *Resolver {
	if config == nil {
		config = value.NewConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = NewFileLoader()
	}
	workers := config.Concurrency
	if workers < 1 {
		workers = 1
	}
	return &Resolver{
		parser: ps,
		loader: loader,
		store:  store,
		config: config,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(workers)),
	}
}

// Stats returns parse counters accumulated since the resolver was created.
func (r *Resolver) Stats() Stats {
	return Stats{Parsed: r.parsed.Load(), CacheHits: r.cacheHits.Load()}
}

// Loader returns the loader used to read import targets.
func (r *Resolver) Loader() Loader {
	return r.loader
}

// Resolve loads the document at path and splices all of its imports.
// Failing to read or lex the document itself is an error; failed imports
// are recorded as diagnostics on the returned document.
func (r *Resolver) Resolve(ctx context.Context, path string) functional.Result[*entity.Document] {
	doc, err := r.Load(ctx, path)
	if err != nil {
		return functional.Err[*entity.Document](err)
	}

	importErr := r.ResolveImports(ctx, doc)
	if ctx.Err() != nil {
		return functional.Err[*entity.Document](ctx.Err())
	}
	if importErr != nil {
		r.logger.Debug("imports failed",
			zap.String("path", doc.Path),
			zap.Int("errors", len(multierr.Errors(importErr))))
	}
	return functional.Ok(doc)
}

// Load reads and parses the document at path without resolving its
// imports. The returned document is owned by the caller.
func (r *Resolver) Load(ctx context.Context, path string) (*entity.Document, error) {
	canonical, err := r.loader.Canonical(path)
	if err != nil {
		return nil, err
	}
	return r.loadDocument(ctx, canonical)
}

// ResolveImports splices every import reachable from doc, whose Path must be
// canonical. Each document is loaded and spliced at most once per call;
// later imports of an already spliced document are reported as
// ImportDuplicate warnings and splice nothing. The returned error aggregates
// the failed directives of the whole import tree; each one is also recorded
// as a diagnostic.
func (r *Resolver) ResolveImports(ctx context.Context, doc *entity.Document) error {
	g := &importGraph{
		nodes:   make(map[string]*graphNode),
		spliced: map[string]bool{doc.Path: true},
	}
	root := &graphNode{doc: doc}
	g.nodes[doc.Path] = root

	r.expand(ctx, g, root)
	g.wg.Wait()
	return r.assemble(g, root, newChain(doc.Path))
}

// importGraph holds every document reached by one ResolveImports call,
// keyed by canonical path.
type importGraph struct {
	mu    sync.Mutex
	nodes map[string]*graphNode
	wg    sync.WaitGroup

	// spliced is only touched by assemble, which runs on one goroutine.
	spliced map[string]bool
}

// claim returns the node of canonical, creating it when first seen.
func (g *importGraph) claim(canonical string) (*graphNode, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, ok := g.nodes[canonical]; ok {
		return n, false
	}
	n := &graphNode{}
	g.nodes[canonical] = n
	return n, true
}

// graphNode is one loaded document and the targets of its directives.
type graphNode struct {
	doc        *entity.Document
	err        error // load failure, unlocated
	directives []directive
	targets    []target
}

// directive is an import element together with the element holding it.
type directive struct {
	parent *entity.Element
	elem   *entity.Element
}

// target is what one directive resolved to.
type target struct {
	canonical string
	node      *graphNode       // document imports
	data      *entity.Document // data imports
	err       error            // failure of the directive itself, located
	ignored   bool
}

// expand resolves the directives of n concurrently. Document targets seen
// for the first time are loaded and expanded in turn.
func (r *Resolver) expand(ctx context.Context, g *importGraph, n *graphNode) {
	n.directives = collectDirectives(n.doc.Root)
	n.targets = make([]target, len(n.directives))
	for i, d := range n.directives {
		g.wg.Add(1)
		go func(i int, d directive) {
			defer g.wg.Done()
			n.targets[i] = r.resolveDirective(ctx, g, n.doc.Path, d.elem)
		}(i, d)
	}
}

// assemble splices the targets of n in document order. ch is the chain of
// documents being assembled, n's own path last.
func (r *Resolver) assemble(g *importGraph, n *graphNode, ch *chain) error {
	if len(n.directives) == 0 {
		return nil
	}
	doc := n.doc

	var errs, nested, duplicates error
	replacements := make(map[*entity.Element][]*entity.Element, len(n.directives))
	for i, d := range n.directives {
		t := n.targets[i]
		replacements[d.elem] = nil
		switch {
		case t.ignored:
		case t.err != nil:
			errs = multierr.Append(errs, t.err)
		case t.data != nil:
			doc.Absorb(t.data)
		case ch.contains(t.canonical):
			errs = multierr.Append(errs, value.NewError(value.ImportCycle, doc.Path, d.elem.Pos,
				"%s -> %s", ch, t.canonical))
		case t.node.err != nil:
			errs = multierr.Append(errs, locate(t.node.err, doc.Path, d.elem))
		case g.spliced[t.canonical]:
			r.logger.Debug("skipping duplicate import",
				zap.String("path", t.canonical),
				zap.String("importer", doc.Path))
			duplicates = multierr.Append(duplicates, value.NewError(value.ImportDuplicate, doc.Path, d.elem.Pos,
				"%s already imported", t.canonical))
		default:
			g.spliced[t.canonical] = true
			nested = multierr.Append(nested, r.assemble(g, t.node, ch.push(t.canonical)))
			replacements[d.elem] = t.node.doc.Root.Children
			doc.Absorb(t.node.doc)
		}
	}
	splice(n.directives, replacements)

	doc.AddError(errs)
	doc.AddError(duplicates)
	return multierr.Append(errs, nested)
}

// collectDirectives returns the import directives below root in document order.
func collectDirectives(root *entity.Element) []directive {
	var out []directive
	stack := []directive{{elem: root}}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if d.elem.Kind == entity.KindImport {
			out = append(out, d)
			continue
		}
		for i := len(d.elem.Children) - 1; i >= 0; i-- {
			if child := d.elem.Children[i]; !child.Kind.IsInline() {
				stack = append(stack, directive{parent: d.elem, elem: child})
			}
		}
	}
	return out
}

// splice replaces every directive by its resolved elements.
func splice(directives []directive, replacements map[*entity.Element][]*entity.Element) {
	done := make(map[*entity.Element]bool)
	for _, d := range directives {
		if done[d.parent] {
			continue
		}
		done[d.parent] = true

		children := make([]*entity.Element, 0, len(d.parent.Children))
		for _, c := range d.parent.Children {
			if rep, ok := replacements[c]; ok {
				children = append(children, rep...)
				continue
			}
			children = append(children, c)
		}
		d.parent.Children = children
	}
}

func (r *Resolver) resolveDirective(ctx context.Context, g *importGraph, importer string, dir *entity.Element) target {
	path := dir.Target
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(importer), path)
	}
	if r.config.IsIgnored(path) {
		r.logger.Debug("ignoring import", zap.String("path", path), zap.String("importer", importer))
		return target{ignored: true}
	}
	fail := func(err error) target {
		return target{err: locate(err, importer, dir)}
	}

	typ, err := Classify(path, dir.Metadata)
	if err != nil {
		return fail(err)
	}
	canonical, err := r.loader.Canonical(path)
	if err != nil {
		return fail(err)
	}
	r.logger.Debug("resolving import",
		zap.String("path", canonical),
		zap.Stringer("type", typ),
		zap.String("importer", importer))

	if typ == TypeDocument {
		node, first := g.claim(canonical)
		if first {
			node.doc, node.err = r.loadDocument(ctx, canonical)
			if node.err == nil {
				r.expand(ctx, g, node)
			}
		}
		return target{canonical: canonical, node: node}
	}

	child := entity.NewDocument(canonical)
	if typ == TypeStylesheet {
		child.AddStylesheet(canonical)
		return target{canonical: canonical, data: child}
	}

	data, err := r.loader.Load(ctx, canonical, typ.Textual())
	if err != nil {
		return fail(err)
	}
	switch typ {
	case TypeConfig:
		child.Metadata, err = decodeConfig(canonical, data)
	case TypeBibliography:
		child.Bibliography, err = decodeBibliography(canonical, data)
	case TypeGlossary:
		child.Glossary, err = decodeGlossary(canonical, data)
	}
	if err != nil && child.Metadata == nil && child.Bibliography == nil && child.Glossary == nil {
		return fail(err)
	}
	// Partially readable files keep their valid entries.
	child.AddError(err)
	return target{canonical: canonical, data: child}
}

// locate attributes an error without a source position to the directive
// that caused it.
func locate(err error, importer string, dir *entity.Element) error {
	var pe *value.Error
	if !errors.As(err, &pe) {
		e := value.WrapError(value.ImportUnreadable, importer, err, "import %s", dir.Target)
		e.Pos = dir.Pos
		return e
	}
	if pe.Pos.Line > 0 {
		return err
	}
	located := *pe
	located.Path = importer
	located.Pos = dir.Pos
	located.Msg = fmt.Sprintf("import %s: %s", dir.Target, pe.Msg)
	return &located
}

// loadDocument reads and parses one document, serving unchanged content
// from the cache. Concurrent loads of the same content share one parse.
func (r *Resolver) loadDocument(ctx context.Context, canonical string) (*entity.Document, error) {
	data, err := r.loader.Load(ctx, canonical, true)
	if err != nil {
		return nil, err
	}
	key := cache.NewKey(canonical, Fingerprint(data, r.parser.Options()))

	v, err, shared := r.flight.Do(key.String(), func() (interface{}, error) {
		return r.parse(ctx, key, data)
	})
	if err != nil {
		return nil, err
	}
	doc := v.(*entity.Document)
	if !shared {
		return doc, nil
	}
	// Every caller of a shared parse splices into its own copy.
	encoded, err := cache.Encode(doc)
	if err != nil {
		return nil, err
	}
	return cache.Decode(encoded)
}

func (r *Resolver) parse(ctx context.Context, key cache.Key, data []byte) (*entity.Document, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	if r.store != nil {
		if cached := r.store.Get(ctx, key); cached.IsSome() {
			r.cacheHits.Add(1)
			r.logger.Debug("cache hit", zap.String("path", key.Path))
			return cached.Unwrap(), nil
		}
	}

	doc, err := r.parser.ParseDocument(ctx, string(data), key.Path).Value()
	if err != nil {
		return nil, err
	}
	r.parsed.Add(1)

	if r.store != nil {
		if err := r.store.Put(ctx, key, doc); err != nil {
			r.logger.Warn("cache write failed",
				zap.String("path", key.Path),
				zap.Error(value.WrapError(value.CacheError, key.Path, err, "store parse")))
		}
	}
	return doc, nil
}

// chain is the list of canonical paths on the current import chain. Chains
// are immutable so sibling goroutines can share a prefix.
type chain struct {
	path   string
	parent *chain
}

func newChain(root string) *chain {
	return &chain{path: root}
}

func (c *chain) push(path string) *chain {
	return &chain{path: path, parent: c}
}

func (c *chain) contains(path string) bool {
	for link := c; link != nil; link = link.parent {
		if link.path == path {
			return true
		}
	}
	return false
}

// String renders the chain from the root, joined by arrows.
func (c *chain) String() string {
	var paths []string
	for link := c; link != nil; link = link.parent {
		paths = append(paths, link.path)
	}
	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}
	return strings.Join(paths, " -> ")
}
