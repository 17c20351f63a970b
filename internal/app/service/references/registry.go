// Package references resolves citations, glossary references, placeholders
// and the table of contents of a composed document.
package references

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/domain/value"
)

const (
	placeholderTOC      = "toc"
	placeholderDate     = "date"
	placeholderTime     = "time"
	placeholderDateTime = "datetime"
	placeholderSet      = "set:"

	dateLayout = "02.01.2006"
	timeLayout = "15:04:05"
)

// Clock returns the time used for date and time placeholders.
type Clock func() time.Time

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the clock used for date and time placeholders.
func WithClock(clock Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry holds the definitions and first-use state of one reference pass.
// A Registry is not safe for concurrent use; create one per pass.
type Registry struct {
	clock  Clock
	logger *zap.Logger

	bibliography map[string]entity.BibliographyEntry
	glossary     map[string]entity.GlossaryEntry
	numbers      map[string]int
	shown        map[string]bool
	variables    value.Metadata
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		clock:        time.Now,
		logger:       zap.NewNop(),
		bibliography: make(map[string]entity.BibliographyEntry),
		glossary:     make(map[string]entity.GlossaryEntry),
		numbers:      make(map[string]int),
		shown:        make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs a reference pass over a fully composed document with a fresh
// registry. The document is not modified.
func Resolve(doc *entity.Document, opts ...Option) *entity.Resolution {
	return NewRegistry(opts...).Resolve(doc)
}

// DefineCitation registers a bibliography entry. The first definition of a
// key wins; later ones are ignored.
func (r *Registry) DefineCitation(entry entity.BibliographyEntry) bool {
	if _, ok := r.bibliography[entry.Key]; ok {
		return false
	}
	entry.Number = 0
	r.bibliography[entry.Key] = entry
	return true
}

// DefineTerm registers a glossary entry. The first definition of a key wins.
func (r *Registry) DefineTerm(entry entity.GlossaryEntry) bool {
	if _, ok := r.glossary[entry.Key]; ok {
		return false
	}
	r.glossary[entry.Key] = entry
	return true
}

// Cite returns the citation number of key, assigning the next number on the
// first reference. It returns false for undefined keys.
func (r *Registry) Cite(key string) (int, bool) {
	if n, ok := r.numbers[key]; ok {
		return n, true
	}
	if _, ok := r.bibliography[key]; !ok {
		return 0, false
	}
	n := len(r.numbers) + 1
	r.numbers[key] = n
	return n, true
}

// Use returns how a glossary reference to key renders. The first reference
// renders long and later ones short; forced references always render long.
// Either way the key counts as shown afterwards.
func (r *Registry) Use(key string, forced bool) (entity.GlossaryUse, bool) {
	entry, ok := r.glossary[key]
	if !ok {
		return entity.GlossaryUse{Form: entity.GlossaryShort, Text: key}, false
	}
	long := forced || !r.shown[key]
	r.shown[key] = true
	if long {
		return entity.GlossaryUse{Form: entity.GlossaryLong, Text: entry.Long}, true
	}
	return entity.GlossaryUse{Form: entity.GlossaryShort, Text: key}, true
}

// Resolve walks doc in document order and resolves every reference.
func (r *Registry) Resolve(doc *entity.Document) *entity.Resolution {
	res := entity.NewResolution()
	r.collectDefinitions(doc)
	r.variables = doc.Metadata.Clone()

	var placeholders []*entity.Element
	hiddenDepth := -1
	order := 0

	entity.Walk(doc.Root, func(e *entity.Element, depth int) bool {
		res.Order[e] = order
		order++

		if hiddenDepth >= 0 && depth <= hiddenDepth {
			hiddenDepth = -1
		}

		switch e.Kind {
		case entity.KindSection:
			if hiddenDepth < 0 && e.Metadata.Flag("toc-hidden") {
				hiddenDepth = depth
			}
			if hiddenDepth < 0 {
				title := entity.PlainText(e.Title)
				res.TOC = append(res.TOC, entity.TOCEntry{
					Level:   e.Level,
					Title:   title,
					Anchor:  entity.Anchor(title),
					Section: e,
				})
			}

		case entity.KindBibliographyReference:
			n, ok := r.Cite(e.Text)
			res.Citations[e] = n
			if !ok {
				res.Diagnostics = append(res.Diagnostics, value.NewDiagnostic(value.ReferenceResolutionError,
					doc.Path, e.Pos, fmt.Sprintf("undefined bibliography key %q", e.Text)))
			}

		case entity.KindGlossaryReference:
			use, ok := r.Use(e.Text, e.Forced)
			res.Glossary[e] = use
			if !ok {
				res.Diagnostics = append(res.Diagnostics, value.NewDiagnostic(value.ReferenceResolutionError,
					doc.Path, e.Pos, fmt.Sprintf("undefined glossary key %q", e.Text)))
			}

		case entity.KindPlaceholder:
			placeholders = append(placeholders, e)
		}
		return true
	})

	res.References = r.references()
	res.Terms = r.terms()

	// Definitions apply to the whole document, so they are handled before
	// any placeholder is rendered.
	for _, p := range placeholders {
		if key, ok := strings.CutPrefix(p.Text, placeholderSet); ok {
			if v, ok := p.Metadata.Get("value"); ok {
				r.variables.Set(strings.ToLower(key), v)
			}
			res.Placeholders[p] = ""
		}
	}
	now := r.clock()
	for _, p := range placeholders {
		if strings.HasPrefix(p.Text, placeholderSet) {
			continue
		}
		text, ok := r.placeholder(p, res, now)
		if !ok {
			res.Diagnostics = append(res.Diagnostics, value.NewDiagnostic(value.ReferenceResolutionError,
				doc.Path, p.Pos, fmt.Sprintf("unknown placeholder %q", p.Text)))
			text = "[[" + p.Text + "]]"
		}
		res.Placeholders[p] = text
	}

	r.logger.Debug("references resolved",
		zap.String("path", doc.Path),
		zap.Int("citations", len(res.References)),
		zap.Int("terms", len(res.Terms)),
		zap.Int("sections", len(res.TOC)),
		zap.Int("diagnostics", len(res.Diagnostics)))
	return res
}

// collectDefinitions registers in-tree bibliography definitions in document
// order, then the imported bibliography and glossary entries.
func (r *Registry) collectDefinitions(doc *entity.Document) {
	entity.Walk(doc.Root, func(e *entity.Element, _ int) bool {
		if e.Kind == entity.KindBibliographyDefinition {
			r.DefineCitation(entity.BibliographyEntry{Key: e.Text, Fields: e.Metadata.Clone()})
		}
		return !e.Kind.IsInline()
	})
	for _, entry := range doc.Bibliography {
		r.DefineCitation(entry)
	}
	for _, entry := range doc.Glossary {
		r.DefineTerm(entry)
	}
}

func (r *Registry) placeholder(p *entity.Element, res *entity.Resolution, now time.Time) (string, bool) {
	name := strings.ToLower(p.Text)
	switch name {
	case placeholderTOC:
		return renderTOC(res.TOC, p.Metadata.Flag("ordered")), true
	case placeholderDate:
		return now.Format(dateLayout), true
	case placeholderTime:
		return now.Format(timeLayout), true
	case placeholderDateTime:
		return now.Format(dateLayout + " " + timeLayout), true
	}
	if v, ok := r.variables.Get(name); ok {
		return v.Text(), true
	}
	return "", false
}

// references lists cited entries in citation-number order.
func (r *Registry) references() []entity.BibliographyEntry {
	refs := make([]entity.BibliographyEntry, len(r.numbers))
	for key, n := range r.numbers {
		entry := r.bibliography[key]
		entry.Number = n
		refs[n-1] = entry
	}
	return refs
}

// terms lists the shown glossary entries sorted by key.
func (r *Registry) terms() []entity.GlossaryEntry {
	terms := make([]entity.GlossaryEntry, 0, len(r.shown))
	for key := range r.shown {
		if entry, ok := r.glossary[key]; ok {
			terms = append(terms, entry)
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].Key < terms[j].Key })
	return terms
}

// renderTOC renders the outline as indented list lines.
func renderTOC(toc []entity.TOCEntry, ordered bool) string {
	if len(toc) == 0 {
		return ""
	}
	base := toc[0].Level
	for _, entry := range toc {
		if entry.Level < base {
			base = entry.Level
		}
	}

	var b strings.Builder
	counters := make(map[int]int)
	for i, entry := range toc {
		if i > 0 {
			b.WriteByte('\n')
		}
		depth := entry.Level - base
		b.WriteString(strings.Repeat("  ", depth))
		if ordered {
			counters[depth]++
			for d := range counters {
				if d > depth {
					delete(counters, d)
				}
			}
			fmt.Fprintf(&b, "%d. ", counters[depth])
		} else {
			b.WriteString("- ")
		}
		b.WriteString(entry.Title)
	}
	return b.String()
}
