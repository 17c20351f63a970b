package entity

import (
	"strconv"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

// GlossaryForm selects how a glossary reference is rendered.
type GlossaryForm int

const (
	GlossaryShort GlossaryForm = iota
	GlossaryLong
)

// String returns the string representation of the form.
func (f GlossaryForm) String() string {
	if f == GlossaryLong {
		return "long"
	}
	return "short"
}

// GlossaryUse is the resolved rendering of one glossary reference.
type GlossaryUse struct {
	Form GlossaryForm
	Text string
}

// TOCEntry is one line of the table of contents.
type TOCEntry struct {
	Level   int
	Title   string
	Anchor  string
	Section *Element
}

// Resolution is the output of the reference pass. It annotates a document
// tree without mutating it, so one tree can be resolved repeatedly.
type Resolution struct {
	// Citations maps each bibliography reference to its citation number, or
	// zero when the key is undefined.
	Citations map[*Element]int
	// Glossary maps each glossary reference to its rendered form.
	Glossary map[*Element]GlossaryUse
	// Placeholders maps each placeholder to its rendered text.
	Placeholders map[*Element]string
	// References lists the cited entries in citation-number order.
	References []BibliographyEntry
	// Terms lists the glossary entries that were referenced, sorted by key.
	Terms []GlossaryEntry
	// TOC lists the visible sections in document order.
	TOC []TOCEntry
	// Order is the document-order index of every element.
	Order       map[*Element]int
	Diagnostics []value.Diagnostic
}

// NewResolution creates an empty resolution.
func NewResolution() *Resolution {
	return &Resolution{
		Citations:    make(map[*Element]int),
		Glossary:     make(map[*Element]GlossaryUse),
		Placeholders: make(map[*Element]string),
		References:   make([]BibliographyEntry, 0),
		Terms:        make([]GlossaryEntry, 0),
		TOC:          make([]TOCEntry, 0),
		Order:        make(map[*Element]int),
	}
}

// CitationText returns what a renderer prints for a bibliography reference:
// the number when defined, the raw key otherwise.
func (r *Resolution) CitationText(ref *Element) string {
	if n, ok := r.Citations[ref]; ok && n > 0 {
		return strconv.Itoa(n)
	}
	return ref.Text
}
