package entity

import (
	"github.com/gomdlint/mdcompose/internal/domain/value"
)

// BibliographyEntry is a citable source. Number is zero until the reference
// pass assigns it.
type BibliographyEntry struct {
	Key    string         `json:"key" msgpack:"key"`
	Fields value.Metadata `json:"fields,omitempty" msgpack:"fields,omitempty"`
	Number int            `json:"number,omitempty" msgpack:"number,omitempty"`
}

// Numbered reports whether a citation number has been assigned.
func (b BibliographyEntry) Numbered() bool {
	return b.Number > 0
}

// GlossaryEntry is an abbreviation with its expansion. Whether it has been
// shown is tracked by the reference registry, not here.
type GlossaryEntry struct {
	Key         string `json:"key" msgpack:"key"`
	Long        string `json:"long" msgpack:"long"`
	Description string `json:"description,omitempty" msgpack:"description,omitempty"`
}

// Document is the parsed form of one source file together with everything
// collected from its imports.
type Document struct {
	Path         string              `json:"path" msgpack:"path"`
	Root         *Element            `json:"root" msgpack:"root"`
	Metadata     value.Metadata      `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
	Bibliography []BibliographyEntry `json:"bibliography,omitempty" msgpack:"bibliography,omitempty"`
	Glossary     []GlossaryEntry     `json:"glossary,omitempty" msgpack:"glossary,omitempty"`
	Stylesheets  []string            `json:"stylesheets,omitempty" msgpack:"stylesheets,omitempty"`
	Diagnostics  []value.Diagnostic  `json:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

// NewDocument creates an empty document for path.
func NewDocument(path string) *Document {
	return &Document{
		Path: path,
		Root: NewElement(KindDocument, value.NewPosition(1, 1, 0)),
	}
}

// AddDiagnostic records a diagnostic against the document.
func (d *Document) AddDiagnostic(diag value.Diagnostic) {
	if diag.Path == "" {
		diag.Path = d.Path
	}
	d.Diagnostics = append(d.Diagnostics, diag)
}

// AddError records err as one diagnostic per aggregated error.
func (d *Document) AddError(err error) {
	if err == nil {
		return
	}
	d.Diagnostics = append(d.Diagnostics, value.DiagnosticsFromError(err, d.Path)...)
}

// AddStylesheet records a stylesheet asset once.
func (d *Document) AddStylesheet(path string) {
	for _, s := range d.Stylesheets {
		if s == path {
			return
		}
	}
	d.Stylesheets = append(d.Stylesheets, path)
}

// Absorb moves the collected state of an imported document into d. The
// element tree is not touched; metadata already set on d wins.
func (d *Document) Absorb(child *Document) {
	d.Metadata = d.Metadata.Overlay(child.Metadata)
	d.Bibliography = append(d.Bibliography, child.Bibliography...)
	d.Glossary = append(d.Glossary, child.Glossary...)
	for _, s := range child.Stylesheets {
		d.AddStylesheet(s)
	}
	d.Diagnostics = append(d.Diagnostics, child.Diagnostics...)
}

// HasErrors reports whether any diagnostic has error severity.
func (d *Document) HasErrors() bool {
	for _, diag := range d.Diagnostics {
		if diag.Severity == value.SeverityError {
			return true
		}
	}
	return false
}
