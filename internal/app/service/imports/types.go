// Package imports resolves import directives: it loads and parses the
// targets, detects cycles and splices the results into the importing
// document.
package imports

import (
	"path/filepath"
	"strings"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

// Type is the kind of file an import directive targets.
type Type int

const (
	TypeDocument Type = iota
	TypeStylesheet
	TypeBibliography
	TypeConfig
	TypeGlossary
)

// String returns the string representation of the import type.
func (t Type) String() string {
	switch t {
	case TypeDocument:
		return "document"
	case TypeStylesheet:
		return "stylesheet"
	case TypeBibliography:
		return "bibliography"
	case TypeConfig:
		return "config"
	case TypeGlossary:
		return "glossary"
	default:
		return "unknown"
	}
}

// Textual reports whether the import content must be valid UTF-8 text.
func (t Type) Textual() bool {
	return t != TypeStylesheet
}

// ParseType parses the value of a `type=` annotation.
func ParseType(name string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "document":
		return TypeDocument, true
	case "stylesheet":
		return TypeStylesheet, true
	case "bibliography":
		return TypeBibliography, true
	case "config", "manifest":
		return TypeConfig, true
	case "glossary":
		return TypeGlossary, true
	default:
		return 0, false
	}
}

// Classify determines the import type of path. An explicit `type` entry in
// meta wins over inference from the file name.
func Classify(path string, meta value.Metadata) (Type, error) {
	if declared, ok := meta.Get("type"); ok {
		t, ok := ParseType(declared.Text())
		if !ok {
			return 0, value.NewError(value.ImportTypeMismatch, "", value.Position{},
				"unknown import type %q for %s", declared.Text(), path)
		}
		return t, nil
	}
	return InferType(path), nil
}

// InferType infers the import type from the file name. Unknown extensions
// are parsed as documents.
func InferType(path string) Type {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".bib.toml"):
		return TypeBibliography
	case strings.HasSuffix(name, ".glossary.toml"):
		return TypeGlossary
	}

	switch filepath.Ext(name) {
	case ".md", ".markdown", ".snek":
		return TypeDocument
	case ".css", ".scss":
		return TypeStylesheet
	case ".toml":
		return TypeConfig
	default:
		return TypeDocument
	}
}
