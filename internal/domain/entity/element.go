package entity

import (
	"strings"
	"unicode"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

// Kind tags the variant of an Element.
type Kind int

const (
	KindDocument Kind = iota
	KindSection
	KindParagraph
	KindQuote
	KindTable
	KindTableRow
	KindTableCell
	KindList
	KindListItem
	KindCodeBlock
	KindMathBlock
	KindImage
	KindCentered
	KindImport
	KindBibliographyDefinition
	KindRuler

	// Inline variants.
	KindText
	KindLineBreak
	KindBold
	KindItalic
	KindStrike
	KindUnderline
	KindSuperscript
	KindMonospace
	KindEmoji
	KindColored
	KindLink
	KindPlaceholder
	KindBibliographyReference
	KindGlossaryReference
	KindCheckbox
)

var kindNames = [...]string{
	KindDocument:               "document",
	KindSection:                "section",
	KindParagraph:              "paragraph",
	KindQuote:                  "quote",
	KindTable:                  "table",
	KindTableRow:               "table-row",
	KindTableCell:              "table-cell",
	KindList:                   "list",
	KindListItem:               "list-item",
	KindCodeBlock:              "code-block",
	KindMathBlock:              "math-block",
	KindImage:                  "image",
	KindCentered:               "centered",
	KindImport:                 "import",
	KindBibliographyDefinition: "bibliography-definition",
	KindRuler:                  "ruler",
	KindText:                   "text",
	KindLineBreak:              "line-break",
	KindBold:                   "bold",
	KindItalic:                 "italic",
	KindStrike:                 "strike",
	KindUnderline:              "underline",
	KindSuperscript:            "superscript",
	KindMonospace:              "monospace",
	KindEmoji:                  "emoji",
	KindColored:                "colored",
	KindLink:                   "link",
	KindPlaceholder:            "placeholder",
	KindBibliographyReference:  "bibliography-reference",
	KindGlossaryReference:      "glossary-reference",
	KindCheckbox:               "checkbox",
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsInline reports whether the kind appears inside block text.
func (k Kind) IsInline() bool {
	return k >= KindText
}

// Element is a node of the document tree.
//
// Field use by kind:
//   - Text: literal text of Text, Monospace, CodeBlock and MathBlock; the key of
//     references; the placeholder name; the color of Colored; the glyph of Emoji.
//   - Target: the URL of Image and Link, the path of Import, the language of CodeBlock.
//   - Title: the header spans of Section, the description of Image and Link.
//   - Level: the header level of Section, the indentation depth of List.
//   - Checked: the state of Checkbox.
//
// Children are owned exclusively by their parent.
type Element struct {
	Kind     Kind           `json:"kind" msgpack:"kind"`
	Text     string         `json:"text,omitempty" msgpack:"text,omitempty"`
	Target   string         `json:"target,omitempty" msgpack:"target,omitempty"`
	Level    int            `json:"level,omitempty" msgpack:"level,omitempty"`
	Ordered  bool           `json:"ordered,omitempty" msgpack:"ordered,omitempty"`
	Forced   bool           `json:"forced,omitempty" msgpack:"forced,omitempty"`
	Header   bool           `json:"header,omitempty" msgpack:"header,omitempty"`
	Checked  bool           `json:"checked,omitempty" msgpack:"checked,omitempty"`
	Metadata value.Metadata `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
	Title    []*Element     `json:"title,omitempty" msgpack:"title,omitempty"`
	Children []*Element     `json:"children,omitempty" msgpack:"children,omitempty"`
	Pos      value.Position `json:"pos" msgpack:"pos"`
}

// NewElement creates an empty element of the given kind.
func NewElement(kind Kind, pos value.Position) *Element {
	return &Element{Kind: kind, Pos: pos}
}

// NewText creates a Text element.
func NewText(text string, pos value.Position) *Element {
	return &Element{Kind: KindText, Text: text, Pos: pos}
}

// Append adds children in order.
func (e *Element) Append(children ...*Element) {
	e.Children = append(e.Children, children...)
}

// Last returns the last child, or nil.
func (e *Element) Last() *Element {
	if len(e.Children) == 0 {
		return nil
	}
	return e.Children[len(e.Children)-1]
}

// Walk visits root and its descendants in document order: an element first,
// then its title spans, then its children. Returning false from fn skips the
// element's subtree. Traversal uses an explicit stack.
func Walk(root *Element, fn func(e *Element, depth int) bool) {
	if root == nil {
		return
	}
	type frame struct {
		elem  *Element
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.elem, f.depth) {
			continue
		}
		for i := len(f.elem.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.elem.Children[i], f.depth + 1})
		}
		for i := len(f.elem.Title) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.elem.Title[i], f.depth + 1})
		}
	}
}

// PlainText concatenates the literal text of spans and their descendants.
func PlainText(spans []*Element) string {
	var b strings.Builder
	for _, span := range spans {
		Walk(span, func(e *Element, _ int) bool {
			switch e.Kind {
			case KindText, KindMonospace, KindEmoji:
				b.WriteString(e.Text)
			case KindLineBreak:
				b.WriteByte(' ')
			case KindGlossaryReference, KindBibliographyReference:
				b.WriteString(e.Text)
			case KindPlaceholder:
				b.WriteString("[[" + e.Text + "]]")
			}
			return true
		})
	}
	return b.String()
}

// Anchor derives a section anchor from its title text by removing whitespace.
func Anchor(title string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, title)
}
