package value

import (
	"fmt"
)

// TokenKind classifies a lexical unit produced by the lexer.
type TokenKind int

const (
	// TokenText is a run of literal characters. Escaped markers are text too.
	TokenText TokenKind = iota
	// TokenBlockMarker opens a block construct at the start of a line.
	TokenBlockMarker
	// TokenInlineMarker is an emphasis, glossary, arrow or similar marker inside a line.
	TokenInlineMarker
	// TokenMetaOpen is a '['.
	TokenMetaOpen
	// TokenMetaClose is a ']'.
	TokenMetaClose
	// TokenLineBreak terminates a line.
	TokenLineBreak
)

// String returns the string representation of TokenKind.
func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "text"
	case TokenBlockMarker:
		return "block-marker"
	case TokenInlineMarker:
		return "inline-marker"
	case TokenMetaOpen:
		return "metadata-open"
	case TokenMetaClose:
		return "metadata-close"
	case TokenLineBreak:
		return "line-break"
	default:
		return "unknown"
	}
}

// Position represents a position in the source document.
type Position struct {
	Line   int `json:"line" msgpack:"l"`   // 1-based line number
	Column int `json:"column" msgpack:"c"` // 1-based column number, counted in runes
	Offset int `json:"offset" msgpack:"o"` // 0-based byte offset
}

// NewPosition creates a new Position.
func NewPosition(line, column, offset int) Position {
	return Position{Line: line, Column: column, Offset: offset}
}

// String formats the position as line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range represents a half-open byte range in the source document.
type Range struct {
	Start Position
	End   Position
}

// NewRange creates a new Range with the specified start and end positions.
func NewRange(start, end Position) Range {
	return Range{Start: start, End: end}
}

// Len returns the byte length covered by the range.
func (r Range) Len() int {
	return r.End.Offset - r.Start.Offset
}

// Token is a classified lexical unit with its source span.
// Tokens are immutable value objects.
type Token struct {
	Kind    TokenKind
	Text    string
	Range   Range
	Escaped bool // set for text produced by a backslash escape
}

// NewToken creates a new Token.
func NewToken(kind TokenKind, text string, start, end Position) Token {
	return Token{
		Kind:  kind,
		Text:  text,
		Range: Range{Start: start, End: end},
	}
}

// Is checks if the token has the given kind and text.
func (t Token) Is(kind TokenKind, text string) bool {
	return t.Kind == kind && t.Text == text
}

// IsMarker reports whether the token is a block or inline marker with the given text.
func (t Token) IsMarker(text string) bool {
	return (t.Kind == TokenBlockMarker || t.Kind == TokenInlineMarker) && t.Text == text
}

// String implements the Stringer interface for debugging.
func (t Token) String() string {
	return fmt.Sprintf("Token{Kind: %s, Text: %q, Range: %s-%s}",
		t.Kind, truncateText(t.Text, 30), t.Range.Start, t.Range.End)
}

func truncateText(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}
