// Package lexer turns raw document text into classified tokens.
package lexer

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

// Block markers recognised at the start of a line.
const (
	MarkerCodeFence = "```"
	MarkerMathFence = "$$"
	MarkerCentered  = "||"
	MarkerTable     = "|"
	MarkerQuote     = ">"
	MarkerImport    = "<["
)

// arrows are checked longest first.
var arrows = []string{"<-->", "<==>", "-->", "==>", "<--", "<=="}

// inlineMarkers are checked in order, so two-byte markers precede their prefixes.
var inlineMarkers = []string{"**", "~~", "*", "~", "_", "^", "`", ":", "§", "(", ")", "|"}

// Lexer produces tokens lazily, one source line at a time. It is restartable
// through Reset and never allocates more than one line of tokens ahead.
type Lexer struct {
	src       string
	pos       int
	line      int
	lineStart int
	fence     string // open fence marker, empty outside fences
	fencePos  value.Position
	pending   []value.Token
	done      bool
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	l := &Lexer{src: src}
	l.Reset()
	return l
}

// Reset rewinds the lexer to the start of its input.
func (l *Lexer) Reset() {
	l.pos = 0
	l.line = 1
	l.lineStart = 0
	l.fence = ""
	l.fencePos = value.Position{}
	l.pending = l.pending[:0]
	l.done = false
}

// Source returns the text being lexed.
func (l *Lexer) Source() string {
	return l.src
}

// Next returns the next token. It returns io.EOF after the last token, or a
// LexError when the input ends inside a fence or with a dangling escape.
func (l *Lexer) Next() (value.Token, error) {
	for len(l.pending) == 0 {
		if l.done || l.pos >= len(l.src) {
			l.done = true
			if l.fence != "" {
				return value.Token{}, value.NewError(value.LexError, "", l.fencePos,
					"unterminated %s fence", l.fence)
			}
			return value.Token{}, io.EOF
		}
		if err := l.lexLine(); err != nil {
			l.done = true
			l.pending = l.pending[:0]
			return value.Token{}, err
		}
	}
	tok := l.pending[0]
	l.pending = l.pending[1:]
	return tok, nil
}

// All drains the lexer from its current position.
func (l *Lexer) All() ([]value.Token, error) {
	var tokens []value.Token
	for {
		tok, err := l.Next()
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
}

// Tokenize lexes src completely.
func Tokenize(src string) ([]value.Token, error) {
	return New(src).All()
}

func (l *Lexer) position(off int) value.Position {
	return value.Position{
		Line:   l.line,
		Column: utf8.RuneCountInString(l.src[l.lineStart:off]) + 1,
		Offset: off,
	}
}

func (l *Lexer) emit(kind value.TokenKind, start, end int) {
	l.pending = append(l.pending, value.Token{
		Kind:  kind,
		Text:  l.src[start:end],
		Range: value.Range{Start: l.position(start), End: l.position(end)},
	})
}

// lexLine tokenizes the line starting at l.pos including its line break.
func (l *Lexer) lexLine() error {
	start := l.pos
	end := strings.IndexByte(l.src[start:], '\n')
	next := len(l.src)
	if end < 0 {
		end = len(l.src)
	} else {
		end += start
		next = end + 1
	}
	contentEnd := end
	if contentEnd > start && l.src[contentEnd-1] == '\r' {
		contentEnd--
	}

	var err error
	if l.fence != "" {
		l.lexFenceLine(start, contentEnd)
	} else {
		err = l.lexContentLine(start, contentEnd)
	}
	if err != nil {
		return err
	}

	if contentEnd < next {
		l.emit(value.TokenLineBreak, contentEnd, next)
	}
	l.pos = next
	l.line++
	l.lineStart = next
	return nil
}

func (l *Lexer) lexFenceLine(start, end int) {
	line := l.src[start:end]
	trimmed := strings.TrimLeft(line, " \t")
	indent := start + len(line) - len(trimmed)
	if strings.HasPrefix(trimmed, l.fence) && strings.TrimSpace(trimmed[len(l.fence):]) == "" {
		if indent > start {
			l.emit(value.TokenText, start, indent)
		}
		l.emit(value.TokenBlockMarker, indent, indent+len(l.fence))
		if indent+len(l.fence) < end {
			l.emit(value.TokenText, indent+len(l.fence), end)
		}
		l.fence = ""
		return
	}
	if end > start {
		l.emit(value.TokenText, start, end)
	}
}

func (l *Lexer) lexContentLine(start, end int) error {
	i := start
	for i < end && (l.src[i] == ' ' || l.src[i] == '\t') {
		i++
	}
	if i > start {
		l.emit(value.TokenText, start, i)
	}

	if n := l.blockMarker(i, end); n > 0 {
		marker := l.src[i : i+n]
		l.emit(value.TokenBlockMarker, i, i+n)
		i += n
		if marker == MarkerCodeFence || marker == MarkerMathFence {
			l.fence = marker
			l.fencePos = l.position(i - n)
			if i < end {
				l.emit(value.TokenText, i, end)
			}
			return nil
		}
	}
	return l.lexInline(i, end)
}

// blockMarker returns the length of the block marker at i, or zero.
func (l *Lexer) blockMarker(i, end int) int {
	rest := l.src[i:end]
	switch {
	case rest == "":
		return 0
	case strings.HasPrefix(rest, MarkerCodeFence):
		return len(MarkerCodeFence)
	case strings.HasPrefix(rest, MarkerMathFence):
		return len(MarkerMathFence)
	case strings.HasPrefix(rest, MarkerCentered):
		return len(MarkerCentered)
	case strings.HasPrefix(rest, MarkerImport):
		return len(MarkerImport)
	case rest[0] == '|' || rest[0] == '>':
		return 1
	case rest[0] == '#':
		n := 0
		for n < len(rest) && rest[n] == '#' {
			n++
		}
		if n == len(rest) || rest[n] == ' ' || rest[n] == '\t' || rest[n] == '[' {
			return n
		}
		return 0
	}
	return listMarker(rest)
}

// listMarker matches "-", "*", "+", "o" or a number followed by "." when the
// marker is followed by a space.
func listMarker(rest string) int {
	n := 0
	switch rest[0] {
	case '-', '*', '+', 'o':
		n = 1
	default:
		for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
		if n == 0 || n >= len(rest) || rest[n] != '.' {
			return 0
		}
		n++
	}
	if n < len(rest) && (rest[n] == ' ' || rest[n] == '\t') {
		return n
	}
	return 0
}

func (l *Lexer) lexInline(i, end int) error {
	textStart := i
	flush := func(upTo int) {
		if upTo > textStart {
			l.emit(value.TokenText, textStart, upTo)
		}
	}

	for i < end {
		c := l.src[i]
		switch {
		case c == '\\':
			flush(i)
			if i+1 >= end {
				return value.NewError(value.LexError, "", l.position(i), "invalid escape at end of line")
			}
			_, size := utf8.DecodeRuneInString(l.src[i+1 : end])
			l.pending = append(l.pending, value.Token{
				Kind:    value.TokenText,
				Text:    l.src[i+1 : i+1+size],
				Range:   value.Range{Start: l.position(i), End: l.position(i + 1 + size)},
				Escaped: true,
			})
			i += 1 + size
			textStart = i
			continue
		case c == '[':
			flush(i)
			l.emit(value.TokenMetaOpen, i, i+1)
			i++
			textStart = i
			continue
		case c == ']':
			flush(i)
			l.emit(value.TokenMetaClose, i, i+1)
			i++
			textStart = i
			continue
		}

		if n := l.inlineMarker(i, end); n > 0 {
			flush(i)
			l.emit(value.TokenInlineMarker, i, i+n)
			i += n
			textStart = i
			continue
		}
		_, size := utf8.DecodeRuneInString(l.src[i:end])
		i += size
	}
	flush(end)
	return nil
}

// inlineMarker returns the length of the inline marker at i, or zero.
func (l *Lexer) inlineMarker(i, end int) int {
	rest := l.src[i:end]
	for _, a := range arrows {
		if strings.HasPrefix(rest, a) {
			return len(a)
		}
	}
	if rest[0] == '!' {
		if len(rest) > 1 && (rest[1] == '[' || rest[1] == '(') {
			return 1
		}
		return 0
	}
	for _, m := range inlineMarkers {
		if strings.HasPrefix(rest, m) {
			return len(m)
		}
	}
	return 0
}
