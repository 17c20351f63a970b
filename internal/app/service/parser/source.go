package parser

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

// source maps byte offsets of a document back to line/column positions.
type source struct {
	text       string
	lineStarts []int
}

func newSource(text string) *source {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &source{text: text, lineStarts: starts}
}

func (s *source) position(off int) value.Position {
	if off > len(s.text) {
		off = len(s.text)
	}
	line := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > off
	}) - 1
	start := s.lineStarts[line]
	return value.Position{
		Line:   line + 1,
		Column: utf8.RuneCountInString(s.text[start:off]) + 1,
		Offset: off,
	}
}

// lineEnd returns the offset of the end of the line containing off, excluding
// the line terminator.
func (s *source) lineEnd(off int) int {
	end := strings.IndexByte(s.text[off:], '\n')
	if end < 0 {
		return len(s.text)
	}
	end += off
	if end > off && s.text[end-1] == '\r' {
		end--
	}
	return end
}
