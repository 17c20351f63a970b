package lexer

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

type lexTestScenario struct {
	name     string
	input    string
	expected []string // "kind:text"
}

func describe(tokens []value.Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind.String() + ":" + tok.Text
	}
	return out
}

func TestTokenize(t *testing.T) {
	scenarios := []lexTestScenario{
		{
			name:  "header with metadata",
			input: "##[toc-hidden] Title",
			expected: []string{
				"block-marker:##", "metadata-open:[", "text:toc-hidden",
				"metadata-close:]", "text: Title",
			},
		},
		{
			name:     "hash without space is text",
			input:    "#tag",
			expected: []string{"text:#tag"},
		},
		{
			name:  "bold and italic",
			input: "**a** *b*",
			expected: []string{
				"inline-marker:**", "text:a", "inline-marker:**", "text: ",
				"inline-marker:*", "text:b", "inline-marker:*",
			},
		},
		{
			name:     "list marker",
			input:    "  - item",
			expected: []string{"text:  ", "block-marker:-", "text: item"},
		},
		{
			name:     "ordered list marker",
			input:    "12. item",
			expected: []string{"block-marker:12.", "text: item"},
		},
		{
			name:     "arrow at line start is not a list",
			input:    "--> x",
			expected: []string{"inline-marker:-->", "text: x"},
		},
		{
			name:     "longest arrow wins",
			input:    "a <--> b",
			expected: []string{"text:a ", "inline-marker:<-->", "text: b"},
		},
		{
			name:     "centered beats table",
			input:    "||centered",
			expected: []string{"block-marker:||", "text:centered"},
		},
		{
			name:  "table row",
			input: "|a|b|",
			expected: []string{
				"block-marker:|", "text:a", "inline-marker:|", "text:b", "inline-marker:|",
			},
		},
		{
			name:     "import",
			input:    "<[chapter.md]",
			expected: []string{"block-marker:<[", "text:chapter.md", "metadata-close:]"},
		},
		{
			name:     "bang only before bracket",
			input:    "wow! ![x](y)",
			expected: []string{"text:wow! ", "inline-marker:!", "metadata-open:[", "text:x", "metadata-close:]", "inline-marker:(", "text:y", "inline-marker:)"},
		},
		{
			name:     "line breaks",
			input:    "a\r\nb\n",
			expected: []string{"text:a", "line-break:\r\n", "text:b", "line-break:\n"},
		},
		{
			name:     "colored text",
			input:    "§[red]x§[]",
			expected: []string{"inline-marker:§", "metadata-open:[", "text:red", "metadata-close:]", "text:x", "inline-marker:§", "metadata-open:[", "metadata-close:]"},
		},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			tokens, err := Tokenize(s.input)
			require.NoError(t, err)
			assert.Equal(t, s.expected, describe(tokens))
		})
	}
}

func TestTokenize_Escapes(t *testing.T) {
	tokens, err := Tokenize(`a\*b`)
	require.NoError(t, err)

	require.Len(t, tokens, 3)
	assert.Equal(t, value.TokenText, tokens[1].Kind)
	assert.Equal(t, "*", tokens[1].Text)
	assert.True(t, tokens[1].Escaped)
	assert.Equal(t, 1, tokens[1].Range.Start.Offset)
	assert.Equal(t, 3, tokens[1].Range.End.Offset)
}

func TestTokenize_InvalidEscape(t *testing.T) {
	scenarios := []string{"trailing \\", "line \\\nnext"}

	for _, input := range scenarios {
		t.Run(input, func(t *testing.T) {
			_, err := Tokenize(input)
			require.Error(t, err)
			assert.True(t, value.IsKind(err, value.LexError))
		})
	}
}

func TestTokenize_Fences(t *testing.T) {
	input := "```go\n**not bold**\n\\\n```\nafter"

	tokens, err := Tokenize(input)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"block-marker:```", "text:go", "line-break:\n",
		"text:**not bold**", "line-break:\n",
		"text:\\", "line-break:\n",
		"block-marker:```", "line-break:\n",
		"text:after",
	}, describe(tokens))
}

func TestTokenize_UnterminatedFence(t *testing.T) {
	_, err := Tokenize("text\n$$\nx^2\n")

	require.Error(t, err)
	assert.True(t, value.IsKind(err, value.LexError))
	assert.Contains(t, err.Error(), "2:1")
}

func TestTokenize_CoversInput(t *testing.T) {
	input := "# Title\n\n[author=me]> quote ~~HTML~~ and ~CSS\n- a **b** [^cite] [[date]]\n|x|y|\n|--|--|\n"

	tokens, err := Tokenize(input)
	require.NoError(t, err)

	offset := 0
	for _, tok := range tokens {
		require.Equal(t, offset, tok.Range.Start.Offset, "gap before %s", tok)
		offset = tok.Range.End.Offset
	}
	assert.Equal(t, len(input), offset)
}

func TestTokenize_Positions(t *testing.T) {
	tokens, err := Tokenize("ab\nÄ*x")
	require.NoError(t, err)

	star := tokens[3]
	assert.Equal(t, "*", star.Text)
	assert.Equal(t, value.NewPosition(2, 2, 5), star.Range.Start)
}

func TestLexer_ResetRestarts(t *testing.T) {
	l := New("a\nb")

	first, err := l.All()
	require.NoError(t, err)
	_, err = l.Next()
	assert.Equal(t, io.EOF, err)

	l.Reset()
	second, err := l.All()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLexer_IsLazy(t *testing.T) {
	l := New(strings.Repeat("line\n", 1000))

	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, "line", tok.Text)
	assert.LessOrEqual(t, len(l.pending), 2, "only the current line is buffered")
}
