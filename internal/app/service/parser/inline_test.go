package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomdlint/mdcompose/internal/app/service/lexer"
	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/domain/value"
)

func parseInlineText(t testing.TB, text string, opts Options) ([]*entity.Element, []value.Diagnostic) {
	t.Helper()

	toks, err := lexer.Tokenize(text)
	require.NoError(t, err)
	p := &docParser{src: newSource(text), opts: opts}
	return p.parseInline(toks), p.diags
}

// render prints elements compactly: text as a quoted string, other elements
// as kind[:text][@target][!]{title}(children).
func render(elems []*entity.Element) string {
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		if e.Kind == entity.KindText {
			parts = append(parts, fmt.Sprintf("%q", e.Text))
			continue
		}
		var b strings.Builder
		b.WriteString(e.Kind.String())
		if e.Text != "" && e.Kind != entity.KindEmoji {
			b.WriteString(":" + e.Text)
		}
		if e.Target != "" {
			b.WriteString("@" + e.Target)
		}
		if e.Forced {
			b.WriteString("!")
		}
		if len(e.Title) > 0 {
			b.WriteString("{" + render(e.Title) + "}")
		}
		if len(e.Children) > 0 {
			b.WriteString("(" + render(e.Children) + ")")
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " ")
}

func TestParseInline(t *testing.T) {
	scenarios := []struct {
		name     string
		input    string
		expected string
	}{
		{"bold", "**a** b", `bold("a") " b"`},
		{"nested emphasis", "**a *b* c**", `bold("a " italic("b") " c")`},
		{"unclosed bold is literal", "**unclosed", `"**unclosed"`},
		{"crossing spans degrade inner", "**a *b**", `bold("a *b")`},
		{"strike", "~~struck~~ text", `strike("struck") " text"`},
		{"forced glossary", "~~HTML and ~CSS.", `glossary-reference:HTML! " and " glossary-reference:CSS "."`},
		{"two forced references", "~~HTML and ~~CSS are terms", `glossary-reference:HTML! " and " glossary-reference:CSS! " are terms"`},
		{"strike spans words", "~~no longer true~~ ok", `strike("no longer true") " ok"`},
		{"forced reference inside strike", "~~see ~~HTML~~", `strike("see " glossary-reference:HTML!)`},
		{"checkboxes", "[ ] a [x] b", `checkbox " a " checkbox " b"`},
		{"checkbox with url is a link", "[x](x.md)", `link@x.md{"x"}`},
		{"lone tilde", "a ~ b", `"a ~ b"`},
		{"underline superscript", "_u_ ^s^", `underline("u") " " superscript("s")`},
		{"monospace is verbatim", "`a*b* [^x]`", `monospace:a*b* [^x]`},
		{"unclosed monospace", "`a", "\"`a\""},
		{"emoji", ":smile: :nope:", `emoji@smile " :nope:"`},
		{"emoji with underscore", ":white_check_mark:", `emoji@white_check_mark`},
		{"time is not emoji", "at 12:30:00", `"at 12:30:00"`},
		{"colored", "§[red]hot§[] cold", `colored:red("hot") " cold"`},
		{"unclosed colored", "§[red]hot", `"§[red]hot"`},
		{"stray color close", "a §[] b", `"a §[] b"`},
		{"citation", "see [^book].", `"see " bibliography-reference:book "."`},
		{"placeholder", "on [[date]]", `"on " placeholder:date`},
		{"image", "![A cat](cat.png) x", `image@cat.png{"A cat"} " x"`},
		{"short image", "!(x.png)", `image@x.png`},
		{"link", "[docs](https://x.y/a_b)", `link@https://x.y/a_b{"docs"}`},
		{"plain brackets", "[plain] text", `"[plain] text"`},
		{"link needs adjacent parens", "[a] (b)", `"[a] (b)"`},
		{"escapes", `\*not\* \~`, `"*not* ~"`},
		{"exclamation", "wow!", `"wow!"`},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			elems, diags := parseInlineText(t, s.input, DefaultOptions())

			assert.Empty(t, diags)
			assert.Equal(t, s.expected, render(elems))
		})
	}
}

func TestParseInline_SmartArrows(t *testing.T) {
	input := "a --> b ==> c <-- d <== e <--> f <==> g"

	on, _ := parseInlineText(t, input, Options{SmartArrows: true})
	off, _ := parseInlineText(t, input, Options{SmartArrows: false})

	assert.Equal(t, `"a → b ⇒ c ← d ⇐ e ↔ f ⇔ g"`, render(on))
	assert.Equal(t, fmt.Sprintf("%q", input), render(off))
}

func TestParseInline_TrailingMetadata(t *testing.T) {
	elems, diags := parseInlineText(t, "![cat](cat.png)[width=50, align=left] [[author]][upper]", DefaultOptions())
	require.Empty(t, diags)
	require.Len(t, elems, 3)

	img := elems[0]
	assert.Equal(t, entity.KindImage, img.Kind)
	v, ok := img.Metadata.Get("width")
	require.True(t, ok)
	assert.Equal(t, value.IntValue(50), v)
	assert.Equal(t, "left", img.Metadata.String("align", ""))

	ph := elems[2]
	assert.Equal(t, entity.KindPlaceholder, ph.Kind)
	assert.True(t, ph.Metadata.Flag("upper"))
}

func TestParseInline_BadTrailingMetadataIsDiagnostic(t *testing.T) {
	elems, diags := parseInlineText(t, "!(x.png)[w=] after", DefaultOptions())

	require.Len(t, diags, 1)
	assert.Equal(t, value.MetadataSyntaxError, diags[0].Kind)
	assert.Equal(t, `image@x.png " after"`, render(elems), "the element survives a metadata error")
}

func TestParseInline_MergesAdjacentText(t *testing.T) {
	elems, _ := parseInlineText(t, `a\*b) c:d`, DefaultOptions())

	require.Len(t, elems, 1)
	assert.Equal(t, "a*b) c:d", elems[0].Text)
}

func TestParseInline_Checkbox(t *testing.T) {
	elems, _ := parseInlineText(t, "[X] done", DefaultOptions())

	require.Len(t, elems, 2)
	assert.Equal(t, entity.KindCheckbox, elems[0].Kind)
	assert.True(t, elems[0].Checked)
}

func TestParseInline_UnclosedOpenersScaleLinearly(t *testing.T) {
	scenarios := []struct {
		name  string
		input string
	}{
		{"colored", strings.Repeat("§[red]x", 100000)},
		{"mixed", strings.Repeat("§[c]**a_", 50000)},
		{"brackets", strings.Repeat("[a(b ", 50000)},
		{"citations", strings.Repeat("[^a ", 50000)},
		{"forced references", strings.Repeat("~~a ", 100000)},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			start := time.Now()
			elems, _ := parseInlineText(t, s.input, DefaultOptions())
			elapsed := time.Since(start)

			require.NotEmpty(t, elems)
			assert.Less(t, elapsed, 5*time.Second)
		})
	}

	t.Run("text is preserved", func(t *testing.T) {
		input := strings.Repeat("§[red]x", 100000)
		elems, _ := parseInlineText(t, input, DefaultOptions())

		require.Len(t, elems, 1)
		assert.Equal(t, input, elems[0].Text)
	})
}

func TestParseInline_DeepNesting(t *testing.T) {
	const depth = 5000

	t.Run("unclosed openers degrade to text", func(t *testing.T) {
		input := strings.Repeat("§[c]", depth) + "x"

		elems, _ := parseInlineText(t, input, DefaultOptions())

		require.Len(t, elems, 1)
		assert.Equal(t, input, elems[0].Text)
	})

	t.Run("closed spans nest", func(t *testing.T) {
		input := strings.Repeat("§[c]", depth) + "x" + strings.Repeat("§[]", depth)

		elems, _ := parseInlineText(t, input, DefaultOptions())

		holder := entity.NewElement(entity.KindParagraph, value.Position{})
		holder.Append(elems...)
		maxDepth := 0
		entity.Walk(holder, func(e *entity.Element, d int) bool {
			if d > maxDepth {
				maxDepth = d
			}
			return true
		})
		assert.Equal(t, depth+1, maxDepth)
	})
}

func TestParseInline_Positions(t *testing.T) {
	elems, _ := parseInlineText(t, "ab **c**", DefaultOptions())

	require.Len(t, elems, 2)
	assert.Equal(t, value.NewPosition(1, 4, 3), elems[1].Pos)
}
