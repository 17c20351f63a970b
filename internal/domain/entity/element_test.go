package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

func createTestTree(t testing.TB) *Element {
	t.Helper()

	pos := value.Position{}
	root := NewElement(KindDocument, pos)

	section := NewElement(KindSection, pos)
	section.Level = 1
	section.Title = []*Element{NewText("Intro", pos)}

	para := NewElement(KindParagraph, pos)
	bold := NewElement(KindBold, pos)
	bold.Append(NewText("bold", pos))
	para.Append(NewText("a ", pos), bold)

	section.Append(para)
	root.Append(section, NewElement(KindCodeBlock, pos))
	return root
}

func TestWalk_DocumentOrder(t *testing.T) {
	root := createTestTree(t)

	var kinds []Kind
	Walk(root, func(e *Element, _ int) bool {
		kinds = append(kinds, e.Kind)
		return true
	})

	assert.Equal(t, []Kind{
		KindDocument,
		KindSection,
		KindText, // section title
		KindParagraph,
		KindText,
		KindBold,
		KindText,
		KindCodeBlock,
	}, kinds)
}

func TestWalk_SkipSubtree(t *testing.T) {
	root := createTestTree(t)

	var kinds []Kind
	Walk(root, func(e *Element, _ int) bool {
		kinds = append(kinds, e.Kind)
		return e.Kind != KindSection
	})

	assert.Equal(t, []Kind{KindDocument, KindSection, KindCodeBlock}, kinds)
}

func TestWalk_Depth(t *testing.T) {
	root := createTestTree(t)

	depths := map[Kind]int{}
	Walk(root, func(e *Element, depth int) bool {
		if _, seen := depths[e.Kind]; !seen {
			depths[e.Kind] = depth
		}
		return true
	})

	assert.Equal(t, 0, depths[KindDocument])
	assert.Equal(t, 1, depths[KindSection])
	assert.Equal(t, 3, depths[KindBold])
}

func TestWalk_DeepNestingDoesNotRecurse(t *testing.T) {
	root := NewElement(KindDocument, value.Position{})
	cur := root
	for i := 0; i < 100000; i++ {
		next := NewElement(KindBold, value.Position{})
		cur.Append(next)
		cur = next
	}

	count := 0
	Walk(root, func(*Element, int) bool {
		count++
		return true
	})

	assert.Equal(t, 100001, count)
}

func TestPlainText(t *testing.T) {
	pos := value.Position{}
	italic := NewElement(KindItalic, pos)
	italic.Append(NewText("World", pos))
	code := NewElement(KindMonospace, pos)
	code.Text = "x"

	assert.Equal(t, "Hello World x", PlainText([]*Element{
		NewText("Hello ", pos), italic, NewText(" ", pos), code,
	}))
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, "GettingStarted", Anchor("Getting  Started"))
	assert.Equal(t, "a.b", Anchor(" a.\tb "))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "glossary-reference", KindGlossaryReference.String())
	assert.Equal(t, "unknown", Kind(999).String())
	assert.True(t, KindBold.IsInline())
	assert.False(t, KindQuote.IsInline())
	assert.Equal(t, "ruler", KindRuler.String())
	assert.False(t, KindRuler.IsInline())
	assert.Equal(t, "checkbox", KindCheckbox.String())
	assert.True(t, KindCheckbox.IsInline())
}
