package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kyokomi/emoji/v2"

	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/domain/value"
)

var smartArrows = map[string]string{
	"-->":  "→",
	"==>":  "⇒",
	"<--":  "←",
	"<==":  "⇐",
	"<-->": "↔",
	"<==>": "⇔",
}

var emojiCodes = emoji.CodeMap()

// maxEmojiTokens bounds the look-ahead for a shortcode like :thumbs_up:.
const maxEmojiTokens = 8

// span is an open inline construct waiting for its closing marker. Text is
// buffered in text and flushed into children before the next element.
type span struct {
	elem     *entity.Element
	marker   string // closing marker
	literal  string // opener text restored when the span is never closed
	pos      value.Position
	children []*entity.Element
	text     strings.Builder
	textPos  value.Position
}

// finish flushes buffered text and returns the children of sp.
func (sp *span) finish() []*entity.Element {
	sp.flush()
	return sp.children
}

func (sp *span) flush() {
	if sp.text.Len() == 0 {
		return
	}
	sp.children = append(sp.children, entity.NewText(sp.text.String(), sp.textPos))
	sp.text.Reset()
}

// spanStack replaces recursion for nested inline spans. The bottom frame
// collects the result and is never closed.
type spanStack struct {
	frames []*span
	open   map[string]int // open frames per closing marker
}

func newSpanStack() *spanStack {
	return &spanStack{frames: []*span{{}}, open: make(map[string]int)}
}

func (s *spanStack) top() *span {
	return s.frames[len(s.frames)-1]
}

func (s *spanStack) push(kind entity.Kind, marker, literal string, tok value.Token) *span {
	sp := &span{
		elem:    entity.NewElement(kind, tok.Range.Start),
		marker:  marker,
		literal: literal,
		pos:     tok.Range.Start,
	}
	s.frames = append(s.frames, sp)
	s.open[marker]++
	return sp
}

func (s *spanStack) isOpen(marker string) bool {
	return s.open[marker] > 0
}

// close finishes the innermost span with marker. Spans opened after it are
// degraded to literal text.
func (s *spanStack) close(marker string) {
	j := len(s.frames) - 1
	for s.frames[j].marker != marker {
		j--
	}
	s.collapse(j + 1)
	sp := s.top()
	s.frames = s.frames[:j]
	s.open[marker]--
	sp.elem.Children = sp.finish()
	appendNode(s.top(), sp.elem)
}

// collapse degrades the frames from index from upwards into the frame below
// them, in one pass: each frame contributes its opener literal followed by
// its children.
func (s *spanStack) collapse(from int) {
	if from >= len(s.frames) {
		return
	}
	target := s.frames[from-1]
	for _, sp := range s.frames[from:] {
		s.open[sp.marker]--
		appendText(target, sp.literal, sp.pos)
		for _, child := range sp.finish() {
			appendNode(target, child)
		}
	}
	s.frames = s.frames[:from]
}

// appendNode adds e to sp, merging adjacent text.
func appendNode(sp *span, e *entity.Element) {
	if e.Kind == entity.KindText {
		appendText(sp, e.Text, e.Pos)
		return
	}
	sp.flush()
	sp.children = append(sp.children, e)
}

func appendText(sp *span, text string, pos value.Position) {
	if text == "" {
		return
	}
	if sp.text.Len() == 0 {
		sp.textPos = pos
	}
	sp.text.WriteString(text)
}

// inlineRun is a token run with the look-ahead tables the inline parser
// needs, so that no construct rescans the rest of the run.
type inlineRun struct {
	toks []value.Token

	// closeBracket holds the index of the ']' matching each '[' on the same
	// line, or -1.
	closeBracket []int
	// nextBracket and nextParen hold the index of the first ']' or ')' at or
	// after each position on the same line, or -1.
	nextBracket []int
	nextParen   []int
	// lastStrike is the index of the last `~~` that can close a strike, or -1.
	lastStrike int
}

func (p *docParser) newInlineRun(toks []value.Token) *inlineRun {
	n := len(toks)
	run := &inlineRun{
		toks:         toks,
		closeBracket: make([]int, n),
		nextBracket:  make([]int, n+1),
		nextParen:    make([]int, n+1),
		lastStrike:   -1,
	}

	var opens []int
	for j, tok := range toks {
		run.closeBracket[j] = -1
		switch {
		case tok.Kind == value.TokenMetaOpen:
			opens = append(opens, j)
		case tok.Kind == value.TokenMetaClose && len(opens) > 0:
			run.closeBracket[opens[len(opens)-1]] = j
			opens = opens[:len(opens)-1]
		case tok.Kind == value.TokenLineBreak:
			opens = opens[:0]
		case tok.Is(value.TokenInlineMarker, "~~") && p.rightFlanking(tok):
			run.lastStrike = j
		}
	}

	run.nextBracket[n], run.nextParen[n] = -1, -1
	for j := n - 1; j >= 0; j-- {
		run.nextBracket[j], run.nextParen[j] = run.nextBracket[j+1], run.nextParen[j+1]
		switch {
		case toks[j].Kind == value.TokenLineBreak:
			run.nextBracket[j], run.nextParen[j] = -1, -1
		case toks[j].Kind == value.TokenMetaClose:
			run.nextBracket[j] = j
		case toks[j].Is(value.TokenInlineMarker, ")"):
			run.nextParen[j] = j
		}
	}
	return run
}

// next returns table[from], or -1 past the end of the run.
func (run *inlineRun) next(table []int, from int) int {
	if from >= len(table) {
		return -1
	}
	return table[from]
}

// rightFlanking reports whether tok directly follows a non-space character.
func (p *docParser) rightFlanking(tok value.Token) bool {
	r, _ := utf8.DecodeLastRuneInString(p.src.text[:tok.Range.Start.Offset])
	return r != utf8.RuneError && !unicode.IsSpace(r)
}

// leftFlanking reports whether a non-space character directly follows tok.
func (p *docParser) leftFlanking(tok value.Token) bool {
	r, _ := utf8.DecodeRuneInString(p.src.text[tok.Range.End.Offset:])
	return r != utf8.RuneError && !unicode.IsSpace(r)
}

// parseInline turns a token run into inline elements. Unmatched openers are
// kept as literal text.
func (p *docParser) parseInline(toks []value.Token) []*entity.Element {
	run := p.newInlineRun(toks)
	stack := newSpanStack()

	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok.Kind {
		case value.TokenText:
			appendText(stack.top(), tok.Text, tok.Range.Start)
		case value.TokenLineBreak:
			appendNode(stack.top(), entity.NewElement(entity.KindLineBreak, tok.Range.Start))
		case value.TokenMetaOpen:
			if e, last, ok := p.bracket(run, i); ok {
				appendNode(stack.top(), e)
				i = last
			} else {
				appendText(stack.top(), tok.Text, tok.Range.Start)
			}
		case value.TokenInlineMarker:
			i = p.inlineMarker(run, i, stack)
		default:
			appendText(stack.top(), tok.Text, tok.Range.Start)
		}
	}

	stack.collapse(1)
	return stack.top().finish()
}

// inlineMarker handles the marker at toks[i] and returns the index of the
// last token it consumed.
func (p *docParser) inlineMarker(run *inlineRun, i int, stack *spanStack) int {
	toks := run.toks
	tok := toks[i]
	literal := func() int {
		appendText(stack.top(), tok.Text, tok.Range.Start)
		return i
	}
	toggle := func(kind entity.Kind) int {
		if stack.isOpen(tok.Text) {
			stack.close(tok.Text)
		} else {
			stack.push(kind, tok.Text, tok.Text, tok)
		}
		return i
	}

	switch tok.Text {
	case "**":
		return toggle(entity.KindBold)
	case "*":
		return toggle(entity.KindItalic)
	case "_":
		return toggle(entity.KindUnderline)
	case "^":
		return toggle(entity.KindSuperscript)
	case "~~":
		// A strike closes only on a `~~` that directly follows text and
		// opens only when such a closer lies ahead. Every other `~~` forces
		// a glossary reference.
		if stack.isOpen("~~") {
			if p.rightFlanking(tok) {
				stack.close("~~")
				return i
			}
		} else if run.lastStrike > i && p.leftFlanking(tok) {
			stack.push(entity.KindStrike, "~~", "~~", tok)
			return i
		}
		if last, ok := p.glossaryReference(toks, i, true, stack.top()); ok {
			return last
		}
		return literal()
	case "~":
		if last, ok := p.glossaryReference(toks, i, false, stack.top()); ok {
			return last
		}
		return literal()
	case "`":
		if e, last, ok := p.monospace(toks, i); ok {
			appendNode(stack.top(), e)
			return last
		}
		return literal()
	case ":":
		if e, last, ok := p.emoji(toks, i); ok {
			appendNode(stack.top(), e)
			return last
		}
		return literal()
	case "§":
		if last, ok := p.colored(run, i, stack); ok {
			return last
		}
		return literal()
	case "!":
		if e, last, ok := p.image(run, i); ok {
			appendNode(stack.top(), e)
			return last
		}
		return literal()
	}

	if glyph, ok := smartArrows[tok.Text]; ok && p.opts.SmartArrows {
		appendText(stack.top(), glyph, tok.Range.Start)
		return i
	}
	return literal()
}

// glossaryKeyLen returns the length of the glossary key at the start of text.
func glossaryKeyLen(text string) int {
	n := strings.IndexFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-')
	})
	if n < 0 {
		return len(text)
	}
	return n
}

// glossaryReference reads the key following a '~' or '~~' marker. Text after
// the key stays in the surrounding span.
func (p *docParser) glossaryReference(toks []value.Token, i int, forced bool, sp *span) (int, bool) {
	if i+1 >= len(toks) || toks[i+1].Kind != value.TokenText || toks[i+1].Escaped {
		return i, false
	}
	next := toks[i+1]
	n := glossaryKeyLen(next.Text)
	if n == 0 {
		return i, false
	}

	ref := entity.NewElement(entity.KindGlossaryReference, toks[i].Range.Start)
	ref.Text = next.Text[:n]
	ref.Forced = forced
	appendNode(sp, ref)
	appendText(sp, next.Text[n:], p.src.position(next.Range.Start.Offset+n))
	return i + 1, true
}

func (p *docParser) monospace(toks []value.Token, i int) (*entity.Element, int, bool) {
	for j := i + 1; j < len(toks); j++ {
		if toks[j].Kind == value.TokenInlineMarker && toks[j].Text == "`" {
			e := entity.NewElement(entity.KindMonospace, toks[i].Range.Start)
			e.Text = p.src.text[toks[i].Range.End.Offset:toks[j].Range.Start.Offset]
			return e, j, true
		}
	}
	return nil, i, false
}

func (p *docParser) emoji(toks []value.Token, i int) (*entity.Element, int, bool) {
	var name strings.Builder
	for j := i + 1; j < len(toks) && j <= i+maxEmojiTokens; j++ {
		tok := toks[j]
		switch {
		case tok.Kind == value.TokenInlineMarker && tok.Text == ":":
			glyph, ok := emojiCodes[":"+name.String()+":"]
			if name.Len() == 0 || !ok {
				return nil, i, false
			}
			e := entity.NewElement(entity.KindEmoji, toks[i].Range.Start)
			e.Text = strings.TrimSpace(glyph)
			e.Target = name.String()
			return e, j, true
		case tok.Kind == value.TokenText && !tok.Escaped && !strings.ContainsAny(tok.Text, " \t"),
			tok.Kind == value.TokenInlineMarker && tok.Text == "_":
			name.WriteString(tok.Text)
		default:
			return nil, i, false
		}
	}
	return nil, i, false
}

// colored handles `§[color]` openers and the `§[]` closer.
func (p *docParser) colored(run *inlineRun, i int, stack *spanStack) (int, bool) {
	toks := run.toks
	if i+1 >= len(toks) || toks[i+1].Kind != value.TokenMetaOpen {
		return i, false
	}
	closeIdx := run.next(run.nextBracket, i+2)
	if closeIdx < 0 {
		return i, false
	}
	color := strings.TrimSpace(p.src.text[toks[i+1].Range.End.Offset:toks[closeIdx].Range.Start.Offset])
	if color == "" {
		if !stack.isOpen("§") {
			return i, false
		}
		stack.close("§")
		return closeIdx, true
	}
	sp := stack.push(entity.KindColored, "§", p.src.text[toks[i].Range.Start.Offset:toks[closeIdx].Range.End.Offset], toks[i])
	sp.elem.Text = color
	return closeIdx, true
}

// image parses `![description](url)[meta]` and `!(url)[meta]`.
func (p *docParser) image(run *inlineRun, i int) (*entity.Element, int, bool) {
	toks := run.toks
	if i+1 >= len(toks) {
		return nil, i, false
	}
	e := entity.NewElement(entity.KindImage, toks[i].Range.Start)
	urlOpen := i + 1
	if toks[i+1].Kind == value.TokenMetaOpen {
		closeIdx := run.closeBracket[i+1]
		if closeIdx < 0 || closeIdx+1 >= len(toks) {
			return nil, i, false
		}
		e.Title = p.description(toks[i+2 : closeIdx])
		urlOpen = closeIdx + 1
	}
	url, last, ok := p.parenthesized(run, urlOpen)
	if !ok {
		return nil, i, false
	}
	e.Target = url
	e.Metadata, last = p.trailingMetadata(toks, last)
	return e, last, true
}

// bracket handles a '[' that opens a placeholder, citation, checkbox or link.
func (p *docParser) bracket(run *inlineRun, i int) (*entity.Element, int, bool) {
	toks := run.toks
	if i+1 >= len(toks) {
		return nil, i, false
	}
	next := toks[i+1]

	switch {
	case next.Kind == value.TokenMetaOpen:
		for j := i + 2; j+1 < len(toks); j++ {
			if toks[j].Kind == value.TokenMetaOpen || toks[j].Kind == value.TokenLineBreak {
				return nil, i, false
			}
			if toks[j].Kind == value.TokenMetaClose {
				if toks[j+1].Kind != value.TokenMetaClose {
					return nil, i, false
				}
				name := strings.TrimSpace(p.src.text[next.Range.End.Offset:toks[j].Range.Start.Offset])
				if name == "" {
					return nil, i, false
				}
				e := entity.NewElement(entity.KindPlaceholder, toks[i].Range.Start)
				e.Text = name
				var last int
				e.Metadata, last = p.trailingMetadata(toks, j+1)
				return e, last, true
			}
		}
		return nil, i, false

	case next.Kind == value.TokenInlineMarker && next.Text == "^":
		closeIdx := run.next(run.nextBracket, i+2)
		if closeIdx < 0 {
			return nil, i, false
		}
		key := strings.TrimSpace(p.src.text[next.Range.End.Offset:toks[closeIdx].Range.Start.Offset])
		if key == "" || strings.ContainsAny(key, "[\n") {
			return nil, i, false
		}
		e := entity.NewElement(entity.KindBibliographyReference, toks[i].Range.Start)
		e.Text = key
		return e, closeIdx, true
	}

	if e, ok := p.checkbox(run, i); ok {
		return e, i + 2, true
	}

	closeIdx := run.closeBracket[i]
	if closeIdx < 0 || closeIdx+1 >= len(toks) {
		return nil, i, false
	}
	url, last, ok := p.parenthesized(run, closeIdx+1)
	if !ok {
		return nil, i, false
	}
	e := entity.NewElement(entity.KindLink, toks[i].Range.Start)
	e.Title = p.description(toks[i+1 : closeIdx])
	e.Target = url
	return e, last, true
}

// checkbox parses `[ ]` and `[x]`. A checkbox followed by a URL is a link.
func (p *docParser) checkbox(run *inlineRun, i int) (*entity.Element, bool) {
	toks := run.toks
	if i+2 >= len(toks) || toks[i+2].Kind != value.TokenMetaClose {
		return nil, false
	}
	mark := toks[i+1]
	if mark.Kind != value.TokenText || mark.Escaped {
		return nil, false
	}
	var checked bool
	switch mark.Text {
	case " ":
	case "x", "X":
		checked = true
	default:
		return nil, false
	}
	if _, _, ok := p.parenthesized(run, i+3); ok {
		return nil, false
	}
	e := entity.NewElement(entity.KindCheckbox, toks[i].Range.Start)
	e.Checked = checked
	return e, true
}

// parenthesized reads `(text)` starting at toks[i], which must directly follow
// the previous token.
func (p *docParser) parenthesized(run *inlineRun, i int) (string, int, bool) {
	toks := run.toks
	if i >= len(toks) || !toks[i].Is(value.TokenInlineMarker, "(") {
		return "", i, false
	}
	if i > 0 && toks[i-1].Range.End.Offset != toks[i].Range.Start.Offset {
		return "", i, false
	}
	j := run.next(run.nextParen, i+1)
	if j < 0 {
		return "", i, false
	}
	return strings.TrimSpace(p.src.text[toks[i].Range.End.Offset:toks[j].Range.Start.Offset]), j, true
}

// trailingMetadata parses a metadata block that directly follows toks[last].
// It returns the index of the last consumed token.
func (p *docParser) trailingMetadata(toks []value.Token, last int) (value.Metadata, int) {
	if last+1 >= len(toks) || toks[last+1].Kind != value.TokenMetaOpen ||
		toks[last+1].Range.Start.Offset != toks[last].Range.End.Offset {
		return nil, last
	}
	meta, end, err := parseMetadataAt(p.src, toks[last+1].Range.Start.Offset)
	p.metadataError(err)
	for last+1 < len(toks) && toks[last+1].Range.Start.Offset < end {
		last++
	}
	return meta, last
}

// description renders the tokens of an image or link description as text.
func (p *docParser) description(toks []value.Token) []*entity.Element {
	if len(toks) == 0 {
		return nil
	}
	var b strings.Builder
	for _, tok := range toks {
		b.WriteString(tok.Text)
	}
	return []*entity.Element{entity.NewText(b.String(), toks[0].Range.Start)}
}

func findToken(toks []value.Token, from int, kind value.TokenKind) int {
	for j := from; j < len(toks); j++ {
		if toks[j].Kind == kind {
			return j
		}
		if toks[j].Kind == value.TokenLineBreak {
			return -1
		}
	}
	return -1
}
