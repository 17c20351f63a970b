package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/gomdlint/mdcompose/internal/app/service/lexer"
	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/domain/value"
)

var (
	// Bibliography definitions: [key]: url or [key]: [field=value, ...]
	bibDefRe = regexp.MustCompile(`^\[([^\[\]^][^\[\]]*)\]:\s*(.*)$`)

	// Table header separators consist of dashes, pipes and alignment colons.
	tableSeparatorRe = regexp.MustCompile(`^\s*\|[\s|:]*-[\s|:\-]*$`)
)

type blockKind int

const (
	blockBlank blockKind = iota
	blockParagraph
	blockHeader
	blockQuote
	blockTable
	blockList
	blockFence
	blockCentered
	blockImport
	blockBibliography
	blockRuler
)

// rulerPrefix starts a horizontal ruler line. The rest of the line is ignored.
const rulerPrefix = "- - -"

// line is one source line with its indentation split off.
type line struct {
	toks      []value.Token // content tokens without indentation or line break
	indent    int           // width of the indentation, tabs count as four
	start     int           // offset of the first byte of the line
	textStart int           // offset after the indentation
	end       int           // offset of the line terminator
	brk       *value.Token  // nil on the last line
}

// docParser holds the state of one document parse.
type docParser struct {
	src   *source
	path  string
	opts  Options
	diags []value.Diagnostic
}

func (p *docParser) metadataError(err error) {
	if err == nil {
		return
	}
	p.diags = append(p.diags, value.DiagnosticFromError(err, p.path))
}

func (p *docParser) warn(kind value.ErrorKind, pos value.Position, msg string) {
	p.diags = append(p.diags, value.NewDiagnostic(kind, p.path, pos, msg))
}

func (p *docParser) raw(ln line) string {
	return p.src.text[ln.textStart:ln.end]
}

// splitLines groups the token stream into lines.
func splitLines(toks []value.Token, textLen int) []line {
	var lines []line
	cur := line{}
	flush := func(end int) {
		cur.end = end
		if len(cur.toks) > 0 && cur.toks[0].Kind == value.TokenText && strings.TrimLeft(cur.toks[0].Text, " \t") == "" && !cur.toks[0].Escaped {
			cur.indent = indentWidth(cur.toks[0].Text)
			cur.textStart = cur.toks[0].Range.End.Offset
			cur.toks = cur.toks[1:]
		} else {
			cur.textStart = cur.start
		}
		lines = append(lines, cur)
	}

	for i := range toks {
		tok := toks[i]
		if tok.Kind == value.TokenLineBreak {
			cur.brk = &toks[i]
			flush(tok.Range.Start.Offset)
			cur = line{start: tok.Range.End.Offset}
			continue
		}
		cur.toks = append(cur.toks, tok)
	}
	if len(cur.toks) > 0 || cur.start < textLen {
		flush(textLen)
	}
	return lines
}

func indentWidth(ws string) int {
	n := 0
	for _, r := range ws {
		if r == '\t' {
			n += 4
		} else {
			n++
		}
	}
	return n
}

func (p *docParser) classify(ln line) blockKind {
	if len(ln.toks) == 0 {
		return blockBlank
	}
	first := ln.toks[0]
	switch first.Kind {
	case value.TokenBlockMarker:
		switch {
		case strings.HasPrefix(first.Text, "#"):
			return blockHeader
		case first.Text == lexer.MarkerQuote:
			return blockQuote
		case first.Text == lexer.MarkerTable:
			return blockTable
		case first.Text == lexer.MarkerCodeFence, first.Text == lexer.MarkerMathFence:
			return blockFence
		case first.Text == lexer.MarkerCentered:
			return blockCentered
		case first.Text == lexer.MarkerImport:
			return blockImport
		case strings.HasPrefix(p.raw(ln), rulerPrefix):
			return blockRuler
		default:
			return blockList
		}
	case value.TokenMetaOpen:
		if _, ok := p.metadataQuote(ln); ok {
			return blockQuote
		}
		if bibDefRe.MatchString(p.raw(ln)) {
			return blockBibliography
		}
	}
	return blockParagraph
}

// metadataQuote recognises `[meta]> text` and returns the offset of the '>'.
func (p *docParser) metadataQuote(ln line) (int, bool) {
	_, end, err := parseMetadataAt(p.src, ln.toks[0].Range.Start.Offset)
	if err != nil || end >= ln.end || p.src.text[end] != '>' {
		return 0, false
	}
	return end, true
}

// parseBlocks appends the blocks of lines to root. Sections nest by level
// through an explicit stack.
func (p *docParser) parseBlocks(ctx context.Context, lines []line, root *entity.Element) error {
	sections := []*entity.Element{root}

	for i := 0; i < len(lines); {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		container := sections[len(sections)-1]
		ln := lines[i]
		n := 1
		switch p.classify(ln) {
		case blockBlank:
		case blockHeader:
			sec := p.section(ln)
			for len(sections) > 1 && sections[len(sections)-1].Level >= sec.Level {
				sections = sections[:len(sections)-1]
			}
			sections[len(sections)-1].Append(sec)
			sections = append(sections, sec)
		case blockQuote:
			var e *entity.Element
			e, n = p.quote(lines[i:])
			container.Append(e)
		case blockTable:
			var e *entity.Element
			e, n = p.table(lines[i:])
			container.Append(e)
		case blockList:
			var e *entity.Element
			e, n = p.list(lines[i:])
			container.Append(e)
		case blockFence:
			var e *entity.Element
			e, n = p.fence(lines[i:])
			container.Append(e)
		case blockCentered:
			var e *entity.Element
			e, n = p.centered(lines[i:])
			container.Append(e)
		case blockImport:
			if e, ok := p.importDirective(ln); ok {
				container.Append(e)
			} else {
				var e *entity.Element
				e, n = p.paragraph(lines[i:])
				container.Append(e)
			}
		case blockBibliography:
			container.Append(p.bibliographyDefinition(ln))
		case blockRuler:
			container.Append(entity.NewElement(entity.KindRuler, ln.toks[0].Range.Start))
		default:
			var e *entity.Element
			e, n = p.paragraph(lines[i:])
			container.Append(e)
		}
		i += n
	}
	return nil
}

// section parses `#[meta] Title`.
func (p *docParser) section(ln line) *entity.Element {
	marker := ln.toks[0]
	sec := entity.NewElement(entity.KindSection, marker.Range.Start)
	sec.Level = len(marker.Text)

	rest := ln.toks[1:]
	if len(rest) > 0 && rest[0].Kind == value.TokenMetaOpen && rest[0].Range.Start.Offset == marker.Range.End.Offset {
		meta, end, err := parseMetadataAt(p.src, rest[0].Range.Start.Offset)
		p.metadataError(err)
		sec.Metadata = meta
		rest = p.tokensFrom(rest, end)
	}
	sec.Title = p.parseInline(p.trimTokens(rest))
	return sec
}

// quote parses `> text` lines, or a first line of the form `[meta]> text`.
func (p *docParser) quote(lines []line) (*entity.Element, int) {
	first := lines[0]
	q := entity.NewElement(entity.KindQuote, first.toks[0].Range.Start)

	var content []value.Token
	if first.toks[0].Kind == value.TokenBlockMarker {
		content = first.toks[1:]
	} else {
		gt, _ := p.metadataQuote(first)
		meta, _, err := parseMetadataAt(p.src, first.toks[0].Range.Start.Offset)
		p.metadataError(err)
		q.Metadata = meta
		content = p.tokensFrom(first.toks, gt+1)
	}
	toks := p.trimTokens(content)

	n := 1
	for n < len(lines) && len(lines[n].toks) > 0 && lines[n].toks[0].Is(value.TokenBlockMarker, lexer.MarkerQuote) {
		toks = append(toks, *lines[n-1].brk)
		toks = append(toks, p.trimTokens(lines[n].toks[1:])...)
		n++
	}
	q.Children = p.parseInline(toks)
	return q, n
}

// table parses consecutive `|` rows. A separator as the second row marks the
// first row as the header.
func (p *docParser) table(lines []line) (*entity.Element, int) {
	tbl := entity.NewElement(entity.KindTable, lines[0].toks[0].Range.Start)

	n := 0
	for n < len(lines) && p.classify(lines[n]) == blockTable {
		ln := lines[n]
		n++
		if n == 2 && tableSeparatorRe.MatchString(p.raw(ln)) {
			if len(tbl.Children) > 0 {
				tbl.Children[0].Header = true
			}
			continue
		}

		row := entity.NewElement(entity.KindTableRow, ln.toks[0].Range.Start)
		var cell []value.Token
		cellPos := ln.toks[0].Range.End
		for _, tok := range ln.toks[1:] {
			if tok.Is(value.TokenInlineMarker, "|") {
				row.Append(p.tableCell(cell, cellPos))
				cell = nil
				cellPos = tok.Range.End
				continue
			}
			cell = append(cell, tok)
		}
		if len(p.trimTokens(cell)) > 0 {
			row.Append(p.tableCell(cell, cellPos))
		}
		tbl.Append(row)
	}
	return tbl, n
}

func (p *docParser) tableCell(toks []value.Token, pos value.Position) *entity.Element {
	cell := entity.NewElement(entity.KindTableCell, pos)
	cell.Children = p.parseInline(p.trimTokens(toks))
	return cell
}

// list parses consecutive list items, nesting by indentation through an
// explicit stack.
func (p *docParser) list(lines []line) (*entity.Element, int) {
	type level struct {
		indent int
		list   *entity.Element
	}
	var stack []level
	var root *entity.Element

	n := 0
	for ; n < len(lines) && p.classify(lines[n]) == blockList; n++ {
		ln := lines[n]
		marker := ln.toks[0]

		for len(stack) > 0 && ln.indent < stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 && root != nil {
			// Dedented past the first item: a new list starts here.
			break
		}
		if len(stack) == 0 || ln.indent > stack[len(stack)-1].indent {
			l := entity.NewElement(entity.KindList, marker.Range.Start)
			l.Ordered = marker.Text[0] >= '0' && marker.Text[0] <= '9'
			l.Level = len(stack)
			if root == nil {
				root = l
			} else if parent := stack[len(stack)-1].list.Last(); parent != nil {
				parent.Append(l)
			}
			stack = append(stack, level{indent: ln.indent, list: l})
		}

		item := entity.NewElement(entity.KindListItem, marker.Range.Start)
		item.Children = p.parseInline(p.trimTokens(ln.toks[1:]))
		stack[len(stack)-1].list.Append(item)
	}
	return root, n
}

// fence parses a code or math fence. The lexer guarantees a closing marker.
func (p *docParser) fence(lines []line) (*entity.Element, int) {
	marker := lines[0].toks[0]
	kind := entity.KindCodeBlock
	if marker.Text == lexer.MarkerMathFence {
		kind = entity.KindMathBlock
	}
	e := entity.NewElement(kind, marker.Range.Start)
	if kind == entity.KindCodeBlock {
		e.Target = strings.TrimSpace(p.src.text[marker.Range.End.Offset:lines[0].end])
	}

	n := 1
	var body []string
	for ; n < len(lines); n++ {
		ln := lines[n]
		if len(ln.toks) > 0 && ln.toks[0].Is(value.TokenBlockMarker, marker.Text) {
			n++
			break
		}
		body = append(body, p.src.text[ln.start:ln.end])
	}
	e.Text = strings.Join(body, "\n")
	return e, n
}

// centered parses consecutive `||` lines.
func (p *docParser) centered(lines []line) (*entity.Element, int) {
	e := entity.NewElement(entity.KindCentered, lines[0].toks[0].Range.Start)
	toks := p.trimTokens(lines[0].toks[1:])
	n := 1
	for n < len(lines) && len(lines[n].toks) > 0 && lines[n].toks[0].Is(value.TokenBlockMarker, lexer.MarkerCentered) {
		toks = append(toks, *lines[n-1].brk)
		toks = append(toks, p.trimTokens(lines[n].toks[1:])...)
		n++
	}
	e.Children = p.parseInline(toks)
	return e, n
}

// importDirective parses `<[path][meta]`.
func (p *docParser) importDirective(ln line) (*entity.Element, bool) {
	marker := ln.toks[0]
	closeIdx := findToken(ln.toks, 1, value.TokenMetaClose)
	if closeIdx < 0 {
		p.warn(value.MetadataSyntaxError, marker.Range.Start, "unterminated import directive")
		return nil, false
	}
	path := strings.TrimSpace(p.src.text[marker.Range.End.Offset:ln.toks[closeIdx].Range.Start.Offset])
	if path == "" {
		p.warn(value.MetadataSyntaxError, marker.Range.Start, "import directive without a path")
		return nil, false
	}

	e := entity.NewElement(entity.KindImport, marker.Range.Start)
	e.Target = path
	e.Metadata, _ = p.trailingMetadata(ln.toks, closeIdx)
	return e, true
}

// bibliographyDefinition parses `[key]: url` and `[key]: [field=value]`.
func (p *docParser) bibliographyDefinition(ln line) *entity.Element {
	m := bibDefRe.FindStringSubmatchIndex(p.raw(ln))
	raw := p.raw(ln)
	e := entity.NewElement(entity.KindBibliographyDefinition, ln.toks[0].Range.Start)
	e.Text = strings.TrimSpace(raw[m[2]:m[3]])

	rest := strings.TrimSpace(raw[m[4]:m[5]])
	if strings.HasPrefix(rest, "[") {
		off := ln.textStart + m[4] + strings.IndexByte(raw[m[4]:], '[')
		meta, _, err := parseMetadataAt(p.src, off)
		p.metadataError(err)
		e.Metadata = meta
	} else if rest != "" {
		e.Metadata.Set("url", value.StringValue(rest))
	}
	return e
}

// paragraph accumulates lines until a blank line or another block. A
// paragraph holding a single image becomes a block image.
func (p *docParser) paragraph(lines []line) (*entity.Element, int) {
	toks := append([]value.Token(nil), lines[0].toks...)
	n := 1
	for n < len(lines) && p.classify(lines[n]) == blockParagraph {
		toks = append(toks, *lines[n-1].brk)
		toks = append(toks, lines[n].toks...)
		n++
	}

	children := p.parseInline(p.trimTokens(toks))
	if len(children) == 1 && children[0].Kind == entity.KindImage {
		return children[0], n
	}
	para := entity.NewElement(entity.KindParagraph, lines[0].toks[0].Range.Start)
	para.Children = children
	return para, n
}

// tokensFrom returns the tokens at or after offset off, splitting a text
// token that straddles it.
func (p *docParser) tokensFrom(toks []value.Token, off int) []value.Token {
	for k, tok := range toks {
		if tok.Range.End.Offset <= off {
			continue
		}
		if tok.Range.Start.Offset >= off || tok.Kind != value.TokenText {
			return toks[k:]
		}
		cut := tok
		cut.Text = p.src.text[off:tok.Range.End.Offset]
		cut.Range.Start = p.src.position(off)
		return append([]value.Token{cut}, toks[k+1:]...)
	}
	return nil
}

// trimTokens strips whitespace from the first and last text tokens.
func (p *docParser) trimTokens(toks []value.Token) []value.Token {
	out := append([]value.Token(nil), toks...)
	for len(out) > 0 && out[0].Kind == value.TokenText && !out[0].Escaped {
		trimmed := strings.TrimLeft(out[0].Text, " \t")
		if trimmed != "" {
			shift := len(out[0].Text) - len(trimmed)
			out[0].Text = trimmed
			out[0].Range.Start = p.src.position(out[0].Range.Start.Offset + shift)
			break
		}
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1].Kind == value.TokenText && !out[len(out)-1].Escaped {
		last := &out[len(out)-1]
		trimmed := strings.TrimRight(last.Text, " \t")
		if trimmed != "" {
			last.Range.End = p.src.position(last.Range.Start.Offset + len(trimmed))
			last.Text = trimmed
			break
		}
		out = out[:len(out)-1]
	}
	return out
}
