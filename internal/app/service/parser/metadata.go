package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

var (
	integerRe = regexp.MustCompile(`^[+-]?\d+$`)
	floatRe   = regexp.MustCompile(`^[+-]?(\d+\.\d*|\.\d+|\d+)([eE][+-]?\d+)?$`)
)

// ParseMetadata parses a complete metadata block such as `[key=value, flag]`.
// On a syntax error the entries parsed so far are returned with the error.
func ParseMetadata(text string) (value.Metadata, error) {
	src := newSource(text)
	meta, end, err := parseMetadataAt(src, strings.IndexByte(text, '['))
	if err == nil && strings.TrimSpace(text[end:]) != "" {
		err = value.NewError(value.MetadataSyntaxError, "", src.position(end),
			"unexpected %q after metadata", text[end:])
	}
	return meta, err
}

// parseMetadataAt parses the metadata block opening at src.text[off] and
// returns the offset just past its closing bracket. Blocks never span lines.
func parseMetadataAt(src *source, off int) (value.Metadata, int, error) {
	text := src.text
	if off < 0 || off >= len(text) || text[off] != '[' {
		return nil, max(off, 0), value.NewError(value.MetadataSyntaxError, "", src.position(max(off, 0)), "expected '['")
	}
	end := src.lineEnd(off)
	fail := func(at int, format string, args ...interface{}) error {
		return value.NewError(value.MetadataSyntaxError, "", src.position(at), format, args...)
	}

	var meta value.Metadata
	i := skipSpaces(text, off+1, end)
	if i < end && text[i] == ']' {
		return meta, i + 1, nil
	}

	for {
		keyStart := i
		for i < end && !strings.ContainsRune("=,]", rune(text[i])) {
			i++
		}
		key := strings.TrimSpace(text[keyStart:i])
		if i >= end {
			return meta, end, fail(off, "unterminated metadata block")
		}
		if key == "" {
			return meta, skipToClose(text, i, end), fail(keyStart, "empty key")
		}

		if text[i] == '=' {
			v, next, err := parseMetadataValue(src, i+1, end)
			if err != nil {
				return meta, skipToClose(text, next, end), err
			}
			meta.Set(key, v)
			i = next
		} else {
			meta.Set(key, value.BoolValue(true))
		}

		i = skipSpaces(text, i, end)
		if i >= end {
			return meta, end, fail(off, "unterminated metadata block")
		}
		switch text[i] {
		case ',':
			i = skipSpaces(text, i+1, end)
		case ']':
			return meta, i + 1, nil
		default:
			return meta, skipToClose(text, i, end), fail(i, "expected ',' or ']'")
		}
	}
}

// parseMetadataValue parses the value starting at i, after the '='.
func parseMetadataValue(src *source, i, end int) (value.Value, int, error) {
	text := src.text
	i = skipSpaces(text, i, end)
	if i >= end || text[i] == ',' || text[i] == ']' {
		return value.Value{}, i, value.NewError(value.MetadataSyntaxError, "", src.position(i), "dangling '='")
	}

	if q := text[i]; q == '"' || q == '\'' {
		var b strings.Builder
		for j := i + 1; j < end; j++ {
			switch text[j] {
			case '\\':
				if j+1 < end {
					j++
					b.WriteByte(text[j])
				}
			case q:
				return value.StringValue(b.String()), j + 1, nil
			default:
				b.WriteByte(text[j])
			}
		}
		return value.Value{}, end, value.NewError(value.MetadataSyntaxError, "", src.position(i), "unterminated string")
	}

	// Bare value: runs to the next ',' or ']' at depth zero. Brackets inside
	// the value nest, which is how [[placeholder]] values are carried.
	start := i
	depth := 0
	for ; i < end; i++ {
		c := text[i]
		if c == '[' {
			depth++
		} else if c == ']' {
			if depth == 0 {
				break
			}
			depth--
		} else if c == ',' && depth == 0 {
			break
		}
	}
	if depth != 0 {
		return value.Value{}, end, value.NewError(value.MetadataSyntaxError, "", src.position(start), "unterminated bracket in value")
	}
	return inferValue(strings.TrimSpace(text[start:i])), i, nil
}

// inferValue types a bare value: bool, then integer, then float, then
// placeholder, and string otherwise.
func inferValue(raw string) value.Value {
	switch raw {
	case "true":
		return value.BoolValue(true)
	case "false":
		return value.BoolValue(false)
	}
	if integerRe.MatchString(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return value.IntValue(n)
		}
	}
	if floatRe.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return value.FloatValue(f)
		}
	}
	if strings.HasPrefix(raw, "[[") && strings.HasSuffix(raw, "]]") {
		return value.PlaceholderValue(strings.TrimSpace(raw[2 : len(raw)-2]))
	}
	return value.StringValue(raw)
}

func skipSpaces(text string, i, end int) int {
	for i < end && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return i
}

// skipToClose finds the end of a broken metadata block so parsing can resume
// after it.
func skipToClose(text string, i, end int) int {
	if j := strings.IndexByte(text[i:end], ']'); j >= 0 {
		return i + j + 1
	}
	return end
}
