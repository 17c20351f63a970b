package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

type metadataTestScenario struct {
	name     string
	input    string
	key      string
	expected value.Value
}

func TestParseMetadata_TypeInference(t *testing.T) {
	scenarios := []metadataTestScenario{
		{"integer", "[key=123]", "key", value.IntValue(123)},
		{"negative integer", "[key=-7]", "key", value.IntValue(-7)},
		{"float", "[key=1.23]", "key", value.FloatValue(1.23)},
		{"flag", "[key]", "key", value.BoolValue(true)},
		{"false", "[key=false]", "key", value.BoolValue(false)},
		{"true", "[key=true]", "key", value.BoolValue(true)},
		{"quoted with comma", `[key="a,b"]`, "key", value.StringValue("a,b")},
		{"single quoted with bracket", `[key='x]y']`, "key", value.StringValue("x]y")},
		{"escaped quote", `[key="say \"hi\""]`, "key", value.StringValue(`say "hi"`)},
		{"quoted number stays string", `[key="42"]`, "key", value.StringValue("42")},
		{"placeholder", "[key=[[name]]]", "key", value.PlaceholderValue("name")},
		{"bare string", "[key=hello world]", "key", value.StringValue("hello world")},
		{"not a float", "[key=inf]", "key", value.StringValue("inf")},
		{"spaces", "[ key = 5 ]", "key", value.IntValue(5)},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			meta, err := ParseMetadata(s.input)
			require.NoError(t, err)

			v, ok := meta.Get(s.key)
			require.True(t, ok, "key %q should be set", s.key)
			assert.Equal(t, s.expected, v)
		})
	}
}

func TestParseMetadata_Order(t *testing.T) {
	meta, err := ParseMetadata("[width=50, toc-hidden, title='A, B', ratio=0.5]")
	require.NoError(t, err)

	assert.Equal(t, []string{"width", "toc-hidden", "title", "ratio"}, meta.Keys())
}

func TestParseMetadata_Empty(t *testing.T) {
	meta, err := ParseMetadata("[]")
	require.NoError(t, err)
	assert.Equal(t, 0, meta.Len())
}

func TestParseMetadata_Errors(t *testing.T) {
	scenarios := []struct {
		name        string
		input       string
		partialKeys []string
	}{
		{"unterminated", "[a=1, b", []string{"a"}},
		{"empty key", "[a=1,,b]", []string{"a"}},
		{"dangling equals", "[a=1, b=]", []string{"a"}},
		{"unterminated string", `[a="open]`, nil},
		{"unterminated placeholder", "[a=[[x]", nil},
		{"trailing garbage", "[a] b", []string{"a"}},
		{"missing bracket", "a=1", nil},
	}

	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			meta, err := ParseMetadata(s.input)

			require.Error(t, err)
			assert.True(t, value.IsKind(err, value.MetadataSyntaxError))
			assert.Equal(t, len(s.partialKeys), meta.Len())
			for _, key := range s.partialKeys {
				assert.True(t, meta.Has(key), "partial metadata keeps %q", key)
			}
		})
	}
}

func TestParseMetadataAt_StopsAtClosingBracket(t *testing.T) {
	src := newSource("![x](y)[w=[[a]], h=2] trailing")

	meta, end, err := parseMetadataAt(src, 7)

	require.NoError(t, err)
	assert.Equal(t, 21, end)
	assert.Equal(t, " trailing", src.text[end:])
	v, _ := meta.Get("w")
	assert.Equal(t, value.PlaceholderValue("a"), v)
}

func TestParseMetadataAt_DoesNotCrossLines(t *testing.T) {
	src := newSource("[a=1,\nb=2]")

	_, end, err := parseMetadataAt(src, 0)

	require.Error(t, err)
	assert.Equal(t, 5, end)
}
