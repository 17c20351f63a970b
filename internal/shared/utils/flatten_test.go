package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

func TestFlattenConfig_DiscardsSections(t *testing.T) {
	config := map[string]interface{}{
		"title": "Thesis",
		"meta": map[string]interface{}{
			"author": "A. Student",
			"year":   int64(2024),
			"nested": map[string]interface{}{
				"draft": true,
			},
		},
		"ratio": 0.5,
	}

	meta := FlattenConfig(config)

	assert.Equal(t, "Thesis", meta.String("title", ""))
	assert.Equal(t, "A. Student", meta.String("author", ""))
	v, _ := meta.Get("year")
	assert.Equal(t, value.IntValue(2024), v)
	assert.True(t, meta.Flag("draft"))
	v, _ = meta.Get("ratio")
	assert.Equal(t, value.FloatValue(0.5), v)
	assert.False(t, meta.Has("meta"), "section names are not keys")
}

func TestFlattenConfig_Deterministic(t *testing.T) {
	config := map[string]interface{}{
		"b": map[string]interface{}{"key": "from-b"},
		"a": map[string]interface{}{"key": "from-a"},
		"z": "top",
	}

	for i := 0; i < 20; i++ {
		meta := FlattenConfig(config)
		assert.Equal(t, []string{"z", "key"}, meta.Keys())
		assert.Equal(t, "from-b", meta.String("key", ""), "later sorted table wins")
	}
}

func TestFlattenConfig_ValueTypes(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	config := map[string]interface{}{
		"when": when,
		"tags": []interface{}{"a", int64(1)},
		"yaml": map[interface{}]interface{}{"count": 3},
	}

	meta := FlattenConfig(config)

	assert.Equal(t, "2024-03-01T12:00:00Z", meta.String("when", ""))
	assert.Equal(t, "a, 1", meta.String("tags", ""))
	v, _ := meta.Get("count")
	assert.Equal(t, value.IntValue(3), v)
}
