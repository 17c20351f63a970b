package utils

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gomdlint/mdcompose/internal/domain/value"
)

// FlattenConfig turns decoded structured configuration into flat metadata.
// Table names are discarded and only leaf keys remain. Keys are visited in
// sorted order, scalars of a table before its sub-tables, and the last
// visited value of a key wins.
func FlattenConfig(config map[string]interface{}) value.Metadata {
	var meta value.Metadata
	type table struct {
		entries map[string]interface{}
	}
	queue := []table{{config}}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]

		keys := make([]string, 0, len(t.entries))
		for key := range t.entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if sub, ok := asTable(t.entries[key]); ok {
				queue = append(queue, table{sub})
				continue
			}
			meta.Set(key, toValue(t.entries[key]))
		}
	}
	return meta
}

// asTable normalises the map types produced by the TOML and YAML decoders.
func asTable(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func toValue(v interface{}) value.Value {
	switch v := v.(type) {
	case string:
		return value.StringValue(v)
	case bool:
		return value.BoolValue(v)
	case int:
		return value.IntValue(int64(v))
	case int64:
		return value.IntValue(v)
	case uint64:
		return value.IntValue(int64(v))
	case float64:
		return value.FloatValue(v)
	case time.Time:
		return value.StringValue(v.Format(time.RFC3339))
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = toValue(item).Text()
		}
		return value.StringValue(strings.Join(parts, ", "))
	default:
		return value.StringValue(fmt.Sprint(v))
	}
}
