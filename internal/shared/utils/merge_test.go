package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepMergeConfig_EmptyConfigs(t *testing.T) {
	result := DeepMergeConfig()
	assert.Empty(t, result)
	assert.NotNil(t, result)
}

func TestDeepMergeConfig_CopiesInput(t *testing.T) {
	config := map[string]interface{}{
		"concurrency": int64(4),
		"imports": map[string]interface{}{
			"ignored-imports": []interface{}{"draft.md"},
		},
	}

	result := DeepMergeConfig(nil, config, nil)
	assert.Equal(t, config, result)

	result["imports"].(map[string]interface{})["ignored-imports"].([]interface{})[0] = "changed.md"
	assert.Equal(t, "draft.md", config["imports"].(map[string]interface{})["ignored-imports"].([]interface{})[0])
}

func TestDeepMergeConfig_NestedTables(t *testing.T) {
	user := map[string]interface{}{
		"cache":    map[string]interface{}{"enabled": true, "dir": "/home/u/.cache/mdcompose"},
		"features": map[string]interface{}{"smart-arrows": true},
	}
	project := map[string]interface{}{
		"cache": map[string]interface{}{"enabled": false},
	}

	result := DeepMergeConfig(user, project)

	assert.Equal(t, map[string]interface{}{
		"cache":    map[string]interface{}{"enabled": false, "dir": "/home/u/.cache/mdcompose"},
		"features": map[string]interface{}{"smart-arrows": true},
	}, result)
}

func TestDeepMergeConfig_ArraysAreReplaced(t *testing.T) {
	base := map[string]interface{}{"ignored": []interface{}{"a", "b"}}
	override := map[string]interface{}{"ignored": []interface{}{"c"}}

	result := DeepMergeConfig(base, override)

	assert.Equal(t, []interface{}{"c"}, result["ignored"])
}

func TestConfigurationMerger_Priority(t *testing.T) {
	cm := NewConfigurationMerger()
	cm.AddSource(map[string]interface{}{"concurrency": int64(8)}, "/proj/mdcompose.toml", ConfigSourceProject)
	cm.AddSource(map[string]interface{}{"concurrency": int64(2), "x": true}, "/etc/xdg/mdcompose/mdcompose.toml", ConfigSourceSystem)
	cm.AddSource(nil, "ignored", ConfigSourceUser)

	result := cm.Merge()

	assert.Equal(t, int64(8), result["concurrency"], "project overrides system")
	assert.Equal(t, true, result["x"])
	assert.Equal(t, []string{
		"/etc/xdg/mdcompose/mdcompose.toml (system)",
		"/proj/mdcompose.toml (project)",
	}, cm.GetSourcePaths())
}
