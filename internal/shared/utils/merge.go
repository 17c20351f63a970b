package utils

import (
	"fmt"
	"sort"
)

// DeepMergeConfig merges decoded TOML tables. Later tables override earlier
// ones; nested tables merge recursively and arrays are replaced.
func DeepMergeConfig(configs ...map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, config := range configs {
		if config != nil {
			result = mergeMap(result, config)
		}
	}
	return result
}

func mergeMap(base, override map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(base)+len(override))
	for key, v := range base {
		result[key] = deepCopyValue(v)
	}
	for key, overrideValue := range override {
		baseMap, baseIsMap := result[key].(map[string]interface{})
		overrideMap, overrideIsMap := overrideValue.(map[string]interface{})
		if baseIsMap && overrideIsMap {
			result[key] = mergeMap(baseMap, overrideMap)
			continue
		}
		result[key] = deepCopyValue(overrideValue)
	}
	return result
}

// deepCopyValue copies the container types the TOML decoder produces.
func deepCopyValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[key] = deepCopyValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = deepCopyValue(val)
		}
		return out
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(v))
		for i, val := range v {
			out[i] = deepCopyValue(val).(map[string]interface{})
		}
		return out
	default:
		return v
	}
}

// ConfigSourceType represents the origin of a configuration source.
type ConfigSourceType string

const (
	ConfigSourceSystem  ConfigSourceType = "system"
	ConfigSourceUser    ConfigSourceType = "user"
	ConfigSourceProject ConfigSourceType = "project"
	ConfigSourceCLI     ConfigSourceType = "cli"
)

func (t ConfigSourceType) priority() int {
	switch t {
	case ConfigSourceSystem:
		return 10
	case ConfigSourceUser:
		return 20
	case ConfigSourceProject:
		return 30
	case ConfigSourceCLI:
		return 40
	default:
		return 0
	}
}

// ConfigSource is one decoded configuration file.
type ConfigSource struct {
	Config map[string]interface{}
	Path   string
	Type   ConfigSourceType
}

// ConfigurationMerger merges configuration sources by priority.
type ConfigurationMerger struct {
	sources []ConfigSource
}

// NewConfigurationMerger creates a new configuration merger.
func NewConfigurationMerger() *ConfigurationMerger {
	return &ConfigurationMerger{sources: make([]ConfigSource, 0)}
}

// AddSource adds a configuration source.
func (cm *ConfigurationMerger) AddSource(config map[string]interface{}, path string, sourceType ConfigSourceType) {
	if config == nil {
		return
	}
	cm.sources = append(cm.sources, ConfigSource{Config: config, Path: path, Type: sourceType})
}

func (cm *ConfigurationMerger) sorted() []ConfigSource {
	sources := make([]ConfigSource, len(cm.sources))
	copy(sources, cm.sources)
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Type.priority() < sources[j].Type.priority()
	})
	return sources
}

// Merge merges all sources, higher priority last.
func (cm *ConfigurationMerger) Merge() map[string]interface{} {
	sources := cm.sorted()
	configs := make([]map[string]interface{}, len(sources))
	for i, source := range sources {
		configs[i] = source.Config
	}
	return DeepMergeConfig(configs...)
}

// GetSourcePaths returns the source paths in priority order, lowest first.
func (cm *ConfigurationMerger) GetSourcePaths() []string {
	paths := make([]string, 0, len(cm.sources))
	for _, source := range cm.sorted() {
		if source.Path != "" {
			paths = append(paths, fmt.Sprintf("%s (%s)", source.Path, source.Type))
		}
	}
	return paths
}
