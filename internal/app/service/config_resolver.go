package service

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/gomdlint/mdcompose/internal/domain/value"
	"github.com/gomdlint/mdcompose/internal/shared/functional"
	"github.com/gomdlint/mdcompose/internal/shared/utils"
)

// ResolvedConfig is a merged configuration together with the files it was
// read from, lowest priority first.
type ResolvedConfig struct {
	Config  *value.Config
	Sources []string
}

// ConfigResolver discovers configuration files, merges them by priority and
// decodes the result over the defaults.
type ConfigResolver struct {
	appName string
	logger  *zap.Logger
}

// NewConfigResolver creates a new configuration resolver
func NewConfigResolver(logger *zap.Logger) *ConfigResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigResolver{appName: utils.AppName, logger: logger}
}

// ResolveConfig merges the system, user and project configuration files and
// an optional explicit file, which takes precedence over all of them. A
// missing explicit file is an error; missing discovered files are not.
func (cr *ConfigResolver) ResolveConfig(ctx context.Context, projectDir, explicitPath string) functional.Result[*ResolvedConfig] {
	merger := utils.NewConfigurationMerger()

	for _, loc := range utils.FindAllConfigFiles(cr.appName, projectDir) {
		if err := ctx.Err(); err != nil {
			return functional.Err[*ResolvedConfig](err)
		}
		raw, err := cr.loadFile(loc.Path)
		if err != nil {
			return functional.Err[*ResolvedConfig](err)
		}
		cr.logger.Debug("config file found", zap.String("path", loc.Path), zap.String("source", loc.Source))
		merger.AddSource(raw, loc.Path, loc.Type)
	}

	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return functional.Err[*ResolvedConfig](fmt.Errorf("config file not found: %s", explicitPath))
		}
		raw, err := cr.loadFile(explicitPath)
		if err != nil {
			return functional.Err[*ResolvedConfig](err)
		}
		merger.AddSource(raw, explicitPath, utils.ConfigSourceCLI)
	}

	config, err := cr.decode(merger.Merge())
	if err != nil {
		return functional.Err[*ResolvedConfig](err)
	}
	if err := config.Validate(); err != nil {
		return functional.Err[*ResolvedConfig](fmt.Errorf("invalid configuration: %w", err))
	}
	return functional.Ok(&ResolvedConfig{Config: config, Sources: merger.GetSourcePaths()})
}

// loadFile decodes one TOML configuration file into its raw tables.
func (cr *ConfigResolver) loadFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var raw map[string]interface{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
	}
	return raw, nil
}

// decode applies merged tables over the default configuration.
func (cr *ConfigResolver) decode(merged map[string]interface{}) (*value.Config, error) {
	config := value.NewConfig()
	if len(merged) == 0 {
		return config, nil
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(merged); err != nil {
		return nil, fmt.Errorf("failed to encode merged config: %w", err)
	}
	md, err := toml.Decode(buf.String(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to decode merged config: %w", err)
	}
	for _, key := range md.Undecoded() {
		cr.logger.Warn("unknown configuration key", zap.String("key", key.String()))
	}
	return config, nil
}
