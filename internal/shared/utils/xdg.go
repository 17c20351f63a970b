package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the per-user configuration and cache directories.
const AppName = "mdcompose"

// XDGPaths contains the XDG Base Directory paths for the application.
type XDGPaths struct {
	ConfigHome string   // User-specific configuration directory
	CacheHome  string   // User-specific cache directory
	ConfigDirs []string // System-wide configuration directories
}

// GetXDGPaths returns the XDG Base Directory paths for the application.
// It follows the XDG Base Directory Specification:
// https://specifications.freedesktop.org/basedir-spec/basedir-spec-latest.html
func GetXDGPaths(appName string) *XDGPaths {
	homeDir, _ := os.UserHomeDir()

	// XDG_CONFIG_HOME - defaults to ~/.config
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" && homeDir != "" {
		configHome = filepath.Join(homeDir, ".config")
	}
	if configHome != "" {
		configHome = filepath.Join(configHome, appName)
	}

	// XDG_CACHE_HOME - defaults to ~/.cache
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" && homeDir != "" {
		cacheHome = filepath.Join(homeDir, ".cache")
	}
	if cacheHome != "" {
		cacheHome = filepath.Join(cacheHome, appName)
	}

	// XDG_CONFIG_DIRS - defaults to /etc/xdg
	configDirsEnv := os.Getenv("XDG_CONFIG_DIRS")
	if configDirsEnv == "" {
		configDirsEnv = "/etc/xdg"
	}

	var configDirs []string
	for _, dir := range strings.Split(configDirsEnv, ":") {
		if dir != "" {
			configDirs = append(configDirs, filepath.Join(dir, appName))
		}
	}

	return &XDGPaths{
		ConfigHome: configHome,
		CacheHome:  cacheHome,
		ConfigDirs: configDirs,
	}
}

// GetConfigFilenames returns the configuration filenames to search for, in priority order.
func GetConfigFilenames() []string {
	return []string{
		"mdcompose.toml",
		".mdcompose.toml",
		"config.toml",
	}
}

// ConfigFileLocation represents a found configuration file.
type ConfigFileLocation struct {
	Path   string           // Full path to the config file
	Type   ConfigSourceType // Type of configuration location
	Source string           // Human-readable description of the source
}

// FindAllConfigFiles searches projectDir and the XDG hierarchy for
// configuration files. Results are in priority order, highest first:
// project, user, then the first system directory holding a config.
// An empty projectDir skips the project lookup.
func FindAllConfigFiles(appName, projectDir string) []ConfigFileLocation {
	xdg := GetXDGPaths(appName)
	filenames := GetConfigFilenames()
	var found []ConfigFileLocation

	if projectDir != "" {
		// config.toml is too generic to claim inside a project.
		if projectConfig := findConfigInDirectory(projectDir, filenames[:2]); projectConfig != "" {
			found = append(found, ConfigFileLocation{
				Path:   projectConfig,
				Type:   ConfigSourceProject,
				Source: "project directory",
			})
		}
	}

	if xdg.ConfigHome != "" {
		if userConfig := findConfigInDirectory(xdg.ConfigHome, filenames); userConfig != "" {
			found = append(found, ConfigFileLocation{
				Path:   userConfig,
				Type:   ConfigSourceUser,
				Source: "XDG user config",
			})
		}
	}

	for _, systemDir := range xdg.ConfigDirs {
		if systemConfig := findConfigInDirectory(systemDir, filenames); systemConfig != "" {
			found = append(found, ConfigFileLocation{
				Path:   systemConfig,
				Type:   ConfigSourceSystem,
				Source: "XDG system config",
			})
			break // Only use first system config found
		}
	}

	return found
}

// findConfigInDirectory searches for a config file in a specific directory
func findConfigInDirectory(dir string, filenames []string) string {
	for _, filename := range filenames {
		configPath := filepath.Join(dir, filename)
		if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
			return configPath
		}
	}
	return ""
}
