package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setXDGEnv points the XDG variables at dirs below a temporary root.
func setXDGEnv(t testing.TB) string {
	t.Helper()

	root := t.TempDir()
	t.Setenv("HOME", filepath.Join(root, "home"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(root, "etc1")+":"+filepath.Join(root, "etc2"))
	return root
}

func writeConfig(t testing.TB, path string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("concurrency = 2\n"), 0o644))
}

func TestGetXDGPaths_WithEnvironmentVariables(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping XDG-specific tests on Windows")
	}
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	t.Setenv("XDG_CONFIG_DIRS", "/etc/xdg::/usr/local/etc")

	paths := GetXDGPaths("testapp")

	assert.Equal(t, "/custom/config/testapp", paths.ConfigHome)
	assert.Equal(t, "/custom/cache/testapp", paths.CacheHome)
	assert.Equal(t, []string{"/etc/xdg/testapp", "/usr/local/etc/testapp"}, paths.ConfigDirs)
}

func TestGetXDGPaths_WithDefaults(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping XDG-specific tests on Windows")
	}
	t.Setenv("HOME", "/home/testuser")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("XDG_CONFIG_DIRS", "")

	paths := GetXDGPaths(AppName)

	assert.Equal(t, "/home/testuser/.config/mdcompose", paths.ConfigHome)
	assert.Equal(t, "/home/testuser/.cache/mdcompose", paths.CacheHome)
	assert.Equal(t, []string{"/etc/xdg/mdcompose"}, paths.ConfigDirs)
}

func TestFindAllConfigFiles(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping XDG-specific tests on Windows")
	}
	root := setXDGEnv(t)
	project := filepath.Join(root, "project")
	writeConfig(t, filepath.Join(project, ".mdcompose.toml"))
	writeConfig(t, filepath.Join(root, "config", "testapp", "config.toml"))
	writeConfig(t, filepath.Join(root, "etc2", "testapp", "mdcompose.toml"))

	found := FindAllConfigFiles("testapp", project)

	require.Len(t, found, 3)
	assert.Equal(t, filepath.Join(project, ".mdcompose.toml"), found[0].Path)
	assert.Equal(t, ConfigSourceProject, found[0].Type)
	assert.Equal(t, ConfigSourceUser, found[1].Type)
	assert.Equal(t, filepath.Join(root, "etc2", "testapp", "mdcompose.toml"), found[2].Path)
	assert.Equal(t, ConfigSourceSystem, found[2].Type)
}

func TestFindAllConfigFiles_FirstSystemDirOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Skipping XDG-specific tests on Windows")
	}
	root := setXDGEnv(t)
	writeConfig(t, filepath.Join(root, "etc1", "testapp", "mdcompose.toml"))
	writeConfig(t, filepath.Join(root, "etc2", "testapp", "mdcompose.toml"))

	found := FindAllConfigFiles("testapp", "")

	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(root, "etc1", "testapp", "mdcompose.toml"), found[0].Path)
}

func TestFindAllConfigFiles_ProjectIgnoresGenericName(t *testing.T) {
	root := setXDGEnv(t)
	project := filepath.Join(root, "project")
	writeConfig(t, filepath.Join(project, "config.toml"))

	assert.Empty(t, FindAllConfigFiles("testapp", project))
}

func TestFindAllConfigFiles_DirectoryIsNotAConfig(t *testing.T) {
	root := setXDGEnv(t)
	project := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(project, "mdcompose.toml"), 0o755))

	assert.Empty(t, FindAllConfigFiles("testapp", project))
}
