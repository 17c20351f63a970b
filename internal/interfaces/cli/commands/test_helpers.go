package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

// isolateXDG keeps user and system configuration and the user cache out of
// command tests.
func isolateXDG(t testing.TB) string {
	t.Helper()

	root := t.TempDir()
	t.Setenv("HOME", filepath.Join(root, "home"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(root, "etc"))
	return root
}

// executeCommand runs the root command with args and captures its output.
func executeCommand(t testing.TB, args ...string) (*bytes.Buffer, *bytes.Buffer, error) {
	t.Helper()

	cmd := NewRootCommand("test", "abc123", "today")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout, stderr, err
}
