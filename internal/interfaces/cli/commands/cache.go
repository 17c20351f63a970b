package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/gomdlint/mdcompose/internal/app/provider/cache"
)

// NewCacheCommand creates the cache command for managing the parse cache.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Parse cache management",
		Long:  `Inspect or clear the persistent cache of parsed documents.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "info [dir]",
			Short: "Show the cache location and size",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return cacheInfo(cmd, dirArg(args))
			},
		},
		&cobra.Command{
			Use:   "clear [dir]",
			Short: "Remove every cached document",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return cacheClear(cmd, dirArg(args))
			},
		},
	)

	return cmd
}

// openCache opens the cache configured for dir. It returns a nil store
// when no cache file exists yet.
func openCache(cmd *cobra.Command, dir string) (*cache.BoltStore, string, error) {
	resolved, err := resolveConfig(cmd, dir)
	if err != nil {
		return nil, "", err
	}

	path := cache.DefaultPath(resolved.Config.Cache.Dir)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, path, nil
	}

	store, err := cache.OpenBolt(path, nil)
	if err != nil {
		return nil, path, fmt.Errorf("failed to open cache %s: %w", path, err)
	}
	return store, path, nil
}

func cacheInfo(cmd *cobra.Command, dir string) error {
	store, path, err := openCache(cmd, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if store == nil {
		fmt.Fprintf(out, "Cache: %s (not created yet)\n", path)
		return nil
	}
	defer store.Close()

	n, err := store.Len(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	fmt.Fprintf(out, "Cache: %s\nEntries: %d\n", path, n)
	return nil
}

func cacheClear(cmd *cobra.Command, dir string) error {
	store, path, err := openCache(cmd, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if store == nil {
		fmt.Fprintf(out, "Nothing to clear at %s\n", path)
		return nil
	}
	defer store.Close()

	n, err := store.Len(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	if err := store.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintf(out, "Removed %d cached documents from %s\n", n, path)
	return nil
}
