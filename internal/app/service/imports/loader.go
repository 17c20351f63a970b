package imports

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/gomdlint/mdcompose/internal/app/service/parser"
	"github.com/gomdlint/mdcompose/internal/domain/value"
)

// Loader reads import targets.
type Loader interface {
	// Canonical resolves path to an absolute path with symlinks evaluated.
	// It fails with ImportNotFound when the target does not exist.
	Canonical(path string) (string, error)
	// Load reads the canonical path. Textual targets must be valid UTF-8.
	Load(ctx context.Context, path string, textual bool) ([]byte, error)
}

// FileLoader reads import targets from the filesystem.
type FileLoader struct{}

// NewFileLoader creates a filesystem loader.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Canonical implements Loader.
func (fl *FileLoader) Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", value.WrapError(value.ImportUnreadable, path, err, "resolve path")
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", classifyFSError(abs, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return "", classifyFSError(canonical, err)
	}
	if info.IsDir() {
		return "", value.NewError(value.ImportUnreadable, canonical, value.Position{}, "is a directory")
	}
	return canonical, nil
}

// Load implements Loader.
func (fl *FileLoader) Load(ctx context.Context, path string, textual bool) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyFSError(path, err)
	}
	if textual && !utf8.Valid(data) {
		return nil, value.NewError(value.ImportInvalidEncoding, path, value.Position{}, "not valid UTF-8 text")
	}
	return data, nil
}

func classifyFSError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return value.WrapError(value.ImportNotFound, path, err, "file does not exist")
	}
	return value.WrapError(value.ImportUnreadable, path, err, "file is not readable")
}

// Fingerprint hashes raw content together with the parser options that
// change the resulting tree, so a cached parse is never reused under other
// options.
func Fingerprint(data []byte, opts parser.Options) uint64 {
	d := xxhash.New()
	_, _ = d.Write(data)
	if opts.SmartArrows {
		_, _ = d.Write([]byte{1})
	} else {
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}
