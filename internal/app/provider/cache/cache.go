// Package cache stores parsed documents keyed by path and content
// fingerprint so unchanged imports are not parsed again.
package cache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/shared/functional"
	"github.com/gomdlint/mdcompose/internal/shared/utils"
)

// formatVersion is bumped whenever the encoded tree layout changes. Entries
// written with another version are treated as misses.
const formatVersion = 2

// ErrVersionMismatch is returned when decoding an entry of another format version.
var ErrVersionMismatch = errors.New("cache entry format version mismatch")

// Key identifies a cached parse. A document is only reused when both its
// canonical path and the fingerprint of its bytes match.
type Key struct {
	Path        string
	Fingerprint uint64
}

// NewKey creates a cache key.
func NewKey(path string, fingerprint uint64) Key {
	return Key{Path: path, Fingerprint: fingerprint}
}

// String returns the storage form of the key. All keys of one path share the
// prefix returned by pathPrefix.
func (k Key) String() string {
	return fmt.Sprintf("%s%016x", pathPrefix(k.Path), k.Fingerprint)
}

func pathPrefix(path string) string {
	return path + "\x00"
}

// Store caches parsed documents. Get returns an independent copy on every
// call; callers may modify it freely. Implementations are safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key Key) functional.Option[*entity.Document]
	Put(ctx context.Context, key Key, doc *entity.Document) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
	Close() error
}

// DefaultDir returns the per-user cache directory.
func DefaultDir() string {
	if dir := utils.GetXDGPaths(utils.AppName).CacheHome; dir != "" {
		return dir
	}
	return filepath.Join(".", "."+utils.AppName+"-cache")
}

// DefaultPath returns the database file inside dir.
func DefaultPath(dir string) string {
	if dir == "" {
		dir = DefaultDir()
	}
	return filepath.Join(dir, "documents.db")
}

type envelope struct {
	Version  int              `msgpack:"v"`
	Document *entity.Document `msgpack:"d"`
}

// Encode serialises doc into the cache format.
func Encode(doc *entity.Document) ([]byte, error) {
	data, err := msgpack.Marshal(&envelope{Version: formatVersion, Document: doc})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", doc.Path, err)
	}
	return data, nil
}

// Decode restores a document written by Encode.
func Decode(data []byte) (*entity.Document, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, env.Version, formatVersion)
	}
	if env.Document == nil || env.Document.Root == nil {
		return nil, errors.New("decode cache entry: missing document")
	}
	return env.Document, nil
}
