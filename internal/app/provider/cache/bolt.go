package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/gomdlint/mdcompose/internal/domain/entity"
	"github.com/gomdlint/mdcompose/internal/shared/functional"
)

var documentsBucket = []byte("documents")

// BoltStore persists parsed documents in a bbolt database.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	logger *zap.Logger
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string, logger *zap.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	return &BoltStore{db: db, bucket: documentsBucket, logger: logger}, nil
}

// Path returns the database file.
func (b *BoltStore) Path() string {
	return b.db.Path()
}

func (b *BoltStore) get(tx *bolt.Tx, key string) []byte {
	bucket := tx.Bucket(b.bucket)
	if bucket == nil {
		return nil
	}
	val := bucket.Get([]byte(key))
	if val == nil {
		return nil
	}
	// Values are only valid for the life of the transaction.
	return append([]byte(nil), val...)
}

// Get returns the cached document for key. Unreadable entries are misses.
func (b *BoltStore) Get(ctx context.Context, key Key) functional.Option[*entity.Document] {
	if ctx.Err() != nil {
		return functional.None[*entity.Document]()
	}
	var data []byte
	if err := b.db.View(func(tx *bolt.Tx) error {
		data = b.get(tx, key.String())
		return nil
	}); err != nil || data == nil {
		return functional.None[*entity.Document]()
	}

	doc, err := Decode(data)
	if err != nil {
		b.logger.Warn("discarding cache entry", zap.String("path", key.Path), zap.Error(err))
		return functional.None[*entity.Document]()
	}
	return functional.Some(doc)
}

func (b *BoltStore) put(tx *bolt.Tx, key Key, value []byte) error {
	bucket, err := tx.CreateBucketIfNotExists(b.bucket)
	if err != nil {
		return err
	}

	// Drop entries of older contents of the same file.
	prefix := []byte(pathPrefix(key.Path))
	var stale [][]byte
	cursor := bucket.Cursor()
	for k, _ := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cursor.Next() {
		stale = append(stale, append([]byte(nil), k...))
	}
	for _, k := range stale {
		if err := bucket.Delete(k); err != nil {
			return err
		}
	}
	return bucket.Put([]byte(key.String()), value)
}

// Put stores doc under key, replacing entries for earlier contents of the
// same path.
func (b *BoltStore) Put(ctx context.Context, key Key, doc *entity.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return b.put(tx, key, data)
	})
}

// Clear removes every cached document.
func (b *BoltStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket(b.bucket)
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

// Len returns the number of cached documents.
func (b *BoltStore) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n := 0
	err := b.db.View(func(tx *bolt.Tx) error {
		if bucket := tx.Bucket(b.bucket); bucket != nil {
			n = bucket.Stats().KeyN
		}
		return nil
	})
	return n, err
}

// Close releases the database file.
func (b *BoltStore) Close() error {
	return b.db.Close()
}
