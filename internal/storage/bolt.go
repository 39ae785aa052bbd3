package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bItems = "local_storage"

	boltTimeout = 2 * time.Second
)

// BoltStorage is a bbolt-backed Storage
type BoltStorage struct {
	db *bolt.DB
}

// NewBoltStorage opens (or creates) a bbolt database at path
func NewBoltStorage(path string) (*BoltStorage, error) {
	if path == "" {
		return nil, errors.New("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: boltTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bItems))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStorage{db: db}, nil
}

func (s *BoltStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bItems)).Get([]byte(key))
		if v == nil {
			return nil
		}
		// v is only valid inside the transaction
		value, found = string(v), true
		return nil
	})
	return value, found, err
}

func (s *BoltStorage) SetItem(ctx context.Context, key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bItems)).Put([]byte(key), []byte(value))
	})
}

func (s *BoltStorage) RemoveItem(ctx context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bItems)).Delete([]byte(key))
	})
}

func (s *BoltStorage) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error { return nil })
}

func (s *BoltStorage) Close() error { return s.db.Close() }
