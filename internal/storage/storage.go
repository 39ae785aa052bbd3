package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name
var ErrUnknownBackend = errors.New("unknown storage backend")

// Storage is a string key/value store with browser local storage semantics:
// values are opaque serialized blobs and a missing key is not an error.
type Storage interface {
	// GetItem returns the value and whether the key exists
	GetItem(ctx context.Context, key string) (string, bool, error)

	// SetItem replaces the value stored under key
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key; removing a missing key is a no-op
	RemoveItem(ctx context.Context, key string) error

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error

	Close() error
}

// Config selects and configures a backend
type Config struct {
	Backend       string // file | bolt | redis | postgres | memory
	Path          string // file and bolt
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	DSN           string // postgres
	MigrationsDir string // postgres, empty for the embedded set
	Table         string // postgres
}

// Open creates the backend named in cfg
func Open(ctx context.Context, cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		return NewFileStorage(cfg.Path)
	case "bolt":
		return NewBoltStorage(cfg.Path)
	case "redis":
		return NewRedisStorage(ctx, RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case "postgres":
		if err := MigrateFromDSN(ctx, cfg.DSN, cfg.MigrationsDir); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return NewPostgresStorage(ctx, PostgresConfig{DSN: cfg.DSN, Table: cfg.Table})
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Namespaced scopes every key of a shared backend to one client, the way
// each browser profile has its own local storage.
type Namespaced struct {
	base   Storage
	prefix string
}

// NewNamespaced wraps base so keys are stored as "<namespace>/<key>"
func NewNamespaced(base Storage, namespace string) *Namespaced {
	return &Namespaced{base: base, prefix: namespace + "/"}
}

func (n *Namespaced) GetItem(ctx context.Context, key string) (string, bool, error) {
	return n.base.GetItem(ctx, n.prefix+key)
}

func (n *Namespaced) SetItem(ctx context.Context, key, value string) error {
	return n.base.SetItem(ctx, n.prefix+key, value)
}

func (n *Namespaced) RemoveItem(ctx context.Context, key string) error {
	return n.base.RemoveItem(ctx, n.prefix+key)
}

func (n *Namespaced) Ping(ctx context.Context) error {
	return n.base.Ping(ctx)
}

// Close is a no-op; the shared base is owned by the caller
func (n *Namespaced) Close() error {
	return nil
}
