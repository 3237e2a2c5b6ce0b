// Package kv provides the string key/value persistence used for favorites
// and settings.
//
// Values are opaque strings (callers store JSON documents). Several
// backends implement [Store]:
//   - [FileStore]: one JSON document on local disk (the default)
//   - [SQLiteStore]: a single table in a SQLite database
//   - [RedisStore]: Redis keys under an optional prefix
//   - [MongoStore]: documents in a MongoDB collection
//   - [MemoryStore]: in-process, for tests
//
// Use [Open] to build a store from configuration.
package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store is a string key/value store.
type Store interface {
	// Get returns the value under key. The bool is false when the key is
	// absent; that is not an error.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Kind names a storage backend.
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindRedis  Kind = "redis"
	KindMongo  Kind = "mongo"
	KindMemory Kind = "memory"
)

// Config selects and configures a backend for [Open].
type Config struct {
	Kind Kind

	// Dir holds the file store document and the SQLite database.
	Dir string

	RedisAddr   string
	RedisPrefix string

	MongoURI string
	MongoDB  string
}

// Open builds the store described by cfg. An empty Kind means [KindFile].
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Dir == "" && (cfg.Kind == "" || cfg.Kind == KindFile || cfg.Kind == KindSQLite) {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		cfg.Dir = dir
	}
	switch cfg.Kind {
	case "", KindFile:
		return opened(NewFileStore(filepath.Join(cfg.Dir, "store.json")))
	case KindSQLite:
		return opened(OpenSQLite(ctx, filepath.Join(cfg.Dir, "forger.db")))
	case KindRedis:
		return opened(DialRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix))
	case KindMongo:
		return opened(ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB))
	case KindMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}

// opened converts a constructor result to a Store, returning a nil
// interface on error instead of a typed nil pointer.
func opened[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultDir returns ~/.config/forger.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "forger"), nil
}
