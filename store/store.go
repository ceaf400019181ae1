// Package store provides the durable keyed-document storage that every
// coordination component reads and writes through.
//
// A DocumentStore holds one logical JSON document: a flat mapping from string
// keys to raw JSON values. Higher layers own the shape of the values; the
// store only guarantees that a reader never observes a partially written
// document and that an absent or unreadable document loads as empty.
//
// Supported backends:
//   - Memory: for development and testing (default)
//   - File: whole-document JSON files with atomic temp-file+rename replace
//   - Redis: one hash per document, optimistic transactions for Mutate
//   - SQLite: one row per key, Mutate runs inside a database transaction
//
// The file backend intentionally provides no cross-process locking: two
// processes that Mutate the same document concurrently race, and the later
// save wins. The redis and sqlite backends close that gap without changing
// the contract above.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
)

// Common errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// Document is one logical keyed JSON document.
type Document map[string]json.RawMessage

// Get unmarshals the value at key into out. It returns ErrNotFound when the
// key is absent.
func (d Document) Get(key string, out any) error {
	raw, ok := d[key]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

// Set marshals v and stores it at key.
func (d Document) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	d[key] = raw
	return nil
}

// DocumentStore is the storage contract shared by all backends.
type DocumentStore interface {
	// Load returns the full document. An absent or unreadable backing
	// resource loads as an empty document, never as an error.
	Load(ctx context.Context) (Document, error)

	// Save replaces the full document atomically: a concurrent reader sees
	// either the old or the new document, never a partial one.
	Save(ctx context.Context, doc Document) error

	// Update sets a single key. It is a load-mutate-save convenience and is
	// not atomic across processes on every backend; prefer Mutate.
	Update(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes a single key. Same caveats as Update.
	Delete(ctx context.Context, key string) error

	// Mutate runs fn over the current document and persists the result as
	// one read-modify-write cycle. Backends with transactional storage make
	// this atomic across processes; the file backend only serializes
	// in-process callers.
	Mutate(ctx context.Context, fn func(doc Document) error) error

	// Ping checks that the store is usable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// StoreType selects a storage backend.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeRedis  StoreType = "redis"
	StoreTypeSQLite StoreType = "sqlite"
)

// RedisStoreConfig contains redis-specific configuration.
type RedisStoreConfig struct {
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	PoolSize  int    `json:"pool_size" yaml:"pool_size"`
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// StoreConfig is the base configuration for all store implementations.
type StoreConfig struct {
	// Type is the storage backend type.
	Type StoreType `json:"type" yaml:"type"`

	// DataDir is the base directory for file and sqlite storage.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// SQLitePath overrides the sqlite database location. Defaults to
	// agentnet.db inside DataDir.
	SQLitePath string `json:"sqlite_path" yaml:"sqlite_path"`

	// Redis configuration, used when Type is "redis".
	Redis RedisStoreConfig `json:"redis" yaml:"redis"`
}

// DefaultStoreConfig returns the default store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Type:    StoreTypeFile,
		DataDir: "./data",
		Redis: RedisStoreConfig{
			Host:      "localhost",
			Port:      6379,
			DB:        0,
			PoolSize:  10,
			KeyPrefix: "agentnet:",
		},
	}
}

// sqlitePath resolves the sqlite database path for the configuration.
func (c StoreConfig) sqlitePath() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "agentnet.db")
}
