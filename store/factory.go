package store

import (
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Factory opens document stores for a single configuration, sharing one
// redis client or sqlite handle across all documents.
type Factory struct {
	cfg    StoreConfig
	logger *zap.Logger

	mu    sync.Mutex
	redis *redis.Client
	db    *gorm.DB
}

// NewFactory creates a store factory for the given configuration.
func NewFactory(cfg StoreConfig, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{cfg: cfg, logger: logger}
}

// Open creates a DocumentStore for the named document using the configured
// backend.
func (f *Factory) Open(name string) (DocumentStore, error) {
	switch f.cfg.Type {
	case StoreTypeMemory:
		return NewMemoryDocumentStore(), nil
	case StoreTypeFile, "":
		return NewFileDocumentStore(f.cfg.DataDir, name, f.logger), nil
	case StoreTypeRedis:
		client, err := f.redisClient()
		if err != nil {
			return nil, err
		}
		return NewRedisDocumentStoreWithClient(client, name, f.cfg.Redis.KeyPrefix, f.logger), nil
	case StoreTypeSQLite:
		db, err := f.sqliteDB()
		if err != nil {
			return nil, err
		}
		return NewSQLDocumentStore(db, name, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", f.cfg.Type)
	}
}

func (f *Factory) redisClient() (*redis.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.redis != nil {
		return f.redis, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", f.cfg.Redis.Host, f.cfg.Redis.Port),
		Password: f.cfg.Redis.Password,
		DB:       f.cfg.Redis.DB,
		PoolSize: f.cfg.Redis.PoolSize,
	})
	f.redis = client
	return client, nil
}

func (f *Factory) sqliteDB() (*gorm.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.db != nil {
		return f.db, nil
	}

	db, err := OpenSQLite(f.cfg.sqlitePath())
	if err != nil {
		return nil, err
	}
	f.db = db
	return db, nil
}

// Close releases the shared backend handles.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	if f.redis != nil {
		if err := f.redis.Close(); err != nil {
			firstErr = err
		}
		f.redis = nil
	}
	if f.db != nil {
		if sqlDB, err := f.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		f.db = nil
	}
	return firstErr
}
