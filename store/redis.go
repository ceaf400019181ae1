package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// mutateRetries bounds the optimistic-transaction retry loop in Mutate.
const mutateRetries = 16

// RedisDocumentStore keeps the document in a single redis hash, one field
// per key. Mutate uses WATCH/MULTI optimistic transactions, so concurrent
// writers from different processes retry instead of silently losing updates.
type RedisDocumentStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisDocumentStore creates a redis-backed store for the named document
// and verifies the connection.
func NewRedisDocumentStore(name string, cfg RedisStoreConfig, logger *zap.Logger) (*RedisDocumentStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "agentnet:"
	}

	return &RedisDocumentStore{
		client: client,
		key:    prefix + "doc:" + name,
		logger: logger.With(zap.String("component", "redis_store"), zap.String("document", name)),
	}, nil
}

// NewRedisDocumentStoreWithClient wraps an existing client; used by the
// factory so all documents share one connection pool.
func NewRedisDocumentStoreWithClient(client *redis.Client, name, keyPrefix string, logger *zap.Logger) *RedisDocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyPrefix == "" {
		keyPrefix = "agentnet:"
	}
	return &RedisDocumentStore{
		client: client,
		key:    keyPrefix + "doc:" + name,
		logger: logger.With(zap.String("component", "redis_store"), zap.String("document", name)),
	}
}

// Load reads the full hash. A missing hash loads as an empty document.
func (s *RedisDocumentStore) Load(ctx context.Context) (Document, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		s.logger.Warn("load failed, treating as empty", zap.Error(err))
		return Document{}, nil
	}
	return documentFromFields(fields), nil
}

func documentFromFields(fields map[string]string) Document {
	doc := make(Document, len(fields))
	for k, v := range fields {
		doc[k] = json.RawMessage(v)
	}
	return doc
}

// Save replaces the hash in a single transaction.
func (s *RedisDocumentStore) Save(ctx context.Context, doc Document) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(doc) > 0 {
			pipe.HSet(ctx, s.key, flattenDocument(doc)...)
		}
		return nil
	})
	return err
}

func flattenDocument(doc Document) []any {
	pairs := make([]any, 0, len(doc)*2)
	for k, v := range doc {
		pairs = append(pairs, k, string(v))
	}
	return pairs
}

// Update sets a single hash field.
func (s *RedisDocumentStore) Update(ctx context.Context, key string, value json.RawMessage) error {
	return s.client.HSet(ctx, s.key, key, string(value)).Err()
}

// Delete removes a single hash field.
func (s *RedisDocumentStore) Delete(ctx context.Context, key string) error {
	return s.client.HDel(ctx, s.key, key).Err()
}

// Mutate runs fn inside an optimistic WATCH/MULTI transaction. The cycle is
// retried when a concurrent writer invalidates the watched key.
func (s *RedisDocumentStore) Mutate(ctx context.Context, fn func(doc Document) error) error {
	txn := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, s.key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		doc := documentFromFields(fields)
		if err := fn(doc); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.key)
			if len(doc) > 0 {
				pipe.HSet(ctx, s.key, flattenDocument(doc)...)
			}
			return nil
		})
		return err
	}

	for i := 0; i < mutateRetries; i++ {
		err := s.client.Watch(ctx, txn, s.key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("mutate on %s: too many transaction conflicts", s.key)
}

// Ping checks the redis connection.
func (s *RedisDocumentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisDocumentStore) Close() error {
	return s.client.Close()
}

var _ DocumentStore = (*RedisDocumentStore)(nil)
