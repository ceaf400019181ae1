package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileDocumentStore keeps the document in a single human-readable JSON file.
// Saves are atomic at the file level: the document is written to a temporary
// file and renamed over the target, so a reader never observes a partial
// write. There is no cross-process locking; in-process callers are
// serialized by a mutex, concurrent processes race and the later save wins.
type FileDocumentStore struct {
	path   string
	mu     sync.Mutex
	closed bool
	logger *zap.Logger
}

// NewFileDocumentStore creates a file-backed store for the named document
// under dataDir. The file is created lazily on first save.
func NewFileDocumentStore(dataDir, name string, logger *zap.Logger) *FileDocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileDocumentStore{
		path:   filepath.Join(dataDir, name+".json"),
		logger: logger.With(zap.String("component", "file_store"), zap.String("document", name)),
	}
}

// Load reads the document from disk. A missing, unreadable, or malformed
// file loads as an empty document.
func (s *FileDocumentStore) Load(ctx context.Context) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.load(), nil
}

func (s *FileDocumentStore) load() Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("unreadable document, treating as empty", zap.Error(err))
		}
		return Document{}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("corrupt document, treating as empty", zap.Error(err))
		return Document{}
	}
	if doc == nil {
		doc = Document{}
	}
	return doc
}

// Save writes the full document atomically via temp file + rename.
func (s *FileDocumentStore) Save(ctx context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.save(doc)
}

func (s *FileDocumentStore) save(doc Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, s.path)
}

// Update sets a single key via load-mutate-save.
func (s *FileDocumentStore) Update(ctx context.Context, key string, value json.RawMessage) error {
	return s.Mutate(ctx, func(doc Document) error {
		doc[key] = value
		return nil
	})
}

// Delete removes a single key via load-mutate-save.
func (s *FileDocumentStore) Delete(ctx context.Context, key string) error {
	return s.Mutate(ctx, func(doc Document) error {
		delete(doc, key)
		return nil
	})
}

// Mutate runs fn over the current document and saves the result. The cycle
// is serialized against other in-process callers only.
func (s *FileDocumentStore) Mutate(ctx context.Context, fn func(doc Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	doc := s.load()
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}

// Ping checks if the store is usable.
func (s *FileDocumentStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close marks the store closed.
func (s *FileDocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ DocumentStore = (*FileDocumentStore)(nil)
