package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// documentRow is one key of one logical document.
type documentRow struct {
	Document string `gorm:"primaryKey;column:document"`
	Key      string `gorm:"primaryKey;column:key"`
	Value    []byte `gorm:"column:value"`
}

// TableName sets the table name for gorm.
func (documentRow) TableName() string { return "documents" }

// SQLDocumentStore keeps the document in a sqlite table, one row per key.
// Mutate runs inside a database transaction, making the read-modify-write
// cycle atomic across processes sharing the database file.
type SQLDocumentStore struct {
	db     *gorm.DB
	name   string
	logger *zap.Logger
}

// OpenSQLite opens (or creates) the sqlite database at path and migrates the
// documents table.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return db, nil
}

// NewSQLDocumentStore creates a sqlite-backed store for the named document
// on an already opened database.
func NewSQLDocumentStore(db *gorm.DB, name string, logger *zap.Logger) *SQLDocumentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLDocumentStore{
		db:     db,
		name:   name,
		logger: logger.With(zap.String("component", "sql_store"), zap.String("document", name)),
	}
}

// Load reads every row of the document. Query failures load as an empty
// document.
func (s *SQLDocumentStore) Load(ctx context.Context) (Document, error) {
	var rows []documentRow
	if err := s.db.WithContext(ctx).Where("document = ?", s.name).Find(&rows).Error; err != nil {
		s.logger.Warn("load failed, treating as empty", zap.Error(err))
		return Document{}, nil
	}

	doc := make(Document, len(rows))
	for _, row := range rows {
		doc[row.Key] = json.RawMessage(row.Value)
	}
	return doc, nil
}

// Save replaces the document inside one transaction.
func (s *SQLDocumentStore) Save(ctx context.Context, doc Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.saveTx(tx, doc)
	})
}

func (s *SQLDocumentStore) saveTx(tx *gorm.DB, doc Document) error {
	if err := tx.Where("document = ?", s.name).Delete(&documentRow{}).Error; err != nil {
		return err
	}
	if len(doc) == 0 {
		return nil
	}

	rows := make([]documentRow, 0, len(doc))
	for k, v := range doc {
		rows = append(rows, documentRow{Document: s.name, Key: k, Value: []byte(v)})
	}
	return tx.Create(&rows).Error
}

// Update upserts a single row.
func (s *SQLDocumentStore) Update(ctx context.Context, key string, value json.RawMessage) error {
	row := documentRow{Document: s.name, Key: key, Value: []byte(value)}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

// Delete removes a single row.
func (s *SQLDocumentStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("document = ? AND key = ?", s.name, key).
		Delete(&documentRow{}).Error
}

// Mutate runs fn over the document inside one database transaction.
func (s *SQLDocumentStore) Mutate(ctx context.Context, fn func(doc Document) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []documentRow
		if err := tx.Where("document = ?", s.name).Find(&rows).Error; err != nil {
			return err
		}

		doc := make(Document, len(rows))
		for _, row := range rows {
			doc[row.Key] = json.RawMessage(row.Value)
		}

		if err := fn(doc); err != nil {
			return err
		}
		return s.saveTx(tx, doc)
	})
}

// Ping checks the database connection.
func (s *SQLDocumentStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close is a no-op; the factory owns the shared database handle.
func (s *SQLDocumentStore) Close() error {
	return nil
}

var _ DocumentStore = (*SQLDocumentStore)(nil)
