// Package sqlitestore is an example IRStore adapter backed by gorm.io/gorm
// and its sqlite driver, grounded on the teacher ecosystem's db.Connect
// (termfx-morfx/db/sqlite.go). It exists to demonstrate that port.IRStore
// is implementable, not as the core's blessed backend — spec §6.2
// deliberately keeps the core backend-agnostic.
package sqlitestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/viant/codeintel/ir"
)

// irDocumentRow is the single-table representation: the IR document body is
// stored as a JSON blob, keyed by (repo_id, snapshot_id), mirroring §6.1's
// "persisted as JSON or an equivalent self-describing format".
type irDocumentRow struct {
	RepoID     string `gorm:"primaryKey;column:repo_id"`
	SnapshotID string `gorm:"primaryKey;column:snapshot_id"`
	Body       []byte `gorm:"column:body"`
}

func (irDocumentRow) TableName() string { return "ir_documents" }

// Store implements port.IRStore.
type Store struct {
	db *gorm.DB
}

// Open connects to (and, if missing, creates) a SQLite database file at dsn
// and ensures the ir_documents table exists.
func Open(dsn string) (*Store, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlitestore: create dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	if err := db.AutoMigrate(&irDocumentRow{}); err != nil {
		return nil, fmt.Errorf("sqlitestore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, doc *ir.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("sqlitestore: marshal: %w", err)
	}
	row := irDocumentRow{RepoID: doc.RepoID, SnapshotID: doc.SnapshotID, Body: body}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *Store) Load(ctx context.Context, repoID, snapshotID string) (*ir.Document, error) {
	var row irDocumentRow
	err := s.db.WithContext(ctx).
		Where("repo_id = ? AND snapshot_id = ?", repoID, snapshotID).
		First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: load %s@%s: %w", repoID, snapshotID, err)
	}
	doc := &ir.Document{}
	if err := json.Unmarshal(row.Body, doc); err != nil {
		return nil, fmt.Errorf("sqlitestore: unmarshal: %w", err)
	}
	return doc, nil
}

func (s *Store) ListSnapshots(ctx context.Context, repoID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&irDocumentRow{}).
		Where("repo_id = ?", repoID).
		Pluck("snapshot_id", &ids).Error
	return ids, err
}

func (s *Store) Delete(ctx context.Context, repoID, snapshotID string) error {
	return s.db.WithContext(ctx).
		Where("repo_id = ? AND snapshot_id = ?", repoID, snapshotID).
		Delete(&irDocumentRow{}).Error
}
