package documents

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store backed by a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	type       TEXT NOT NULL,
	status     TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL,
	UNIQUE(user_id, type)
);
CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id);
`

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists. Parent directories are created as needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent upserts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// ListByUser returns all records for a user, newest first.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, type, status, name, updated_at
		 FROM documents WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var updatedAt int64
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Type, &rec.Status, &rec.Name, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		rec.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return out, nil
}

// Upsert inserts or replaces the record for (user, type).
func (s *SQLiteStore) Upsert(ctx context.Context, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, user_id, type, status, name, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, type) DO UPDATE SET
		   id = excluded.id,
		   status = excluded.status,
		   name = excluded.name,
		   updated_at = excluded.updated_at`,
		rec.ID, rec.UserID, rec.Type, rec.Status, rec.Name, rec.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}
	return nil
}

// Delete removes a record by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
