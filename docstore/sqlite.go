package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// fieldPattern restricts field names used inside JSON paths and SQL
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("%w: invalid field name %q", ErrUnsupportedQuery, field)
	}
	return nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_created ON documents (collection, created_at);
`

// SQLiteStore keeps JSON documents of one collection in a local SQLite file
type SQLiteStore struct {
	db         *sql.DB
	collection string
}

// OpenSQLite opens (creating if needed) the database at path and returns a
// store scoped to collection
func OpenSQLite(ctx context.Context, path, collection string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", ErrInvalidConfig)
	}
	if collection == "" {
		return nil, fmt.Errorf("%w: collection is required", ErrInvalidConfig)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Pragmas are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, collection: collection}, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, q Query) ([]Document, error) {
	var (
		where = []string{"collection = ?"}
		args  = []any{s.collection}
	)

	for _, f := range q.Filters {
		if f.Operator != OpEqual {
			return nil, Wrap("list", fmt.Errorf("%w: operator %s", ErrUnsupportedQuery, f.Operator), false)
		}
		if err := validateField(f.Field); err != nil {
			return nil, Wrap("list", err, false)
		}
		where = append(where, "json_extract(data, ?) = ?")
		args = append(args, "$."+f.Field, f.Value)
	}

	stmt := "SELECT id, data FROM documents WHERE " + strings.Join(where, " AND ")

	if q.Order != nil {
		if err := validateField(q.Order.Field); err != nil {
			return nil, Wrap("list", err, false)
		}
		dir := "ASC"
		if q.Order.Desc {
			dir = "DESC"
		}
		stmt += fmt.Sprintf(" ORDER BY json_extract(data, ?) %s, created_at ASC", dir)
		args = append(args, "$."+q.Order.Field)
	} else {
		stmt += " ORDER BY created_at ASC"
	}

	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, Wrap("list", err, isSQLiteRecoverable(err))
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id  string
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, Wrap("list", err, false)
		}
		fields := make(map[string]any)
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, Wrap("list", fmt.Errorf("corrupt document %s: %w", id, err), false)
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, Wrap("list", err, isSQLiteRecoverable(err))
	}

	return docs, nil
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, fields map[string]any) (Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return Document{}, Wrap("create", err, false)
	}

	id := uuid.NewString()
	now := time.Now().UnixNano()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		s.collection, id, string(raw), now, now)
	if err != nil {
		return Document{}, Wrap("create", err, isSQLiteRecoverable(err))
	}

	return Document{ID: id, Fields: copyFields(fields)}, nil
}

func (s *SQLiteStore) UpdateDocument(ctx context.Context, id string, fields map[string]any) (Document, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return Document{}, Wrap("update", err, false)
	}

	var raw string
	err = s.db.QueryRowContext(ctx,
		`UPDATE documents SET data = json_patch(data, ?), updated_at = ?
		 WHERE collection = ? AND id = ?
		 RETURNING data`,
		string(patch), time.Now().UnixNano(), s.collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, Wrap("update", fmt.Errorf("%w: %s", ErrNotFound, id), false)
	}
	if err != nil {
		return Document{}, Wrap("update", err, isSQLiteRecoverable(err))
	}

	merged := make(map[string]any)
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		return Document{}, Wrap("update", err, false)
	}
	return Document{ID: id, Fields: merged}, nil
}

func isSQLiteRecoverable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
