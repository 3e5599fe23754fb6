package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         UUID NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
)`

// PostgresStore keeps JSONB documents of one collection in Postgres
type PostgresStore struct {
	db         *pgxpool.Pool
	collection string
}

// OpenPostgres connects to dsn, ensures the documents table exists and
// returns a store scoped to collection
func OpenPostgres(ctx context.Context, dsn, collection string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", ErrInvalidConfig)
	}
	if collection == "" {
		return nil, fmt.Errorf("%w: collection is required", ErrInvalidConfig)
	}

	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{db: db, collection: collection}, nil
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, q Query) ([]Document, error) {
	var (
		where = []string{"collection = $1"}
		args  = []any{s.collection}
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range q.Filters {
		if f.Operator != OpEqual {
			return nil, Wrap("list", fmt.Errorf("%w: operator %s", ErrUnsupportedQuery, f.Operator), false)
		}
		if err := validateField(f.Field); err != nil {
			return nil, Wrap("list", err, false)
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, Wrap("list", err, false)
		}
		where = append(where, fmt.Sprintf("data -> %s::text = %s::jsonb", arg(f.Field), arg(string(value))))
	}

	stmt := "SELECT id::text, data FROM documents WHERE " + strings.Join(where, " AND ")

	if q.Order != nil {
		if err := validateField(q.Order.Field); err != nil {
			return nil, Wrap("list", err, false)
		}
		dir := "ASC"
		if q.Order.Desc {
			dir = "DESC"
		}
		stmt += fmt.Sprintf(" ORDER BY data -> %s::text %s, created_at ASC", arg(q.Order.Field), dir)
	} else {
		stmt += " ORDER BY created_at ASC"
	}

	if q.Limit > 0 {
		stmt += " LIMIT " + arg(q.Limit)
	}

	rows, err := s.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, Wrap("list", err, isPostgresRecoverable(err))
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, Wrap("list", err, false)
		}
		fields := make(map[string]any)
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, Wrap("list", fmt.Errorf("corrupt document %s: %w", id, err), false)
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, Wrap("list", err, isPostgresRecoverable(err))
	}

	return docs, nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, fields map[string]any) (Document, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return Document{}, Wrap("create", err, false)
	}

	id := uuid.NewString()
	_, err = s.db.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		s.collection, id, string(raw))
	if err != nil {
		return Document{}, Wrap("create", err, isPostgresRecoverable(err))
	}

	return Document{ID: id, Fields: copyFields(fields)}, nil
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, id string, fields map[string]any) (Document, error) {
	if err := uuid.Validate(id); err != nil {
		return Document{}, Wrap("update", fmt.Errorf("%w: %s", ErrNotFound, id), false)
	}

	patch, err := json.Marshal(fields)
	if err != nil {
		return Document{}, Wrap("update", err, false)
	}

	var raw []byte
	err = s.db.QueryRow(ctx,
		`UPDATE documents SET data = data || $1::jsonb, updated_at = now()
		 WHERE collection = $2 AND id = $3
		 RETURNING data`,
		string(patch), s.collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, Wrap("update", fmt.Errorf("%w: %s", ErrNotFound, id), false)
	}
	if err != nil {
		return Document{}, Wrap("update", err, isPostgresRecoverable(err))
	}

	merged := make(map[string]any)
	if err := json.Unmarshal(raw, &merged); err != nil {
		return Document{}, Wrap("update", err, false)
	}
	return Document{ID: id, Fields: merged}, nil
}

// isPostgresRecoverable treats connection loss, serialization conflicts and
// resource exhaustion as transient. Errors without a server code come from
// the network layer.
func isPostgresRecoverable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return true
	}
	switch {
	case strings.HasPrefix(pgErr.Code, "08"),
		strings.HasPrefix(pgErr.Code, "40"),
		strings.HasPrefix(pgErr.Code, "53"),
		strings.HasPrefix(pgErr.Code, "57P"):
		return true
	}
	return false
}
