package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory returns a fresh empty store for a contract test
type storeFactory func(t *testing.T) Store

func backends(t *testing.T) map[string]storeFactory {
	t.Helper()

	factories := map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "docs.db"), "metrics")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}

	if dsn := os.Getenv("REELSCOUT_TEST_POSTGRES_DSN"); dsn != "" {
		factories["postgres"] = func(t *testing.T) Store {
			// A unique collection isolates runs that share a database
			s, err := OpenPostgres(context.Background(), dsn, "test_"+uuid.NewString())
			if err != nil {
				t.Skipf("Skipping test: cannot connect to test database: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		}
	}

	return factories
}

func TestStoreCreateAndList(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			created, err := s.CreateDocument(ctx, map[string]any{
				"searchTerm": "dune",
				"movie_id":   438631,
				"count":      1,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, "dune", created.String("searchTerm"))

			docs, err := s.ListDocuments(ctx, NewQuery(Equal("searchTerm", "dune")))
			require.NoError(t, err)
			require.Len(t, docs, 1)
			assert.Equal(t, created.ID, docs[0].ID)
			assert.Equal(t, int64(438631), docs[0].Int("movie_id"))
			assert.Equal(t, int64(1), docs[0].Int("count"))

			docs, err = s.ListDocuments(ctx, NewQuery(Equal("searchTerm", "arrival")))
			require.NoError(t, err)
			assert.Empty(t, docs)
		})
	}
}

func TestStoreUpdateMergesFields(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			created, err := s.CreateDocument(ctx, map[string]any{
				"searchTerm": "dune",
				"title":      "Dune",
				"count":      4,
			})
			require.NoError(t, err)

			updated, err := s.UpdateDocument(ctx, created.ID, map[string]any{"count": 5})
			require.NoError(t, err)
			assert.Equal(t, int64(5), updated.Int("count"))
			assert.Equal(t, "Dune", updated.String("title"))

			docs, err := s.ListDocuments(ctx, NewQuery(Equal("searchTerm", "dune")))
			require.NoError(t, err)
			require.Len(t, docs, 1)
			assert.Equal(t, int64(5), docs[0].Int("count"))
			assert.Equal(t, "Dune", docs[0].String("title"))
		})
	}
}

func TestStoreUpdateMissing(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			_, err := s.UpdateDocument(context.Background(), uuid.NewString(), map[string]any{"count": 1})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.False(t, IsRecoverable(err))
		})
	}
}

func TestStoreOrderAndLimit(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			for _, doc := range []map[string]any{
				{"searchTerm": "arrival", "count": 2},
				{"searchTerm": "dune", "count": 9},
				{"searchTerm": "heat", "count": 2},
				{"searchTerm": "alien", "count": 5},
			} {
				_, err := s.CreateDocument(ctx, doc)
				require.NoError(t, err)
			}

			docs, err := s.ListDocuments(ctx, NewQuery(OrderDesc("count"), Limit(3)))
			require.NoError(t, err)
			require.Len(t, docs, 3)

			terms := []string{docs[0].String("searchTerm"), docs[1].String("searchTerm"), docs[2].String("searchTerm")}
			// Ties keep creation order
			assert.Equal(t, []string{"dune", "alien", "arrival"}, terms)

			docs, err = s.ListDocuments(ctx, NewQuery(OrderAsc("count")))
			require.NoError(t, err)
			require.Len(t, docs, 4)
			assert.Equal(t, "arrival", docs[0].String("searchTerm"))
			assert.Equal(t, "dune", docs[3].String("searchTerm"))
		})
	}
}

func TestStoreRejectsInvalidField(t *testing.T) {
	for name, factory := range backends(t) {
		if name == "memory" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			_, err := s.ListDocuments(context.Background(), NewQuery(Equal("count') OR 1=1 --", 1)))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedQuery)
			assert.False(t, IsRecoverable(err))
		})
	}
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateDocument(ctx, map[string]any{"count": 1})
	require.Error(t, err)
	assert.True(t, IsRecoverable(err))
	assert.Equal(t, 0, s.Len())
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("list", nil, true))

	base := errors.New("boom")
	err := Wrap("list", base, true)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "list", se.Op)
	assert.True(t, se.Recoverable)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "document store list failed: boom", err.Error())

	// Already wrapped errors keep their original classification
	again := Wrap("create", err, false)
	assert.Same(t, err, again)
	assert.True(t, IsRecoverable(again))
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("x"), false},
		{"context canceled", context.Canceled, true},
		{"deadline", context.DeadlineExceeded, true},
		{"fatal store error", &StoreError{Op: "list", Err: errors.New("x")}, false},
		{"recoverable store error", &StoreError{Op: "list", Recoverable: true, Err: errors.New("x")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecoverable(tt.err))
		})
	}
}

func TestDocumentInt(t *testing.T) {
	doc := Document{Fields: map[string]any{
		"int":    3,
		"float":  4.0,
		"string": "7",
		"bad":    "x",
	}}

	assert.Equal(t, int64(3), doc.Int("int"))
	assert.Equal(t, int64(4), doc.Int("float"))
	assert.Equal(t, int64(7), doc.Int("string"))
	assert.Equal(t, int64(0), doc.Int("bad"))
	assert.Equal(t, int64(0), doc.Int("missing"))
	assert.Equal(t, "", doc.String("missing"))
	assert.Equal(t, "3", doc.String("int"))
}
