package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. Nothing is persisted.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
	seq  map[string]int // insertion order, used as a stable tiebreak
	next int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]Document),
		seq:  make(map[string]int),
	}
}

func (s *MemoryStore) ListDocuments(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, Wrap("list", err, true)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for _, d := range s.docs {
		if q.matches(d) {
			docs = append(docs, Document{ID: d.ID, Fields: copyFields(d.Fields)})
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return s.seq[docs[i].ID] < s.seq[docs[j].ID]
	})

	return q.apply(docs), nil
}

func (s *MemoryStore) CreateDocument(ctx context.Context, fields map[string]any) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, Wrap("create", err, true)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := Document{ID: uuid.NewString(), Fields: copyFields(fields)}
	s.docs[doc.ID] = doc
	s.seq[doc.ID] = s.next
	s.next++

	return Document{ID: doc.ID, Fields: copyFields(doc.Fields)}, nil
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, id string, fields map[string]any) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, Wrap("update", err, true)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, Wrap("update", fmt.Errorf("%w: %s", ErrNotFound, id), false)
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	s.docs[id] = doc

	return Document{ID: doc.ID, Fields: copyFields(doc.Fields)}, nil
}

// Len returns the number of stored documents
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
