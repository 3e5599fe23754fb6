package docstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Store is the contract every document backend implements
type Store interface {
	// ListDocuments returns the documents matching q
	ListDocuments(ctx context.Context, q Query) ([]Document, error)

	// CreateDocument stores a new document and returns it with its id
	CreateDocument(ctx context.Context, fields map[string]any) (Document, error)

	// UpdateDocument merges fields into the document with the given id
	UpdateDocument(ctx context.Context, id string, fields map[string]any) (Document, error)
}

// Document is a schema-flexible record
type Document struct {
	ID     string
	Fields map[string]any
}

// String returns the named field as a string, or "" if absent
func (d Document) String(field string) string {
	switch v := d.Fields[field].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the named field as an int64. JSON numbers decode as float64
// and some backends return numeric strings, so both are accepted.
func (d Document) Int(field string) int64 {
	switch v := d.Fields[field].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(math.Round(v))
	case float32:
		return int64(math.Round(float64(v)))
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Operator is a filter comparison
type Operator string

const (
	// OpEqual matches documents whose field equals the value
	OpEqual Operator = "equal"
)

// Filter is a single field condition
type Filter struct {
	Field    string
	Operator Operator
	Value    any
}

// Order sorts results by a field
type Order struct {
	Field string
	Desc  bool
}

// Query describes which documents to list
type Query struct {
	Filters []Filter
	Order   *Order
	Limit   int
}

// QueryOption builds a Query
type QueryOption func(*Query)

// NewQuery builds a Query from options
func NewQuery(opts ...QueryOption) Query {
	var q Query
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Equal filters documents whose field equals value
func Equal(field string, value any) QueryOption {
	return func(q *Query) {
		q.Filters = append(q.Filters, Filter{Field: field, Operator: OpEqual, Value: value})
	}
}

// OrderDesc sorts by field, largest first
func OrderDesc(field string) QueryOption {
	return func(q *Query) {
		q.Order = &Order{Field: field, Desc: true}
	}
}

// OrderAsc sorts by field, smallest first
func OrderAsc(field string) QueryOption {
	return func(q *Query) {
		q.Order = &Order{Field: field}
	}
}

// Limit caps the number of returned documents
func Limit(n int) QueryOption {
	return func(q *Query) {
		if n > 0 {
			q.Limit = n
		}
	}
}

// matches reports whether doc satisfies every filter of q
func (q Query) matches(doc Document) bool {
	for _, f := range q.Filters {
		if f.Operator != OpEqual {
			return false
		}
		if !valuesEqual(doc.Fields[f.Field], f.Value) {
			return false
		}
	}
	return true
}

// apply sorts and limits docs in memory
func (q Query) apply(docs []Document) []Document {
	if q.Order != nil {
		field := q.Order.Field
		desc := q.Order.Desc
		sort.SliceStable(docs, func(i, j int) bool {
			c := compareValues(docs[i].Fields[field], docs[j].Fields[field])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

func valuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareValues(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	switch {
	case aok && bok:
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case aok:
		return 1
	case bok:
		return -1
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// copyFields returns a shallow copy of fields
func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
