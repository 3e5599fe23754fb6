package appwrite

import (
	"encoding/json"
	"fmt"

	"github.com/s0up4200/reelscout/docstore"
)

// listResponse is the body of GET .../documents
type listResponse struct {
	Total     int              `json:"total"`
	Documents []map[string]any `json:"documents"`
}

type createRequest struct {
	DocumentID string         `json:"documentId"`
	Data       map[string]any `json:"data"`
}

type updateRequest struct {
	Data map[string]any `json:"data"`
}

// query is the JSON form of an Appwrite query string
type query struct {
	Method    string `json:"method"`
	Attribute string `json:"attribute,omitempty"`
	Values    []any  `json:"values,omitempty"`
}

// encodeQueries converts a docstore.Query into Appwrite query strings
func encodeQueries(q docstore.Query) ([]string, error) {
	var out []query

	for _, f := range q.Filters {
		if f.Operator != docstore.OpEqual {
			return nil, fmt.Errorf("%w: operator %s", docstore.ErrUnsupportedQuery, f.Operator)
		}
		out = append(out, query{Method: "equal", Attribute: f.Field, Values: []any{f.Value}})
	}

	if q.Order != nil {
		method := "orderAsc"
		if q.Order.Desc {
			method = "orderDesc"
		}
		out = append(out, query{Method: method, Attribute: q.Order.Field})
	}

	if q.Limit > 0 {
		out = append(out, query{Method: "limit", Values: []any{q.Limit}})
	}

	encoded := make([]string, 0, len(out))
	for _, qq := range out {
		b, err := json.Marshal(qq)
		if err != nil {
			return nil, fmt.Errorf("failed to encode query: %w", err)
		}
		encoded = append(encoded, string(b))
	}
	return encoded, nil
}
