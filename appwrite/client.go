package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/s0up4200/reelscout/docstore"
)

const (
	// DefaultEndpoint is Appwrite Cloud
	DefaultEndpoint = "https://cloud.appwrite.io/v1"

	// uniqueID asks the server to generate a document id
	uniqueID = "unique()"
)

// Client is a docstore.Store backed by one Appwrite collection
type Client struct {
	endpoint     string
	projectID    string
	databaseID   string
	collectionID string
	apiKey       string
	httpClient   *http.Client
	logger       zerolog.Logger
}

var _ docstore.Store = (*Client)(nil)

// NewClient creates a new Appwrite client
func NewClient(endpoint, projectID, databaseID, collectionID string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if projectID == "" {
		return nil, fmt.Errorf("%w: project ID is required", ErrInvalidConfig)
	}
	if databaseID == "" {
		return nil, fmt.Errorf("%w: database ID is required", ErrInvalidConfig)
	}
	if collectionID == "" {
		return nil, fmt.Errorf("%w: collection ID is required", ErrInvalidConfig)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.timeout}
	}

	return &Client{
		endpoint:     strings.TrimRight(endpoint, "/"),
		projectID:    projectID,
		databaseID:   databaseID,
		collectionID: collectionID,
		apiKey:       options.apiKey,
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

func (c *Client) documentsPath() string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents",
		url.PathEscape(c.databaseID), url.PathEscape(c.collectionID))
}

// doRequest performs an authenticated request. body is JSON encoded when
// non-nil and the response is decoded into out when non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body, out any) error {
	reqURL := c.endpoint + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	req.Header.Set("X-Appwrite-Project", c.projectID)
	if c.apiKey != "" {
		req.Header.Set("X-Appwrite-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Msg("Making Appwrite API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil && er.Message != "" {
			apiErr.Message = er.Message
			apiErr.Type = er.Type
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// TestConnection lists at most one document to verify credentials and ids
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.ListDocuments(ctx, docstore.NewQuery(docstore.Limit(1)))
	return err
}

// ListDocuments implements docstore.Store
func (c *Client) ListDocuments(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	queries, err := encodeQueries(q)
	if err != nil {
		return nil, docstore.Wrap("list", err, false)
	}

	params := url.Values{}
	for _, query := range queries {
		params.Add("queries[]", query)
	}

	var resp listResponse
	if err := c.doRequest(ctx, http.MethodGet, c.documentsPath(), params, nil, &resp); err != nil {
		return nil, docstore.Wrap("list", err, isRecoverable(err))
	}

	docs := make([]docstore.Document, 0, len(resp.Documents))
	for _, raw := range resp.Documents {
		docs = append(docs, toDocument(raw))
	}

	c.logger.Debug().
		Int("count", len(docs)).
		Int("total", resp.Total).
		Msg("Listed Appwrite documents")

	return docs, nil
}

// CreateDocument implements docstore.Store
func (c *Client) CreateDocument(ctx context.Context, fields map[string]any) (docstore.Document, error) {
	body := createRequest{DocumentID: uniqueID, Data: fields}

	var raw map[string]any
	if err := c.doRequest(ctx, http.MethodPost, c.documentsPath(), nil, body, &raw); err != nil {
		return docstore.Document{}, docstore.Wrap("create", err, isRecoverable(err))
	}
	return toDocument(raw), nil
}

// UpdateDocument implements docstore.Store
func (c *Client) UpdateDocument(ctx context.Context, id string, fields map[string]any) (docstore.Document, error) {
	if id == "" {
		return docstore.Document{}, docstore.Wrap("update", fmt.Errorf("%w: empty id", docstore.ErrNotFound), false)
	}

	body := updateRequest{Data: fields}
	path := c.documentsPath() + "/" + url.PathEscape(id)

	var raw map[string]any
	if err := c.doRequest(ctx, http.MethodPatch, path, nil, body, &raw); err != nil {
		return docstore.Document{}, docstore.Wrap("update", err, isRecoverable(err))
	}
	return toDocument(raw), nil
}

// isRecoverable classifies request failures. Anything that never produced
// an HTTP response is a transport failure.
func isRecoverable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRecoverable()
	}
	return !errors.Is(err, ErrInvalidRequest) && !errors.Is(err, ErrMalformedResponse)
}

// toDocument splits Appwrite system attributes ($id, $createdAt, ...) from
// the user fields
func toDocument(raw map[string]any) docstore.Document {
	doc := docstore.Document{Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		if k == "$id" {
			doc.ID, _ = v.(string)
			continue
		}
		if strings.HasPrefix(k, "$") {
			continue
		}
		doc.Fields[k] = v
	}
	return doc
}
