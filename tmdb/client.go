package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBaseURL is the TMDB v3 API root
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultImageBaseURL is the w500 poster CDN prefix
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	// PlaceholderPosterURL is shown for movies without a poster
	PlaceholderPosterURL = "https://placehold.co/600x400/1a1a1a/ffffff.png"
)

// Client is a TMDB catalog client authenticated with a static bearer token
type Client struct {
	baseURL      string
	token        string
	imageBaseURL string
	concurrency  int
	httpClient   *http.Client
	logger       zerolog.Logger
}

// NewClient creates a new TMDB client
func NewClient(baseURL, token string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: tmdb base URL is required", ErrInvalidConfig)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: tmdb API token is required", ErrInvalidConfig)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %v", ErrInvalidConfig, err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		imageBaseURL: o.imageBaseURL,
		concurrency:  o.concurrency,
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

// doRequest performs an authenticated GET and decodes the JSON body into out
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("TMDB request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
		var status statusResponse
		if json.Unmarshal(body, &status) == nil {
			apiErr.Message = status.StatusMessage
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// TestConnection verifies the token against the authentication endpoint
func (c *Client) TestConnection(ctx context.Context) error {
	var status statusResponse
	if err := c.doRequest(ctx, "/authentication", nil, &status); err != nil {
		return err
	}
	if status.Success != nil && !*status.Success {
		return fmt.Errorf("%w: %s", ErrUnauthorized, status.StatusMessage)
	}
	return nil
}

// Search returns movies matching query. An empty query returns the
// popularity-sorted discovery list instead. Paging metadata is ignored.
func (c *Client) Search(ctx context.Context, query string) ([]Movie, error) {
	endpoint := "/discover/movie"
	params := url.Values{}
	if query != "" {
		endpoint = "/search/movie"
		params.Set("query", query)
	} else {
		params.Set("sort_by", "popularity.desc")
	}

	var response ListResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("query", query).
		Int("count", len(response.Results)).
		Msg("Retrieved movies from TMDB")

	if response.Results == nil {
		return []Movie{}, nil
	}
	return response.Results, nil
}

// Popular returns the popularity-sorted discovery list
func (c *Client) Popular(ctx context.Context) ([]Movie, error) {
	return c.Search(ctx, "")
}

// GetDetails retrieves the full detail record of a single movie
func (c *Client) GetDetails(ctx context.Context, id string) (*Movie, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidID
	}

	var movie Movie
	if err := c.doRequest(ctx, "/movie/"+url.PathEscape(id), nil, &movie); err != nil {
		return nil, fmt.Errorf("failed to get movie %s: %w", id, err)
	}
	return &movie, nil
}

// GetDetailsBatch fetches details for ids concurrently. The result keeps
// the order of ids; entries that failed to load are left out and logged.
func (c *Client) GetDetailsBatch(ctx context.Context, ids []string) ([]Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	// Each goroutine owns one slot, so no locking is needed
	slots := make([]*Movie, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			movie, err := c.GetDetails(gctx, id)
			if err != nil {
				c.logger.Warn().Err(err).Str("movie_id", id).Msg("Failed to get movie details")
				return nil
			}
			slots[i] = movie
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	movies := make([]Movie, 0, len(ids))
	for _, m := range slots {
		if m != nil {
			movies = append(movies, *m)
		}
	}
	return movies, nil
}

// PosterURL returns the full poster image URL for a poster path
func (c *Client) PosterURL(path string) string {
	return PosterURL(c.imageBaseURL, path)
}

// PosterURL joins an image base and a poster path, falling back to a
// placeholder image when the movie has no poster
func PosterURL(base, path string) string {
	if path == "" {
		return PlaceholderPosterURL
	}
	if base == "" {
		base = DefaultImageBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
