package radarr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golift.io/starr"
	"golift.io/starr/radarr"
)

// ErrInvalidConfig indicates invalid client configuration
var ErrInvalidConfig = errors.New("invalid radarr configuration")

// Client looks up catalog movies in a Radarr library
type Client struct {
	client RadarrAPI
	logger zerolog.Logger
}

// NewClient creates a new Radarr client. It does not contact the server;
// use TestConnection for that.
func NewClient(url, apiKey string, logger zerolog.Logger) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: radarr URL is required", ErrInvalidConfig)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: radarr API key is required", ErrInvalidConfig)
	}

	config := starr.New(apiKey, strings.TrimRight(url, "/"), 30*time.Second)

	return &Client{
		client: radarr.New(config),
		logger: logger,
	}, nil
}

// TestConnection pings the Radarr server
func (c *Client) TestConnection(ctx context.Context) error {
	if err := c.client.Ping(); err != nil {
		return fmt.Errorf("failed to connect to Radarr: %w", err)
	}
	return nil
}

// LibraryStatus describes whether a catalog movie is in the Radarr library
type LibraryStatus struct {
	InLibrary  bool
	Monitored  bool
	HasFile    bool
	Title      string
	Year       int
	Status     string
	Added      time.Time
	SizeOnDisk int64
}

// LibraryStatus looks up the movie with the given TMDB id
func (c *Client) LibraryStatus(ctx context.Context, tmdbID int64) (*LibraryStatus, error) {
	if tmdbID <= 0 {
		return nil, fmt.Errorf("invalid TMDB id: %d", tmdbID)
	}

	movies, err := c.client.GetMovieContext(ctx, &radarr.GetMovie{TMDBID: tmdbID})
	if err != nil {
		return nil, fmt.Errorf("failed to look up TMDB id %d: %w", tmdbID, err)
	}

	for _, movie := range movies {
		if movie == nil || movie.TmdbID != tmdbID {
			continue
		}

		c.logger.Debug().
			Int64("tmdb_id", tmdbID).
			Int64("radarr_id", movie.ID).
			Bool("has_file", movie.HasFile).
			Msg("Found movie in Radarr")

		return &LibraryStatus{
			InLibrary:  true,
			Monitored:  movie.Monitored,
			HasFile:    movie.HasFile,
			Title:      movie.Title,
			Year:       movie.Year,
			Status:     movie.Status,
			Added:      movie.Added,
			SizeOnDisk: movie.SizeOnDisk,
		}, nil
	}

	c.logger.Debug().Int64("tmdb_id", tmdbID).Msg("Movie not in Radarr library")
	return &LibraryStatus{}, nil
}
