package radarr

import (
	"context"

	"golift.io/starr/radarr"
)

// RadarrAPI is the subset of the starr Radarr client used here
type RadarrAPI interface {
	GetMovieContext(ctx context.Context, params *radarr.GetMovie) ([]*radarr.Movie, error)
	Ping() error
}
