package trending

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/s0up4200/reelscout/tmdb"
)

func TestFormatTrendingEmpty(t *testing.T) {
	assert.Equal(t, "No trending data available", FormatTrending(nil, nil))
}

func TestFormatTrending(t *testing.T) {
	records := []Record{
		{SearchTerm: "dune", MovieID: 438631, Title: "Dune", Count: 5, PosterURL: "https://image.tmdb.org/t/p/w500/d.jpg"},
		{SearchTerm: "x", MovieID: 1, Count: 1, PosterURL: tmdb.PlaceholderPosterURL},
	}
	details := map[int64]*tmdb.Movie{
		438631: {
			Tagline:     "Beyond fear, destiny awaits.",
			VoteAverage: 7.8,
			Runtime:     155,
			Genres:      []tmdb.Genre{{ID: 878, Name: "Science Fiction"}},
		},
	}

	out := FormatTrending(records, details)

	assert.Contains(t, out, "Trending Movies (2):")
	assert.Contains(t, out, "├── #1 Dune\n")
	assert.Contains(t, out, `Searched 5 times for "dune"`)
	assert.Contains(t, out, "Beyond fear, destiny awaits.")
	assert.Contains(t, out, "★ 8/10 • 155m • Science Fiction")
	assert.Contains(t, out, "Poster: https://image.tmdb.org/t/p/w500/d.jpg")
	assert.Contains(t, out, "╰── #2 x\n")
	assert.Contains(t, out, `Searched 1 time for "x"`)
	assert.NotContains(t, out, tmdb.PlaceholderPosterURL)
}
