package trending

import (
	"fmt"
	"strings"

	"github.com/s0up4200/reelscout/tmdb"
)

// FormatTrending renders trending records as a ranked tree. details holds
// optional catalog data keyed by movie id.
func FormatTrending(records []Record, details map[int64]*tmdb.Movie) string {
	if len(records) == 0 {
		return "No trending data available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Trending Movies (%d):\n", len(records))

	for i, r := range records {
		last := i == len(records)-1
		branch, stem := "├──", "│  "
		if last {
			branch, stem = "╰──", "   "
		}

		title := r.Title
		if title == "" {
			title = r.SearchTerm
		}
		fmt.Fprintf(&b, "%s #%d %s\n", branch, i+1, title)
		fmt.Fprintf(&b, "%s  Searched %s for %q\n", stem, times(r.Count), r.SearchTerm)

		if m, ok := details[r.MovieID]; ok && m != nil {
			if m.Tagline != "" {
				fmt.Fprintf(&b, "%s  %s\n", stem, m.Tagline)
			}
			line := fmt.Sprintf("★ %.0f/10", m.VoteAverage)
			if m.Runtime > 0 {
				line += fmt.Sprintf(" • %dm", m.Runtime)
			}
			if genres := m.GenreNames(); len(genres) > 0 {
				line += " • " + strings.Join(genres, " - ")
			}
			fmt.Fprintf(&b, "%s  %s\n", stem, line)
		}

		if r.PosterURL != "" && r.PosterURL != tmdb.PlaceholderPosterURL {
			fmt.Fprintf(&b, "%s  Poster: %s\n", stem, r.PosterURL)
		}
	}

	return b.String()
}

func times(n int64) string {
	if n == 1 {
		return "1 time"
	}
	return fmt.Sprintf("%d times", n)
}
