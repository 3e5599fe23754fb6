package tmdb

import (
	"fmt"
	"math"
	"strings"
)

// ConsoleFormatter provides console output formatting for movies
type ConsoleFormatter struct {
	imageBaseURL string
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(imageBaseURL string) *ConsoleFormatter {
	return &ConsoleFormatter{imageBaseURL: imageBaseURL}
}

// FormatOptions contains options for formatting output
type FormatOptions struct {
	Heading     string
	ShowPosters bool
	ShowDetails bool
}

// FormatMovieList formats a list of movies for console display
func (f *ConsoleFormatter) FormatMovieList(movies []Movie, options FormatOptions) string {
	if len(movies) == 0 {
		return "No movies found"
	}

	heading := options.Heading
	if heading == "" {
		heading = "Movie"
		if len(movies) != 1 {
			heading += "s"
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s (%d):\n\n", heading, len(movies))

	for i, movie := range movies {
		isLast := i == len(movies)-1
		prefix := "├"
		if isLast {
			prefix = "╰"
		}

		fmt.Fprintf(&sb, "%s── %s\n", prefix, titleWithYear(movie))

		indent := "│   "
		if isLast {
			indent = "    "
		}

		fmt.Fprintf(&sb, "%sID: %d | %s\n", indent, movie.ID, formatRating(movie))

		if options.ShowDetails && movie.Overview != "" {
			fmt.Fprintf(&sb, "%s%s\n", indent, truncate(movie.Overview, 100))
		}
		if options.ShowPosters {
			fmt.Fprintf(&sb, "%sPoster: %s\n", indent, PosterURL(f.imageBaseURL, movie.PosterPath))
		}

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatMovieDetails formats a single movie's detail page
func (f *ConsoleFormatter) FormatMovieDetails(movie *Movie) string {
	if movie == nil {
		return "Movie not found"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s\n", movie.Title)
	sb.WriteString(strings.Repeat("─", max(len([]rune(movie.Title)), 20)))
	sb.WriteString("\n")

	if movie.Tagline != "" {
		fmt.Fprintf(&sb, "%q\n", movie.Tagline)
	}

	var meta []string
	if year := movie.Year(); year > 0 {
		meta = append(meta, fmt.Sprintf("%d", year))
	}
	if movie.Runtime > 0 {
		meta = append(meta, fmt.Sprintf("%dm", movie.Runtime))
	}
	if movie.Status != "" {
		meta = append(meta, movie.Status)
	}
	if len(meta) > 0 {
		fmt.Fprintf(&sb, "%s\n", strings.Join(meta, " • "))
	}

	fmt.Fprintf(&sb, "%s\n", formatRating(*movie))

	if movie.Overview != "" {
		fmt.Fprintf(&sb, "\nOverview:\n%s\n", movie.Overview)
	}

	sb.WriteString("\n")
	if movie.ReleaseDate != "" {
		fmt.Fprintf(&sb, "Release date: %s\n", movie.ReleaseDate)
	}
	if names := movie.GenreNames(); len(names) > 0 {
		fmt.Fprintf(&sb, "Genres: %s\n", strings.Join(names, " - "))
	}
	fmt.Fprintf(&sb, "Budget: %s\n", formatMillions(movie.Budget))
	fmt.Fprintf(&sb, "Revenue: %s\n", formatMillions(movie.Revenue))
	if names := movie.CompanyNames(); len(names) > 0 {
		fmt.Fprintf(&sb, "Production companies: %s\n", strings.Join(names, " - "))
	}
	fmt.Fprintf(&sb, "Poster: %s\n", PosterURL(f.imageBaseURL, movie.PosterPath))

	return sb.String()
}

func titleWithYear(movie Movie) string {
	if year := movie.Year(); year > 0 {
		return fmt.Sprintf("%s (%d)", movie.Title, year)
	}
	return movie.Title
}

// formatRating renders the rounded score out of ten with the vote count
func formatRating(movie Movie) string {
	return fmt.Sprintf("★ %d/10 (%d votes)", int(math.Round(movie.VoteAverage)), movie.VoteCount)
}

// formatMillions renders a dollar amount in whole millions
func formatMillions(amount int64) string {
	if amount <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("$%d million", int64(math.Round(float64(amount)/1_000_000)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
