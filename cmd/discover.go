package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelscout/filter"
	"github.com/s0up4200/reelscout/tmdb"
)

var (
	recordSearch bool
	showDetails  bool
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List popular movies",
	Long:  `List the movies currently popular on TMDB, optionally narrowed by a filter expression or preset.`,
	Args:  cobra.NoArgs,
	RunE:  runDiscover,
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search the movie catalog",
	Long: `Search TMDB for movies matching the query. With --record the top result is
counted towards the trending list, the same way a live search would.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	for _, c := range []*cobra.Command{discoverCmd, searchCmd} {
		c.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
		c.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
		c.Flags().BoolVar(&showDetails, "details", false, "show overview and vote counts")
	}
	searchCmd.Flags().BoolVar(&recordSearch, "record", false, "record the top result in the trending list")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	f, err := resolveFilter()
	if err != nil {
		return err
	}

	movies, err := catalog.Popular(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load popular movies: %w", err)
	}

	printMovies(cmd, "Popular Movies", filter.Apply(f, movies))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	f, err := resolveFilter()
	if err != nil {
		return err
	}

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("search query must not be empty")
	}

	ctx := cmd.Context()
	logger.Info().Str("query", query).Msg("Searching movies")

	movies, err := catalog.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	// The top result is recorded before filtering so trending reflects what the search found
	if recordSearch {
		if err := aggregator.RecordTopResult(ctx, query, movies); err != nil {
			logger.Warn().Err(err).Msg("Could not update trending")
		}
	}

	printMovies(cmd, fmt.Sprintf("Search results for %q", query), filter.Apply(f, movies))
	return nil
}

func printMovies(cmd *cobra.Command, heading string, movies []tmdb.Movie) {
	fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatMovieList(movies, tmdb.FormatOptions{
		Heading:     heading,
		ShowPosters: true,
		ShowDetails: showDetails,
	}))
}
