package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelscout/docstore"
	"github.com/s0up4200/reelscout/tmdb"
	"github.com/s0up4200/reelscout/trending"
)

var (
	trendingLimit   int
	trendingDetails bool
)

// trendingCmd represents the trending command
var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List the most searched movies",
	Long: `List the search terms that most often led to a movie, highest count first.
With --details each movie is enriched with its tagline, rating and genres.`,
	Args: cobra.NoArgs,
	RunE: runTrending,
}

func init() {
	trendingCmd.Flags().IntVarP(&trendingLimit, "limit", "n", 0, "number of entries (default from config)")
	trendingCmd.Flags().BoolVar(&trendingDetails, "details", false, "load movie details for each entry")
}

func runTrending(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	limit := cfg.Trending.Limit
	if trendingLimit > 0 {
		limit = trendingLimit
	}

	records, err := aggregator.ListTrending(ctx, limit)
	if err != nil {
		if docstore.IsRecoverable(err) {
			logger.Warn().Err(err).Msg("Trending unavailable")
			fmt.Fprintln(cmd.OutOrStdout(), "Trending unavailable, try again later")
			return nil
		}
		return err
	}

	var details map[int64]*tmdb.Movie
	if trendingDetails && len(records) > 0 {
		details, err = loadDetails(cmd, records)
		if err != nil {
			logger.Warn().Err(err).Msg("Could not load movie details")
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), trending.FormatTrending(records, details))
	return nil
}

func loadDetails(cmd *cobra.Command, records []trending.Record) (map[int64]*tmdb.Movie, error) {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.MovieID > 0 {
			ids = append(ids, strconv.FormatInt(r.MovieID, 10))
		}
	}

	movies, err := catalog.GetDetailsBatch(cmd.Context(), ids)
	if err != nil {
		return nil, err
	}

	details := make(map[int64]*tmdb.Movie, len(movies))
	for i := range movies {
		details[movies[i].ID] = &movies[i]
	}
	return details, nil
}
