package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelscout/asyncstate"
	"github.com/s0up4200/reelscout/docstore"
	"github.com/s0up4200/reelscout/tmdb"
	"github.com/s0up4200/reelscout/trending"
)

// homeCmd represents the home command
var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show trending searches and popular movies",
	Long:  `Load the trending list and the popular movies side by side and show both.`,
	Args:  cobra.NoArgs,
	RunE:  runHome,
}

func runHome(cmd *cobra.Command, args []string) error {
	popular := asyncstate.New(catalog.Popular, asyncstate.WithLogger(logger))
	defer popular.Close()

	trend := asyncstate.New(func(ctx context.Context) ([]trending.Record, error) {
		return aggregator.ListTrending(ctx, cfg.Trending.Limit)
	}, asyncstate.WithLogger(logger))
	defer trend.Close()

	// Run never fails; errors end up in each state
	ctx := cmd.Context()
	var wg sync.WaitGroup
	wg.Go(func() { popular.Run(ctx) })
	wg.Go(func() { trend.Run(ctx) })
	wg.Wait()

	return renderHome(cmd.OutOrStdout(), trend.State(), popular.State())
}

// renderHome prints both sections. A trending failure the store reports as
// recoverable degrades to a notice; any other one is returned after the
// popular list has been printed.
func renderHome(w io.Writer, trend asyncstate.State[[]trending.Record], popular asyncstate.State[[]tmdb.Movie]) error {
	var trendErr error
	switch {
	case trend.Err != nil && docstore.IsRecoverable(trend.Err):
		logger.Warn().Str("error", trend.Err.Message).Msg("Trending unavailable")
		fmt.Fprintf(w, "Trending unavailable: %s\n", trend.Err.Message)
	case trend.Err != nil:
		trendErr = fmt.Errorf("failed to load trending: %w", trend.Err)
	case trend.HasData:
		fmt.Fprintln(w, trending.FormatTrending(trend.Data, nil))
	}
	fmt.Fprintln(w)

	switch {
	case popular.Err != nil:
		fmt.Fprintf(w, "Error: %s\n", popular.Err.Message)
	case popular.HasData:
		fmt.Fprintln(w, formatter.FormatMovieList(popular.Data, tmdb.FormatOptions{
			Heading:     "Latest Movies",
			ShowPosters: true,
		}))
	}

	return trendErr
}
