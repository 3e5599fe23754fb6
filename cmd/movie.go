package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelscout/radarr"
)

// movieCmd represents the movie command
var movieCmd = &cobra.Command{
	Use:   "movie <id>",
	Short: "Show movie details",
	Long: `Show the full details of a movie by its TMDB id. When Radarr is enabled the
movie's library status is shown as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runMovie,
}

func runMovie(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	movie, err := catalog.GetDetails(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load movie %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, formatter.FormatMovieDetails(movie))

	if radarrClient == nil {
		return nil
	}

	status, err := radarrClient.LibraryStatus(ctx, movie.ID)
	if err != nil {
		logger.Warn().Err(err).Int64("tmdb_id", movie.ID).Msg("Could not check Radarr library")
		return nil
	}
	fmt.Fprint(out, radarr.FormatLibraryStatus(status))

	return nil
}
