package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelscout/search"
	"github.com/s0up4200/reelscout/tmdb"
)

// liveCmd represents the live command
var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Search as you type",
	Long: `Read queries from standard input, one per line, and search after the input
has been quiet for the configured debounce period. Each line replaces the
previous query; an empty line clears the results. Searches that find a movie
are counted towards the trending list.`,
	Args: cobra.NoArgs,
	RunE: runLive,
}

func runLive(cmd *cobra.Command, args []string) error {
	return liveSearch(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(),
		search.New(catalog,
			search.WithDebounce(cfg.Search.Debounce),
			search.WithLogger(logger),
			search.WithRecorder(aggregator),
		))
}

// liveSearch feeds every input line to controller as a query change and
// prints each state transition. At end of input it waits for the last
// search to settle.
func liveSearch(ctx context.Context, in io.Reader, out io.Writer, controller *search.Controller) error {
	defer controller.Close()

	var mu sync.Mutex
	settled := make(chan struct{}, 1)

	controller.Subscribe(func(s search.Snapshot) {
		mu.Lock()
		printSnapshot(out, s)
		mu.Unlock()

		if !inFlight(s.Phase) {
			select {
			case settled <- struct{}{}:
			default:
			}
		}
	})

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return waitSettled(ctx, controller, settled)
			}
			controller.SetQuery(line)
		}
	}
}

func waitSettled(ctx context.Context, controller *search.Controller, settled <-chan struct{}) error {
	for inFlight(controller.Snapshot().Phase) {
		select {
		case <-settled:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func inFlight(p search.Phase) bool {
	return p == search.Pending || p == search.Loading
}

func printSnapshot(w io.Writer, s search.Snapshot) {
	switch s.Phase {
	case search.Idle:
		fmt.Fprintln(w, "[idle]")
	case search.Pending:
		fmt.Fprintf(w, "[pending] %q\n", s.Query)
	case search.Loading:
		fmt.Fprintf(w, "[loading] %q\n", s.Query)
	case search.Loaded:
		fmt.Fprintln(w, formatter.FormatMovieList(s.Movies, tmdb.FormatOptions{
			Heading: fmt.Sprintf("Search results for %q", s.Query),
		}))
	case search.Failed:
		fmt.Fprintf(w, "[failed] %q: %s\n", s.Query, s.Err.Message)
	}
}
