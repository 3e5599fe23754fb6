package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/reelscout/config"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connections to the catalog and the trending store",
	Long:  `Test the connection to TMDB, the configured trending store and, when enabled, Radarr.`,
	Args:  cobra.NoArgs,
	RunE:  runTest,
}

type connectionTester interface {
	TestConnection(ctx context.Context) error
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Testing connection to TMDB at %s...\n", cfg.TMDB.BaseURL)
	if err := catalog.TestConnection(ctx); err != nil {
		return fmt.Errorf("TMDB connection failed: %w", err)
	}
	fmt.Fprintln(out, "✓ Connection successful!")

	fmt.Fprintf(out, "\nTesting %s trending store...\n", cfg.Store.Backend)
	if tester, ok := store.(connectionTester); ok {
		if err := tester.TestConnection(ctx); err != nil {
			return fmt.Errorf("store connection failed: %w", err)
		}
	}
	records, err := aggregator.ListTrending(ctx, 1)
	if err != nil {
		return fmt.Errorf("store query failed: %w", err)
	}
	fmt.Fprintln(out, "✓ Store reachable!")
	if len(records) > 0 {
		fmt.Fprintf(out, "- Top search: %q (%d times)\n", records[0].SearchTerm, records[0].Count)
	}
	if cfg.Store.Backend == config.BackendMemory {
		fmt.Fprintln(out, "- Note: the memory store does not persist between runs")
	}

	if radarrClient != nil {
		fmt.Fprintf(out, "\nTesting connection to Radarr at %s...\n", cfg.Radarr.URL)
		if err := radarrClient.TestConnection(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ Radarr connection successful!")
	} else {
		fmt.Fprintln(out, "\nRadarr integration: Disabled")
	}

	if names := filters.ListFilters(); len(names) > 0 {
		fmt.Fprintf(out, "\nFilter presets:\n")
		for _, name := range names {
			f, _ := filters.GetFilter(name)
			fmt.Fprintf(out, "  • %s: %s\n", name, f.Expression())
		}
	}

	return nil
}
