package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/reelscout/appwrite"
	"github.com/s0up4200/reelscout/config"
	"github.com/s0up4200/reelscout/docstore"
	"github.com/s0up4200/reelscout/filter"
	"github.com/s0up4200/reelscout/radarr"
	"github.com/s0up4200/reelscout/tmdb"
	"github.com/s0up4200/reelscout/trending"
)

// trendingCollection names the table or collection the local backends use
const trendingCollection = "metrics"

var (
	cfgFile      string
	cfg          *config.Config
	logger       zerolog.Logger
	catalog      *tmdb.Client
	formatter    *tmdb.ConsoleFormatter
	store        docstore.Store
	closeStore   func() error
	aggregator   *trending.Aggregator
	filters      *filter.Manager
	radarrClient *radarr.Client

	// Command flags
	filterExpr   string
	preset       string
	storeBackend string

	version   = "dev"
	buildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reelscout",
	Short: "Browse popular movies, search the catalog and see what is trending",
	Long: `reelscout is a CLI for browsing the TMDB movie catalog. It shows popular
movies, searches as you type, keeps a count of which searches lead to which
movie and lists the most searched ones as trending.`,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
	SilenceUsage:       true,
}

// SetVersion sets the build version reported by the version and update commands
func SetVersion(v, built string) {
	version = v
	buildTime = built
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "override the trending store backend (appwrite, sqlite, postgres, memory)")

	// Add subcommands
	rootCmd.AddCommand(homeCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(movieCmd)
	rootCmd.AddCommand(trendingCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Override store backend from command line if specified
	if cmd.Flags().Changed("store") {
		cfg.Store.Backend = storeBackend
	}

	catalog, err = tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.Token, logger,
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL),
	)
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}
	formatter = tmdb.NewConsoleFormatter(cfg.TMDB.ImageBaseURL)

	store, closeStore, err = openStore(cmd.Context(), cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}
	aggregator = trending.New(store, logger, trending.WithPosterBase(cfg.TMDB.ImageBaseURL))

	filters = filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filter.Presets); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	// Create Radarr client if enabled
	if cfg.Radarr.Enabled {
		radarrClient, err = radarr.NewClient(cfg.Radarr.URL, cfg.Radarr.APIKey, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to create Radarr client, continuing without library status")
			radarrClient = nil
		}
	}

	logger.Debug().
		Str("store", cfg.Store.Backend).
		Bool("radarr", radarrClient != nil).
		Int("presets", len(cfg.Filter.Presets)).
		Msg("Initialized")

	return nil
}

func shutdownApp(cmd *cobra.Command, args []string) error {
	if closeStore == nil {
		return nil
	}
	err := closeStore()
	closeStore = nil
	if err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}

// openStore builds the configured trending document store and its closer
func openStore(ctx context.Context, sc config.StoreConfig, logger zerolog.Logger) (docstore.Store, func() error, error) {
	noop := func() error { return nil }

	switch sc.Backend {
	case config.BackendAppwrite:
		client, err := appwrite.NewClient(sc.Appwrite.Endpoint, sc.Appwrite.ProjectID,
			sc.Appwrite.DatabaseID, sc.Appwrite.CollectionID, logger,
			appwrite.WithAPIKey(sc.Appwrite.APIKey),
		)
		if err != nil {
			return nil, nil, err
		}
		return client, noop, nil
	case config.BackendSQLite:
		s, err := docstore.OpenSQLite(ctx, sc.SQLite.Path, trendingCollection)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendPostgres:
		s, err := docstore.OpenPostgres(ctx, sc.Postgres.DSN, trendingCollection)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendMemory:
		return docstore.NewMemoryStore(), noop, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", docstore.ErrInvalidConfig, sc.Backend)
	}
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(os.Stderr),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// resolveFilter picks the --filter expression or the --preset from config
func resolveFilter() (filter.Filter, error) {
	f, err := filters.Resolve(filterExpr, preset)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	logger.Debug().Str("filter", f.Expression()).Msg("Applying filter")
	return f, nil
}

// skipInit replaces the root pre-run for commands that need no configuration
func skipInit(cmd *cobra.Command, args []string) error {
	logger = setupLogger(config.LoggingConfig{Level: "info", Format: "console", Color: true})
	return nil
}
