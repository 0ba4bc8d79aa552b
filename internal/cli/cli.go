package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgorriz/ajp-results/internal/config"
	"github.com/mgorriz/ajp-results/internal/logger"
	"github.com/mgorriz/ajp-results/internal/orchestrator"
	"github.com/mgorriz/ajp-results/internal/scraper"
	"github.com/mgorriz/ajp-results/internal/snapshot"
	"github.com/mgorriz/ajp-results/internal/store"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig    string
	flagWorkers   int
	flagMaxEvents int
	flagDB        string
	flagDataDir   string
	flagVerbose   bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ajp-results",
		Short: "Harvest jiu-jitsu match results into a local database",
		Long: `Harvests match results for a range of event ids from the public
event pages, persisting each event as it completes. Runs are idempotent:
events already harvested are skipped, so an interrupted run picks up
where it left off.`,
		RunE: runHarvest,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "config.json", "Path to the JSON config file")
	cmd.PersistentFlags().StringVar(&flagDB, "db", "", "Database file (overrides config)")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "Concurrent workers (overrides config)")
	cmd.Flags().IntVar(&flagMaxEvents, "max-events", 0, "Upper bound of the event id range (overrides config)")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Directory for snapshot files (overrides config)")

	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newResetCmd())

	return cmd
}

// loadConfig reads the config file and applies flag overrides. The
// returned error only reports a config file problem; usable defaults
// are always returned.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)

	if flagDB != "" {
		cfg.Database.File = flagDB
	}
	if cmd.Flags().Changed("workers") {
		cfg.Scraper.MaxWorkers = flagWorkers
	}
	if cmd.Flags().Changed("max-events") {
		cfg.Scraper.MaxEvents = flagMaxEvents
	}
	if flagDataDir != "" {
		cfg.Scraper.DataDir = flagDataDir
	}
	return cfg, err
}

// runHarvest is the main command logic
func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, cfgErr := loadConfig(cmd)

	level := logger.LevelInfo
	if flagVerbose {
		level = logger.LevelDebug
	}
	lg, err := logger.NewWithFile(level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer lg.Close()
	logger.SetDefault(lg)

	if cfgErr != nil {
		logger.Warn("Config file not loaded, running on defaults", logger.Fields{
			"path":  flagConfig,
			"error": cfgErr.Error(),
		})
	}

	logger.Info("Configuration", logger.Fields{
		"database":   cfg.Database.File,
		"workers":    cfg.Scraper.MaxWorkers,
		"max_events": cfg.Scraper.MaxEvents,
		"timeout":    cfg.Scraper.TimeoutSeconds,
		"data_dir":   cfg.Scraper.DataDir,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Database.File)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	snapshots, err := snapshot.New(cfg.Scraper.DataDir)
	if err != nil {
		return fmt.Errorf("initializing snapshot directory: %w", err)
	}

	sc := scraper.New(cfg.Scraper.BaseURL, cfg.Scraper.Timeout())
	o := orchestrator.New(sc, st, snapshots, cfg.Scraper.MaxWorkers, cfg.Scraper.MaxEvents)

	if err := o.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Harvest interrupted by user", nil)
			return nil
		}
		return fmt.Errorf("running harvest: %w", err)
	}

	fmt.Println("Harvest completed successfully.")
	return nil
}

// openStore opens the database named by config and flags, for the
// administrative subcommands.
func openStore(cmd *cobra.Command) (*store.Store, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}

	st, err := store.Open(cfg.Database.File)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return st, cfg, nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
