package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/balance-strategy/internal/config"
	"github.com/danielpatrickdp/balance-strategy/internal/store"
)

var (
	configPath string
	dbPath     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// #region root
var rootCmd = &cobra.Command{
	Use:   "balance",
	Short: "Synthesize and run counterfeit-coin weighing strategies",
	Long: `balance tabulates, for every reachable belief signature, the comparison
layouts of a two-pan balance and the worst-case number of weighings each one
needs to isolate a single light or heavy coin.

Tables are versioned in SQLite. The newest build is active; solve, inspect,
replay and export read the active table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.DBPath = dbPath
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		level, _ := cfg.LogLevel()
		if verbose {
			level = zapcore.DebugLevel
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(level)
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "balance.yaml", "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to table database (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(buildCmd, solveCmd, inspectCmd, activateCmd, replayCmd, fixtureCmd, exportCmd, importCmd)
}

// #endregion root

// #region main
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region helpers
func openStore() (*store.Store, error) {
	s, err := store.NewStore(cfg.Store.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Store.DBPath, err)
	}
	return s, nil
}

// regenerate turns a missing table into an actionable error. Nothing retries.
func regenerate(err error) error {
	if errors.Is(err, store.ErrMissingTable) {
		return fmt.Errorf("%w; run `balance build` and try again", err)
	}
	return err
}

// #endregion helpers
