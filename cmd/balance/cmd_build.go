package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/balance-strategy/internal/eval"
	"github.com/danielpatrickdp/balance-strategy/internal/logging"
	"github.com/danielpatrickdp/balance-strategy/internal/store"
	"github.com/danielpatrickdp/balance-strategy/internal/strategy"
)

var (
	buildPopulation int
	buildWorkers    int
	buildExport     string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build, audit and save a strategy table",
	Long: `Builds the strategy table for the configured population, audits it and
saves it as the new active version. With --export the table is also written
as a JSON document.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().IntVarP(&buildPopulation, "population", "n", 0, "number of coins (overrides config)")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", -1, "concurrent evaluations, 0 for GOMAXPROCS (overrides config)")
	buildCmd.Flags().StringVar(&buildExport, "export", "", "also write the table to this JSON file")
}

func runBuild(cmd *cobra.Command, args []string) error {
	population := cfg.Build.Population
	if buildPopulation > 0 {
		population = buildPopulation
	}
	workers := cfg.Build.Workers
	if buildWorkers >= 0 {
		workers = buildWorkers
	}
	exportPath := cfg.Store.ExportPath
	if buildExport != "" {
		exportPath = buildExport
	}

	b, err := strategy.NewBuilder(population, strategy.WithWorkers(workers), strategy.WithLogger(logger))
	if err != nil {
		return err
	}

	start := time.Now()
	table, err := b.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	predicted, _ := table.WorstCase(table.StartSignature())
	details := logging.RunDetails{
		Signatures: table.Len(),
		Layouts:    table.LayoutCount(),
		Predicted:  predicted,
	}

	audit := eval.NewEvalHarness(eval.EvalConfig{MaxSteps: cfg.Build.MaxSteps}).Run(table)
	if !audit.Passed {
		entry := logging.RunEntry{
			Kind:        logging.KindBuild,
			Population:  population,
			Decision:    "rejected",
			Reason:      audit.Reason,
			DetailsJSON: logging.EncodeDetails(details),
			Duration:    time.Since(start),
		}
		if err := logging.LogRun(s.DB(), entry); err != nil {
			logger.Warn("run log write failed", zap.Error(err))
		}
		return fmt.Errorf("table rejected: %s", audit.Reason)
	}

	rec, err := s.SaveTable(table)
	if err != nil {
		return fmt.Errorf("save table: %w", err)
	}
	entry := logging.RunEntry{
		TableID:     rec.TableID,
		Kind:        logging.KindBuild,
		Population:  population,
		Decision:    "saved",
		Reason:      audit.Reason,
		DetailsJSON: logging.EncodeDetails(details),
		Duration:    time.Since(start),
	}
	if err := logging.LogRun(s.DB(), entry); err != nil {
		logger.Warn("run log write failed", zap.Error(err))
	}

	if exportPath != "" {
		if err := store.ExportJSON(exportPath, table); err != nil {
			return err
		}
		logger.Info("table exported", zap.String("path", exportPath))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "table %s saved\n", rec.TableID)
	fmt.Fprintf(out, "  population %d | signatures %d | layouts %d\n", population, rec.Signatures, rec.Layouts)
	if predicted < strategy.NoInformation {
		fmt.Fprintf(out, "  worst case from %s: %d weighings\n", table.StartSignature(), predicted)
	} else {
		fmt.Fprintf(out, "  %s cannot be resolved\n", table.StartSignature())
	}
	return nil
}
