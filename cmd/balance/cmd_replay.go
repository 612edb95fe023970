package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/balance-strategy/internal/executor"
	"github.com/danielpatrickdp/balance-strategy/internal/logging"
	"github.com/danielpatrickdp/balance-strategy/internal/replay"
)

var replayFromFile string

var fixtureCmd = &cobra.Command{
	Use:   "fixture [out.json]",
	Short: "Export every verified defect of the active table as a replay fixture",
	Args:  cobra.ExactArgs(1),
	RunE:  runFixture,
}

var replayCmd = &cobra.Command{
	Use:   "replay [fixture.json]",
	Short: "Check scripted defect scenarios against the active table",
	Long: `Loads a JSON fixture of defect scenarios, plays each one with the active
table and compares the number of weighings with the expected count.
Exits non-zero on any mismatch.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayFromFile, "from-file", "", "read the table from a JSON export instead of the database")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := replay.LoadFixture(args[0])
	if err != nil {
		return err
	}
	scenarios, err := f.ToScenarios()
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	table, tableID, err := loadTable(s, replayFromFile)
	if err != nil {
		return err
	}
	if table.Population != f.Population {
		return fmt.Errorf("fixture is for %d coins, table for %d", f.Population, table.Population)
	}

	start := time.Now()
	results := replay.Replay(table, scenarios, logger)
	summary := replay.Summarize(results)

	out := cmd.OutOrStdout()
	var failures []string
	for _, r := range results {
		fmt.Fprintf(out, "%-24s %-8s expected %d, got %d\n", r.Name, r.Action, r.Expected, r.Steps)
		if r.Action != replay.ActionMatch {
			failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Reason))
		}
	}
	fmt.Fprintf(out, "%d scenarios: %d match, %d mismatch, %d error (max %d weighings)\n",
		summary.Total, summary.Matches, summary.Mismatches, summary.Errors, summary.MaxSteps)

	entry := logging.RunEntry{
		TableID:    tableID,
		Kind:       logging.KindReplay,
		Population: table.Population,
		Decision:   "passed",
		Reason:     f.Description,
		DetailsJSON: logging.EncodeDetails(logging.RunDetails{
			MaxSteps: summary.MaxSteps,
			Runs:     summary.Total,
			Failures: failures,
		}),
		Duration: time.Since(start),
	}
	if len(failures) > 0 {
		entry.Decision = "failed"
	}
	if err := logging.LogRun(s.DB(), entry); err != nil {
		logger.Warn("run log write failed", zap.Error(err))
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d scenarios diverged", len(failures), summary.Total)
	}
	return nil
}

func runFixture(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	table, tableID, err := loadTable(s, "")
	if err != nil {
		return err
	}
	report, err := executor.New(table, logger).Verify()
	if err != nil {
		return err
	}

	f := replay.FixtureFromReport(report, fmt.Sprintf("exported from table %s", tableID))
	if err := replay.WriteFixture(args[0], f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d scenarios written to %s\n", len(f.Scenarios), args[0])
	return nil
}
