package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
	"github.com/danielpatrickdp/balance-strategy/internal/executor"
	"github.com/danielpatrickdp/balance-strategy/internal/logging"
	"github.com/danielpatrickdp/balance-strategy/internal/store"
	"github.com/danielpatrickdp/balance-strategy/internal/strategy"
)

var (
	solveFromFile string
	solveCoin     int
	solveWeight   string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Play the active table against simulated defects",
	Long: `Without --coin, runs the strategy once for every coin being light and once
for every coin being heavy and reports the maximum number of weighings.
With --coin N --weight LIGHT|HEAVY, runs a single defect and prints each
weighing.`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&solveFromFile, "from-file", "", "read the table from a JSON export instead of the database")
	solveCmd.Flags().IntVar(&solveCoin, "coin", 0, "1-based index of the defective coin")
	solveCmd.Flags().StringVar(&solveWeight, "weight", "HEAVY", "defect weight: LIGHT or HEAVY")
}

// loadTable reads the table solve and replay run against.
func loadTable(s *store.Store, fromFile string) (*strategy.Table, string, error) {
	if fromFile != "" {
		t, err := store.ImportJSON(fromFile)
		if err != nil {
			return nil, "", regenerate(err)
		}
		return t, "", nil
	}
	t, rec, err := s.LoadActive()
	if err != nil {
		return nil, "", regenerate(err)
	}
	return t, rec.TableID, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	table, tableID, err := loadTable(s, solveFromFile)
	if err != nil {
		return err
	}
	exec := executor.New(table, logger)
	out := cmd.OutOrStdout()

	if solveCoin > 0 {
		return solveOne(cmd, exec, table)
	}

	start := time.Now()
	report, err := exec.Verify()
	entry := logging.RunEntry{
		TableID:    tableID,
		Kind:       logging.KindVerify,
		Population: table.Population,
		Duration:   time.Since(start),
	}
	if err != nil {
		entry.Decision = "failed"
		entry.Reason = err.Error()
	} else {
		entry.Decision = "passed"
		entry.DetailsJSON = logging.EncodeDetails(logging.RunDetails{
			Predicted: report.Predicted,
			MaxSteps:  report.MaxSteps,
			Runs:      len(report.Outcomes),
		})
	}
	if logErr := logging.LogRun(s.DB(), entry); logErr != nil {
		logger.Warn("run log write failed", zap.Error(logErr))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "population %d: predicted %d, observed max %d over %d runs\n",
		report.Population, report.Predicted, report.MaxSteps, len(report.Outcomes))
	fmt.Fprintf(out, "direction also known in %d of %d runs\n", report.DirectionKnown(), len(report.Outcomes))
	return nil
}

func solveOne(cmd *cobra.Command, exec *executor.Executor, table *strategy.Table) error {
	w, err := coin.ParseWeight(strings.ToUpper(solveWeight))
	if err != nil {
		return err
	}
	if w == coin.Normal {
		return fmt.Errorf("--weight must be LIGHT or HEAVY")
	}
	if solveCoin > table.Population {
		return fmt.Errorf("--coin %d outside population %d", solveCoin, table.Population)
	}

	coins := coin.NewArena().Population(table.Population)
	coins[solveCoin-1].SetWeight(w)

	run, err := exec.Run(coins)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, st := range run.Trace {
		fmt.Fprintf(out, "%d. %-28s %-40s %s\n", i+1, st.Signature, st.Layout, resultName(st.Result))
	}
	if run.Identified == nil {
		return fmt.Errorf("%w: no coin left", executor.ErrMisidentified)
	}
	fmt.Fprintf(out, "coin %d identified in %d weighings (%s)\n", run.Identified.ID(), run.Steps, run.Identified.State())
	return nil
}

func resultName(r int) string {
	switch {
	case r > 0:
		return "A heavier"
	case r < 0:
		return "A lighter"
	}
	return "balanced"
}
