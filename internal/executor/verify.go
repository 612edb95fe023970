package executor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
)

// #region report
// Outcome is one verified defect assignment.
type Outcome struct {
	Index  int // position of the defective coin in the population
	Weight coin.Weight
	Steps  int
	// Belief is what the run learned about the identified coin's direction.
	Belief coin.BeliefState
}

// Report summarizes a verification pass.
type Report struct {
	Population int
	Predicted  int
	MaxSteps   int
	Outcomes   []Outcome
}

// DirectionKnown counts outcomes that also pinned the defect's direction.
func (r Report) DirectionKnown() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Belief.IsDirectional() {
			n++
		}
	}
	return n
}

// #endregion report

// #region verify
// Verify runs the strategy once for every coin being light and once for every
// coin being heavy. Each run must identify the defective coin within the
// table's predicted worst case.
func (e *Executor) Verify() (Report, error) {
	report := Report{Population: e.table.Population}
	predicted, err := e.table.WorstCase(e.table.StartSignature())
	if err != nil {
		return report, err
	}
	report.Predicted = predicted

	for i := 0; i < e.table.Population; i++ {
		for _, w := range []coin.Weight{coin.Light, coin.Heavy} {
			coins := coin.NewArena().Population(e.table.Population)
			coins[i].SetWeight(w)

			run, err := e.Run(coins)
			if err != nil {
				return report, fmt.Errorf("coin %d %s: %w", i+1, w, err)
			}
			if run.Identified == nil || run.Identified.ID() != coins[i].ID() {
				return report, fmt.Errorf("%w: coin %d %s", ErrMisidentified, i+1, w)
			}

			report.Outcomes = append(report.Outcomes, Outcome{
				Index:  i,
				Weight: w,
				Steps:  run.Steps,
				Belief: run.Identified.State(),
			})
			report.MaxSteps = max(report.MaxSteps, run.Steps)
		}
	}

	e.logger.Info("strategy verified",
		zap.Int("population", report.Population),
		zap.Int("predicted", report.Predicted),
		zap.Int("max_steps", report.MaxSteps),
		zap.Int("runs", len(report.Outcomes)),
	)
	return report, nil
}

// #endregion verify
