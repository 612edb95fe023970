package replay

import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
	"github.com/danielpatrickdp/balance-strategy/internal/executor"
	"github.com/danielpatrickdp/balance-strategy/internal/strategy"
)

// Result actions.
const (
	ActionMatch    = "match"
	ActionMismatch = "mismatch"
	ActionError    = "error"
)

// #region types
// Scenario is one scripted defect.
type Scenario struct {
	Name          string
	DefectIndex   int
	Weight        coin.Weight
	ExpectedSteps int
}

// ReplayResult captures the outcome of replaying one scenario.
type ReplayResult struct {
	Name     string
	Action   string // "match" | "mismatch" | "error"
	Reason   string
	Expected int
	Steps    int
	// IdentifiedID is the id of the coin the run ended on, 0 if none.
	IdentifiedID int
	Trace        []executor.Step
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total      int
	Matches    int
	Mismatches int
	Errors     int
	MaxSteps   int
}

// #endregion types

// #region replay
// Replay runs every scenario on a fresh population. A scenario matches when
// the defective coin is identified in exactly the expected number of steps.
func Replay(table *strategy.Table, scenarios []Scenario, logger *zap.Logger) []ReplayResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	exec := executor.New(table, logger)
	results := make([]ReplayResult, 0, len(scenarios))

	for _, sc := range scenarios {
		res := ReplayResult{Name: sc.Name, Expected: sc.ExpectedSteps}

		coins := coin.NewArena().Population(table.Population)
		if sc.DefectIndex < 0 || sc.DefectIndex >= len(coins) {
			res.Action = ActionError
			res.Reason = "defect index outside population"
			results = append(results, res)
			continue
		}
		defective := coins[sc.DefectIndex]
		defective.SetWeight(sc.Weight)

		run, err := exec.Run(coins)
		res.Steps = run.Steps
		res.Trace = run.Trace
		if run.Identified != nil {
			res.IdentifiedID = run.Identified.ID()
		}

		switch {
		case err != nil:
			res.Action = ActionError
			res.Reason = err.Error()
		case run.Identified == nil || run.Identified.ID() != defective.ID():
			res.Action = ActionMismatch
			res.Reason = "wrong coin identified"
		case run.Steps != sc.ExpectedSteps:
			res.Action = ActionMismatch
			res.Reason = "step count differs"
		default:
			res.Action = ActionMatch
		}

		if res.Action != ActionMatch {
			logger.Warn("replay scenario diverged",
				zap.String("scenario", sc.Name),
				zap.String("reason", res.Reason),
				zap.Int("expected", sc.ExpectedSteps),
				zap.Int("steps", res.Steps),
			)
		}
		results = append(results, res)
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{Total: len(results)}
	for _, r := range results {
		switch r.Action {
		case ActionMatch:
			s.Matches++
		case ActionMismatch:
			s.Mismatches++
		case ActionError:
			s.Errors++
		}
		s.MaxSteps = max(s.MaxSteps, r.Steps)
	}
	return s
}

// #endregion replay
