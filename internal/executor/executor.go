package executor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
	"github.com/danielpatrickdp/balance-strategy/internal/layout"
	"github.com/danielpatrickdp/balance-strategy/internal/scale"
	"github.com/danielpatrickdp/balance-strategy/internal/strategy"
)

var (
	// ErrUnsolvable means the best tabulated weighing cannot make progress.
	ErrUnsolvable = errors.New("executor: no informative weighing available")
	// ErrPredictionExceeded means a run took more weighings than the table promised.
	ErrPredictionExceeded = errors.New("executor: run exceeded the predicted worst case")
	// ErrPopulationMismatch means the live population does not match the table.
	ErrPopulationMismatch = errors.New("executor: population does not match table")
	// ErrLayoutUnsatisfiable means the live coins cannot fill the chosen layout.
	ErrLayoutUnsatisfiable = errors.New("executor: not enough coins for layout")
	// ErrMisidentified means the run ended on a coin that is not the defective one.
	ErrMisidentified = errors.New("executor: wrong coin identified")
)

// #region types
// Step records one weighing of a run.
type Step struct {
	Signature layout.Signature
	Layout    layout.Layout
	Predicted int // worst case promised for Signature
	Result    int // +1 pan A heavier, -1 pan A lighter, 0 balanced
}

// Run is the outcome of executing the strategy on one population.
type Run struct {
	Steps int
	Trace []Step
	// Identified is the last coin left unresolved; nil if none remained.
	Identified *coin.Coin
}

// #endregion types

// #region executor
// Executor plays a finished strategy table against live coins.
type Executor struct {
	table  *strategy.Table
	logger *zap.Logger
}

// New creates an executor. A nil logger discards output.
func New(table *strategy.Table, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{table: table, logger: logger}
}

// Run weighs coins following the cheapest tabulated layout for the current
// signature until at most one coin is unresolved. The coins are mutated.
func (e *Executor) Run(coins []*coin.Coin) (Run, error) {
	var run Run
	if len(coins) != e.table.Population {
		return run, fmt.Errorf("%w: %d coins, table for %d", ErrPopulationMismatch, len(coins), e.table.Population)
	}

	limit := -1
	for {
		suspects := coin.Suspects(coins)
		if len(suspects) <= 1 {
			if len(suspects) == 1 {
				run.Identified = suspects[0]
			}
			return run, nil
		}

		sig := layout.SignatureOf(suspects)
		best, err := e.table.Best(sig)
		if err != nil {
			return run, err
		}
		if !best.Informative() {
			return run, fmt.Errorf("%w: %s", ErrUnsolvable, sig)
		}
		if limit < 0 {
			limit = best.WorstCase
		}
		if run.Steps >= limit {
			return run, fmt.Errorf("%w: %d weighings, predicted %d", ErrPredictionExceeded, run.Steps, limit)
		}

		a, b, err := pick(coins, best.Layout)
		if err != nil {
			return run, err
		}
		result, err := scale.ApplyOutcome(coins, a, b)
		if err != nil {
			return run, err
		}

		run.Steps++
		run.Trace = append(run.Trace, Step{Signature: sig, Layout: best.Layout, Predicted: best.WorstCase, Result: result})
		e.logger.Debug("weighed",
			zap.Int("step", run.Steps),
			zap.String("signature", string(sig)),
			zap.Stringer("layout", best.Layout),
			zap.Int("result", result),
		)
	}
}

// pick fills each slot of the layout with a distinct coin in the required
// state. Coins sharing a state are interchangeable.
func pick(coins []*coin.Coin, l layout.Layout) (a, b []*coin.Coin, err error) {
	used := make(map[int]bool, l.Size())
	take := func(states []coin.BeliefState) ([]*coin.Coin, error) {
		out := make([]*coin.Coin, 0, len(states))
		for _, s := range states {
			var found *coin.Coin
			for _, c := range coins {
				if !used[c.ID()] && c.State() == s {
					found = c
					break
				}
			}
			if found == nil {
				return nil, fmt.Errorf("%w: %s needs another %s coin", ErrLayoutUnsatisfiable, l, s)
			}
			used[found.ID()] = true
			out = append(out, found)
		}
		return out, nil
	}

	if a, err = take(l.A); err != nil {
		return nil, nil, err
	}
	if b, err = take(l.B); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// #endregion executor
