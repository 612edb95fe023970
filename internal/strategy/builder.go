package strategy

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
	"github.com/danielpatrickdp/balance-strategy/internal/layout"
	"github.com/danielpatrickdp/balance-strategy/internal/scale"
)

// #region builder
// Builder computes the strategy table for a fixed population.
type Builder struct {
	population int
	workers    int
	logger     *zap.Logger
}

// NewBuilder validates the population and applies options.
func NewBuilder(population int, opts ...Option) (*Builder, error) {
	if population < 2 || population > MaxPopulation {
		return nil, fmt.Errorf("%w: %d not in [2, %d]", ErrPopulationOutOfRange, population, MaxPopulation)
	}
	b := &Builder{
		population: population,
		workers:    runtime.GOMAXPROCS(0),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Population is the number of coins the table is built for.
func (b *Builder) Population() int { return b.population }

// #endregion builder

// #region plan
type phase int

const (
	phaseDirectional phase = iota
	phaseUnresolved
)

func (p phase) String() string {
	if p == phaseUnresolved {
		return "unresolved"
	}
	return "directional"
}

// generation is a set of signatures that only depend on earlier generations.
type generation struct {
	unresolved int
	phase      phase
	signatures []layout.Counts
	// derived rows are relabeled copies of their light/heavy opposite.
	derived []layout.Counts
}

// plan orders the work. A directional signature only ever leads to fewer
// suspects. UNRESOLVED-n leads to fewer unresolved coins, or to directional
// signatures with at most n suspects, so directional-n comes first.
func (b *Builder) plan() []generation {
	var gens []generation
	for n := 2; n <= b.population; n++ {
		dir := generation{unresolved: n, phase: phaseDirectional}
		for light := n; light >= 0; light-- {
			var c layout.Counts
			c[coin.SuspectLight] = light
			c[coin.SuspectHeavy] = n - light
			if light == 0 {
				dir.derived = append(dir.derived, c)
				continue
			}
			dir.signatures = append(dir.signatures, c)
		}

		var u layout.Counts
		u[coin.Unresolved] = n
		gens = append(gens, dir, generation{unresolved: n, phase: phaseUnresolved, signatures: []layout.Counts{u}})
	}
	return gens
}

// #endregion plan

// #region build
// Build tabulates every signature reachable from a fully unresolved
// population. Signatures within a generation are evaluated concurrently
// against the read-only rows of earlier generations.
func (b *Builder) Build(ctx context.Context) (*Table, error) {
	start := time.Now()
	table := NewTable(b.population)

	for _, g := range b.plan() {
		if err := b.runGeneration(ctx, table, g); err != nil {
			return nil, fmt.Errorf("generation %d/%s: %w", g.unresolved, g.phase, err)
		}
	}

	b.logger.Info("strategy table built",
		zap.Int("population", b.population),
		zap.Int("signatures", table.Len()),
		zap.Int("layouts", table.LayoutCount()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return table, nil
}

func (b *Builder) runGeneration(ctx context.Context, table *Table, g generation) error {
	results := make([][]Entry, len(g.signatures))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.workers)
	for i, c := range g.signatures {
		i, c := i, c
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries, err := b.Evaluate(table, c)
			if err != nil {
				return fmt.Errorf("signature %s: %w", c.Signature(), err)
			}
			results[i] = entries
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for i, c := range g.signatures {
		table.Put(c.Signature(), results[i])
	}
	for _, c := range g.derived {
		src, ok := table.Entries(c.Opposite().Signature())
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingMemoEntry, c.Opposite().Signature())
		}
		table.Put(c.Signature(), oppositeEntries(src))
	}

	b.logger.Debug("generation complete",
		zap.Int("unresolved", g.unresolved),
		zap.Stringer("phase", g.phase),
		zap.Int("simulated", len(g.signatures)),
		zap.Int("derived", len(g.derived)),
	)
	return nil
}

// oppositeEntries relabels light suspects as heavy and vice versa. The
// transition rule is symmetric under that swap, so costs carry over.
func oppositeEntries(src []Entry) []Entry {
	out := make([]Entry, len(src))
	for i, e := range src {
		out[i] = Entry{Layout: e.Layout.Opposite(), WorstCase: e.WorstCase}
	}
	return out
}

// #endregion build

// #region evaluate
// Evaluate computes the rows for one signature. Every signature the
// evaluation can reach must already be in table.
func (b *Builder) Evaluate(table *Table, counts layout.Counts) ([]Entry, error) {
	suspects := counts.Suspects()
	genuine := b.population - suspects.Total()
	if genuine < 0 {
		return nil, fmt.Errorf("%w: %d suspects in a population of %d", ErrPopulationOutOfRange, suspects.Total(), b.population)
	}

	layouts := layout.Generate(suspects, b.population, genuine)
	entries := make([]Entry, 0, len(layouts))
	for _, l := range layouts {
		worst := 0
		for _, d := range defects(suspects, l) {
			c, err := b.cost(table, suspects, l, d)
			if err != nil {
				return nil, fmt.Errorf("layout %s, %s: %w", l, d, err)
			}
			worst = max(worst, c)
		}
		entries = append(entries, Entry{Layout: l, WorstCase: worst})
	}
	return entries, nil
}

// cost simulates one weighing with a known defect on fresh coins and returns
// the weighings needed from there, this one included.
func (b *Builder) cost(table *Table, suspects layout.Counts, l layout.Layout, d defect) (int, error) {
	arena := coin.NewArena()
	a := arena.Spawn(l.A)
	bb := arena.Spawn(l.B)
	aCounts, bCounts := l.Counts()
	off := arena.Spawn(suspects.Sub(aCounts).Sub(bCounts).Suspects().Expand())

	padding := b.population - len(a) - len(bb) - len(off)
	if padding < 0 {
		return 0, fmt.Errorf("%w: layout needs %d coins", ErrPopulationOutOfRange, b.population-padding)
	}
	all := make([]*coin.Coin, 0, b.population)
	all = append(all, a...)
	all = append(all, bb...)
	all = append(all, off...)
	for k := 0; k < padding; k++ {
		all = append(all, arena.New(coin.Genuine))
	}

	var group []*coin.Coin
	switch d.side {
	case sideA:
		group = a
	case sideB:
		group = bb
	default:
		group = off
	}
	target := firstInState(group, d.state)
	if target == nil {
		return 0, fmt.Errorf("no %s coin for %s", d.state, d)
	}
	target.SetWeight(d.weight)

	if _, err := scale.ApplyOutcome(all, a, bb); err != nil {
		return 0, err
	}

	after := layout.CountCoins(coin.Suspects(all))
	switch {
	case after == suspects:
		return NoInformation, nil
	case after.Total() == 1:
		return 1, nil
	case after.Total() == 0:
		return 0, fmt.Errorf("%w: defect cleared", coin.ErrInvariantViolation)
	}

	next, err := table.WorstCase(after.Signature())
	if err != nil {
		return 0, err
	}
	return min(next+1, NoInformation), nil
}

// #endregion evaluate

// #region defects
type side int

const (
	sideA side = iota
	sideB
	sideOff
)

func (s side) String() string {
	switch s {
	case sideA:
		return "pan A"
	case sideB:
		return "pan B"
	}
	return "off scale"
}

// defect places the single off-weight coin: which group, which state, which way.
type defect struct {
	side   side
	state  coin.BeliefState
	weight coin.Weight
}

func (d defect) String() string {
	return fmt.Sprintf("%s %s coin is %s", d.side, d.state, d.weight)
}

// defects lists every true-defect assignment consistent with the suspects.
// Coins sharing a state and a group are interchangeable, so one per
// (group, state, weight) covers them all.
func defects(suspects layout.Counts, l layout.Layout) []defect {
	aCounts, bCounts := l.Counts()
	groups := [...]layout.Counts{
		sideA:   aCounts.Suspects(),
		sideB:   bCounts.Suspects(),
		sideOff: suspects.Sub(aCounts).Sub(bCounts).Suspects(),
	}
	var out []defect
	for sd, c := range groups {
		for _, s := range c.Distinct() {
			for _, w := range s.CandidateWeights() {
				out = append(out, defect{side: side(sd), state: s, weight: w})
			}
		}
	}
	return out
}

func firstInState(coins []*coin.Coin, s coin.BeliefState) *coin.Coin {
	for _, c := range coins {
		if c.State() == s {
			return c
		}
	}
	return nil
}

// #endregion defects
