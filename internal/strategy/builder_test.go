package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
	"github.com/danielpatrickdp/balance-strategy/internal/layout"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func build(t *testing.T, population int) *Table {
	t.Helper()
	b, err := NewBuilder(population, WithWorkers(4), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	table, err := b.Build(context.Background())
	require.NoError(t, err)
	return table
}

func worst(t *testing.T, table *Table, sig layout.Signature) int {
	t.Helper()
	w, err := table.WorstCase(sig)
	require.NoError(t, err)
	return w
}

func TestNewBuilderRejectsPopulation(t *testing.T) {
	for _, n := range []int{-1, 0, 1, MaxPopulation + 1} {
		_, err := NewBuilder(n)
		assert.ErrorIs(t, err, ErrPopulationOutOfRange, "population %d", n)
	}
}

func TestBuild_ThreeCoins(t *testing.T) {
	table := build(t, 3)

	assert.Equal(t, layout.Signature("UNRESOLVED-3"), table.StartSignature())
	assert.Equal(t, 2, worst(t, table, "UNRESOLVED-3"))

	best, err := table.Best("UNRESOLVED-3")
	require.NoError(t, err)
	assert.Equal(t, "UNRESOLVED|UNRESOLVED", best.Layout.Fingerprint())
}

func TestBuild_TwoLightSuspects(t *testing.T) {
	table := build(t, 2)

	entries, ok := table.Entries("LIGHT-2")
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "LIGHT|LIGHT", entries[0].Layout.Fingerprint())
	assert.Equal(t, 1, entries[0].WorstCase)

	// Two coins can never be told apart: whichever is defective, the first
	// weighing tilts the same way.
	assert.Equal(t, NoInformation, worst(t, table, "UNRESOLVED-2"))
}

func TestBuild_OneLightOneHeavy(t *testing.T) {
	table := build(t, 3)
	assert.Equal(t, 1, worst(t, table, "HEAVY-1:LIGHT-1"))

	entries, _ := table.Entries("HEAVY-1:LIGHT-1")
	byPrint := map[string]int{}
	for _, e := range entries {
		byPrint[e.Layout.Fingerprint()] = e.WorstCase
	}
	assert.Equal(t, 1, byPrint["HEAVY|GENUINE"])
	assert.Equal(t, 1, byPrint["LIGHT|GENUINE"])
	// Either defect tips the pans the same way, so this weighing is useless.
	assert.Equal(t, NoInformation, byPrint["HEAVY|LIGHT"])

	table = build(t, 4)
	entries, _ = table.Entries("HEAVY-1:LIGHT-1")
	for _, e := range entries {
		if e.Layout.Fingerprint() == "HEAVY,LIGHT|GENUINE,GENUINE" {
			assert.Equal(t, 1, e.WorstCase)
			return
		}
	}
	t.Fatal("both suspects against two genuine coins not tabulated")
}

func TestBuild_PureDirectionIsTernarySearch(t *testing.T) {
	table := build(t, 12)
	want := map[int]int{2: 1, 3: 1, 4: 2, 5: 2, 6: 2, 7: 2, 8: 2, 9: 2, 10: 3, 11: 3, 12: 3}

	prev := 0
	for n := 2; n <= 12; n++ {
		var c layout.Counts
		c[coin.SuspectLight] = n
		light := worst(t, table, c.Signature())
		heavy := worst(t, table, c.Opposite().Signature())

		assert.Equal(t, want[n], light, "LIGHT-%d", n)
		assert.Equal(t, light, heavy, "HEAVY-%d", n)
		assert.GreaterOrEqual(t, light, prev, "more suspects never need fewer weighings")
		prev = light
	}

	start := worst(t, table, table.StartSignature())
	assert.GreaterOrEqual(t, start, 3, "twelve candidates need at least three weighings")
	assert.Less(t, start, NoInformation)
}

func TestBuild_DerivedRowsMatchSimulation(t *testing.T) {
	b, err := NewBuilder(8)
	require.NoError(t, err)
	table, err := b.Build(context.Background())
	require.NoError(t, err)

	for n := 2; n <= 8; n++ {
		var c layout.Counts
		c[coin.SuspectHeavy] = n
		simulated, err := b.Evaluate(table, c)
		require.NoError(t, err)
		derived, ok := table.Entries(c.Signature())
		require.True(t, ok)
		assert.Equal(t, simulated, derived, "HEAVY-%d", n)
	}
}

func TestBuild_BestIsInformativeWheneverPossible(t *testing.T) {
	table := build(t, 9)
	for _, sig := range table.Signatures() {
		entries, _ := table.Entries(sig)
		require.NotEmpty(t, entries, sig)

		informative := false
		for _, e := range entries {
			informative = informative || e.Informative()
		}
		best, err := table.Best(sig)
		require.NoError(t, err)
		if informative {
			assert.True(t, best.Informative(), "%s picks a no-information layout", sig)
		}
		for _, e := range entries {
			assert.GreaterOrEqual(t, e.WorstCase, best.WorstCase)
		}
	}
}

func TestBuild_Cancelled(t *testing.T) {
	b, err := NewBuilder(6)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = b.Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_MissingMemoEntry(t *testing.T) {
	b, err := NewBuilder(6)
	require.NoError(t, err)

	var c layout.Counts
	c[coin.SuspectLight] = 4
	_, err = b.Evaluate(NewTable(6), c)
	require.ErrorIs(t, err, ErrMissingMemoEntry)
}

func TestEvaluate_TooManySuspects(t *testing.T) {
	b, err := NewBuilder(3)
	require.NoError(t, err)

	var c layout.Counts
	c[coin.Unresolved] = 4
	_, err = b.Evaluate(NewTable(3), c)
	require.ErrorIs(t, err, ErrPopulationOutOfRange)
}

func TestDefects(t *testing.T) {
	suspects, err := layout.ParseSignature("HEAVY-2:UNRESOLVED-2")
	require.NoError(t, err)
	l := layout.New(
		[]coin.BeliefState{coin.SuspectHeavy, coin.Unresolved},
		[]coin.BeliefState{coin.Unresolved, coin.Genuine},
	)

	got := defects(suspects, l)
	var names []string
	for _, d := range got {
		names = append(names, d.String())
	}
	assert.Equal(t, []string{
		"pan A HEAVY coin is HEAVY",
		"pan A UNRESOLVED coin is LIGHT",
		"pan A UNRESOLVED coin is HEAVY",
		"pan B UNRESOLVED coin is LIGHT",
		"pan B UNRESOLVED coin is HEAVY",
		"off scale HEAVY coin is HEAVY",
	}, names)
}
