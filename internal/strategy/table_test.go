package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
	"github.com/danielpatrickdp/balance-strategy/internal/layout"
)

func lightPair() layout.Layout {
	return layout.New([]coin.BeliefState{coin.SuspectLight}, []coin.BeliefState{coin.SuspectLight})
}

func TestBestKeepsFirstOnTies(t *testing.T) {
	table := NewTable(4)
	first := layout.New([]coin.BeliefState{coin.SuspectLight}, []coin.BeliefState{coin.Genuine})
	table.Put("LIGHT-3", []Entry{
		{Layout: lightPair(), WorstCase: NoInformation},
		{Layout: first, WorstCase: 2},
		{Layout: lightPair(), WorstCase: 2},
	})

	best, err := table.Best("LIGHT-3")
	require.NoError(t, err)
	assert.Equal(t, first, best.Layout)

	_, err = table.Best("LIGHT-4")
	assert.ErrorIs(t, err, ErrMissingMemoEntry)
}

func TestSignaturesOrderedBySize(t *testing.T) {
	table := NewTable(5)
	for _, sig := range []layout.Signature{"UNRESOLVED-3", "LIGHT-2", "HEAVY-1:LIGHT-2", "HEAVY-2"} {
		table.Put(sig, []Entry{{Layout: lightPair(), WorstCase: 1}})
	}
	assert.Equal(t, []layout.Signature{"HEAVY-2", "LIGHT-2", "HEAVY-1:LIGHT-2", "UNRESOLVED-3"}, table.Signatures())
	assert.Equal(t, 4, table.Len())
	assert.Equal(t, 4, table.LayoutCount())
}

func TestFromDocumentRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"bad signature", Document{Population: 3, Signatures: map[string][]Record{"LOW-2": nil}}},
		{"bad state", Document{Population: 3, Signatures: map[string][]Record{
			"LIGHT-2": {{GroupA: []string{"LOW"}, GroupB: []string{"LIGHT"}, WorstCaseSteps: 1}},
		}}},
		{"unbalanced", Document{Population: 3, Signatures: map[string][]Record{
			"LIGHT-2": {{GroupA: []string{"LIGHT", "LIGHT"}, GroupB: []string{"GENUINE"}, WorstCaseSteps: 1}},
		}}},
		{"empty population", Document{Population: 0}},
		{"single coin", Document{Population: 1}},
		{"negative population", Document{Population: -3}},
		{"population too large", Document{Population: MaxPopulation + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocument(tt.doc)
			assert.Error(t, err)
		})
	}
}

func TestFromDocumentRejectsPopulation(t *testing.T) {
	for _, n := range []int{-3, 0, 1, MaxPopulation + 1, 99} {
		_, err := FromDocument(Document{Population: n})
		assert.ErrorIs(t, err, ErrPopulationOutOfRange, "population %d", n)
	}
}

func TestDocumentKeepsEveryRow(t *testing.T) {
	table := build(t, 4)
	doc := table.Document()
	assert.Equal(t, 4, doc.Population)
	assert.Len(t, doc.Signatures, table.Len())

	back, err := FromDocument(doc)
	require.NoError(t, err)
	for _, sig := range table.Signatures() {
		want, _ := table.Entries(sig)
		got, ok := back.Entries(sig)
		require.True(t, ok)
		assert.Equal(t, want, got, "signature %s", sig)
	}
}
