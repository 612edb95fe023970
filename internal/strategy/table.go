package strategy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
	"github.com/danielpatrickdp/balance-strategy/internal/layout"
)

// NoInformation is the cost of a weighing that can leave the belief state
// exactly where it was. It is never a real step count.
const NoInformation = 999

var (
	// ErrMissingMemoEntry means a lookup hit a signature that was not computed yet.
	ErrMissingMemoEntry = errors.New("strategy: signature not in table")
	// ErrPopulationOutOfRange means the requested population cannot be tabulated.
	ErrPopulationOutOfRange = errors.New("strategy: population out of range")
	// ErrBadRecord means a persisted record does not describe a legal layout.
	ErrBadRecord = errors.New("strategy: malformed table record")
)

// #region entry
// Entry is one candidate weighing for a signature with the worst-case number
// of weighings it leads to, itself included.
type Entry struct {
	Layout    layout.Layout
	WorstCase int
}

// Informative reports whether the entry can make progress.
func (e Entry) Informative() bool { return e.WorstCase < NoInformation }

// #endregion entry

// #region table
// Table maps every reachable signature to all evaluated layouts. It is
// written once per signature while building and read-only afterwards.
type Table struct {
	Population int
	entries    map[layout.Signature][]Entry
}

// NewTable returns an empty table for a population.
func NewTable(population int) *Table {
	return &Table{Population: population, entries: make(map[layout.Signature][]Entry)}
}

// Put stores the rows for a signature.
func (t *Table) Put(sig layout.Signature, entries []Entry) {
	t.entries[sig] = entries
}

// Entries returns every evaluated layout for sig in evaluation order.
func (t *Table) Entries(sig layout.Signature) ([]Entry, bool) {
	e, ok := t.entries[sig]
	return e, ok
}

// Best returns the cheapest entry for sig; ties keep the earliest entry.
func (t *Table) Best(sig layout.Signature) (Entry, error) {
	entries, ok := t.entries[sig]
	if !ok || len(entries) == 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrMissingMemoEntry, sig)
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.WorstCase < best.WorstCase {
			best = e
		}
	}
	return best, nil
}

// WorstCase is the guaranteed number of weighings under optimal play.
func (t *Table) WorstCase(sig layout.Signature) (int, error) {
	best, err := t.Best(sig)
	if err != nil {
		return 0, err
	}
	return best.WorstCase, nil
}

// Signatures lists the tabulated signatures, smallest unresolved count first.
func (t *Table) Signatures() []layout.Signature {
	out := make([]layout.Signature, 0, len(t.entries))
	for sig := range t.entries {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, _ := layout.ParseSignature(out[i])
		cj, _ := layout.ParseSignature(out[j])
		if ci.Total() != cj.Total() {
			return ci.Total() < cj.Total()
		}
		return out[i] < out[j]
	})
	return out
}

// Len is the number of signatures.
func (t *Table) Len() int { return len(t.entries) }

// LayoutCount is the number of rows across all signatures.
func (t *Table) LayoutCount() int {
	n := 0
	for _, e := range t.entries {
		n += len(e)
	}
	return n
}

// StartSignature is the signature of a fresh, fully unresolved population.
func (t *Table) StartSignature() layout.Signature {
	var c layout.Counts
	c[coin.Unresolved] = t.Population
	return c.Signature()
}

// #endregion table

// #region document
// Record is the persisted form of an Entry.
type Record struct {
	GroupA         []string `json:"group_a"`
	GroupB         []string `json:"group_b"`
	WorstCaseSteps int      `json:"worst_case_steps"`
}

// Document is the durable artifact: signature to ordered records.
type Document struct {
	Population int                 `json:"population"`
	Signatures map[string][]Record `json:"signatures"`
}

// Document converts the table to its persisted form.
func (t *Table) Document() Document {
	doc := Document{Population: t.Population, Signatures: make(map[string][]Record, len(t.entries))}
	for sig, entries := range t.entries {
		recs := make([]Record, len(entries))
		for i, e := range entries {
			recs[i] = EntryRecord(e)
		}
		doc.Signatures[string(sig)] = recs
	}
	return doc
}

// EntryRecord converts a single entry.
func EntryRecord(e Entry) Record {
	return Record{
		GroupA:         stateNames(e.Layout.A),
		GroupB:         stateNames(e.Layout.B),
		WorstCaseSteps: e.WorstCase,
	}
}

// RecordEntry parses a persisted record back into an Entry.
func RecordEntry(r Record) (Entry, error) {
	a, err := parseStates(r.GroupA)
	if err != nil {
		return Entry{}, err
	}
	b, err := parseStates(r.GroupB)
	if err != nil {
		return Entry{}, err
	}
	l := layout.New(a, b)
	if !l.Balanced() || l.Size() == 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrBadRecord, l)
	}
	return Entry{Layout: l, WorstCase: r.WorstCaseSteps}, nil
}

// FromDocument rebuilds a table from its persisted form.
func FromDocument(doc Document) (*Table, error) {
	if doc.Population < 2 || doc.Population > MaxPopulation {
		return nil, fmt.Errorf("%w: %d not in [2, %d]", ErrPopulationOutOfRange, doc.Population, MaxPopulation)
	}
	t := NewTable(doc.Population)
	for sig, recs := range doc.Signatures {
		if _, err := layout.ParseSignature(layout.Signature(sig)); err != nil {
			return nil, err
		}
		entries := make([]Entry, len(recs))
		for i, r := range recs {
			e, err := RecordEntry(r)
			if err != nil {
				return nil, fmt.Errorf("signature %s row %d: %w", sig, i, err)
			}
			entries[i] = e
		}
		t.Put(layout.Signature(sig), entries)
	}
	return t, nil
}

func stateNames(ss []coin.BeliefState) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.String()
	}
	return out
}

func parseStates(names []string) ([]coin.BeliefState, error) {
	out := make([]coin.BeliefState, len(names))
	for i, n := range names {
		s, err := coin.ParseState(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadRecord, err)
		}
		out[i] = s
	}
	return out, nil
}

// #endregion document
