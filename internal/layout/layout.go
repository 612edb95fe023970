package layout

import (
	"sort"
	"strings"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
)

// #region layout
// Layout describes one weighing by composition only: which belief states go
// on pan A and which on pan B. Both sides are kept in canonical order.
type Layout struct {
	A []coin.BeliefState
	B []coin.BeliefState
}

// New sorts both sides into canonical order.
func New(a, b []coin.BeliefState) Layout {
	l := Layout{
		A: append([]coin.BeliefState(nil), a...),
		B: append([]coin.BeliefState(nil), b...),
	}
	sortStates(l.A)
	sortStates(l.B)
	return l
}

// Size is the number of coins on the scale.
func (l Layout) Size() int { return len(l.A) + len(l.B) }

// Balanced reports whether both pans hold the same number of coins.
func (l Layout) Balanced() bool { return len(l.A) == len(l.B) }

// Canonical reports whether pan A is free of genuine coins.
func (l Layout) Canonical() bool {
	for _, s := range l.A {
		if s == coin.Genuine {
			return false
		}
	}
	return true
}

// Counts returns the per-pan multisets.
func (l Layout) Counts() (a, b Counts) {
	return CountOf(l.A), CountOf(l.B)
}

// Mirror swaps the pans.
func (l Layout) Mirror() Layout {
	return Layout{A: l.B, B: l.A}
}

// Opposite swaps light and heavy suspects on both pans.
func (l Layout) Opposite() Layout {
	a := make([]coin.BeliefState, len(l.A))
	for i, s := range l.A {
		a[i] = s.Opposite()
	}
	b := make([]coin.BeliefState, len(l.B))
	for i, s := range l.B {
		b[i] = s.Opposite()
	}
	return New(a, b)
}

// Fingerprint identifies the layout independent of the input order of each pan.
func (l Layout) Fingerprint() string {
	return joinSorted(l.A) + "|" + joinSorted(l.B)
}

func (l Layout) String() string {
	return "[" + strings.Join(names(l.A), " ") + "] vs [" + strings.Join(names(l.B), " ") + "]"
}

// #endregion layout

// #region helpers
func sortStates(ss []coin.BeliefState) {
	sort.SliceStable(ss, func(i, j int) bool { return ss[i].Rank() < ss[j].Rank() })
}

func joinSorted(ss []coin.BeliefState) string {
	cp := append([]coin.BeliefState(nil), ss...)
	sortStates(cp)
	return strings.Join(names(cp), ",")
}

func names(ss []coin.BeliefState) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.String()
	}
	return out
}

// #endregion helpers
