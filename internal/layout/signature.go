package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
)

// ErrBadSignature means a signature string could not be parsed.
var ErrBadSignature = errors.New("layout: malformed signature")

// #region counts
// Counts is a belief-state multiset: how many coins are in each state.
// It is comparable and safe to use as a map key.
type Counts [coin.StateCount]int

// CountOf tallies states.
func CountOf(states []coin.BeliefState) Counts {
	var c Counts
	for _, s := range states {
		c[s]++
	}
	return c
}

// CountCoins tallies the belief states of coins.
func CountCoins(coins []*coin.Coin) Counts {
	var c Counts
	for _, x := range coins {
		c[x.State()]++
	}
	return c
}

// Total is the size of the multiset.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Suspects drops the genuine coins from the multiset.
func (c Counts) Suspects() Counts {
	c[coin.Genuine] = 0
	return c
}

// Distinct returns the states present, in canonical order.
func (c Counts) Distinct() []coin.BeliefState {
	var out []coin.BeliefState
	for _, s := range coin.States() {
		if c[s] > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Sub removes o from c; counts never go below zero.
func (c Counts) Sub(o Counts) Counts {
	for i := range c {
		c[i] -= o[i]
		if c[i] < 0 {
			c[i] = 0
		}
	}
	return c
}

// Add merges o into c.
func (c Counts) Add(o Counts) Counts {
	for i := range c {
		c[i] += o[i]
	}
	return c
}

// Opposite swaps the light and heavy counts.
func (c Counts) Opposite() Counts {
	c[coin.SuspectLight], c[coin.SuspectHeavy] = c[coin.SuspectHeavy], c[coin.SuspectLight]
	return c
}

// Expand lists one state per counted coin, in canonical order.
func (c Counts) Expand() []coin.BeliefState {
	out := make([]coin.BeliefState, 0, c.Total())
	for _, s := range coin.States() {
		for i := 0; i < c[s]; i++ {
			out = append(out, s)
		}
	}
	return out
}

// Signature renders the canonical memoization key of c.
func (c Counts) Signature() Signature {
	parts := make([]string, 0, coin.StateCount)
	for _, s := range c.Distinct() {
		parts = append(parts, s.String()+"-"+strconv.Itoa(c[s]))
	}
	return Signature(strings.Join(parts, ":"))
}

// #endregion counts

// #region signature
// Signature is the canonical key of a belief-state multiset, e.g.
// "HEAVY-1:LIGHT-2". Coin identity and ordering never affect it.
type Signature string

// SignatureOf returns the signature of the given coins' states.
func SignatureOf(coins []*coin.Coin) Signature {
	return CountCoins(coins).Signature()
}

// ParseSignature turns a signature back into counts.
func ParseSignature(sig Signature) (Counts, error) {
	var c Counts
	if sig == "" {
		return c, nil
	}
	for _, part := range strings.Split(string(sig), ":") {
		name, num, ok := strings.Cut(part, "-")
		if !ok {
			return c, fmt.Errorf("%w: %q", ErrBadSignature, sig)
		}
		s, err := coin.ParseState(name)
		if err != nil {
			return c, fmt.Errorf("%w: %q: %v", ErrBadSignature, sig, err)
		}
		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 {
			return c, fmt.Errorf("%w: %q: bad count %q", ErrBadSignature, sig, num)
		}
		c[s] += n
	}
	if c.Signature() != sig {
		return c, fmt.Errorf("%w: %q is not canonical", ErrBadSignature, sig)
	}
	return c, nil
}

// #endregion signature
