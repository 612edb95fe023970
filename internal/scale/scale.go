package scale

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/balance-strategy/internal/coin"
)

// ErrDimensionMismatch means the two pans hold different numbers of coins.
var ErrDimensionMismatch = errors.New("scale: pans hold different coin counts")

// #region compare
// Compare weighs group a against group b and returns the sign of
// mass(a) - mass(b): +1 when a is heavier, -1 when a is lighter, 0 when balanced.
func Compare(a, b []*coin.Coin) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	delta := 0
	for _, c := range a {
		delta += c.Weight().Mass()
	}
	for _, c := range b {
		delta -= c.Weight().Mass()
	}
	switch {
	case delta > 0:
		return 1, nil
	case delta < 0:
		return -1, nil
	}
	return 0, nil
}

// #endregion compare

// #region apply-outcome
// ApplyOutcome weighs a against b and updates the belief state of every coin
// in all accordingly. all must contain every coin of a and b. It returns the
// balance result.
func ApplyOutcome(all, a, b []*coin.Coin) (int, error) {
	result, err := Compare(a, b)
	if err != nil {
		return 0, err
	}

	if result == 0 {
		err = markGenuine(a, b)
	} else {
		err = applyTilt(all, a, b, result)
	}
	if err != nil {
		return result, err
	}

	for _, c := range all {
		if c.IsGenuine() && c.Weight() != coin.Normal {
			return result, fmt.Errorf("%w: coin %d ends genuine weighing %s", coin.ErrInvariantViolation, c.ID(), c.Weight())
		}
	}
	return result, nil
}

func applyTilt(all, a, b []*coin.Coin, result int) error {
	firstWeighing := true
	for _, c := range all {
		if !c.IsUnresolved() {
			firstWeighing = false
			break
		}
	}

	// The imbalance is explained by a coin on the scale.
	onScale := make(map[int]bool, len(a)+len(b))
	for _, c := range a {
		onScale[c.ID()] = true
	}
	for _, c := range b {
		onScale[c.ID()] = true
	}
	for _, c := range all {
		if onScale[c.ID()] {
			continue
		}
		if err := c.MarkGenuine(); err != nil {
			return err
		}
	}

	heavier, lighter := a, b
	if result < 0 {
		heavier, lighter = b, a
	}

	if firstWeighing {
		return labelUnresolved(heavier, lighter)
	}

	directions := distinctSuspectStates(all)
	if len(directions) == 1 && directions[0].IsDirectional() {
		return clearKnownDirection(directions[0], a, b, result)
	}

	if allGenuine(b) {
		clear := coin.SuspectLight
		if result < 0 {
			clear = coin.SuspectHeavy
		}
		for _, c := range a {
			if c.State() != clear {
				continue
			}
			if err := c.MarkGenuine(); err != nil {
				return err
			}
		}
	}
	return labelUnresolved(heavier, lighter)
}

// clearKnownDirection handles the case where every remaining suspect leans
// the same way: the pan that cannot hold such a coin is cleared.
func clearKnownDirection(direction coin.BeliefState, a, b []*coin.Coin, result int) error {
	var cleared []*coin.Coin
	switch {
	case direction == coin.SuspectLight && result > 0:
		cleared = a
	case direction == coin.SuspectLight:
		cleared = b
	case result > 0:
		cleared = b
	default:
		cleared = a
	}
	return markGenuine(cleared)
}

func labelUnresolved(heavier, lighter []*coin.Coin) error {
	for _, c := range heavier {
		if !c.IsUnresolved() {
			continue
		}
		if err := c.MarkSuspectHeavy(); err != nil {
			return err
		}
	}
	for _, c := range lighter {
		if !c.IsUnresolved() {
			continue
		}
		if err := c.MarkSuspectLight(); err != nil {
			return err
		}
	}
	return nil
}

// #endregion apply-outcome

// #region helpers
func markGenuine(groups ...[]*coin.Coin) error {
	for _, g := range groups {
		for _, c := range g {
			if err := c.MarkGenuine(); err != nil {
				return err
			}
		}
	}
	return nil
}

func allGenuine(coins []*coin.Coin) bool {
	for _, c := range coins {
		if !c.IsGenuine() {
			return false
		}
	}
	return true
}

func distinctSuspectStates(coins []*coin.Coin) []coin.BeliefState {
	var seen [coin.StateCount]bool
	var out []coin.BeliefState
	for _, c := range coins {
		s := c.State()
		if !s.IsSuspect() || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// #endregion helpers
