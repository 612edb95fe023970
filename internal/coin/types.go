package coin

import (
	"errors"
	"fmt"
)

// #region belief-state
// BeliefState is what is currently known about a coin.
type BeliefState uint8

const (
	Unresolved BeliefState = iota
	Genuine
	SuspectLight
	SuspectHeavy

	// StateCount is the number of belief states; sized for fixed count arrays.
	StateCount = 4
)

var stateNames = [StateCount]string{
	Unresolved:   "UNRESOLVED",
	Genuine:      "GENUINE",
	SuspectLight: "LIGHT",
	SuspectHeavy: "HEAVY",
}

// canonicalOrder lists the states sorted by name. Signatures and layouts use it.
var canonicalOrder = [StateCount]BeliefState{Genuine, SuspectHeavy, SuspectLight, Unresolved}

// String returns the persisted name of the state.
func (s BeliefState) String() string {
	if int(s) < StateCount {
		return stateNames[s]
	}
	return "INVALID"
}

// ParseState maps a persisted name back to its state.
func ParseState(name string) (BeliefState, error) {
	for i, n := range stateNames {
		if n == name {
			return BeliefState(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// States returns every belief state in canonical (name) order.
func States() []BeliefState {
	out := canonicalOrder
	return out[:]
}

// Rank is the position of s in canonical order.
func (s BeliefState) Rank() int {
	for i, c := range canonicalOrder {
		if c == s {
			return i
		}
	}
	return StateCount
}

// IsSuspect reports whether s still allows the coin to be the defective one.
func (s BeliefState) IsSuspect() bool { return s != Genuine }

// IsDirectional reports whether s carries a suspected direction.
func (s BeliefState) IsDirectional() bool { return s == SuspectLight || s == SuspectHeavy }

// Opposite swaps the suspected direction; other states map to themselves.
func (s BeliefState) Opposite() BeliefState {
	switch s {
	case SuspectLight:
		return SuspectHeavy
	case SuspectHeavy:
		return SuspectLight
	}
	return s
}

// CandidateWeights lists the defect weights a coin in state s could carry.
func (s BeliefState) CandidateWeights() []Weight {
	switch s {
	case SuspectLight:
		return []Weight{Light}
	case SuspectHeavy:
		return []Weight{Heavy}
	case Unresolved:
		return []Weight{Light, Heavy}
	}
	return nil
}

// #endregion belief-state

// #region transitions
// transitions declares every legal state change. Staying in place is always legal.
var transitions = map[BeliefState][]BeliefState{
	Unresolved:   {Genuine, SuspectLight, SuspectHeavy},
	SuspectLight: {Genuine},
	SuspectHeavy: {Genuine},
}

func canTransition(from, to BeliefState) bool {
	if from == to {
		return true
	}
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// #endregion transitions

// #region weight
// Weight is the simulated physical weight of a coin.
type Weight uint8

const (
	Normal Weight = iota
	Light
	Heavy
)

// Mass returns the integer mass used by the balance.
func (w Weight) Mass() int {
	switch w {
	case Light:
		return 1
	case Heavy:
		return 3
	}
	return 2
}

func (w Weight) String() string {
	switch w {
	case Light:
		return "LIGHT"
	case Heavy:
		return "HEAVY"
	}
	return "NORMAL"
}

// ParseWeight maps "LIGHT", "HEAVY" or "NORMAL" to a Weight.
func ParseWeight(name string) (Weight, error) {
	switch name {
	case "LIGHT":
		return Light, nil
	case "HEAVY":
		return Heavy, nil
	case "NORMAL":
		return Normal, nil
	}
	return Normal, fmt.Errorf("%w: %q", ErrUnknownWeight, name)
}

// #endregion weight

// #region errors
var (
	// ErrInvariantViolation means an off-normal coin was about to be marked genuine.
	ErrInvariantViolation = errors.New("coin: off-normal coin marked genuine")
	// ErrInvalidTransition means a belief change outside the transition table.
	ErrInvalidTransition = errors.New("coin: invalid belief transition")
	// ErrUnknownState means a persisted state name was not recognised.
	ErrUnknownState = errors.New("coin: unknown belief state")
	// ErrUnknownWeight means a weight name was not recognised.
	ErrUnknownWeight = errors.New("coin: unknown weight")
)

// #endregion errors
