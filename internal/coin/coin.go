package coin

import "fmt"

// #region coin
// Coin is one item under test. Its weight only exists in simulation; the
// belief state is what a strategy is allowed to look at.
type Coin struct {
	id     int
	state  BeliefState
	weight Weight
}

// ID is unique within the Arena that created the coin.
func (c *Coin) ID() int { return c.id }

// State returns the current belief state.
func (c *Coin) State() BeliefState { return c.state }

// Weight returns the simulated weight.
func (c *Coin) Weight() Weight { return c.weight }

func (c *Coin) IsUnresolved() bool { return c.state == Unresolved }
func (c *Coin) IsGenuine() bool    { return c.state == Genuine }
func (c *Coin) IsSuspect() bool    { return c.state != Genuine }

// SetWeight changes the simulated weight.
func (c *Coin) SetWeight(w Weight) { c.weight = w }

// MarkGenuine clears the coin. Clearing a coin whose simulated weight is off
// normal is a correctness failure, never a recoverable condition.
func (c *Coin) MarkGenuine() error {
	if c.weight != Normal {
		return fmt.Errorf("%w: coin %d weighs %s", ErrInvariantViolation, c.id, c.weight)
	}
	return c.transition(Genuine)
}

// MarkSuspectLight records that the coin can only be defective by being light.
func (c *Coin) MarkSuspectLight() error { return c.transition(SuspectLight) }

// MarkSuspectHeavy records that the coin can only be defective by being heavy.
func (c *Coin) MarkSuspectHeavy() error { return c.transition(SuspectHeavy) }

func (c *Coin) transition(to BeliefState) error {
	if !canTransition(c.state, to) {
		return fmt.Errorf("%w: coin %d %s -> %s", ErrInvalidTransition, c.id, c.state, to)
	}
	c.state = to
	return nil
}

// Clone returns an independent copy with the same id.
func (c *Coin) Clone() *Coin {
	cp := *c
	return &cp
}

func (c *Coin) String() string {
	return fmt.Sprintf("#%d(%s/%s)", c.id, c.state, c.weight)
}

// #endregion coin

// #region arena
// Arena allocates coin ids for one derivation. Ids are never reused within an
// arena and carry no meaning across arenas.
type Arena struct {
	next int
}

// NewArena returns an arena whose first coin gets id 1.
func NewArena() *Arena {
	return &Arena{next: 1}
}

// New creates a coin in the given state with normal weight.
func (a *Arena) New(state BeliefState) *Coin {
	c := &Coin{id: a.next, state: state, weight: Normal}
	a.next++
	return c
}

// Spawn creates one coin per state, in order.
func (a *Arena) Spawn(states []BeliefState) []*Coin {
	out := make([]*Coin, len(states))
	for i, s := range states {
		out[i] = a.New(s)
	}
	return out
}

// Population creates n unresolved coins.
func (a *Arena) Population(n int) []*Coin {
	out := make([]*Coin, n)
	for i := range out {
		out[i] = a.New(Unresolved)
	}
	return out
}

// #endregion arena

// #region helpers
// CloneAll deep-copies coins so a forked branch never shares mutable state.
func CloneAll(coins []*Coin) []*Coin {
	out := make([]*Coin, len(coins))
	for i, c := range coins {
		out[i] = c.Clone()
	}
	return out
}

// Suspects returns the coins that are not yet confirmed genuine.
func Suspects(coins []*Coin) []*Coin {
	var out []*Coin
	for _, c := range coins {
		if c.IsSuspect() {
			out = append(out, c)
		}
	}
	return out
}

// StatesOf returns the belief state of each coin.
func StatesOf(coins []*Coin) []BeliefState {
	out := make([]BeliefState, len(coins))
	for i, c := range coins {
		out[i] = c.state
	}
	return out
}

// #endregion helpers
