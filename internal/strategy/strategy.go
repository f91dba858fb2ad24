package strategy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MJE43/bjsim/internal/games"
)

// Decision is the player's action for one step of a hand.
type Decision int

const (
	Stand Decision = iota
	Hit
	Double
)

func (d Decision) String() string {
	switch d {
	case Stand:
		return "stand"
	case Hit:
		return "hit"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// ParseDecision accepts stand, hit or double in any case.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stand":
		return Stand, nil
	case "hit":
		return Hit, nil
	case "double":
		return Double, nil
	}
	return 0, fmt.Errorf("unknown decision %q", s)
}

func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Decision) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDecision(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Strategy decides the next action given the current hand value, the value
// of the dealer's shown card (ace = 11) and whether the hand already doubled.
// Implementations must be pure functions of their arguments.
type Strategy interface {
	Name() string
	Decide(total, dealerShown int, doubled bool) Decision
}

// Splitter is implemented by strategies that split pairs. A strategy that
// does not implement it never splits.
type Splitter interface {
	ShouldSplit(rank games.Card, dealerShown int) bool
}

// Func adapts a plain function to Strategy.
type Func struct {
	ID string
	F  func(total, dealerShown int, doubled bool) Decision
}

func (f Func) Name() string { return f.ID }

func (f Func) Decide(total, dealerShown int, doubled bool) Decision {
	return f.F(total, dealerShown, doubled)
}
