package round

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/results"
	"github.com/MJE43/bjsim/internal/strategy"
)

// Hand is one seat's cards for a round. A split seat owns two hands.
type Hand struct {
	Seat      int                 `json:"seat"`
	Cards     []games.Card        `json:"cards"`
	Stake     decimal.Decimal     `json:"stake"`
	Doubled   bool                `json:"doubled,omitempty"`
	Split     bool                `json:"split,omitempty"`
	Settled   bool                `json:"settled"`
	Outcome   results.Outcome     `json:"outcome"`
	Decisions []strategy.Decision `json:"decisions,omitempty"`
}

// Value is the current blackjack value of the hand.
func (h *Hand) Value() int {
	return games.HandValue(h.Cards)
}

func (h *Hand) settle(o results.Outcome, acc *results.Accumulator) {
	h.Settled = true
	h.Outcome = o
	acc.Add(o, h.Stake)
}

// Report traces one played round.
type Report struct {
	Hands       []*Hand      `json:"hands"`
	Dealer      []games.Card `json:"dealer"`
	DealerShown int          `json:"dealer_shown"`
	DealerValue int          `json:"dealer_value"`
}

// Invested sums the final stakes of every hand.
func (r *Report) Invested() decimal.Decimal {
	total := decimal.Zero
	for _, h := range r.Hands {
		total = total.Add(h.Stake)
	}
	return total
}
