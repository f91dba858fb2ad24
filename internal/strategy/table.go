package strategy

import "github.com/MJE43/bjsim/internal/games"

const (
	minTotal  = 2
	maxTotal  = 21
	minDealer = 2
	maxDealer = 11

	totals  = maxTotal - minTotal + 1
	dealers = maxDealer - minDealer + 1
)

// Table is a precomputed strategy. It is read-only after construction and
// safe for concurrent use. Lookups outside the table stand.
type Table struct {
	name     string
	decide   [totals][dealers][2]Decision
	split    [int(games.MaxRank) + 1][dealers]bool
	canSplit bool
}

// Compile evaluates s over every total, dealer value and doubled flag.
func Compile(s Strategy) *Table {
	t := &Table{name: s.Name()}
	for total := minTotal; total <= maxTotal; total++ {
		for dealer := minDealer; dealer <= maxDealer; dealer++ {
			t.decide[total-minTotal][dealer-minDealer][0] = s.Decide(total, dealer, false)
			t.decide[total-minTotal][dealer-minDealer][1] = s.Decide(total, dealer, true)
		}
	}
	if sp, ok := s.(Splitter); ok {
		t.canSplit = true
		for rank := games.MinRank; rank <= games.MaxRank; rank++ {
			for dealer := minDealer; dealer <= maxDealer; dealer++ {
				t.split[rank][dealer-minDealer] = sp.ShouldSplit(rank, dealer)
			}
		}
	}
	return t
}

// NewTable builds an empty table (always stand) to be filled with Set.
func NewTable(name string) *Table {
	return &Table{name: name}
}

// Set records a decision. Out-of-range cells are ignored.
func (t *Table) Set(total, dealer int, doubled bool, d Decision) {
	if !inRange(total, dealer) {
		return
	}
	t.decide[total-minTotal][dealer-minDealer][boolIndex(doubled)] = d
}

// SetSplit records a pair decision and enables splitting for the table.
func (t *Table) SetSplit(rank games.Card, dealer int, split bool) {
	if !rank.Valid() || dealer < minDealer || dealer > maxDealer {
		return
	}
	t.canSplit = true
	t.split[rank][dealer-minDealer] = split
}

func (t *Table) Name() string { return t.name }

func (t *Table) Decide(total, dealerShown int, doubled bool) Decision {
	if !inRange(total, dealerShown) {
		return Stand
	}
	return t.decide[total-minTotal][dealerShown-minDealer][boolIndex(doubled)]
}

// ShouldSplit is false for tables compiled from non-splitting strategies.
func (t *Table) ShouldSplit(rank games.Card, dealerShown int) bool {
	if !t.canSplit || !rank.Valid() || dealerShown < minDealer || dealerShown > maxDealer {
		return false
	}
	return t.split[rank][dealerShown-minDealer]
}

// Splits reports whether any pair decision was recorded.
func (t *Table) Splits() bool { return t.canSplit }

func inRange(total, dealer int) bool {
	return total >= minTotal && total <= maxTotal && dealer >= minDealer && dealer <= maxDealer
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}
