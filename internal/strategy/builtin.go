package strategy

import "github.com/MJE43/bjsim/internal/games"

// Classic stands on 17 or more, or 12 or more against a dealer 7 or higher.
type Classic struct{}

func (Classic) Name() string { return "classic" }

func (Classic) Decide(total, dealerShown int, doubled bool) Decision {
	if total >= 17 || (total >= 12 && dealerShown >= 7) {
		return Stand
	}
	return Hit
}

// Stand17 plays the dealer's rule.
type Stand17 struct{}

func (Stand17) Name() string { return "stand17" }

func (Stand17) Decide(total, dealerShown int, doubled bool) Decision {
	if total >= 17 {
		return Stand
	}
	return Hit
}

// Basic stands on 17 or more, and on 12 or more against a dealer 2 to 6.
type Basic struct{}

func (Basic) Name() string { return "basic" }

func (Basic) Decide(total, dealerShown int, doubled bool) Decision {
	if total >= 17 {
		return Stand
	}
	if total >= 12 && dealerShown >= 2 && dealerShown <= 6 {
		return Stand
	}
	return Hit
}

// Doubler is Basic plus doubling on 9, 10 and 11.
type Doubler struct{}

func (Doubler) Name() string { return "double" }

func (Doubler) Decide(total, dealerShown int, doubled bool) Decision {
	if !doubled {
		switch {
		case total == 11 && dealerShown < 11:
			return Double
		case total == 10 && dealerShown < 10:
			return Double
		case total == 9 && dealerShown >= 3 && dealerShown <= 6:
			return Double
		}
	}
	return Basic{}.Decide(total, dealerShown, doubled)
}

// SplitAware is Doubler plus the pair rule: split aces always, and split
// rank r when r-8 beats the dealer's shown value.
type SplitAware struct {
	Doubler
}

func (SplitAware) Name() string { return "split" }

func (SplitAware) ShouldSplit(rank games.Card, dealerShown int) bool {
	return rank == games.Ace || int(rank)-8 > dealerShown
}
