package results

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrNoInvestment = errors.New("no money invested")

// Outcome is the settlement of one hand.
type Outcome int

const (
	OutcomeLose Outcome = iota
	OutcomeBust
	OutcomePush
	OutcomeWin
	OutcomeBlackjack
	OutcomeEvenMoney
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLose:
		return "lose"
	case OutcomeBust:
		return "bust"
	case OutcomePush:
		return "push"
	case OutcomeWin:
		return "win"
	case OutcomeBlackjack:
		return "blackjack"
	case OutcomeEvenMoney:
		return "even_money"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for c := OutcomeLose; c <= OutcomeEvenMoney; c++ {
		if c.String() == s {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", s)
}

var (
	two          = decimal.NewFromInt(2)
	blackjackPay = decimal.RequireFromString("1.5")
	blackjackPot = decimal.RequireFromString("2.5")
)

// Payout returns what an outcome adds to winnings and to the pot for stake.
func (o Outcome) Payout(stake decimal.Decimal) (winnings, pot decimal.Decimal) {
	switch o {
	case OutcomeWin, OutcomeEvenMoney:
		return stake, stake.Mul(two)
	case OutcomeBlackjack:
		return stake.Mul(blackjackPay), stake.Mul(blackjackPot)
	case OutcomePush:
		return decimal.Zero, stake
	default:
		return decimal.Zero, decimal.Zero
	}
}

// Accumulator holds additive round statistics. The zero value is empty and
// ready to use. Money is kept in exact decimals so Merge is associative and
// commutative to the last digit.
type Accumulator struct {
	Rounds     int64 `json:"rounds"`
	Wins       int64 `json:"wins"`
	Losses     int64 `json:"losses"`
	Pushes     int64 `json:"pushes"`
	Busts      int64 `json:"busts"`
	Blackjacks int64 `json:"blackjacks"`
	EvenMoney  int64 `json:"even_money"`
	Doubles    int64 `json:"doubles"`
	Splits     int64 `json:"splits"`

	Invested decimal.Decimal `json:"invested"`
	Winnings decimal.Decimal `json:"winnings"`
	Pot      decimal.Decimal `json:"pot"`
}

// Add records one settled hand.
func (a *Accumulator) Add(o Outcome, stake decimal.Decimal) {
	switch o {
	case OutcomeWin:
		a.Wins++
	case OutcomeBlackjack:
		a.Blackjacks++
	case OutcomeEvenMoney:
		a.EvenMoney++
	case OutcomePush:
		a.Pushes++
	case OutcomeBust:
		a.Busts++
	default:
		a.Losses++
	}

	winnings, pot := o.Payout(stake)
	a.Invested = a.Invested.Add(stake)
	a.Winnings = a.Winnings.Add(winnings)
	a.Pot = a.Pot.Add(pot)
}

func (a *Accumulator) RecordRound()  { a.Rounds++ }
func (a *Accumulator) RecordDouble() { a.Doubles++ }
func (a *Accumulator) RecordSplit()  { a.Splits++ }

// Merge adds other into a pointwise.
func (a *Accumulator) Merge(other Accumulator) {
	a.Rounds += other.Rounds
	a.Wins += other.Wins
	a.Losses += other.Losses
	a.Pushes += other.Pushes
	a.Busts += other.Busts
	a.Blackjacks += other.Blackjacks
	a.EvenMoney += other.EvenMoney
	a.Doubles += other.Doubles
	a.Splits += other.Splits
	a.Invested = a.Invested.Add(other.Invested)
	a.Winnings = a.Winnings.Add(other.Winnings)
	a.Pot = a.Pot.Add(other.Pot)
}

// Hands is the number of settled hands.
func (a Accumulator) Hands() int64 {
	return a.Wins + a.Losses + a.Pushes + a.Busts + a.Blackjacks + a.EvenMoney
}

// Ratio is pot divided by invested: the fraction of each staked unit that
// comes back.
func (a Accumulator) Ratio() (float64, error) {
	if a.Invested.IsZero() {
		return 0, ErrNoInvestment
	}
	r, _ := a.Pot.Div(a.Invested).Float64()
	return r, nil
}

// Net is pot minus invested.
func (a Accumulator) Net() decimal.Decimal {
	return a.Pot.Sub(a.Invested)
}

// Equal compares counts and money by value.
func (a Accumulator) Equal(b Accumulator) bool {
	return a.Rounds == b.Rounds && a.Wins == b.Wins && a.Losses == b.Losses &&
		a.Pushes == b.Pushes && a.Busts == b.Busts && a.Blackjacks == b.Blackjacks &&
		a.EvenMoney == b.EvenMoney && a.Doubles == b.Doubles && a.Splits == b.Splits &&
		a.Invested.Equal(b.Invested) && a.Winnings.Equal(b.Winnings) && a.Pot.Equal(b.Pot)
}

