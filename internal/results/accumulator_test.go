package results

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAddPayoutTable(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		stake    string
		winnings string
		pot      string
	}{
		{OutcomeBust, "10", "0", "0"},
		{OutcomeLose, "10", "0", "0"},
		{OutcomePush, "10", "0", "10"},
		{OutcomeWin, "10", "10", "20"},
		{OutcomeBlackjack, "10", "15", "25"},
		{OutcomeEvenMoney, "10", "10", "20"},
		{OutcomeBlackjack, "1", "1.5", "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			var acc Accumulator
			acc.Add(tt.outcome, dec(tt.stake))
			require.True(t, acc.Invested.Equal(dec(tt.stake)), "invested %s", acc.Invested)
			require.True(t, acc.Winnings.Equal(dec(tt.winnings)), "winnings %s", acc.Winnings)
			require.True(t, acc.Pot.Equal(dec(tt.pot)), "pot %s", acc.Pot)
			require.EqualValues(t, 1, acc.Hands())
		})
	}
}

func TestAddCounts(t *testing.T) {
	var acc Accumulator
	for _, o := range []Outcome{OutcomeWin, OutcomeWin, OutcomeLose, OutcomeBust, OutcomePush, OutcomeBlackjack, OutcomeEvenMoney} {
		acc.Add(o, dec("1"))
	}
	require.EqualValues(t, 2, acc.Wins)
	require.EqualValues(t, 1, acc.Losses)
	require.EqualValues(t, 1, acc.Busts)
	require.EqualValues(t, 1, acc.Pushes)
	require.EqualValues(t, 1, acc.Blackjacks)
	require.EqualValues(t, 1, acc.EvenMoney)
	require.EqualValues(t, 7, acc.Hands())
}

func TestRatioEmpty(t *testing.T) {
	var acc Accumulator
	_, err := acc.Ratio()
	require.ErrorIs(t, err, ErrNoInvestment)
}

func TestRatioAndNet(t *testing.T) {
	var acc Accumulator
	acc.Add(OutcomeWin, dec("10"))
	acc.Add(OutcomeLose, dec("10"))
	acc.Add(OutcomeBlackjack, dec("10"))
	acc.Add(OutcomePush, dec("10"))

	r, err := acc.Ratio()
	require.NoError(t, err)
	// pot 20+0+25+10 over invested 40
	require.InDelta(t, 55.0/40.0, r, 1e-12)
	require.True(t, acc.Net().Equal(dec("15")))
}

func sample(outcomes ...Outcome) Accumulator {
	var acc Accumulator
	acc.RecordRound()
	for i, o := range outcomes {
		acc.Add(o, decimal.NewFromFloat(0.1).Mul(decimal.NewFromInt(int64(i+1))))
	}
	acc.RecordDouble()
	return acc
}

func TestMergeAssociativeAndCommutative(t *testing.T) {
	a := sample(OutcomeWin, OutcomeBust)
	b := sample(OutcomeBlackjack, OutcomePush, OutcomeLose)
	c := sample(OutcomeEvenMoney)
	c.RecordSplit()

	left := a
	left.Merge(b)
	left.Merge(c)

	bc := b
	bc.Merge(c)
	right := a
	right.Merge(bc)
	require.True(t, left.Equal(right), "associativity: %+v != %+v", left, right)

	ab := a
	ab.Merge(b)
	ba := b
	ba.Merge(a)
	require.True(t, ab.Equal(ba), "commutativity: %+v != %+v", ab, ba)

	require.EqualValues(t, 3, left.Rounds)
	require.EqualValues(t, 3, left.Doubles)
	require.EqualValues(t, 1, left.Splits)
	require.EqualValues(t, 6, left.Hands())
}

func TestMergeWithZero(t *testing.T) {
	a := sample(OutcomeWin)
	merged := a
	merged.Merge(Accumulator{})
	require.True(t, merged.Equal(a))
}

func TestOutcomeJSON(t *testing.T) {
	b, err := json.Marshal(OutcomeEvenMoney)
	require.NoError(t, err)
	require.JSONEq(t, `"even_money"`, string(b))
}

func TestOutcomeUnmarshalRejectsUnknown(t *testing.T) {
	var o Outcome
	require.NoError(t, json.Unmarshal([]byte(`"blackjack"`), &o))
	require.Equal(t, OutcomeBlackjack, o)
	require.Error(t, json.Unmarshal([]byte(`"surrender"`), &o))
}
