package round

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/results"
	"github.com/MJE43/bjsim/internal/strategy"
)

const (
	A = games.Ace
	T = games.Ten
)

var one = decimal.NewFromInt(1)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixture(t *testing.T, cards ...games.Card) *games.Shoe {
	t.Helper()
	shoe, err := games.NewShoeFromCards(cards)
	require.NoError(t, err)
	return shoe
}

func engine(t *testing.T, s strategy.Strategy, seats int) *Engine {
	t.Helper()
	e, err := New(Config{Seats: seats, Bet: one, Strategy: s})
	require.NoError(t, err)
	return e
}

var alwaysStand = strategy.Func{ID: "stand", F: func(int, int, bool) strategy.Decision { return strategy.Stand }}

func TestBlackjackAgainstLowDealerPaysThreeToTwo(t *testing.T) {
	var acc results.Accumulator
	report, err := engine(t, strategy.Classic{}, 1).Play(fixture(t, A, T, 8, T), &acc)
	require.NoError(t, err)

	require.Equal(t, results.OutcomeBlackjack, report.Hands[0].Outcome)
	require.EqualValues(t, 1, acc.Blackjacks)
	require.True(t, acc.Winnings.Equal(dec("1.5")), "winnings %s", acc.Winnings)
	require.True(t, acc.Pot.Equal(dec("2.5")), "pot %s", acc.Pot)
	require.True(t, acc.Invested.Equal(one))
	require.EqualValues(t, 1, acc.Rounds)
	require.Equal(t, []games.Card{8, T}, report.Dealer)
}

func TestBlackjackAgainstAcePaysEvenMoney(t *testing.T) {
	var acc results.Accumulator
	report, err := engine(t, strategy.Classic{}, 1).Play(fixture(t, A, T, A, 6), &acc)
	require.NoError(t, err)

	require.Equal(t, results.OutcomeEvenMoney, report.Hands[0].Outcome)
	require.Equal(t, 11, report.DealerShown)
	require.True(t, acc.Winnings.Equal(one))
	require.True(t, acc.Pot.Equal(dec("2")))
}

func TestBlackjackAgainstTenIsComparedAtTheEnd(t *testing.T) {
	t.Run("dealer short", func(t *testing.T) {
		var acc results.Accumulator
		report, err := engine(t, strategy.Classic{}, 1).Play(fixture(t, A, T, T, T), &acc)
		require.NoError(t, err)
		require.Equal(t, results.OutcomeWin, report.Hands[0].Outcome)
		require.Equal(t, 20, report.DealerValue)
		require.True(t, acc.Pot.Equal(dec("2")))
		require.Zero(t, acc.Blackjacks)
	})

	t.Run("dealer makes 21", func(t *testing.T) {
		var acc results.Accumulator
		report, err := engine(t, strategy.Classic{}, 1).Play(fixture(t, A, T, T, A), &acc)
		require.NoError(t, err)
		require.Equal(t, results.OutcomePush, report.Hands[0].Outcome)
		require.True(t, acc.Pot.Equal(one))
	})
}

func TestBustLosesStake(t *testing.T) {
	var acc results.Accumulator
	report, err := engine(t, strategy.Stand17{}, 1).Play(fixture(t, T, 2, 7, T), &acc)
	require.NoError(t, err)

	h := report.Hands[0]
	require.Equal(t, results.OutcomeBust, h.Outcome)
	require.Equal(t, 22, h.Value())
	require.EqualValues(t, 1, acc.Busts)
	require.True(t, acc.Invested.Equal(one))
	require.True(t, acc.Winnings.IsZero())
	require.True(t, acc.Pot.IsZero())
}

func TestEqualTotalsPush(t *testing.T) {
	var acc results.Accumulator
	report, err := engine(t, strategy.Classic{}, 1).Play(fixture(t, T, T, T, T), &acc)
	require.NoError(t, err)

	require.Equal(t, results.OutcomePush, report.Hands[0].Outcome)
	require.Equal(t, 20, report.DealerValue)
	require.EqualValues(t, 1, acc.Pushes)
	require.True(t, acc.Pot.Equal(one))
	require.True(t, acc.Winnings.IsZero())
}

func TestDealIsInterleaved(t *testing.T) {
	var acc results.Accumulator
	shoe := fixture(t, 2, 3, 4, 5, 6, T, T)
	report, err := engine(t, alwaysStand, 2).Play(shoe, &acc)
	require.NoError(t, err)

	require.Equal(t, []games.Card{2, 4}, report.Hands[0].Cards)
	require.Equal(t, []games.Card{3, 5}, report.Hands[1].Cards)
	require.Equal(t, []games.Card{6, T, T}, report.Dealer)
	require.EqualValues(t, 2, acc.Wins)
	require.Equal(t, 7, shoe.Len())
}

func TestDoubleDoublesStakeOnce(t *testing.T) {
	var acc results.Accumulator
	report, err := engine(t, strategy.Doubler{}, 1).Play(fixture(t, 5, 6, 6, T, T, T), &acc)
	require.NoError(t, err)

	h := report.Hands[0]
	require.True(t, h.Doubled)
	require.Equal(t, 21, h.Value())
	require.Equal(t, results.OutcomeWin, h.Outcome)
	require.EqualValues(t, 1, acc.Doubles)
	require.True(t, acc.Invested.Equal(dec("2")))
	require.True(t, acc.Pot.Equal(dec("4")))
}

func TestRepeatedDoubleIsTreatedAsHit(t *testing.T) {
	greedy := strategy.Func{ID: "greedy", F: func(total, _ int, _ bool) strategy.Decision {
		if total < 17 {
			return strategy.Double
		}
		return strategy.Stand
	}}

	var acc results.Accumulator
	report, err := engine(t, greedy, 1).Play(fixture(t, 2, 3, T, 2, 2, T, T, T), &acc)
	require.NoError(t, err)

	h := report.Hands[0]
	require.Equal(t, []games.Card{2, 3, 2, 2, T}, h.Cards)
	require.True(t, h.Stake.Equal(dec("2")))
	require.EqualValues(t, 1, acc.Doubles)
	require.Equal(t, results.OutcomeLose, h.Outcome)
	require.Len(t, h.Decisions, 4)
}

func TestSplitAcesStakesFullBetPerHand(t *testing.T) {
	var acc results.Accumulator
	report, err := engine(t, strategy.SplitAware{}, 1).Play(fixture(t, A, A, 5, T, T, T, T), &acc)
	require.NoError(t, err)

	require.Len(t, report.Hands, 2)
	for _, h := range report.Hands {
		require.Equal(t, 0, h.Seat)
		require.True(t, h.Split)
		require.Equal(t, []games.Card{A, T}, h.Cards)
		require.Equal(t, results.OutcomeWin, h.Outcome)
		require.True(t, h.Stake.Equal(dec("2")), "stake %s", h.Stake)
	}
	require.EqualValues(t, 1, acc.Splits)
	require.EqualValues(t, 2, acc.Doubles)
	require.EqualValues(t, 2, acc.Hands())
	require.True(t, acc.Invested.Equal(dec("4")))
	require.True(t, report.Invested().Equal(dec("4")))
}

// splitEights hits below 17 and splits only eights.
type splitEights struct{ strategy.Func }

func (splitEights) ShouldSplit(rank games.Card, dealerShown int) bool { return rank == 8 }

var hitTo17 = splitEights{strategy.Func{ID: "eights", F: func(total, _ int, _ bool) strategy.Decision {
	if total >= 17 {
		return strategy.Stand
	}
	return strategy.Hit
}}}

func TestSplitEightsAfterBlackjackSeat(t *testing.T) {
	var acc results.Accumulator
	// Seat 0: A,T. Seat 1: 8,8. Dealer shows 7. Split hands draw 9 then T,
	// the dealer draws T.
	report, err := engine(t, hitTo17, 2).Play(fixture(t, A, 8, T, 8, 7, 9, T, T), &acc)
	require.NoError(t, err)

	require.Len(t, report.Hands, 3)
	bj, first, second := report.Hands[0], report.Hands[1], report.Hands[2]

	require.Equal(t, 0, bj.Seat)
	require.False(t, bj.Split)
	require.Equal(t, results.OutcomeBlackjack, bj.Outcome)
	require.Empty(t, bj.Decisions)

	require.Equal(t, 1, first.Seat)
	require.Equal(t, 1, second.Seat)
	require.True(t, first.Split && second.Split)
	require.Equal(t, []games.Card{8, 9}, first.Cards)
	require.Equal(t, []games.Card{8, T}, second.Cards)
	require.Equal(t, []strategy.Decision{strategy.Hit, strategy.Stand}, first.Decisions)
	require.Equal(t, results.OutcomePush, first.Outcome)
	require.Equal(t, results.OutcomeWin, second.Outcome)

	require.Equal(t, []games.Card{7, T}, report.Dealer)
	require.EqualValues(t, 1, acc.Splits)
	require.EqualValues(t, 1, acc.Blackjacks)
	require.True(t, acc.Invested.Equal(dec("3")), "invested %s", acc.Invested)
	require.True(t, acc.Winnings.Equal(dec("2.5")), "winnings %s", acc.Winnings)
	require.True(t, acc.Pot.Equal(dec("5.5")), "pot %s", acc.Pot)
}

func TestSplitSeatBeforePlainSeat(t *testing.T) {
	var acc results.Accumulator
	// Seat 0: 8,8. Seat 1: 9,T. Dealer shows 6. The first split hand draws
	// 5 and 4, the second draws T, seat 1 stands, the dealer draws 9 and 2.
	report, err := engine(t, hitTo17, 2).Play(fixture(t, 8, 9, 8, T, 6, 5, 4, T, 9, 2), &acc)
	require.NoError(t, err)

	require.Len(t, report.Hands, 3)
	require.Equal(t, []games.Card{8, 5, 4}, report.Hands[0].Cards)
	require.Equal(t, []games.Card{8, T}, report.Hands[1].Cards)
	require.Equal(t, []games.Card{9, T}, report.Hands[2].Cards)
	require.Equal(t, []int{0, 0, 1}, []int{report.Hands[0].Seat, report.Hands[1].Seat, report.Hands[2].Seat})
	require.False(t, report.Hands[2].Split)

	require.Equal(t, []games.Card{6, 9, 2}, report.Dealer)
	require.Equal(t, 17, report.DealerValue)
	require.Equal(t, results.OutcomePush, report.Hands[0].Outcome)
	require.Equal(t, results.OutcomeWin, report.Hands[1].Outcome)
	require.Equal(t, results.OutcomeWin, report.Hands[2].Outcome)

	require.EqualValues(t, 1, acc.Pushes)
	require.EqualValues(t, 2, acc.Wins)
	require.True(t, acc.Invested.Equal(dec("3")))
	require.True(t, acc.Pot.Equal(dec("5")))
}

func TestNonSplittingStrategyKeepsPairs(t *testing.T) {
	var acc results.Accumulator
	report, err := engine(t, strategy.Classic{}, 1).Play(fixture(t, 8, 8, 5, T, T, T), &acc)
	require.NoError(t, err)
	require.Len(t, report.Hands, 1)
	require.Zero(t, acc.Splits)
}

func TestEveryHandSettledOnce(t *testing.T) {
	shoe, err := games.NewShoe(6, games.StandardRanks)
	require.NoError(t, err)
	shoe.Shuffle()

	e, err := New(Config{Seats: 5, Bet: one, Strategy: strategy.SplitAware{}})
	require.NoError(t, err)

	var acc results.Accumulator
	for i := 0; i < 2000; i++ {
		report, err := e.Play(shoe, &acc)
		require.NoError(t, err)
		for _, h := range report.Hands {
			require.True(t, h.Settled)
		}
		require.GreaterOrEqual(t, report.DealerValue, 17)
	}
	require.EqualValues(t, 2000, acc.Rounds)
	require.EqualValues(t, 2000*5+acc.Splits, acc.Hands())
	require.Equal(t, 312, shoe.Len())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero seats", Config{Seats: 0, Bet: one, Strategy: strategy.Basic{}}},
		{"too many seats", Config{Seats: MaxSeats + 1, Bet: one, Strategy: strategy.Basic{}}},
		{"nil strategy", Config{Seats: 1, Bet: one}},
		{"zero bet", Config{Seats: 1, Strategy: strategy.Basic{}}},
		{"negative bet", Config{Seats: 1, Bet: dec("-1"), Strategy: strategy.Basic{}}},
		{"bets length mismatch", Config{Seats: 2, Bets: []decimal.Decimal{one}, Strategy: strategy.Basic{}}},
		{"bets with zero", Config{Seats: 2, Bets: []decimal.Decimal{one, decimal.Zero}, Strategy: strategy.Basic{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestPerSeatBets(t *testing.T) {
	e, err := New(Config{Seats: 2, Bets: []decimal.Decimal{one, dec("5")}, Strategy: alwaysStand})
	require.NoError(t, err)

	var acc results.Accumulator
	report, err := e.Play(fixture(t, T, T, 9, 9, 7, T), &acc)
	require.NoError(t, err)
	require.True(t, report.Hands[1].Stake.Equal(dec("5")))
	require.True(t, acc.Invested.Equal(dec("6")))
}

func TestPlayRejectsMissingArgumentsWithoutMutation(t *testing.T) {
	e := engine(t, strategy.Basic{}, 1)
	shoe := fixture(t, 2, 3, 4)

	_, err := e.Play(nil, &results.Accumulator{})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = e.Play(shoe, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.Equal(t, []games.Card{2, 3, 4}, shoe.Cards())
}
