package round

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/results"
	"github.com/MJE43/bjsim/internal/strategy"
)

// MaxSeats is the most player seats one table deals to.
const MaxSeats = 7

const dealerStandsOn = 17

var ErrInvalidConfig = errors.New("invalid round configuration")

// Config configures an Engine. Bets, when set, gives one stake per seat and
// takes precedence over Bet.
type Config struct {
	Seats    int
	Bet      decimal.Decimal
	Bets     []decimal.Decimal
	Strategy strategy.Strategy
}

// Engine plays rounds for a fixed table configuration. It holds no
// per-round state and may be reused; the shoe and accumulator passed to
// Play are owned by the caller.
type Engine struct {
	stakes   []decimal.Decimal
	strategy strategy.Strategy
	splitter strategy.Splitter
}

// New validates cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Seats < 1 || cfg.Seats > MaxSeats {
		return nil, fmt.Errorf("%w: seats must be between 1 and %d, got %d", ErrInvalidConfig, MaxSeats, cfg.Seats)
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("%w: strategy is required", ErrInvalidConfig)
	}

	stakes := make([]decimal.Decimal, cfg.Seats)
	if len(cfg.Bets) > 0 {
		if len(cfg.Bets) != cfg.Seats {
			return nil, fmt.Errorf("%w: %d bets for %d seats", ErrInvalidConfig, len(cfg.Bets), cfg.Seats)
		}
		copy(stakes, cfg.Bets)
	} else {
		for i := range stakes {
			stakes[i] = cfg.Bet
		}
	}
	for i, s := range stakes {
		if !s.IsPositive() {
			return nil, fmt.Errorf("%w: seat %d bet must be positive, got %s", ErrInvalidConfig, i, s)
		}
	}

	e := &Engine{stakes: stakes, strategy: cfg.Strategy}
	if sp, ok := cfg.Strategy.(strategy.Splitter); ok {
		e.splitter = sp
	}
	return e, nil
}

// Seats returns the configured number of seats.
func (e *Engine) Seats() int { return len(e.stakes) }

// Strategy returns the configured strategy.
func (e *Engine) Strategy() strategy.Strategy { return e.strategy }

// Play deals one complete round from shoe and records every settled hand
// into acc.
func (e *Engine) Play(shoe *games.Shoe, acc *results.Accumulator) (*Report, error) {
	if shoe == nil {
		return nil, fmt.Errorf("%w: shoe is required", ErrInvalidConfig)
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: accumulator is required", ErrInvalidConfig)
	}

	hands := make([]*Hand, len(e.stakes))
	for i, stake := range e.stakes {
		hands[i] = &Hand{Seat: i, Stake: stake, Cards: make([]games.Card, 0, 4)}
	}

	for pass := 0; pass < 2; pass++ {
		for _, h := range hands {
			h.Cards = append(h.Cards, shoe.Draw())
		}
	}
	dealer := []games.Card{shoe.Draw()}
	shown := games.ShownValue(dealer[0])

	for _, h := range hands {
		if !games.IsBlackjack(h.Cards) {
			continue
		}
		switch {
		case shown < 10:
			h.settle(results.OutcomeBlackjack, acc)
		case shown == 11:
			h.settle(results.OutcomeEvenMoney, acc)
		}
	}

	if e.splitter != nil {
		hands = e.split(hands, shown, acc)
	}

	for _, h := range hands {
		if h.Settled {
			continue
		}
		e.playHand(h, shown, shoe, acc)
	}

	for games.HandValue(dealer) < dealerStandsOn {
		dealer = append(dealer, shoe.Draw())
	}
	dealerValue := games.HandValue(dealer)

	for _, h := range hands {
		if h.Settled {
			continue
		}
		h.settle(compare(games.HandValue(h.Cards), dealerValue), acc)
	}
	acc.RecordRound()

	return &Report{
		Hands:       hands,
		Dealer:      dealer,
		DealerShown: shown,
		DealerValue: dealerValue,
	}, nil
}

// split turns each eligible pair into two single-card hands staked with the
// original bet. The new hand follows its parent in seat order.
func (e *Engine) split(hands []*Hand, shown int, acc *results.Accumulator) []*Hand {
	out := make([]*Hand, 0, len(hands)*2)
	for _, h := range hands {
		out = append(out, h)
		if h.Settled || !games.IsPair(h.Cards) || !e.splitter.ShouldSplit(h.Cards[0], shown) {
			continue
		}
		second := &Hand{
			Seat:  h.Seat,
			Stake: h.Stake,
			Cards: []games.Card{h.Cards[1]},
			Split: true,
		}
		h.Cards = h.Cards[:1]
		h.Split = true
		acc.RecordSplit()
		out = append(out, second)
	}
	return out
}

func (e *Engine) playHand(h *Hand, shown int, shoe *games.Shoe, acc *results.Accumulator) {
	for {
		value := games.HandValue(h.Cards)
		if value >= 21 {
			return
		}
		d := e.strategy.Decide(value, shown, h.Doubled)
		h.Decisions = append(h.Decisions, d)
		switch d {
		case strategy.Stand:
			return
		case strategy.Double:
			if !h.Doubled {
				h.Doubled = true
				h.Stake = h.Stake.Add(h.Stake)
				acc.RecordDouble()
			}
		}
		h.Cards = append(h.Cards, shoe.Draw())
	}
}

func compare(player, dealer int) results.Outcome {
	switch {
	case player > 21:
		return results.OutcomeBust
	case dealer > 21 || player > dealer:
		return results.OutcomeWin
	case player == dealer:
		return results.OutcomePush
	default:
		return results.OutcomeLose
	}
}
