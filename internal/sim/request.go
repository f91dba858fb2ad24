package sim

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/shopspring/decimal"

	"github.com/MJE43/bjsim/internal/engine"
	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/round"
)

var ErrInvalidRequest = errors.New("invalid simulation request")

const (
	DefaultDecks        = 8
	DefaultSeats        = 1
	DefaultShuffleEvery = 4
	DefaultBatchSize    = 1000
	DefaultStrategy     = "classic"

	MaxDecks     = 64
	MaxRounds    = 100_000_000
	MaxBatchSize = MaxRounds
	MaxTimeoutMs = 24 * 60 * 60 * 1000
)

// Request describes one simulation run.
type Request struct {
	Decks        int               `json:"decks"`
	Ranks        games.RankTable   `json:"ranks,omitempty"`
	Seats        int               `json:"seats"`
	Bet          decimal.Decimal   `json:"bet"`
	Bets         []decimal.Decimal `json:"bets,omitempty"`
	Strategy     string            `json:"strategy"`
	Script       string            `json:"script,omitempty"`
	Rounds       int               `json:"rounds"`
	ShuffleEvery int               `json:"shuffle_every"`
	BatchSize    int               `json:"batch_size"`
	Workers      int               `json:"workers"`
	Seeds        engine.Seeds      `json:"seeds"`
	TimeoutMs    int               `json:"timeout_ms,omitempty"`
}

// WithDefaults fills unset fields.
func (r Request) WithDefaults() Request {
	if r.Decks == 0 {
		r.Decks = DefaultDecks
	}
	if r.Seats == 0 && len(r.Bets) == 0 {
		r.Seats = DefaultSeats
	}
	if r.Seats == 0 {
		r.Seats = len(r.Bets)
	}
	if r.Bet.IsZero() && len(r.Bets) == 0 {
		r.Bet = decimal.NewFromInt(1)
	}
	if r.Strategy == "" && r.Script == "" {
		r.Strategy = DefaultStrategy
	}
	if r.ShuffleEvery == 0 {
		r.ShuffleEvery = DefaultShuffleEvery
	}
	if r.BatchSize == 0 {
		r.BatchSize = DefaultBatchSize
	}
	if r.Workers == 0 {
		r.Workers = 1
	}
	return r
}

// Validate checks a request after defaults are applied.
func (r Request) Validate() error {
	switch {
	case r.Decks < 1 || r.Decks > MaxDecks:
		return fmt.Errorf("%w: decks must be between 1 and %d", ErrInvalidRequest, MaxDecks)
	case r.Seats < 1 || r.Seats > round.MaxSeats:
		return fmt.Errorf("%w: seats must be between 1 and %d", ErrInvalidRequest, round.MaxSeats)
	case r.Rounds < 1 || r.Rounds > MaxRounds:
		return fmt.Errorf("%w: rounds must be between 1 and %d", ErrInvalidRequest, MaxRounds)
	case r.ShuffleEvery < 1:
		return fmt.Errorf("%w: shuffle_every must be positive", ErrInvalidRequest)
	case r.BatchSize < 1 || r.BatchSize > MaxBatchSize:
		return fmt.Errorf("%w: batch_size must be between 1 and %d", ErrInvalidRequest, MaxBatchSize)
	case r.Workers < 1 || r.Workers > maxWorkers():
		return fmt.Errorf("%w: workers must be between 1 and %d", ErrInvalidRequest, maxWorkers())
	case r.TimeoutMs < 0 || r.TimeoutMs > MaxTimeoutMs:
		return fmt.Errorf("%w: timeout_ms must be between 0 and %d", ErrInvalidRequest, MaxTimeoutMs)
	case len(r.Bets) > 0 && len(r.Bets) != r.Seats:
		return fmt.Errorf("%w: %d bets for %d seats", ErrInvalidRequest, len(r.Bets), r.Seats)
	}
	if len(r.Bets) == 0 && !r.Bet.IsPositive() {
		return fmt.Errorf("%w: bet must be positive", ErrInvalidRequest)
	}
	ranks := r.Ranks
	if ranks == nil {
		ranks = games.StandardRanks
	}
	if _, err := ranks.ShoeSize(r.Decks); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Batches is the number of ratio samples the request produces.
func (r Request) Batches() int {
	return (r.Rounds + r.BatchSize - 1) / r.BatchSize
}

func maxWorkers() int {
	return runtime.GOMAXPROCS(0) * 4
}
