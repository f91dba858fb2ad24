package games

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrInvalidShoe = errors.New("invalid shoe")

// Shoe is a constant-size card queue. Draw moves the front card to the back,
// so the shoe never runs out and is never consumed. A Shoe has a single
// owner and is not safe for concurrent use.
type Shoe struct {
	cards []Card
	head  int
	rng   *rand.Rand
}

// ShoeOption configures a Shoe.
type ShoeOption func(*Shoe)

// WithRand sets the random source used by Shuffle.
func WithRand(r *rand.Rand) ShoeOption {
	return func(s *Shoe) {
		if r != nil {
			s.rng = r
		}
	}
}

// NewShoe builds decks copies of ranks in a fixed, unshuffled order: one of
// each rank still owed per pass, ascending.
func NewShoe(decks int, ranks RankTable, opts ...ShoeOption) (*Shoe, error) {
	if ranks == nil {
		ranks = StandardRanks
	}
	total, err := ranks.ShoeSize(decks)
	if err != nil {
		return nil, err
	}

	owed := make(map[Card]int, len(ranks))
	for rank, count := range ranks {
		owed[rank] = count * decks
	}

	cards := make([]Card, 0, total)
	for len(cards) < total {
		for rank := MinRank; rank <= MaxRank; rank++ {
			if owed[rank] > 0 {
				cards = append(cards, rank)
				owed[rank]--
			}
		}
	}

	return newShoe(cards, opts), nil
}

// NewShoeFromCards builds a shoe whose draw order is exactly cards.
func NewShoeFromCards(cards []Card, opts ...ShoeOption) (*Shoe, error) {
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: no cards", ErrInvalidShoe)
	}
	for i, c := range cards {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: card %d has rank %d", ErrInvalidShoe, i, int(c))
		}
	}
	return newShoe(append([]Card(nil), cards...), opts), nil
}

func newShoe(cards []Card, opts []ShoeOption) *Shoe {
	s := &Shoe{cards: cards}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Draw returns the front card and recycles it to the back.
func (s *Shoe) Draw() Card {
	c := s.cards[s.head]
	s.head = (s.head + 1) % len(s.cards)
	return c
}

// Shuffle permutes the whole shoe uniformly. Call it between rounds only.
func (s *Shoe) Shuffle() {
	s.normalize()
	s.rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
}

// Len is the constant shoe size.
func (s *Shoe) Len() int {
	return len(s.cards)
}

// Cards returns a copy of the shoe in draw order.
func (s *Shoe) Cards() []Card {
	out := make([]Card, 0, len(s.cards))
	out = append(out, s.cards[s.head:]...)
	return append(out, s.cards[:s.head]...)
}

// Counts returns how many cards of each rank the shoe holds.
func (s *Shoe) Counts() RankTable {
	counts := make(RankTable)
	for _, c := range s.cards {
		counts[c]++
	}
	return counts
}

func (s *Shoe) normalize() {
	if s.head == 0 {
		return
	}
	s.cards = s.Cards()
	s.head = 0
}
