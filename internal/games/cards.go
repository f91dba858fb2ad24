package games

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Card is a blackjack rank. Ace is 1; ten and the court cards all fold into 10.
type Card int

const (
	Ace   Card = 1
	Two   Card = 2
	Three Card = 3
	Four  Card = 4
	Five  Card = 5
	Six   Card = 6
	Seven Card = 7
	Eight Card = 8
	Nine  Card = 9
	Ten   Card = 10
)

const (
	MinRank Card = Ace
	MaxRank Card = Ten
)

var ErrInvalidCard = errors.New("invalid card")

// Valid reports whether c is a rank in [1, 10].
func (c Card) Valid() bool {
	return c >= MinRank && c <= MaxRank
}

// String returns "A", "2".."9" or "T".
func (c Card) String() string {
	switch c {
	case Ace:
		return "A"
	case Ten:
		return "T"
	default:
		if c.Valid() {
			return strconv.Itoa(int(c))
		}
		return fmt.Sprintf("Card(%d)", int(c))
	}
}

// ParseCard accepts rank labels (A, 2-10, T, J, Q, K) or the numbers 1-10.
func ParseCard(s string) (Card, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "1":
		return Ace, nil
	case "T", "10", "J", "Q", "K":
		return Ten, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Card(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	return Card(n), nil
}

// ParseCards parses a list of labels, e.g. from an API fixture.
func ParseCards(labels []string) ([]Card, error) {
	cards := make([]Card, len(labels))
	for i, l := range labels {
		c, err := ParseCard(l)
		if err != nil {
			return nil, err
		}
		cards[i] = c
	}
	return cards, nil
}

// RankTable maps a rank to its number of copies in one deck.
type RankTable map[Card]int

const (
	// MaxRankCount bounds the copies of one rank in a single deck.
	MaxRankCount = 1 << 12
	// MaxShoeCards bounds the size of a built shoe.
	MaxShoeCards = 1 << 20
)

// StandardRanks is one 52-card deck: four of each rank, sixteen tens.
var StandardRanks = RankTable{
	Ace: 4, Two: 4, Three: 4, Four: 4, Five: 4,
	Six: 4, Seven: 4, Eight: 4, Nine: 4, Ten: 16,
}

// PerDeck returns the number of cards one deck of this table holds.
func (t RankTable) PerDeck() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Validate checks ranks are in [1, 10], counts are in [0, MaxRankCount]
// and the table holds at least one card.
func (t RankTable) Validate() error {
	for rank, count := range t {
		if !rank.Valid() {
			return fmt.Errorf("%w: rank %d out of range", ErrInvalidShoe, int(rank))
		}
		if count < 0 {
			return fmt.Errorf("%w: negative count %d for rank %s", ErrInvalidShoe, count, rank)
		}
		if count > MaxRankCount {
			return fmt.Errorf("%w: count %d for rank %s exceeds %d", ErrInvalidShoe, count, rank, MaxRankCount)
		}
	}
	if t.PerDeck() == 0 {
		return fmt.Errorf("%w: rank table holds no cards", ErrInvalidShoe)
	}
	return nil
}

// ShoeSize validates t and returns the number of cards decks copies of it
// hold, rejecting shoes larger than MaxShoeCards.
func (t RankTable) ShoeSize(decks int) (int, error) {
	if decks < 1 {
		return 0, fmt.Errorf("%w: decks must be at least 1, got %d", ErrInvalidShoe, decks)
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}
	perDeck := t.PerDeck()
	if decks > MaxShoeCards/perDeck {
		return 0, fmt.Errorf("%w: %d decks of %d cards exceed %d cards", ErrInvalidShoe, decks, perDeck, MaxShoeCards)
	}
	return decks * perDeck, nil
}

// Clone returns an independent copy.
func (t RankTable) Clone() RankTable {
	out := make(RankTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
