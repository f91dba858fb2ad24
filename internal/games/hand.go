package games

// HandValue computes the blackjack value of cards. Aces count 1, and one ace
// is promoted to 11 when that keeps the total at or under 21.
func HandValue(cards []Card) int {
	total, soft := handTotal(cards)
	if soft {
		return total + 10
	}
	return total
}

// IsSoft reports whether HandValue promoted an ace.
func IsSoft(cards []Card) bool {
	_, soft := handTotal(cards)
	return soft
}

// IsBlackjack reports a two-card 21.
func IsBlackjack(cards []Card) bool {
	return len(cards) == 2 && HandValue(cards) == 21
}

// IsPair reports two cards of the same rank.
func IsPair(cards []Card) bool {
	return len(cards) == 2 && cards[0] == cards[1]
}

// ShownValue is the value of a single dealer card; an ace shows 11.
func ShownValue(c Card) int {
	return HandValue([]Card{c})
}

func handTotal(cards []Card) (int, bool) {
	total := 0
	hasAce := false
	for _, c := range cards {
		total += int(c)
		if c == Ace {
			hasAce = true
		}
	}
	return total, hasAce && total+10 <= 21
}
