// internal/models/card.go
package models

import "strconv"

// Suit is one of the four suits of the Spanish deck.
type Suit string

const (
	Espada Suit = "E"
	Basto  Suit = "B"
	Oro    Suit = "O"
	Copa   Suit = "C"
)

// Rank is a rank of the Spanish deck as used in Truco. Eights and nines are
// not part of the deck.
type Rank string

const (
	As      Rank = "1"
	Dos     Rank = "2"
	Tres    Rank = "3"
	Cuatro  Rank = "4"
	Cinco   Rank = "5"
	Seis    Rank = "6"
	Siete   Rank = "7"
	Sota    Rank = "10"
	Caballo Rank = "11"
	Rey     Rank = "12"
)

// Suits and Ranks enumerate the deck domain in a fixed order.
var (
	Suits = []Suit{Espada, Basto, Oro, Copa}
	Ranks = []Rank{As, Dos, Tres, Cuatro, Cinco, Seis, Siete, Sota, Caballo, Rey}
)

// Card is an immutable card of the Truco deck. Value is derived from
// (rank, suit) via CardValue and orders cards for round resolution; two
// cards with equal Value tie.
type Card struct {
	Suit  Suit `json:"suit"`
	Rank  Rank `json:"rank"`
	Value int  `json:"value"`
}

// NewCard builds a card with its Truco value filled in.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Suit: suit, Rank: rank, Value: CardValue(rank, suit)}
}

// CardValue returns the Truco strength of a card, 0 (weakest, the fours)
// through 13 (the ace of swords). The three "matas" and the two strong
// sevens sit above the off-suit aces, twos and threes.
func CardValue(rank Rank, suit Suit) int {
	switch rank {
	case Cuatro:
		return 0
	case Cinco:
		return 1
	case Seis:
		return 2
	case Siete:
		switch suit {
		case Oro:
			return 10
		case Espada:
			return 11
		default:
			return 3
		}
	case Sota:
		return 4
	case Caballo:
		return 5
	case Rey:
		return 6
	case As:
		switch suit {
		case Basto:
			return 12
		case Espada:
			return 13
		default:
			return 7
		}
	case Dos:
		return 8
	case Tres:
		return 9
	}
	return -1
}

// EnvidoValue returns the rank's worth for envido scoring: ranks 1-7 count
// at face value, face cards count as zero.
func (r Rank) EnvidoValue() int {
	switch r {
	case Sota, Caballo, Rey:
		return 0
	}
	n, err := strconv.Atoi(string(r))
	if err != nil {
		return 0
	}
	return n
}

// Same reports whether two cards are the same physical card. Card equality
// by == compares Value as well, which groups cards of equal strength; custody
// checks need identity instead.
func (c Card) Same(other Card) bool {
	return c.Suit == other.Suit && c.Rank == other.Rank
}

// Beats reports whether c outranks other in a round.
func (c Card) Beats(other Card) bool {
	return c.Value > other.Value
}

// NewDeck returns the 40 cards of the Truco deck in a fixed order. Dealing
// draws indexes without replacement from this slice.
func NewDeck() []Card {
	deck := make([]Card, 0, len(Ranks)*len(Suits))
	for _, rank := range Ranks {
		for _, suit := range Suits {
			deck = append(deck, NewCard(rank, suit))
		}
	}
	return deck
}
