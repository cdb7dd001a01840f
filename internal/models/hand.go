// internal/models/hand.go
package models

import "github.com/google/uuid"

// HandStatus tracks where a hand is in its lifecycle. LOCKED and ENVIDO are
// mutually exclusive interrupt states that suspend card play while a truco
// or envido negotiation is pending.
type HandStatus string

const (
	HandNotStarted HandStatus = "NOT_STARTED"
	HandInProgress HandStatus = "IN_PROGRESS"
	HandLocked     HandStatus = "LOCKED"
	HandEnvido     HandStatus = "ENVIDO"
	HandFinished   HandStatus = "FINISHED"
)

// TrucoLevel is the escalation level of the truco bet. Its integer value is
// the number of points the hand is worth at that level.
type TrucoLevel int

const (
	NoTruco    TrucoLevel = 1
	Truco      TrucoLevel = 2
	Retruco    TrucoLevel = 3
	ValeCuatro TrucoLevel = 4
)

// Points returns the points awarded to the hand winner at this level.
func (l TrucoLevel) Points() int { return int(l) }

// EnvidoLevel is a chantable envido bid. Its integer value is the points the
// bid contributes when accepted.
type EnvidoLevel int

const (
	Envido      EnvidoLevel = 2
	RealEnvido  EnvidoLevel = 3
	FaltaEnvido EnvidoLevel = 30
)

// EnvidoStatus tracks the envido mini-game within a hand.
type EnvidoStatus string

const (
	EnvidoNotStarted EnvidoStatus = "NOT_STARTED"
	EnvidoChanting   EnvidoStatus = "CHANTING"
	EnvidoAccepted   EnvidoStatus = "ACCEPTED"
	EnvidoFinished   EnvidoStatus = "FINISHED"
)

// EnvidoState is the state of one hand's envido instance. Points accumulate
// as levels are chanted and accepted or declined; once Status is FINISHED the
// winner is immutable for the rest of the hand.
type EnvidoState struct {
	Chanted     []EnvidoLevel        `json:"chanted"`
	Points      int                  `json:"points"`
	CardsPlayed map[uuid.UUID][]Card `json:"cards_played"`
	Winner      uuid.UUID            `json:"winner"`
	Status      EnvidoStatus         `json:"status"`
}

// NewEnvidoState returns a fresh, unchanted envido.
func NewEnvidoState() *EnvidoState {
	return &EnvidoState{
		Chanted:     []EnvidoLevel{},
		CardsPlayed: make(map[uuid.UUID][]Card),
		Status:      EnvidoNotStarted,
	}
}

// AllPlayed reports whether all numPlayers players have revealed envido cards.
func (e *EnvidoState) AllPlayed(numPlayers int) bool {
	if len(e.CardsPlayed) < numPlayers {
		return false
	}
	for _, cards := range e.CardsPlayed {
		if len(cards) == 0 {
			return false
		}
	}
	return true
}

// EnvidoScore computes the envido worth of a player's revealed cards: two
// cards of the same suit score 20 plus both rank values, otherwise the single
// best rank value counts.
func EnvidoScore(cards []Card) int {
	if len(cards) == 2 && cards[0].Suit == cards[1].Suit {
		return 20 + cards[0].Rank.EnvidoValue() + cards[1].Rank.EnvidoValue()
	}
	best := 0
	for _, c := range cards {
		if v := c.Rank.EnvidoValue(); v > best {
			best = v
		}
	}
	return best
}

func (e *EnvidoState) clone() *EnvidoState {
	if e == nil {
		return nil
	}
	cp := &EnvidoState{
		Chanted:     append([]EnvidoLevel{}, e.Chanted...),
		Points:      e.Points,
		CardsPlayed: make(map[uuid.UUID][]Card, len(e.CardsPlayed)),
		Winner:      e.Winner,
		Status:      e.Status,
	}
	for id, cards := range e.CardsPlayed {
		cp.CardsPlayed[id] = append([]Card{}, cards...)
	}
	return cp
}

// Round records the card each player has put on the table. A nil entry means
// the player has not played yet; once every slot is filled the round is
// immutable.
type Round struct {
	CardsPlayed map[uuid.UUID]*Card `json:"cards_played"`
}

// NewRound returns an empty round with a slot per player.
func NewRound(playerIDs []uuid.UUID) *Round {
	cards := make(map[uuid.UUID]*Card, len(playerIDs))
	for _, id := range playerIDs {
		cards[id] = nil
	}
	return &Round{CardsPlayed: cards}
}

// Finished reports whether every player slot holds a card.
func (r *Round) Finished() bool {
	if len(r.CardsPlayed) == 0 {
		return false
	}
	for _, c := range r.CardsPlayed {
		if c == nil {
			return false
		}
	}
	return true
}

// Winners returns the players holding the highest-valued card, or nil if the
// round is unfinished. More than one id means a parda (tied round).
func (r *Round) Winners() []uuid.UUID {
	if !r.Finished() {
		return nil
	}
	best := -1
	var winners []uuid.UUID
	for id, c := range r.CardsPlayed {
		switch {
		case c.Value > best:
			best = c.Value
			winners = []uuid.UUID{id}
		case c.Value == best:
			winners = append(winners, id)
		}
	}
	return winners
}

func (r *Round) clone() *Round {
	cp := &Round{CardsPlayed: make(map[uuid.UUID]*Card, len(r.CardsPlayed))}
	for id, c := range r.CardsPlayed {
		if c == nil {
			cp.CardsPlayed[id] = nil
			continue
		}
		card := *c
		cp.CardsPlayed[id] = &card
	}
	return cp
}

// Hand is one deal of three cards to each player and up to three rounds of
// play. It shares its ID with the owning game and is re-initialized in place
// for each new deal of that game.
type Hand struct {
	ID           uuid.UUID            `json:"id"`
	PlayerTurn   uuid.UUID            `json:"player_turn"`
	ChantTurn    uuid.UUID            `json:"chant_turn"`
	PlayerHand   uuid.UUID            `json:"player_hand"`
	PlayerDealer uuid.UUID            `json:"player_dealer"`
	CardsDealt   map[uuid.UUID][]Card `json:"cards_dealt"`
	Rounds       []*Round             `json:"rounds"`
	TrucoStatus  TrucoLevel           `json:"truco_status"`
	Envido       *EnvidoState         `json:"envido"`
	Winner       uuid.UUID            `json:"winner"`
	Status       HandStatus           `json:"status"`
}

// NewHand returns an empty hand bound to a game id. InitializeHand must run
// before it is playable.
func NewHand(id uuid.UUID) *Hand {
	return &Hand{
		ID:          id,
		CardsDealt:  make(map[uuid.UUID][]Card),
		Rounds:      []*Round{},
		TrucoStatus: NoTruco,
		Envido:      NewEnvidoState(),
		Status:      HandNotStarted,
	}
}

// CurrentRound returns the active (last) round, or nil before initialization.
func (h *Hand) CurrentRound() *Round {
	if len(h.Rounds) == 0 {
		return nil
	}
	return h.Rounds[len(h.Rounds)-1]
}

// HasCard reports whether the player currently holds the given card.
func (h *Hand) HasCard(playerID uuid.UUID, card Card) bool {
	for _, c := range h.CardsDealt[playerID] {
		if c.Same(card) {
			return true
		}
	}
	return false
}

// RemoveCard takes a card out of the player's custody. It returns false if
// the player does not hold it.
func (h *Hand) RemoveCard(playerID uuid.UUID, card Card) bool {
	cards := h.CardsDealt[playerID]
	for i, c := range cards {
		if c.Same(card) {
			h.CardsDealt[playerID] = append(cards[:i:i], cards[i+1:]...)
			return true
		}
	}
	return false
}

// CheckWinner determines the hand winner from the finished rounds so far,
// returning uuid.Nil while the hand is still undecided. The rules:
//
//   - two rounds won outright wins the hand;
//   - once any round is parda (tied), the first round won outright decides;
//   - three pardas fall to the player who is hand (the non-dealer).
//
// It is a pure function of Rounds and may be re-evaluated after every play.
func (h *Hand) CheckWinner() uuid.UUID {
	wins := make(map[uuid.UUID]int)
	pardas := 0
	finished := 0
	for _, r := range h.Rounds {
		if !r.Finished() {
			continue
		}
		finished++
		winners := r.Winners()
		if len(winners) == 1 {
			wins[winners[0]]++
		} else {
			pardas++
		}
	}

	for id, n := range wins {
		if n >= 2 {
			return id
		}
	}

	if pardas > 0 {
		for _, r := range h.Rounds {
			if !r.Finished() {
				continue
			}
			if winners := r.Winners(); len(winners) == 1 {
				return winners[0]
			}
		}
		if finished == 3 {
			return h.PlayerHand
		}
	}

	return uuid.Nil
}

// Clone returns a deep copy so operations can mutate a working copy and
// persist it only on success.
func (h *Hand) Clone() *Hand {
	cp := *h
	cp.CardsDealt = make(map[uuid.UUID][]Card, len(h.CardsDealt))
	for id, cards := range h.CardsDealt {
		cp.CardsDealt[id] = append([]Card{}, cards...)
	}
	cp.Rounds = make([]*Round, 0, len(h.Rounds))
	for _, r := range h.Rounds {
		cp.Rounds = append(cp.Rounds, r.clone())
	}
	cp.Envido = h.Envido.clone()
	return &cp
}
