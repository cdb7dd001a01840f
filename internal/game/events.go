// internal/game/events.go
package game

import (
	"github.com/google/uuid"

	"github.com/jason-s-yu/truco/internal/models"
)

// EventType names a server-to-client notification.
type EventType string

const (
	EventConnect           EventType = "connect"
	EventGamesUpdate       EventType = "gamesUpdate"
	EventJoinedGame        EventType = "joinedGame"
	EventNewPlayerJoined   EventType = "newPlayerJoined"
	EventGameStarted       EventType = "gameStarted"
	EventReceiveDealtCards EventType = "receiveDealedCards"
	EventCardPlayed        EventType = "cardPlayed"
	EventHandUpdate        EventType = "handUpdate"
	EventTrucoChanted      EventType = "trucoChanted"
	EventEnvidoChanted     EventType = "envidoChanted"
	EventEnvidoAccepted    EventType = "envidoAccepted"
	EventEnvidoDeclined    EventType = "envidoDeclined"
	EventEnvidoPlayed      EventType = "envidoPlayed"
	EventHandFinished      EventType = "handFinished"
	EventScoreUpdate       EventType = "scoreUpdate"
	EventGameFinished      EventType = "gameFinished"
	EventMessage           EventType = "message"
	EventError             EventType = "error"
)

// Event is the envelope every notification travels in.
type Event struct {
	Name    EventType   `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Notifier delivers events to connected players. The game server calls it
// after a successful state transition; errors go only to the acting player.
type Notifier interface {
	Send(playerID uuid.UUID, ev Event)
	Broadcast(ev Event)
}

// EventCard is the wire shape of a card; strength stays server side.
type EventCard struct {
	Rank models.Rank `json:"rank"`
	Suit models.Suit `json:"suit"`
}

// NewEventCard strips a card down to its public fields.
func NewEventCard(c models.Card) EventCard {
	return EventCard{Rank: c.Rank, Suit: c.Suit}
}

// NewEventCards converts a custody slice for a payload.
func NewEventCards(cards []models.Card) []EventCard {
	out := make([]EventCard, 0, len(cards))
	for _, c := range cards {
		out = append(out, NewEventCard(c))
	}
	return out
}

// RoundView is a finished-or-partial round as clients see it.
type RoundView struct {
	CardsPlayed map[string]*EventCard `json:"cards_played"`
}

// EnvidoView is the envido sub-state as clients see it.
type EnvidoView struct {
	Chanted     []models.EnvidoLevel   `json:"chanted"`
	Points      int                    `json:"points"`
	CardsPlayed map[string][]EventCard `json:"cards_played"`
	Winner      string                 `json:"winner,omitempty"`
	Status      models.EnvidoStatus    `json:"status"`
}

// HandView is the per-viewer projection of a hand. CardsDealt contains only
// the viewer's own custody; everything else in the hand is public.
type HandView struct {
	ID           uuid.UUID         `json:"id"`
	PlayerTurn   uuid.UUID         `json:"player_turn"`
	ChantTurn    uuid.UUID         `json:"chant_turn"`
	PlayerHand   uuid.UUID         `json:"player_hand"`
	PlayerDealer uuid.UUID         `json:"player_dealer"`
	CardsDealt   []EventCard       `json:"cards_dealt"`
	Rounds       []RoundView       `json:"rounds"`
	TrucoStatus  models.TrucoLevel `json:"truco_status"`
	Envido       *EnvidoView       `json:"envido,omitempty"`
	Winner       string            `json:"winner,omitempty"`
	Status       models.HandStatus `json:"status"`
}

// BuildHandView projects a hand for one viewer, hiding the other players'
// custody. Broadcasting hands must go through this per player.
func BuildHandView(h *models.Hand, viewerID uuid.UUID) HandView {
	view := HandView{
		ID:           h.ID,
		PlayerTurn:   h.PlayerTurn,
		ChantTurn:    h.ChantTurn,
		PlayerHand:   h.PlayerHand,
		PlayerDealer: h.PlayerDealer,
		CardsDealt:   NewEventCards(h.CardsDealt[viewerID]),
		TrucoStatus:  h.TrucoStatus,
		Status:       h.Status,
	}
	if h.Winner != uuid.Nil {
		view.Winner = h.Winner.String()
	}
	for _, r := range h.Rounds {
		rv := RoundView{CardsPlayed: make(map[string]*EventCard, len(r.CardsPlayed))}
		for id, c := range r.CardsPlayed {
			if c == nil {
				rv.CardsPlayed[id.String()] = nil
				continue
			}
			ec := NewEventCard(*c)
			rv.CardsPlayed[id.String()] = &ec
		}
		view.Rounds = append(view.Rounds, rv)
	}
	if h.Envido != nil {
		ev := &EnvidoView{
			Chanted:     h.Envido.Chanted,
			Points:      h.Envido.Points,
			CardsPlayed: make(map[string][]EventCard, len(h.Envido.CardsPlayed)),
			Status:      h.Envido.Status,
		}
		if h.Envido.Winner != uuid.Nil {
			ev.Winner = h.Envido.Winner.String()
		}
		for id, cards := range h.Envido.CardsPlayed {
			ev.CardsPlayed[id.String()] = NewEventCards(cards)
		}
		view.Envido = ev
	}
	return view
}

// GameSummary is the lobby-list projection of a joinable game.
type GameSummary struct {
	ID             uuid.UUID `json:"id"`
	CurrentPlayers int       `json:"currentPlayers"`
	NumPlayers     int       `json:"numPlayers"`
	MaxScore       int       `json:"maxScore"`
}

// NewGameSummaries projects games for a gamesUpdate broadcast.
func NewGameSummaries(games []*models.Game) []GameSummary {
	out := make([]GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, GameSummary{
			ID:             g.ID,
			CurrentPlayers: len(g.Players),
			NumPlayers:     g.Rules.NumPlayers,
			MaxScore:       g.Rules.MaxScore,
		})
	}
	return out
}
