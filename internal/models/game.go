// internal/models/game.go
package models

import "github.com/google/uuid"

// GameStatus tracks a game from its open-seats phase through play to its end.
type GameStatus string

const (
	GameWaiting    GameStatus = "WAITING"
	GameInProgress GameStatus = "IN_PROGRESS"
	GameFinished   GameStatus = "FINISHED"
)

// GameRules is the per-game configuration chosen at creation time.
type GameRules struct {
	NumPlayers  int  `json:"num_players"`
	MaxScore    int  `json:"max_score"`
	FlorEnabled bool `json:"flor_enabled"`
}

// Game groups the players of one match. It owns exactly one live Hand at a
// time, sharing its id, and is over once a player's cumulative score reaches
// Rules.MaxScore.
type Game struct {
	ID      uuid.UUID  `json:"id"`
	Players []*Player  `json:"players"`
	Rules   GameRules  `json:"rules"`
	Winner  uuid.UUID  `json:"winner"`
	Status  GameStatus `json:"status"`
}

// PlayerIDs returns the ids of the joined players in seating order.
func (g *Game) PlayerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.Players))
	for _, p := range g.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

// HasPlayer reports whether the player has joined this game.
func (g *Game) HasPlayer(id uuid.UUID) bool {
	for _, p := range g.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Full reports whether the game has reached its player quota.
func (g *Game) Full() bool {
	return len(g.Players) >= g.Rules.NumPlayers
}

// Opponent returns the other player's id in a two-player game, or uuid.Nil
// if the player is unknown.
func (g *Game) Opponent(id uuid.UUID) uuid.UUID {
	for _, p := range g.Players {
		if p.ID != id {
			return p.ID
		}
	}
	return uuid.Nil
}

// Clone returns a deep copy of the game.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Players = make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		player := *p
		cp.Players = append(cp.Players, &player)
	}
	return &cp
}
