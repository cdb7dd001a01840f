// internal/models/score.go
package models

import "github.com/google/uuid"

// Score is the cumulative point ledger of one game, created at the first
// deal and mutated additively only.
type Score struct {
	GameID uuid.UUID         `json:"game_id"`
	Score  map[uuid.UUID]int `json:"score"`
}

// NewScore returns a zeroed ledger for the given players.
func NewScore(gameID uuid.UUID, playerIDs []uuid.UUID) *Score {
	s := &Score{GameID: gameID, Score: make(map[uuid.UUID]int, len(playerIDs))}
	for _, id := range playerIDs {
		s.Score[id] = 0
	}
	return s
}

// Clone returns a deep copy of the ledger.
func (s *Score) Clone() *Score {
	cp := &Score{GameID: s.GameID, Score: make(map[uuid.UUID]int, len(s.Score))}
	for id, pts := range s.Score {
		cp.Score[id] = pts
	}
	return cp
}
