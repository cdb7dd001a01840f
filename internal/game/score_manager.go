// internal/game/score_manager.go
package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/store"
)

// ScoreManager keeps the per-game score ledger and decides when a game is
// over. Hand points come from the truco level in force at the end of the
// hand; envido points are credited separately, as soon as the envido
// resolves.
type ScoreManager struct {
	scores store.ScoreStore
	games  store.GameStore
}

// NewScoreManager builds a manager over the given stores.
func NewScoreManager(scores store.ScoreStore, games store.GameStore) *ScoreManager {
	return &ScoreManager{scores: scores, games: games}
}

// GetScore fetches the ledger for a game.
func (m *ScoreManager) GetScore(ctx context.Context, gameID uuid.UUID) (*models.Score, error) {
	return m.scores.Get(ctx, gameID)
}

// InitializeScore creates the zeroed ledger for a game. It fails if one
// already exists.
func (m *ScoreManager) InitializeScore(ctx context.Context, gameID uuid.UUID) (*models.Score, error) {
	if _, err := m.scores.Get(ctx, gameID); err == nil {
		return nil, ErrInvalidAction
	}
	game, err := m.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}

	score := models.NewScore(gameID, game.PlayerIDs())
	if err := m.scores.Save(ctx, score); err != nil {
		return nil, fmt.Errorf("save score %s: %w", gameID, err)
	}
	return score, nil
}

// AssignTrucoScore credits the finished hand's points to its winner and
// closes the game once the winner reaches the target score. No points move
// after the game is decided.
func (m *ScoreManager) AssignTrucoScore(ctx context.Context, hand *models.Hand) (*models.Score, error) {
	if hand.Winner == uuid.Nil {
		return nil, ErrInvalidAction
	}
	return m.credit(ctx, hand.ID, hand.Winner, hand.TrucoStatus.Points())
}

// AssignEnvidoScore credits a resolved envido to its winner. Falta envido
// is worth whatever the winner needs to reach the target.
func (m *ScoreManager) AssignEnvidoScore(ctx context.Context, hand *models.Hand) (*models.Score, error) {
	if hand.Envido.Status != models.EnvidoFinished || hand.Envido.Winner == uuid.Nil {
		return nil, ErrInvalidAction
	}

	game, err := m.games.Get(ctx, hand.ID)
	if err != nil {
		return nil, err
	}
	score, err := m.scores.Get(ctx, hand.ID)
	if err != nil {
		return nil, err
	}

	points := hand.Envido.Points
	if m.chantedFalta(hand) {
		points = game.Rules.MaxScore - score.Score[hand.Envido.Winner]
	}
	return m.credit(ctx, hand.ID, hand.Envido.Winner, points)
}

// credit applies points to one player and closes the game at the target.
func (m *ScoreManager) credit(ctx context.Context, gameID, playerID uuid.UUID, points int) (*models.Score, error) {
	game, err := m.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Winner != uuid.Nil {
		return nil, ErrGameOver
	}

	score, err := m.scores.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if _, ok := score.Score[playerID]; !ok {
		return nil, ErrInvalidAction
	}

	score.Score[playerID] += points
	if score.Score[playerID] >= game.Rules.MaxScore {
		score.Score[playerID] = game.Rules.MaxScore
		game.Winner = playerID
		game.Status = models.GameFinished
		if err := m.games.Update(ctx, game); err != nil {
			return nil, fmt.Errorf("update game %s: %w", gameID, err)
		}
	}

	if err := m.scores.Update(ctx, score); err != nil {
		return nil, fmt.Errorf("update score %s: %w", gameID, err)
	}
	return score, nil
}

// chantedFalta reports whether the envido escalation reached falta envido
// and was accepted rather than declined at it.
func (m *ScoreManager) chantedFalta(hand *models.Hand) bool {
	chanted := hand.Envido.Chanted
	return len(chanted) > 0 &&
		chanted[len(chanted)-1] == models.FaltaEnvido &&
		hand.Envido.Points >= int(models.FaltaEnvido)
}
