// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jason-s-yu/truco/internal/models"
)

// ErrNotFound is returned when a referenced record does not exist. Callers
// match it with errors.Is.
var ErrNotFound = errors.New("not found")

// HandStore persists the live hand of each game, keyed by the shared
// game/hand id. Get returns a copy the caller may mutate freely; changes
// become visible only through Save or Update.
type HandStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Hand, error)
	Save(ctx context.Context, hand *models.Hand) error
	Update(ctx context.Context, hand *models.Hand) error
}

// ScoreStore persists the cumulative score ledger of each game.
type ScoreStore interface {
	Get(ctx context.Context, gameID uuid.UUID) (*models.Score, error)
	Save(ctx context.Context, score *models.Score) error
	Update(ctx context.Context, score *models.Score) error
}

// GameStore persists games and lists those with open seats.
type GameStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Game, error)
	Save(ctx context.Context, game *models.Game) error
	Update(ctx context.Context, game *models.Game) error
	ListAvailable(ctx context.Context) ([]*models.Game, error)
}

// PlayerStore persists the player directory.
type PlayerStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Player, error)
	Save(ctx context.Context, player *models.Player) error
	Update(ctx context.Context, player *models.Player) error
}

// Stores bundles the four collaborators a game server needs.
type Stores struct {
	Hands   HandStore
	Scores  ScoreStore
	Games   GameStore
	Players PlayerStore
}
