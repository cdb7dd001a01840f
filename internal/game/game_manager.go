// internal/game/game_manager.go
package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/store"
)

const (
	defaultMaxScore = 15
	playersPerGame  = 2
)

// GameManager handles the game and player directory: creating games,
// seating players and listing joinable games.
type GameManager struct {
	games   store.GameStore
	players store.PlayerStore
}

// NewGameManager builds a manager over the given stores.
func NewGameManager(games store.GameStore, players store.PlayerStore) *GameManager {
	return &GameManager{games: games, players: players}
}

// GetGame fetches a game by id.
func (m *GameManager) GetGame(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	return m.games.Get(ctx, id)
}

// CreateGame registers a new two-player game in the waiting state. Flor is
// not supported; asking for it is rejected outright rather than silently
// ignored.
func (m *GameManager) CreateGame(ctx context.Context, rules models.GameRules) (*models.Game, error) {
	if rules.FlorEnabled {
		return nil, ErrInvalidAction
	}
	rules.NumPlayers = playersPerGame
	if rules.MaxScore <= 0 {
		rules.MaxScore = defaultMaxScore
	}

	game := &models.Game{
		ID:      uuid.New(),
		Players: []*models.Player{},
		Rules:   rules,
		Status:  models.GameWaiting,
	}
	if err := m.games.Save(ctx, game); err != nil {
		return nil, fmt.Errorf("save game %s: %w", game.ID, err)
	}
	return game, nil
}

// JoinGame seats a player in a waiting game. Once the quota fills the game
// moves to the in-progress state; a second seat request from the same
// player is a no-op.
func (m *GameManager) JoinGame(ctx context.Context, gameID, playerID uuid.UUID) (*models.Game, error) {
	game, err := m.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.HasPlayer(playerID) {
		return game, nil
	}
	if game.Full() || game.Status != models.GameWaiting {
		return nil, ErrGameFull
	}

	player, err := m.players.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	game.Players = append(game.Players, player)
	if game.Full() {
		game.Status = models.GameInProgress
	}

	if err := m.games.Update(ctx, game); err != nil {
		return nil, fmt.Errorf("update game %s: %w", gameID, err)
	}
	return game, nil
}

// AvailableGames lists the games still waiting for players.
func (m *GameManager) AvailableGames(ctx context.Context) ([]*models.Game, error) {
	return m.games.ListAvailable(ctx)
}

// CreatePlayer registers a player. An empty name gets a placeholder derived
// from the player id.
func (m *GameManager) CreatePlayer(ctx context.Context, name string, user *models.User) (*models.Player, error) {
	player := &models.Player{
		ID:   uuid.New(),
		Name: name,
		User: user,
	}
	if player.Name == "" {
		player.Name = "player-" + player.ID.String()[:8]
	}
	if err := m.players.Save(ctx, player); err != nil {
		return nil, fmt.Errorf("save player %s: %w", player.ID, err)
	}
	return player, nil
}

// GetPlayer fetches a player by id.
func (m *GameManager) GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	return m.players.Get(ctx, id)
}
