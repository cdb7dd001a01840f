// internal/game/game_manager_test.go
package game

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/store"
)

func TestCreateGameDefaults(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemoryStores().Stores()
	gm := NewGameManager(stores.Games, stores.Players)

	game, err := gm.CreateGame(ctx, models.GameRules{})
	require.NoError(t, err)
	assert.Equal(t, 2, game.Rules.NumPlayers)
	assert.Equal(t, 15, game.Rules.MaxScore)
	assert.Equal(t, models.GameWaiting, game.Status)

	game, err = gm.CreateGame(ctx, models.GameRules{MaxScore: 30})
	require.NoError(t, err)
	assert.Equal(t, 30, game.Rules.MaxScore)

	_, err = gm.CreateGame(ctx, models.GameRules{FlorEnabled: true})
	assert.ErrorIs(t, err, ErrInvalidAction, "flor is not supported")
}

func TestJoinGame(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemoryStores().Stores()
	gm := NewGameManager(stores.Games, stores.Players)

	game, err := gm.CreateGame(ctx, models.GameRules{})
	require.NoError(t, err)

	alice, err := gm.CreatePlayer(ctx, "alice", nil)
	require.NoError(t, err)
	bob, err := gm.CreatePlayer(ctx, "bob", nil)
	require.NoError(t, err)

	game, err = gm.JoinGame(ctx, game.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameWaiting, game.Status)

	// Re-joining is a no-op, not a second seat.
	game, err = gm.JoinGame(ctx, game.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, game.Players, 1)

	game, err = gm.JoinGame(ctx, game.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GameInProgress, game.Status)

	carol, err := gm.CreatePlayer(ctx, "carol", nil)
	require.NoError(t, err)
	_, err = gm.JoinGame(ctx, game.ID, carol.ID)
	assert.ErrorIs(t, err, ErrGameFull)

	// An unknown player cannot join.
	_, err = gm.JoinGame(ctx, game.ID, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAvailableGames(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemoryStores().Stores()
	gm := NewGameManager(stores.Games, stores.Players)

	open, err := gm.AvailableGames(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	g1, err := gm.CreateGame(ctx, models.GameRules{})
	require.NoError(t, err)
	g2, err := gm.CreateGame(ctx, models.GameRules{})
	require.NoError(t, err)

	open, err = gm.AvailableGames(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	// A full game drops off the list.
	for _, name := range []string{"alice", "bob"} {
		p, err := gm.CreatePlayer(ctx, name, nil)
		require.NoError(t, err)
		_, err = gm.JoinGame(ctx, g1.ID, p.ID)
		require.NoError(t, err)
	}

	open, err = gm.AvailableGames(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, g2.ID, open[0].ID)
}

func TestCreatePlayerPlaceholderName(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemoryStores().Stores()
	gm := NewGameManager(stores.Games, stores.Players)

	p, err := gm.CreatePlayer(ctx, "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Name)

	got, err := gm.GetPlayer(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)

	// Full-game join failure above exercises JoinGame; wrong ids fail here.
	_, err = gm.GetPlayer(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFullHandFlowAcrossManagers(t *testing.T) {
	env := setupEnv(t)
	env.rig(t,
		[]models.Card{models.NewCard(models.As, models.Espada), models.NewCard(models.As, models.Basto), models.NewCard(models.Cinco, models.Copa)},
		[]models.Card{models.NewCard(models.Tres, models.Basto), models.NewCard(models.Seis, models.Oro), models.NewCard(models.Sota, models.Copa)},
	)

	// Envido first: chanted, declined, one point to the mano.
	_, err := env.envido.ChantEnvido(env.ctx, env.game.ID, env.mano, models.Envido)
	require.NoError(t, err)
	h, err := env.envido.DeclineEnvido(env.ctx, env.game.ID, env.dealer)
	require.NoError(t, err)
	_, err = env.scores.AssignEnvidoScore(env.ctx, h)
	require.NoError(t, err)

	// Truco chanted and accepted, then the mano wins two straight rounds.
	_, err = env.truco.ChantTruco(env.ctx, env.game.ID, env.mano, models.Truco)
	require.NoError(t, err)
	_, err = env.truco.RespondToTruco(env.ctx, env.game.ID, env.dealer, models.Truco)
	require.NoError(t, err)

	env.playCard(t, env.mano, models.As, models.Espada)
	env.playCard(t, env.dealer, models.Tres, models.Basto)
	env.playCard(t, env.mano, models.As, models.Basto)
	h = env.playCard(t, env.dealer, models.Seis, models.Oro)
	require.Equal(t, env.mano, h.Winner)

	_, err = env.scores.AssignTrucoScore(env.ctx, h)
	require.NoError(t, err)

	score := env.score(t)
	assert.Equal(t, 3, score.Score[env.mano], "one envido point plus two truco points")
	assert.Equal(t, 0, score.Score[env.dealer])

	// The next deal resets the hand for the same game.
	h, err = env.hands.InitializeHand(env.ctx, env.game.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HandNotStarted, h.Status)
	assert.Equal(t, uuid.Nil, h.Winner)
	assert.Len(t, h.Rounds, 1)
}
