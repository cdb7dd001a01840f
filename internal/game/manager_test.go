// internal/game/manager_test.go
package game

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/store"
)

// testEnv bundles managers over fresh in-memory stores with a seated
// two-player game and an initialized hand.
type testEnv struct {
	ctx    context.Context
	stores store.Stores
	games  *GameManager
	hands  *HandManager
	truco  *TrucoManager
	envido *EnvidoManager
	scores *ScoreManager
	game   *models.Game
	hand   *models.Hand
	dealer uuid.UUID
	mano   uuid.UUID
	p1, p2 uuid.UUID
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	stores := store.NewMemoryStores().Stores()

	env := &testEnv{
		ctx:    ctx,
		stores: stores,
		games:  NewGameManager(stores.Games, stores.Players),
		hands:  NewHandManager(stores.Hands, stores.Games),
		truco:  NewTrucoManager(stores.Hands, stores.Games),
		envido: NewEnvidoManager(stores.Hands, stores.Games),
		scores: NewScoreManager(stores.Scores, stores.Games),
	}

	game, err := env.games.CreateGame(ctx, models.GameRules{})
	require.NoError(t, err)

	for _, name := range []string{"alice", "bob"} {
		p, err := env.games.CreatePlayer(ctx, name, nil)
		require.NoError(t, err)
		game, err = env.games.JoinGame(ctx, game.ID, p.ID)
		require.NoError(t, err)
	}
	env.game = game
	env.p1 = game.Players[0].ID
	env.p2 = game.Players[1].ID

	_, err = env.hands.NewHand(ctx, game.ID)
	require.NoError(t, err)
	hand, err := env.hands.InitializeHand(ctx, game.ID)
	require.NoError(t, err)
	env.hand = hand
	env.dealer = hand.PlayerDealer
	env.mano = hand.PlayerHand

	_, err = env.scores.InitializeScore(ctx, game.ID)
	require.NoError(t, err)

	return env
}

// rig replaces the random deal with fixed custody and starts play. The mano
// (non-dealer) gets manoCards and leads the first round.
func (e *testEnv) rig(t *testing.T, manoCards, dealerCards []models.Card) *models.Hand {
	t.Helper()
	hand, err := e.stores.Hands.Get(e.ctx, e.game.ID)
	require.NoError(t, err)
	hand.CardsDealt[e.mano] = append([]models.Card{}, manoCards...)
	hand.CardsDealt[e.dealer] = append([]models.Card{}, dealerCards...)
	hand.Status = models.HandInProgress
	require.NoError(t, e.stores.Hands.Update(e.ctx, hand))
	e.hand = hand
	return hand
}

func (e *testEnv) reload(t *testing.T) *models.Hand {
	t.Helper()
	hand, err := e.stores.Hands.Get(e.ctx, e.game.ID)
	require.NoError(t, err)
	e.hand = hand
	return hand
}

func (e *testEnv) score(t *testing.T) *models.Score {
	t.Helper()
	score, err := e.scores.GetScore(e.ctx, e.game.ID)
	require.NoError(t, err)
	return score
}

// playCard is a shorthand that fails the test on error.
func (e *testEnv) playCard(t *testing.T, playerID uuid.UUID, rank models.Rank, suit models.Suit) *models.Hand {
	t.Helper()
	hand, err := e.hands.PlayCard(e.ctx, e.game.ID, playerID, rank, suit)
	require.NoError(t, err)
	e.hand = hand
	return hand
}
