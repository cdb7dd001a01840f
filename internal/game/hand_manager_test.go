// internal/game/hand_manager_test.go
package game

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/store"
)

func TestInitializeHandSetsRegisters(t *testing.T) {
	env := setupEnv(t)
	h := env.hand

	assert.Contains(t, []uuid.UUID{env.p1, env.p2}, h.PlayerDealer)
	assert.NotEqual(t, h.PlayerDealer, h.PlayerHand, "mano is the non-dealer")
	assert.Equal(t, h.PlayerHand, h.PlayerTurn, "mano leads")
	assert.Equal(t, h.PlayerHand, h.ChantTurn)
	assert.Equal(t, models.HandNotStarted, h.Status)
	assert.Equal(t, models.NoTruco, h.TrucoStatus)
	assert.Len(t, h.Rounds, 1)
	assert.Equal(t, models.EnvidoNotStarted, h.Envido.Status)
}

func TestInitializeHandRequiresFullGame(t *testing.T) {
	env := setupEnv(t)

	game, err := env.games.CreateGame(env.ctx, models.GameRules{})
	require.NoError(t, err)
	_, err = env.hands.NewHand(env.ctx, game.ID)
	require.NoError(t, err)

	_, err = env.hands.InitializeHand(env.ctx, game.ID)
	assert.ErrorIs(t, err, ErrInsufficientPlayers)
}

// One manager serves every game, and games are only serialized against
// themselves, so dealing for different games runs concurrently. The race
// detector flags any shared mutable state in the deal path.
func TestInitializeAndDealConcurrentGames(t *testing.T) {
	ctx := context.Background()
	stores := store.NewMemoryStores().Stores()
	games := NewGameManager(stores.Games, stores.Players)
	hands := NewHandManager(stores.Hands, stores.Games)

	const n = 16
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		g, err := games.CreateGame(ctx, models.GameRules{})
		require.NoError(t, err)
		for j := 0; j < 2; j++ {
			p, err := games.CreatePlayer(ctx, fmt.Sprintf("p%d-%d", i, j), nil)
			require.NoError(t, err)
			_, err = games.JoinGame(ctx, g.ID, p.ID)
			require.NoError(t, err)
		}
		_, err = hands.NewHand(ctx, g.ID)
		require.NoError(t, err)
		ids = append(ids, g.ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(gameID uuid.UUID) {
			defer wg.Done()
			hand, err := hands.InitializeHand(ctx, gameID)
			if err != nil {
				errs <- err
				return
			}
			if _, err := hands.DealCards(ctx, gameID, hand.PlayerDealer); err != nil {
				errs <- err
			}
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for _, id := range ids {
		hand, err := hands.GetHand(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.HandInProgress, hand.Status)
		for _, cards := range hand.CardsDealt {
			assert.Len(t, cards, 3)
		}
	}
}

func TestDealCards(t *testing.T) {
	env := setupEnv(t)

	// Only the dealer may deal.
	_, err := env.hands.DealCards(env.ctx, env.game.ID, env.mano)
	assert.ErrorIs(t, err, ErrInvalidAction)

	hand, err := env.hands.DealCards(env.ctx, env.game.ID, env.dealer)
	require.NoError(t, err)
	assert.Equal(t, models.HandInProgress, hand.Status)

	seen := make(map[string]bool)
	for _, id := range []uuid.UUID{env.p1, env.p2} {
		require.Len(t, hand.CardsDealt[id], 3)
		for _, c := range hand.CardsDealt[id] {
			key := string(c.Rank) + string(c.Suit)
			assert.False(t, seen[key], "card %s dealt twice", key)
			seen[key] = true
			assert.Equal(t, models.CardValue(c.Rank, c.Suit), c.Value)
		}
	}

	// Dealing again onto a live hand is rejected.
	_, err = env.hands.DealCards(env.ctx, env.game.ID, env.dealer)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestPlayCardValidationOrder(t *testing.T) {
	env := setupEnv(t)
	env.rig(t,
		[]models.Card{models.NewCard(models.As, models.Espada), models.NewCard(models.Cuatro, models.Oro), models.NewCard(models.Cinco, models.Copa)},
		[]models.Card{models.NewCard(models.Tres, models.Basto), models.NewCard(models.Seis, models.Oro), models.NewCard(models.Sota, models.Copa)},
	)

	// A card not in custody fails first, even off turn.
	_, err := env.hands.PlayCard(env.ctx, env.game.ID, env.dealer, models.Rey, models.Oro)
	assert.ErrorIs(t, err, ErrCardNotHeld)

	// Held card, wrong turn.
	_, err = env.hands.PlayCard(env.ctx, env.game.ID, env.dealer, models.Tres, models.Basto)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	env.playCard(t, env.mano, models.As, models.Espada)

	// The played card left custody; replaying it reports CardNotHeld.
	_, err = env.hands.PlayCard(env.ctx, env.game.ID, env.mano, models.As, models.Espada)
	assert.ErrorIs(t, err, ErrCardNotHeld)
}

func TestPlayCardAdvancesTurnAndRounds(t *testing.T) {
	env := setupEnv(t)
	env.rig(t,
		[]models.Card{models.NewCard(models.As, models.Espada), models.NewCard(models.Cuatro, models.Oro), models.NewCard(models.Cinco, models.Copa)},
		[]models.Card{models.NewCard(models.Tres, models.Basto), models.NewCard(models.Seis, models.Oro), models.NewCard(models.Sota, models.Copa)},
	)

	h := env.playCard(t, env.mano, models.As, models.Espada)
	assert.Equal(t, env.dealer, h.PlayerTurn)
	assert.Equal(t, env.dealer, h.ChantTurn, "chant turn follows player turn")
	assert.Len(t, h.Rounds, 1)

	h = env.playCard(t, env.dealer, models.Tres, models.Basto)
	assert.Len(t, h.Rounds, 2, "a finished round opens the next one")
	assert.Equal(t, env.mano, h.PlayerTurn, "the round winner leads the next round")
	assert.Equal(t, uuid.Nil, h.Winner)
}

func TestPlayCardRoundWinnerLeads(t *testing.T) {
	env := setupEnv(t)
	env.rig(t,
		[]models.Card{models.NewCard(models.Cuatro, models.Oro), models.NewCard(models.As, models.Espada), models.NewCard(models.Cinco, models.Copa)},
		[]models.Card{models.NewCard(models.Tres, models.Basto), models.NewCard(models.Seis, models.Oro), models.NewCard(models.Sota, models.Copa)},
	)

	env.playCard(t, env.mano, models.Cuatro, models.Oro)
	h := env.playCard(t, env.dealer, models.Tres, models.Basto)
	assert.Equal(t, env.dealer, h.PlayerTurn, "the dealer won the round and leads")
}

func TestPlayCardPardaKeepsCyclicOrder(t *testing.T) {
	env := setupEnv(t)
	env.rig(t,
		[]models.Card{models.NewCard(models.Siete, models.Copa), models.NewCard(models.As, models.Espada), models.NewCard(models.Cinco, models.Copa)},
		[]models.Card{models.NewCard(models.Siete, models.Basto), models.NewCard(models.Seis, models.Oro), models.NewCard(models.Sota, models.Copa)},
	)

	env.playCard(t, env.mano, models.Siete, models.Copa)
	h := env.playCard(t, env.dealer, models.Siete, models.Basto)
	assert.Equal(t, env.mano, h.PlayerTurn, "after a parda the turn passes on in order")
}

func TestPlayCardDecidesHand(t *testing.T) {
	env := setupEnv(t)
	env.rig(t,
		[]models.Card{models.NewCard(models.As, models.Espada), models.NewCard(models.As, models.Basto), models.NewCard(models.Cinco, models.Copa)},
		[]models.Card{models.NewCard(models.Tres, models.Basto), models.NewCard(models.Seis, models.Oro), models.NewCard(models.Sota, models.Copa)},
	)

	env.playCard(t, env.mano, models.As, models.Espada)
	env.playCard(t, env.dealer, models.Tres, models.Basto)
	env.playCard(t, env.mano, models.As, models.Basto)
	h := env.playCard(t, env.dealer, models.Seis, models.Oro)

	assert.Equal(t, env.mano, h.Winner)
	assert.Equal(t, models.HandFinished, h.Status)

	// No further card play once the hand is decided.
	_, err := env.hands.PlayCard(env.ctx, env.game.ID, env.mano, models.Cinco, models.Copa)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestGoToDeck(t *testing.T) {
	env := setupEnv(t)
	env.rig(t,
		[]models.Card{models.NewCard(models.As, models.Espada), models.NewCard(models.Cuatro, models.Oro), models.NewCard(models.Cinco, models.Copa)},
		[]models.Card{models.NewCard(models.Tres, models.Basto), models.NewCard(models.Seis, models.Oro), models.NewCard(models.Sota, models.Copa)},
	)

	// Only the player on turn may abandon.
	_, _, err := env.hands.GoToDeck(env.ctx, env.game.ID, env.dealer)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	h, envidoConceded, err := env.hands.GoToDeck(env.ctx, env.game.ID, env.mano)
	require.NoError(t, err)
	assert.Equal(t, env.dealer, h.Winner)
	assert.Equal(t, models.HandFinished, h.Status)

	// Abandoning in the first round concedes an unresolved envido for one
	// point.
	assert.True(t, envidoConceded)
	assert.Equal(t, models.EnvidoFinished, h.Envido.Status)
	assert.Equal(t, env.dealer, h.Envido.Winner)
	assert.Equal(t, 1, h.Envido.Points)
}

func TestGoToDeckAfterFirstRoundLeavesEnvidoAlone(t *testing.T) {
	env := setupEnv(t)
	env.rig(t,
		[]models.Card{models.NewCard(models.As, models.Espada), models.NewCard(models.Cuatro, models.Oro), models.NewCard(models.Cinco, models.Copa)},
		[]models.Card{models.NewCard(models.Tres, models.Basto), models.NewCard(models.Seis, models.Oro), models.NewCard(models.Sota, models.Copa)},
	)

	env.playCard(t, env.mano, models.As, models.Espada)
	env.playCard(t, env.dealer, models.Tres, models.Basto)

	h, envidoConceded, err := env.hands.GoToDeck(env.ctx, env.game.ID, env.mano)
	require.NoError(t, err)
	assert.False(t, envidoConceded, "the envido window closed with the first round")
	assert.Equal(t, models.EnvidoNotStarted, h.Envido.Status)
	assert.Equal(t, env.dealer, h.Winner)
}

func TestGoToDeckDuringTrucoChant(t *testing.T) {
	env := setupEnv(t)
	env.rig(t,
		[]models.Card{models.NewCard(models.As, models.Espada), models.NewCard(models.Cuatro, models.Oro), models.NewCard(models.Cinco, models.Copa)},
		[]models.Card{models.NewCard(models.Tres, models.Basto), models.NewCard(models.Seis, models.Oro), models.NewCard(models.Sota, models.Copa)},
	)

	_, err := env.truco.ChantTruco(env.ctx, env.game.ID, env.mano, models.Truco)
	require.NoError(t, err)

	// During negotiation the chanter cannot abandon; the responder can.
	_, _, err = env.hands.GoToDeck(env.ctx, env.game.ID, env.mano)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	h, _, err := env.hands.GoToDeck(env.ctx, env.game.ID, env.dealer)
	require.NoError(t, err)
	assert.Equal(t, env.mano, h.Winner)
	assert.Equal(t, models.NoTruco, h.TrucoStatus, "the refused chant does not score")
}
