// internal/store/memory_test.go
package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/truco/internal/models"
)

func TestMemoryHandStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores().Stores()

	_, err := stores.Hands.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	hand := models.NewHand(uuid.New())
	p := uuid.New()
	hand.CardsDealt[p] = []models.Card{models.NewCard(models.As, models.Espada)}
	require.NoError(t, stores.Hands.Save(ctx, hand))

	got, err := stores.Hands.Get(ctx, hand.ID)
	require.NoError(t, err)
	assert.Equal(t, hand.ID, got.ID)
	require.Len(t, got.CardsDealt[p], 1)

	// Gets hand out copies: mutating one must not leak into the store.
	got.CardsDealt[p] = nil
	again, err := stores.Hands.Get(ctx, hand.ID)
	require.NoError(t, err)
	assert.Len(t, again.CardsDealt[p], 1)
}

func TestMemoryGameStoreListAvailable(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores().Stores()

	waiting := &models.Game{
		ID:     uuid.New(),
		Rules:  models.GameRules{NumPlayers: 2, MaxScore: 15},
		Status: models.GameWaiting,
	}
	full := &models.Game{
		ID: uuid.New(),
		Players: []*models.Player{
			{ID: uuid.New(), Name: "alice"},
			{ID: uuid.New(), Name: "bob"},
		},
		Rules:  models.GameRules{NumPlayers: 2, MaxScore: 15},
		Status: models.GameInProgress,
	}
	require.NoError(t, stores.Games.Save(ctx, waiting))
	require.NoError(t, stores.Games.Save(ctx, full))

	open, err := stores.Games.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, waiting.ID, open[0].ID)
}

func TestMemoryScoreStore(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores().Stores()

	p1, p2 := uuid.New(), uuid.New()
	score := models.NewScore(uuid.New(), []uuid.UUID{p1, p2})
	require.NoError(t, stores.Scores.Save(ctx, score))

	got, err := stores.Scores.Get(ctx, score.GameID)
	require.NoError(t, err)
	got.Score[p1] = 7
	require.NoError(t, stores.Scores.Update(ctx, got))

	again, err := stores.Scores.Get(ctx, score.GameID)
	require.NoError(t, err)
	assert.Equal(t, 7, again.Score[p1])
	assert.Equal(t, 0, again.Score[p2])
}

func TestMemoryPlayerStore(t *testing.T) {
	ctx := context.Background()
	stores := NewMemoryStores().Stores()

	player := &models.Player{ID: uuid.New(), Name: "alice"}
	require.NoError(t, stores.Players.Save(ctx, player))

	got, err := stores.Players.Get(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	_, err = stores.Players.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
