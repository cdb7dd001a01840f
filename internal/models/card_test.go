// internal/models/card_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckHas40DistinctCards(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, 40)

	seen := make(map[string]bool)
	for _, c := range deck {
		key := string(c.Rank) + string(c.Suit)
		assert.False(t, seen[key], "duplicate card %s", key)
		seen[key] = true
		assert.GreaterOrEqual(t, c.Value, 0)
		assert.LessOrEqual(t, c.Value, 13)
	}
}

func TestCardValueOrdering(t *testing.T) {
	cases := []struct {
		rank  Rank
		suit  Suit
		value int
	}{
		{As, Espada, 13},
		{As, Basto, 12},
		{Siete, Espada, 11},
		{Siete, Oro, 10},
		{Tres, Copa, 9},
		{Dos, Oro, 8},
		{As, Oro, 7},
		{As, Copa, 7},
		{Rey, Espada, 6},
		{Caballo, Basto, 5},
		{Sota, Oro, 4},
		{Siete, Copa, 3},
		{Siete, Basto, 3},
		{Seis, Espada, 2},
		{Cinco, Oro, 1},
		{Cuatro, Espada, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.value, CardValue(tc.rank, tc.suit), "%s of %s", tc.rank, tc.suit)
	}
}

func TestBeatsAndTies(t *testing.T) {
	aceEspada := NewCard(As, Espada)
	aceBasto := NewCard(As, Basto)
	falseAceOro := NewCard(As, Oro)
	falseAceCopa := NewCard(As, Copa)

	assert.True(t, aceEspada.Beats(aceBasto))
	assert.False(t, aceBasto.Beats(aceEspada))

	// The two false aces tie: neither beats the other.
	assert.False(t, falseAceOro.Beats(falseAceCopa))
	assert.False(t, falseAceCopa.Beats(falseAceOro))
}

func TestSameIsIdentityNotStrength(t *testing.T) {
	sevenCopa := NewCard(Siete, Copa)
	sevenBasto := NewCard(Siete, Basto)

	// Equal strength, different physical cards.
	assert.Equal(t, sevenCopa.Value, sevenBasto.Value)
	assert.False(t, sevenCopa.Same(sevenBasto))
	assert.True(t, sevenCopa.Same(NewCard(Siete, Copa)))
}

func TestEnvidoValue(t *testing.T) {
	assert.Equal(t, 7, Siete.EnvidoValue())
	assert.Equal(t, 1, As.EnvidoValue())
	assert.Equal(t, 0, Sota.EnvidoValue())
	assert.Equal(t, 0, Caballo.EnvidoValue())
	assert.Equal(t, 0, Rey.EnvidoValue())
}
