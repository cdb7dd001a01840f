// internal/game/envido_manager.go
package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/store"
)

// EnvidoManager runs the envido protocol: chanting and raising before the
// first round closes, then the card reveal that decides the points.
type EnvidoManager struct {
	hands store.HandStore
	games store.GameStore
}

// NewEnvidoManager builds a manager over the given stores.
func NewEnvidoManager(hands store.HandStore, games store.GameStore) *EnvidoManager {
	return &EnvidoManager{hands: hands, games: games}
}

// ChantEnvido opens the envido, or raises an open one when called by the
// player facing the chant. It is only possible while the first round is
// still incomplete, before the envido resolved, from regular play (an open
// truco chant blocks it), and only by the chant_turn holder.
func (m *EnvidoManager) ChantEnvido(ctx context.Context, handID, playerID uuid.UUID, level models.EnvidoLevel) (*models.Hand, error) {
	hand, err := m.hands.Get(ctx, handID)
	if err != nil {
		return nil, err
	}
	game, err := m.games.Get(ctx, handID)
	if err != nil {
		return nil, err
	}
	if !game.HasPlayer(playerID) {
		return nil, ErrInvalidAction
	}

	if len(hand.CardsDealt[playerID]) == 0 {
		return nil, ErrCardsNotDealt
	}
	if len(hand.Rounds) > 1 || hand.CurrentRound().Finished() {
		return nil, ErrTooLateToChant
	}
	if hand.Envido.Status == models.EnvidoFinished || hand.Envido.Status == models.EnvidoAccepted {
		return nil, ErrEnvidoFinished
	}
	if hand.Status != models.HandInProgress && hand.Status != models.HandEnvido {
		return nil, ErrInvalidAction
	}
	if hand.ChantTurn != playerID {
		return nil, ErrNotYourTurn
	}
	if err := validateEnvidoLevel(hand.Envido.Chanted, level); err != nil {
		return nil, err
	}

	if hand.Envido.CardsPlayed == nil {
		hand.Envido.CardsPlayed = make(map[uuid.UUID][]models.Card, len(game.Players))
	}
	hand.Envido.Chanted = append(hand.Envido.Chanted, level)
	hand.Envido.Status = models.EnvidoChanting
	hand.ChantTurn = game.Opponent(playerID)
	hand.Status = models.HandEnvido

	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, nil
}

// AcceptEnvido closes the negotiation at the chanted stake. The points at
// play become the sum of every chanted level, and the turn passes back so
// the chanter reveals first.
func (m *EnvidoManager) AcceptEnvido(ctx context.Context, handID, playerID uuid.UUID) (*models.Hand, error) {
	hand, game, err := m.openNegotiation(ctx, handID, playerID)
	if err != nil {
		return nil, err
	}

	points := 0
	for _, level := range hand.Envido.Chanted {
		points += int(level)
	}
	hand.Envido.Points = points
	hand.Envido.Status = models.EnvidoAccepted
	hand.ChantTurn = game.Opponent(playerID)

	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, nil
}

// DeclineEnvido refuses the last chanted level. Every level before it still
// counts, plus one point for the refusal; the chanting side takes them and
// card play resumes.
func (m *EnvidoManager) DeclineEnvido(ctx context.Context, handID, playerID uuid.UUID) (*models.Hand, error) {
	hand, game, err := m.openNegotiation(ctx, handID, playerID)
	if err != nil {
		return nil, err
	}

	points := 1
	for _, level := range hand.Envido.Chanted[:len(hand.Envido.Chanted)-1] {
		points += int(level)
	}
	hand.Envido.Points = points
	hand.Envido.Winner = game.Opponent(playerID)
	hand.Envido.Status = models.EnvidoFinished
	hand.Status = models.HandInProgress
	hand.ChantTurn = hand.PlayerTurn

	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, nil
}

// PlayEnvido reveals one or two cards toward the player's envido total. Once
// both players have revealed, the totals are scored, ties go to the hand
// player, and regular card play resumes. The revealed cards stay in custody
// for the truco phase.
func (m *EnvidoManager) PlayEnvido(ctx context.Context, handID, playerID uuid.UUID, cards []models.Card) (*models.Hand, error) {
	hand, err := m.hands.Get(ctx, handID)
	if err != nil {
		return nil, err
	}
	game, err := m.games.Get(ctx, handID)
	if err != nil {
		return nil, err
	}
	if !game.HasPlayer(playerID) {
		return nil, ErrInvalidAction
	}

	if hand.Envido.Status != models.EnvidoAccepted {
		return nil, ErrInvalidAction
	}
	if hand.ChantTurn != playerID {
		return nil, ErrNotYourTurn
	}
	if len(cards) == 0 || len(cards) > 2 || len(hand.Envido.CardsPlayed[playerID]) > 0 {
		return nil, ErrInvalidAction
	}
	for _, c := range cards {
		if !hand.HasCard(playerID, c) {
			return nil, ErrCardNotHeld
		}
	}

	played := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		played = append(played, models.NewCard(c.Rank, c.Suit))
	}
	hand.Envido.CardsPlayed[playerID] = played
	hand.ChantTurn = game.Opponent(playerID)

	if hand.Envido.AllPlayed(len(game.Players)) {
		m.resolveEnvido(hand, game)
	}

	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, nil
}

// resolveEnvido compares both reveals and closes the envido.
func (m *EnvidoManager) resolveEnvido(hand *models.Hand, game *models.Game) {
	best := -1
	winner := uuid.Nil
	tied := false
	for _, p := range game.Players {
		score := models.EnvidoScore(hand.Envido.CardsPlayed[p.ID])
		switch {
		case score > best:
			best = score
			winner = p.ID
			tied = false
		case score == best:
			tied = true
		}
	}
	if tied {
		winner = hand.PlayerHand
	}

	hand.Envido.Winner = winner
	hand.Envido.Status = models.EnvidoFinished
	hand.Status = models.HandInProgress
	hand.ChantTurn = hand.PlayerTurn
}

// openNegotiation loads the hand and checks the caller may answer the
// pending chant.
func (m *EnvidoManager) openNegotiation(ctx context.Context, handID, playerID uuid.UUID) (*models.Hand, *models.Game, error) {
	hand, err := m.hands.Get(ctx, handID)
	if err != nil {
		return nil, nil, err
	}
	game, err := m.games.Get(ctx, handID)
	if err != nil {
		return nil, nil, err
	}
	if !game.HasPlayer(playerID) {
		return nil, nil, ErrInvalidAction
	}
	if hand.Envido.Status != models.EnvidoChanting {
		return nil, nil, ErrInvalidAction
	}
	if hand.ChantTurn != playerID {
		return nil, nil, ErrNotYourTurn
	}
	return hand, game, nil
}

// validateEnvidoLevel enforces escalation: each chant must outrank the last
// one, except that a plain envido may answer another plain envido.
func validateEnvidoLevel(chanted []models.EnvidoLevel, level models.EnvidoLevel) error {
	if level != models.Envido && level != models.RealEnvido && level != models.FaltaEnvido {
		return ErrInvalidEnvidoLevel
	}
	if len(chanted) == 0 {
		return nil
	}
	last := chanted[len(chanted)-1]
	if level <= last && last != models.Envido {
		return ErrInvalidEnvidoLevel
	}
	return nil
}
