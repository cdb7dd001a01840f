// internal/game/truco_manager.go
package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/store"
)

// TrucoManager runs the truco escalation protocol. A chant locks the hand
// until the opponent accepts, declines or raises; levels only ever move one
// step at a time.
type TrucoManager struct {
	hands store.HandStore
	games store.GameStore
}

// NewTrucoManager builds a manager over the given stores.
func NewTrucoManager(hands store.HandStore, games store.GameStore) *TrucoManager {
	return &TrucoManager{hands: hands, games: games}
}

// ChantTruco opens a truco negotiation at the given level. Only the player
// holding chant_turn may chant, only while cards are in play, and only for
// the level one above the hand's current one. Envido negotiation takes
// precedence: while it is open no truco chant is possible.
func (m *TrucoManager) ChantTruco(ctx context.Context, handID, playerID uuid.UUID, level models.TrucoLevel) (*models.Hand, error) {
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

	if hand.Status != models.HandInProgress {
		return nil, ErrInvalidAction
	}
	if hand.ChantTurn != playerID {
		return nil, ErrNotYourTurn
	}
	if level != hand.TrucoStatus+1 || level > models.ValeCuatro {
		return nil, ErrInvalidTrucoLevel
	}

	hand.TrucoStatus = level
	hand.Status = models.HandLocked
	hand.ChantTurn = game.Opponent(playerID)

	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, nil
}

// RespondToTruco answers an open truco chant with a level. Echoing the
// chanted level accepts: play resumes and the chant register goes back to
// the chanter. One level above is a raise, flipping the negotiation back the
// other way. One level below is a decline, conceding the hand at that prior
// level, same as DeclineTruco.
func (m *TrucoManager) RespondToTruco(ctx context.Context, handID, playerID uuid.UUID, level models.TrucoLevel) (*models.Hand, error) {
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

	if hand.Status != models.HandLocked {
		return nil, ErrInvalidAction
	}
	if hand.ChantTurn != playerID {
		return nil, ErrNotYourTurn
	}

	switch {
	case level == hand.TrucoStatus:
		// Accept: resume play, the chanter chants next.
		hand.Status = models.HandInProgress
		hand.ChantTurn = game.Opponent(playerID)
	case level == hand.TrucoStatus+1 && level <= models.ValeCuatro:
		// Raise: the negotiation flips back at the higher level.
		hand.TrucoStatus = level
		hand.ChantTurn = game.Opponent(playerID)
	case level == hand.TrucoStatus-1:
		// Decline: the chanting side takes the hand at the prior level.
		hand.TrucoStatus--
		hand.Winner = game.Opponent(playerID)
		hand.Status = models.HandFinished
	default:
		return nil, ErrInvalidTrucoLevel
	}

	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, nil
}

// DeclineTruco refuses the open chant. The hand ends immediately, the
// chanting side wins, and the level scored is the one in force before the
// refused chant.
func (m *TrucoManager) DeclineTruco(ctx context.Context, handID, playerID uuid.UUID) (*models.Hand, error) {
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

	if hand.Status != models.HandLocked {
		return nil, ErrInvalidAction
	}
	if hand.ChantTurn != playerID {
		return nil, ErrNotYourTurn
	}

	hand.TrucoStatus--
	hand.Winner = game.Opponent(playerID)
	hand.Status = models.HandFinished

	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, nil
}
