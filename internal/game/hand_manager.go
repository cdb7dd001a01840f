// internal/game/hand_manager.go
package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/store"
)

// HandManager owns the hand state machine: dealing, card play, hand
// initialization and forfeits. Every operation loads the hand, validates,
// mutates a working copy and persists it only on success. One manager serves
// every game, so randomness goes through the locked top-level rand functions.
type HandManager struct {
	hands store.HandStore
	games store.GameStore
	deck  []models.Card
}

// NewHandManager builds a manager over the given stores.
func NewHandManager(hands store.HandStore, games store.GameStore) *HandManager {
	return &HandManager{
		hands: hands,
		games: games,
		deck:  models.NewDeck(),
	}
}

// GetHand fetches a hand by id.
func (m *HandManager) GetHand(ctx context.Context, id uuid.UUID) (*models.Hand, error) {
	return m.hands.Get(ctx, id)
}

// NewHand creates the empty hand record for a game. The hand shares the
// game's id; InitializeHand must run once the game fills.
func (m *HandManager) NewHand(ctx context.Context, gameID uuid.UUID) (*models.Hand, error) {
	hand := models.NewHand(gameID)
	if err := m.hands.Save(ctx, hand); err != nil {
		return nil, fmt.Errorf("save hand %s: %w", gameID, err)
	}
	return hand, nil
}

// InitializeHand picks a dealer at random, points the turn registers at the
// non-dealer (who is "hand" and leads the first round) and resets every
// per-deal field. It runs at the first deal and again after each concluded
// hand of the same game.
func (m *HandManager) InitializeHand(ctx context.Context, handID uuid.UUID) (*models.Hand, error) {
	hand, err := m.hands.Get(ctx, handID)
	if err != nil {
		return nil, err
	}
	game, err := m.games.Get(ctx, handID)
	if err != nil {
		return nil, err
	}
	if len(game.Players) < game.Rules.NumPlayers {
		return nil, ErrInsufficientPlayers
	}

	players := game.Players
	hand.PlayerDealer = players[rand.Intn(len(players))].ID
	hand.CardsDealt = make(map[uuid.UUID][]models.Card, len(players))
	for _, p := range players {
		hand.CardsDealt[p.ID] = []models.Card{}
		if p.ID != hand.PlayerDealer {
			hand.PlayerTurn = p.ID
			hand.ChantTurn = p.ID
			hand.PlayerHand = p.ID
		}
	}

	hand.Rounds = []*models.Round{models.NewRound(game.PlayerIDs())}
	hand.Status = models.HandNotStarted
	hand.TrucoStatus = models.NoTruco
	hand.Winner = uuid.Nil
	hand.Envido = models.NewEnvidoState()

	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, nil
}

// DealCards draws three distinct cards per player from the 40-card deck and
// moves the hand into play. Only the dealer may deal, and only once per
// initialized hand. The returned hand carries every player's custody; the
// caller must filter per player before revealing anything.
func (m *HandManager) DealCards(ctx context.Context, handID, playerID uuid.UUID) (*models.Hand, error) {
	hand, err := m.hands.Get(ctx, handID)
	if err != nil {
		return nil, err
	}
	game, err := m.games.Get(ctx, handID)
	if err != nil {
		return nil, err
	}

	if playerID != hand.PlayerDealer {
		return nil, ErrInvalidAction
	}
	if hand.Status != models.HandNotStarted {
		return nil, ErrInvalidAction
	}

	// Draw without replacement: a random permutation of deck indexes.
	order := rand.Perm(len(m.deck))
	next := 0
	for _, p := range game.Players {
		cards := make([]models.Card, 0, 3)
		for i := 0; i < 3; i++ {
			cards = append(cards, m.deck[order[next]])
			next++
		}
		hand.CardsDealt[p.ID] = cards
	}

	hand.Status = models.HandInProgress
	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, nil
}

// PlayCard places a card from the player's custody into the active round,
// advances the turn registers, opens the next round when the current one
// finishes, and re-evaluates the hand winner.
func (m *HandManager) PlayCard(ctx context.Context, handID, playerID uuid.UUID, rank models.Rank, suit models.Suit) (*models.Hand, error) {
	card := models.NewCard(rank, suit)

	hand, err := m.hands.Get(ctx, handID)
	if err != nil {
		return nil, err
	}
	game, err := m.games.Get(ctx, handID)
	if err != nil {
		return nil, err
	}

	if !hand.HasCard(playerID, card) {
		return nil, ErrCardNotHeld
	}
	if hand.PlayerTurn != playerID {
		return nil, ErrNotYourTurn
	}
	if hand.Status != models.HandInProgress {
		return nil, ErrInvalidAction
	}

	hand.RemoveCard(playerID, card)
	round := hand.CurrentRound()
	round.CardsPlayed[playerID] = &card

	hand.PlayerTurn = m.nextPlayerTurn(hand, game)
	hand.ChantTurn = hand.PlayerTurn

	if round.Finished() && len(hand.Rounds) < 3 {
		hand.Rounds = append(hand.Rounds, models.NewRound(game.PlayerIDs()))
	}

	if winner := hand.CheckWinner(); winner != uuid.Nil && hand.Winner == uuid.Nil {
		hand.Winner = winner
		hand.Status = models.HandFinished
	}

	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, nil
}

// GoToDeck forfeits the hand to the opponent. The acting player must hold
// whichever turn register is live: player_turn during card play, chant_turn
// while a truco or envido negotiation is pending. If the envido was never
// resolved and the hand is still in its first round, the forfeit also
// concedes the envido as a one-point decline; the second return value
// reports whether that happened so the caller scores it exactly once.
func (m *HandManager) GoToDeck(ctx context.Context, handID, playerID uuid.UUID) (*models.Hand, bool, error) {
	hand, err := m.hands.Get(ctx, handID)
	if err != nil {
		return nil, false, err
	}
	game, err := m.games.Get(ctx, handID)
	if err != nil {
		return nil, false, err
	}
	if !game.HasPlayer(playerID) {
		return nil, false, ErrInvalidAction
	}

	switch hand.Status {
	case models.HandInProgress:
		if hand.PlayerTurn != playerID {
			return nil, false, ErrNotYourTurn
		}
	case models.HandLocked, models.HandEnvido:
		if hand.ChantTurn != playerID {
			return nil, false, ErrNotYourTurn
		}
		// Abandoning under an unanswered truco chant is a refusal: the
		// chanted level never took effect.
		if hand.Status == models.HandLocked {
			hand.TrucoStatus--
		}
	default:
		return nil, false, ErrInvalidAction
	}

	opponent := game.Opponent(playerID)

	envidoConceded := false
	if hand.Envido.Status != models.EnvidoFinished && len(hand.Rounds) < 2 {
		switch hand.Envido.Status {
		case models.EnvidoChanting:
			// Declined levels count except the refused one, plus the point
			// for not accepting.
			for _, level := range hand.Envido.Chanted[:len(hand.Envido.Chanted)-1] {
				hand.Envido.Points += int(level)
			}
			hand.Envido.Points++
		case models.EnvidoAccepted:
			// Points were already fixed on acceptance.
		default:
			hand.Envido.Points = 1
		}
		hand.Envido.Winner = opponent
		hand.Envido.Status = models.EnvidoFinished
		envidoConceded = true
	}

	hand.Winner = opponent
	hand.Status = models.HandFinished

	if err := m.hands.Update(ctx, hand); err != nil {
		return nil, false, fmt.Errorf("update hand %s: %w", handID, err)
	}
	return hand, envidoConceded, nil
}

// nextPlayerTurn applies round-opening precedence: the winner of a just
// finished, untied round leads the next one; otherwise the turn passes to
// the next player in seating order.
func (m *HandManager) nextPlayerTurn(hand *models.Hand, game *models.Game) uuid.UUID {
	round := hand.CurrentRound()
	if round != nil && round.Finished() {
		if winners := round.Winners(); len(winners) == 1 {
			return winners[0]
		}
	}

	players := game.Players
	for i, p := range players {
		if p.ID == hand.PlayerTurn {
			return players[(i+1)%len(players)].ID
		}
	}
	return hand.PlayerTurn
}
