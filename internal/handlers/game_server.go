// internal/handlers/game_server.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/truco/internal/database"
	"github.com/jason-s-yu/truco/internal/game"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/store"
)

// GameServer wires the rule managers, the stores and the connection layer
// together. Every player action flows through here: the server serializes
// actions per game, applies the rules, persists the result and emits the
// events clients react to.
type GameServer struct {
	Stores   store.Stores
	Games    *game.GameManager
	Hands    *game.HandManager
	Truco    *game.TrucoManager
	Envido   *game.EnvidoManager
	Scores   *game.ScoreManager
	Notifier game.Notifier
	Logger   *logrus.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewGameServer(stores store.Stores, notifier game.Notifier, logger *logrus.Logger) *GameServer {
	return &GameServer{
		Stores:   stores,
		Games:    game.NewGameManager(stores.Games, stores.Players),
		Hands:    game.NewHandManager(stores.Hands, stores.Games),
		Truco:    game.NewTrucoManager(stores.Hands, stores.Games),
		Envido:   game.NewEnvidoManager(stores.Hands, stores.Games),
		Scores:   game.NewScoreManager(stores.Scores, stores.Games),
		Notifier: notifier,
		Logger:   logger,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// gameLock returns the mutex serializing actions for one game.
func (gs *GameServer) gameLock(gameID uuid.UUID) *sync.Mutex {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	l, ok := gs.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		gs.locks[gameID] = l
	}
	return l
}

// CreateGame registers a new game with the creator already seated and
// announces the updated open-games list.
func (gs *GameServer) CreateGame(ctx context.Context, playerID uuid.UUID, rules models.GameRules) error {
	g, err := gs.Games.CreateGame(ctx, rules)
	if err != nil {
		return err
	}
	return gs.JoinGame(ctx, playerID, g.ID)
}

// JoinGame seats the player and, once the table fills, initializes the hand
// and the score ledger and starts the game.
func (gs *GameServer) JoinGame(ctx context.Context, playerID, gameID uuid.UUID) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	g, err := gs.Games.JoinGame(ctx, gameID, playerID)
	if err != nil {
		return err
	}

	gs.Notifier.Send(playerID, game.Event{Name: game.EventJoinedGame, Payload: map[string]interface{}{
		"game_id": g.ID,
		"players": g.Players,
	}})
	for _, id := range g.PlayerIDs() {
		if id != playerID {
			gs.Notifier.Send(id, game.Event{Name: game.EventNewPlayerJoined, Payload: map[string]interface{}{
				"game_id":   g.ID,
				"player_id": playerID,
			}})
		}
	}

	if g.Full() {
		if _, err := gs.Hands.NewHand(ctx, g.ID); err != nil {
			return err
		}
		if _, err := gs.Scores.InitializeScore(ctx, g.ID); err != nil {
			return err
		}
		hand, err := gs.Hands.InitializeHand(ctx, g.ID)
		if err != nil {
			return err
		}
		for _, id := range g.PlayerIDs() {
			gs.Notifier.Send(id, game.Event{Name: game.EventGameStarted, Payload: game.BuildHandView(hand, id)})
		}
		gs.Logger.Infof("Game %s started with %d players", g.ID, len(g.Players))
	}

	gs.broadcastOpenGames(ctx)
	return nil
}

// ListGames sends the open-games list to one player.
func (gs *GameServer) ListGames(ctx context.Context, playerID uuid.UUID) error {
	open, err := gs.Games.AvailableGames(ctx)
	if err != nil {
		return err
	}
	gs.Notifier.Send(playerID, game.Event{Name: game.EventGamesUpdate, Payload: game.NewGameSummaries(open)})
	return nil
}

// DealCards deals the hand and reveals each player's custody privately.
func (gs *GameServer) DealCards(ctx context.Context, playerID, gameID uuid.UUID) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	hand, err := gs.Hands.DealCards(ctx, gameID, playerID)
	if err != nil {
		return err
	}
	for id, cards := range hand.CardsDealt {
		gs.Notifier.Send(id, game.Event{Name: game.EventReceiveDealtCards, Payload: game.NewEventCards(cards)})
	}
	gs.notifyHand(ctx, hand)
	return nil
}

// PlayCard applies a card play and runs the end-of-hand flow if it decided
// the hand.
func (gs *GameServer) PlayCard(ctx context.Context, playerID, gameID uuid.UUID, rank models.Rank, suit models.Suit) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	hand, err := gs.Hands.PlayCard(ctx, gameID, playerID, rank, suit)
	if err != nil {
		return err
	}

	g, err := gs.Games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	for _, id := range g.PlayerIDs() {
		gs.Notifier.Send(id, game.Event{Name: game.EventCardPlayed, Payload: map[string]interface{}{
			"player_id": playerID,
			"card":      game.NewEventCard(models.NewCard(rank, suit)),
		}})
	}
	gs.notifyHand(ctx, hand)

	if hand.Status == models.HandFinished {
		return gs.finishHand(ctx, g, hand)
	}
	return nil
}

// ChantTruco opens a truco negotiation. Raises go through RespondToTruco.
func (gs *GameServer) ChantTruco(ctx context.Context, playerID, gameID uuid.UUID, level models.TrucoLevel) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	hand, err := gs.Truco.ChantTruco(ctx, gameID, playerID, level)
	if err != nil {
		return err
	}
	gs.notifyGame(ctx, gameID, game.Event{Name: game.EventTrucoChanted, Payload: map[string]interface{}{
		"player_id": playerID,
		"level":     hand.TrucoStatus,
	}})
	gs.notifyHand(ctx, hand)
	return nil
}

// RespondToTruco accepts the chanted level or raises it by one.
func (gs *GameServer) RespondToTruco(ctx context.Context, playerID, gameID uuid.UUID, level models.TrucoLevel) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	hand, err := gs.Truco.RespondToTruco(ctx, gameID, playerID, level)
	if err != nil {
		return err
	}
	gs.notifyGame(ctx, gameID, game.Event{Name: game.EventTrucoChanted, Payload: map[string]interface{}{
		"player_id": playerID,
		"level":     hand.TrucoStatus,
		"accepted":  hand.Status == models.HandInProgress,
	}})
	gs.notifyHand(ctx, hand)

	// Responding one level below the chant is a decline and ends the hand.
	if hand.Status == models.HandFinished {
		g, err := gs.Games.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		return gs.finishHand(ctx, g, hand)
	}
	return nil
}

// DeclineTruco refuses the open chant and ends the hand.
func (gs *GameServer) DeclineTruco(ctx context.Context, playerID, gameID uuid.UUID) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	hand, err := gs.Truco.DeclineTruco(ctx, gameID, playerID)
	if err != nil {
		return err
	}
	g, err := gs.Games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	gs.notifyHand(ctx, hand)
	return gs.finishHand(ctx, g, hand)
}

// ChantEnvido opens the envido or raises an open one.
func (gs *GameServer) ChantEnvido(ctx context.Context, playerID, gameID uuid.UUID, level models.EnvidoLevel) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	hand, err := gs.Envido.ChantEnvido(ctx, gameID, playerID, level)
	if err != nil {
		return err
	}
	gs.notifyGame(ctx, gameID, game.Event{Name: game.EventEnvidoChanted, Payload: map[string]interface{}{
		"player_id": playerID,
		"chanted":   hand.Envido.Chanted,
	}})
	gs.notifyHand(ctx, hand)
	return nil
}

// AcceptEnvido fixes the stake and starts the reveal.
func (gs *GameServer) AcceptEnvido(ctx context.Context, playerID, gameID uuid.UUID) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	hand, err := gs.Envido.AcceptEnvido(ctx, gameID, playerID)
	if err != nil {
		return err
	}
	gs.notifyGame(ctx, gameID, game.Event{Name: game.EventEnvidoAccepted, Payload: map[string]interface{}{
		"player_id": playerID,
		"points":    hand.Envido.Points,
	}})
	gs.notifyHand(ctx, hand)
	return nil
}

// DeclineEnvido refuses the last chant; the declined points score at once.
func (gs *GameServer) DeclineEnvido(ctx context.Context, playerID, gameID uuid.UUID) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	hand, err := gs.Envido.DeclineEnvido(ctx, gameID, playerID)
	if err != nil {
		return err
	}
	gs.notifyGame(ctx, gameID, game.Event{Name: game.EventEnvidoDeclined, Payload: map[string]interface{}{
		"player_id": playerID,
		"winner":    hand.Envido.Winner,
		"points":    hand.Envido.Points,
	}})
	gs.notifyHand(ctx, hand)
	return gs.settleEnvido(ctx, gameID, hand)
}

// PlayEnvido reveals cards; once both sides revealed, the envido scores.
func (gs *GameServer) PlayEnvido(ctx context.Context, playerID, gameID uuid.UUID, cards []models.Card) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	hand, err := gs.Envido.PlayEnvido(ctx, gameID, playerID, cards)
	if err != nil {
		return err
	}
	gs.notifyGame(ctx, gameID, game.Event{Name: game.EventEnvidoPlayed, Payload: map[string]interface{}{
		"player_id": playerID,
		"cards":     game.NewEventCards(hand.Envido.CardsPlayed[playerID]),
	}})
	gs.notifyHand(ctx, hand)

	if hand.Envido.Status == models.EnvidoFinished {
		return gs.settleEnvido(ctx, gameID, hand)
	}
	return nil
}

// GoToDeck forfeits the hand, settling a conceded envido first.
func (gs *GameServer) GoToDeck(ctx context.Context, playerID, gameID uuid.UUID) error {
	l := gs.gameLock(gameID)
	l.Lock()
	defer l.Unlock()

	hand, envidoConceded, err := gs.Hands.GoToDeck(ctx, gameID, playerID)
	if err != nil {
		return err
	}
	g, err := gs.Games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}

	if envidoConceded {
		if err := gs.settleEnvido(ctx, gameID, hand); err != nil {
			return err
		}
		g, err = gs.Games.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if g.Winner != uuid.Nil {
			return nil
		}
	}
	gs.notifyHand(ctx, hand)
	return gs.finishHand(ctx, g, hand)
}

// Message relays a chat line to everyone at the table.
func (gs *GameServer) Message(ctx context.Context, playerID, gameID uuid.UUID, text string) error {
	g, err := gs.Games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if !g.HasPlayer(playerID) {
		return game.ErrInvalidAction
	}
	for _, id := range g.PlayerIDs() {
		gs.Notifier.Send(id, game.Event{Name: game.EventMessage, Payload: map[string]interface{}{
			"player_id": playerID,
			"text":      text,
			"sent_at":   time.Now().UTC(),
		}})
	}
	return nil
}

// settleEnvido credits a resolved envido and reports the new score. The game
// can end here when a falta envido lands.
func (gs *GameServer) settleEnvido(ctx context.Context, gameID uuid.UUID, hand *models.Hand) error {
	score, err := gs.Scores.AssignEnvidoScore(ctx, hand)
	if err != nil {
		return err
	}
	gs.notifyGame(ctx, gameID, game.Event{Name: game.EventScoreUpdate, Payload: score})

	g, err := gs.Games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if g.Winner != uuid.Nil {
		return gs.finishGame(ctx, g, score)
	}
	return nil
}

// finishHand scores a decided hand and either ends the game or rolls the
// table into the next deal.
func (gs *GameServer) finishHand(ctx context.Context, g *models.Game, hand *models.Hand) error {
	gs.notifyGame(ctx, g.ID, game.Event{Name: game.EventHandFinished, Payload: map[string]interface{}{
		"winner": hand.Winner,
		"points": hand.TrucoStatus.Points(),
	}})

	score, err := gs.Scores.AssignTrucoScore(ctx, hand)
	if err != nil {
		return err
	}
	gs.notifyGame(ctx, g.ID, game.Event{Name: game.EventScoreUpdate, Payload: score})

	g, err = gs.Games.GetGame(ctx, g.ID)
	if err != nil {
		return err
	}
	if g.Winner != uuid.Nil {
		return gs.finishGame(ctx, g, score)
	}

	next, err := gs.Hands.InitializeHand(ctx, g.ID)
	if err != nil {
		return err
	}
	for _, id := range g.PlayerIDs() {
		gs.Notifier.Send(id, game.Event{Name: game.EventHandUpdate, Payload: game.BuildHandView(next, id)})
	}
	return nil
}

// finishGame announces the winner and records the durable result.
func (gs *GameServer) finishGame(ctx context.Context, g *models.Game, score *models.Score) error {
	gs.notifyGame(ctx, g.ID, game.Event{Name: game.EventGameFinished, Payload: map[string]interface{}{
		"winner": g.Winner,
		"score":  score.Score,
	}})
	gs.Logger.Infof("Game %s finished, winner %s", g.ID, g.Winner)

	if database.DB != nil {
		if err := database.RecordGameAndResults(ctx, g, score.Score); err != nil {
			gs.Logger.Errorf("Failed to record results for game %s: %v", g.ID, err)
		}
	}

	gs.broadcastOpenGames(ctx)
	return nil
}

// notifyHand sends each player their own projection of the hand.
func (gs *GameServer) notifyHand(ctx context.Context, hand *models.Hand) {
	g, err := gs.Games.GetGame(ctx, hand.ID)
	if err != nil {
		gs.Logger.Warnf("Failed to load game %s for hand update: %v", hand.ID, err)
		return
	}
	for _, id := range g.PlayerIDs() {
		gs.Notifier.Send(id, game.Event{Name: game.EventHandUpdate, Payload: game.BuildHandView(hand, id)})
	}
}

// notifyGame sends one event to everyone seated at the game.
func (gs *GameServer) notifyGame(ctx context.Context, gameID uuid.UUID, ev game.Event) {
	g, err := gs.Games.GetGame(ctx, gameID)
	if err != nil {
		gs.Logger.Warnf("Failed to load game %s for %s: %v", gameID, ev.Name, err)
		return
	}
	for _, id := range g.PlayerIDs() {
		gs.Notifier.Send(id, ev)
	}
}

func (gs *GameServer) broadcastOpenGames(ctx context.Context) {
	open, err := gs.Games.AvailableGames(ctx)
	if err != nil {
		gs.Logger.Warnf("Failed to list open games: %v", err)
		return
	}
	gs.Notifier.Broadcast(game.Event{Name: game.EventGamesUpdate, Payload: game.NewGameSummaries(open)})
}
