// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/truco/internal/game"
	"github.com/jason-s-yu/truco/internal/middleware"
	"github.com/jason-s-yu/truco/internal/models"
)

// ClientMessage is the envelope for every incoming WebSocket message. The
// payload shape depends on the event name.
type ClientMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type cardPayload struct {
	Rank models.Rank `json:"rank"`
	Suit models.Suit `json:"suit"`
}

type actionPayload struct {
	GameID   uuid.UUID     `json:"game_id"`
	MaxScore int           `json:"max_score,omitempty"`
	Level    int           `json:"level,omitempty"`
	Card     *cardPayload  `json:"card,omitempty"`
	Cards    []cardPayload `json:"cards,omitempty"`
	Text     string        `json:"text,omitempty"`
}

// WSHandler upgrades the connection, resolves (or creates) the player behind
// it, registers the connection and runs the read loop. One socket serves the
// lobby and every game the player sits at.
func WSHandler(logger *logrus.Logger, gs *GameServer, cm *ConnectionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := EnsurePlayer(w, r, gs)
		if err != nil {
			logger.Warnf("Player resolution failed: %v", err)
			http.Error(w, "Authentication failed", http.StatusForbidden)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}
		middleware.LogPlayerConnect(logger, playerID, r.RemoteAddr)

		cm.Register(playerID, c)
		defer cm.Unregister(playerID, c)

		cm.Send(playerID, game.Event{Name: game.EventConnect, Payload: map[string]interface{}{
			"player_id": playerID,
		}})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readMessages(ctx, c, gs, cm, playerID, logger)

		middleware.LogPlayerDisconnect(logger, playerID, r.RemoteAddr, nil)
	}
}

// readMessages reads and dispatches client messages until the connection
// drops. Rule violations go back to the sender as error events; the loop
// keeps running.
func readMessages(ctx context.Context, c *websocket.Conn, gs *GameServer, cm *ConnectionManager, playerID uuid.UUID, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %s.", playerID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for player %s.", playerID)
			} else {
				logger.Warnf("Error reading from WebSocket for player %s: %v", playerID, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON from player %s: %v", playerID, err)
			sendError(cm, playerID, game.ErrInvalidAction)
			continue
		}

		logger.Debugf("Received event '%s' from player %s.", msg.Event, playerID)
		if err := dispatch(ctx, gs, playerID, &msg); err != nil {
			sendError(cm, playerID, err)
		}
	}
}

// dispatch routes one client message to the game server.
func dispatch(ctx context.Context, gs *GameServer, playerID uuid.UUID, msg *ClientMessage) error {
	var p actionPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return game.ErrInvalidAction
		}
	}

	switch msg.Event {
	case "createNewGame":
		return gs.CreateGame(ctx, playerID, models.GameRules{MaxScore: p.MaxScore})
	case "joinGame":
		return gs.JoinGame(ctx, playerID, p.GameID)
	case "listGames":
		return gs.ListGames(ctx, playerID)
	case "dealCards":
		return gs.DealCards(ctx, playerID, p.GameID)
	case "playCard":
		if p.Card == nil {
			return game.ErrInvalidAction
		}
		return gs.PlayCard(ctx, playerID, p.GameID, p.Card.Rank, p.Card.Suit)
	case "chantTruco":
		return gs.ChantTruco(ctx, playerID, p.GameID, models.TrucoLevel(p.Level))
	case "responseToTruco":
		return gs.RespondToTruco(ctx, playerID, p.GameID, models.TrucoLevel(p.Level))
	case "declineTruco":
		return gs.DeclineTruco(ctx, playerID, p.GameID)
	case "chantEnvido":
		return gs.ChantEnvido(ctx, playerID, p.GameID, models.EnvidoLevel(p.Level))
	case "acceptEnvido":
		return gs.AcceptEnvido(ctx, playerID, p.GameID)
	case "declineEnvido":
		return gs.DeclineEnvido(ctx, playerID, p.GameID)
	case "playEnvido":
		cards := make([]models.Card, 0, len(p.Cards))
		for _, c := range p.Cards {
			cards = append(cards, models.NewCard(c.Rank, c.Suit))
		}
		return gs.PlayEnvido(ctx, playerID, p.GameID, cards)
	case "goToDeck":
		return gs.GoToDeck(ctx, playerID, p.GameID)
	case "message":
		return gs.Message(ctx, playerID, p.GameID, p.Text)
	default:
		return &game.GameError{Code: 4000, Message: fmt.Sprintf("unknown event: %s", msg.Event)}
	}
}

// sendError reports a failed action back to the sender. Rule violations
// carry their code; anything else maps to a generic invalid action.
func sendError(cm *ConnectionManager, playerID uuid.UUID, err error) {
	var gameErr *game.GameError
	if !errors.As(err, &gameErr) {
		gameErr = &game.GameError{Code: 4000, Message: err.Error()}
	}
	cm.Send(playerID, game.Event{Name: game.EventError, Payload: gameErr})
}
