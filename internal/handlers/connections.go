// internal/handlers/connections.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/truco/internal/game"
)

// writeTimeout bounds a single WebSocket write so one stalled client cannot
// block delivery to the rest.
const writeTimeout = 3 * time.Second

// ConnectionManager keeps the live WebSocket connection per player and
// implements game.Notifier. Writes happen asynchronously; the caller may
// hold game state locks while notifying.
type ConnectionManager struct {
	mu     sync.RWMutex
	conns  map[uuid.UUID]*websocket.Conn
	logger *logrus.Logger
}

func NewConnectionManager(logger *logrus.Logger) *ConnectionManager {
	return &ConnectionManager{
		conns:  make(map[uuid.UUID]*websocket.Conn),
		logger: logger,
	}
}

// Register binds a player to a connection, replacing any previous one.
func (cm *ConnectionManager) Register(playerID uuid.UUID, conn *websocket.Conn) {
	cm.mu.Lock()
	old := cm.conns[playerID]
	cm.conns[playerID] = conn
	cm.mu.Unlock()

	if old != nil && old != conn {
		old.Close(websocket.StatusPolicyViolation, "Replaced by a newer connection.")
	}
}

// Unregister drops the player's connection if it is still the current one.
func (cm *ConnectionManager) Unregister(playerID uuid.UUID, conn *websocket.Conn) {
	cm.mu.Lock()
	if cm.conns[playerID] == conn {
		delete(cm.conns, playerID)
	}
	cm.mu.Unlock()
}

// Send delivers an event to one player. Disconnected players are skipped
// silently; they catch up from the next full state broadcast.
func (cm *ConnectionManager) Send(playerID uuid.UUID, ev game.Event) {
	cm.mu.RLock()
	conn := cm.conns[playerID]
	cm.mu.RUnlock()
	if conn == nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		cm.logger.Errorf("Failed to marshal event %s for player %s: %v", ev.Name, playerID, err)
		return
	}

	go cm.write(conn, data, playerID, ev.Name)
}

// Broadcast delivers an event to every connected player. Used for lobby-wide
// notifications such as the open games list.
func (cm *ConnectionManager) Broadcast(ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		cm.logger.Errorf("Failed to marshal broadcast event %s: %v", ev.Name, err)
		return
	}

	cm.mu.RLock()
	targets := make(map[uuid.UUID]*websocket.Conn, len(cm.conns))
	for id, conn := range cm.conns {
		targets[id] = conn
	}
	cm.mu.RUnlock()

	for id, conn := range targets {
		go cm.write(conn, data, id, ev.Name)
	}
}

func (cm *ConnectionManager) write(conn *websocket.Conn, data []byte, playerID uuid.UUID, name game.EventType) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		cm.logger.Warnf("Failed to write %s to player %s: %v", name, playerID, err)
	}
}
