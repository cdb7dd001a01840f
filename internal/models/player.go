// internal/models/player.go
package models

import "github.com/google/uuid"

// Player is a participant of a game. Connections are tracked by the handler
// layer's connection registry, not on the model.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	User *User `json:"-"`
}
