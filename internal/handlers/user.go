// internal/handlers/user.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/truco/internal/auth"
	"github.com/jason-s-yu/truco/internal/database"
	"github.com/jason-s-yu/truco/internal/models"
	"github.com/jason-s-yu/truco/internal/store"
)

// EnsurePlayer resolves the player behind a request: a valid session cookie
// maps to an existing player, anything else gets a fresh guest seat and a
// guest token. Registered users get a player record keyed by their user id,
// so reconnecting ties back to the same seat.
func EnsurePlayer(w http.ResponseWriter, r *http.Request, gs *GameServer) (uuid.UUID, error) {
	session, err := auth.SessionFromRequest(r)
	if err != nil {
		return createGuest(w, r, gs)
	}

	playerID, err := uuid.Parse(session.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject in token: %w", err)
	}

	if _, err := gs.Games.GetPlayer(r.Context(), playerID); err == nil {
		return playerID, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return uuid.Nil, err
	}

	if session.Guest {
		// The guest seat expired from the store; hand out a new one.
		return createGuest(w, r, gs)
	}

	// First connection of a registered user: seat them under their user id.
	user, err := database.GetUserByID(r.Context(), playerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("unknown user in token: %w", err)
	}
	player := &models.Player{ID: user.ID, Name: user.Username, User: user}
	if err := gs.Stores.Players.Save(r.Context(), player); err != nil {
		return uuid.Nil, err
	}
	return player.ID, nil
}

func createGuest(w http.ResponseWriter, r *http.Request, gs *GameServer) (uuid.UUID, error) {
	player, err := gs.Games.CreatePlayer(r.Context(), r.URL.Query().Get("name"), nil)
	if err != nil {
		return uuid.Nil, err
	}
	token, err := auth.CreateGuestJWT(player.ID.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create guest token: %w", err)
	}
	auth.SetSessionCookie(w, token)
	return player.ID, nil
}

// CreateUserHandler registers a permanent account.
func CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	user := models.User{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	}

	if err := database.CreateUser(r.Context(), &user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			http.Error(w, "email already exists", http.StatusConflict)
			return
		}
		http.Error(w, "error creating user", http.StatusInternalServerError)
		return
	}

	user.Password = ""
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// LoginHandler authenticates an account and sets the session cookie. The
// token also comes back in the body for non-browser clients.
func LoginHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request payload", http.StatusBadRequest)
			return
		}

		token, err := database.AuthenticateUser(context.Background(), req.Email, req.Password)
		if err != nil {
			logger.Warnf("failed to authenticate user: %v", err)
			http.Error(w, "authentication failed", http.StatusForbidden)
			return
		}

		auth.SetSessionCookie(w, token)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(loginResponse{Token: token}); err != nil {
			http.Error(w, "failed to write response", http.StatusInternalServerError)
		}
	}
}

type updateCredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateCredentialsHandler changes a registered account's email and password.
// Guests have no credentials; they go through the claim flow first.
func UpdateCredentialsHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := auth.SessionFromRequest(r)
		if err != nil || session.Guest {
			http.Error(w, "account token required", http.StatusForbidden)
			return
		}
		userID, err := uuid.Parse(session.Subject)
		if err != nil {
			http.Error(w, "invalid user id in token", http.StatusForbidden)
			return
		}

		var req updateCredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
			http.Error(w, "new password required", http.StatusBadRequest)
			return
		}

		user, err := database.GetUserByID(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if req.Email != "" {
			user.Email = req.Email
		}
		user.Password = req.Password
		user.IsEphemeral = false

		if err := database.UpdateUserCredentials(r.Context(), user); err != nil {
			http.Error(w, "failed to update credentials", http.StatusInternalServerError)
			return
		}

		// Refresh the seated player's account snapshot if they hold a seat.
		if player, err := gs.Games.GetPlayer(r.Context(), userID); err == nil {
			player.User = user
			if err := gs.Stores.Players.Update(r.Context(), player); err != nil {
				http.Error(w, "failed to update player", http.StatusInternalServerError)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "credentials updated")
	}
}

type claimGuestRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// ClaimGuestHandler turns a guest seat into a permanent account. The new
// account keeps the player id, so game history stays attached.
func ClaimGuestHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := auth.SessionFromRequest(r)
		if err != nil || !session.Guest {
			http.Error(w, "guest token required", http.StatusForbidden)
			return
		}
		playerID, err := uuid.Parse(session.Subject)
		if err != nil {
			http.Error(w, "invalid player id in token", http.StatusForbidden)
			return
		}

		player, err := gs.Games.GetPlayer(r.Context(), playerID)
		if err != nil {
			http.Error(w, "player not found", http.StatusNotFound)
			return
		}

		var req claimGuestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid claim payload", http.StatusBadRequest)
			return
		}

		user := models.User{
			ID:       player.ID,
			Email:    req.Email,
			Password: req.Password,
			Username: req.Username,
		}
		if user.Username == "" {
			user.Username = player.Name
		}
		if err := database.CreateUser(r.Context(), &user); err != nil {
			http.Error(w, "failed to claim account", http.StatusInternalServerError)
			return
		}

		player.User = &user
		player.Name = user.Username
		if err := gs.Stores.Players.Update(r.Context(), player); err != nil {
			http.Error(w, "failed to update player", http.StatusInternalServerError)
			return
		}

		token, err := auth.CreateJWT(user.ID.String())
		if err != nil {
			http.Error(w, "failed to create token", http.StatusInternalServerError)
			return
		}
		auth.SetSessionCookie(w, token)

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "guest account claimed")
	}
}
