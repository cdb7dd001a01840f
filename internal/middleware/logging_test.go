// internal/middleware/logging_test.go
package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddlewareRecordsStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()

	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/user/login", nil))

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, http.StatusUnauthorized, entry.Data["status"])
	assert.Equal(t, "/user/login", entry.Data["path"])
	assert.Equal(t, http.MethodPost, entry.Data["method"])
}

func TestLogMiddlewareDefaultsToOK(t *testing.T) {
	logger, hook := test.NewNullLogger()

	h := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/game/ws", nil))

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, http.StatusOK, hook.LastEntry().Data["status"])
}

func TestLogPlayerLifecycle(t *testing.T) {
	logger, hook := test.NewNullLogger()
	playerID := uuid.New()

	LogPlayerConnect(logger, playerID, "10.0.0.1:4242")
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, playerID, hook.LastEntry().Data["player_id"])
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	dropped := errors.New("connection reset")
	LogPlayerDisconnect(logger, playerID, "10.0.0.1:4242", dropped)
	require.Len(t, hook.Entries, 2)
	assert.Equal(t, dropped, hook.LastEntry().Data["error"])
}
