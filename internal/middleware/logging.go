// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// statusWriter captures the response code for the request log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// LogMiddleware logs every HTTP request with its method, path, status and
// duration. Account endpoints and the websocket upgrade both pass through it.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sw.status,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("HTTP request")
		})
	}
}

// LogPlayerConnect logs an accepted game socket, tied to the seated player.
func LogPlayerConnect(logger *logrus.Logger, playerID uuid.UUID, remoteAddr string) {
	logger.WithFields(logrus.Fields{
		"player_id": playerID,
		"remote":    remoteAddr,
	}).Info("Player connected")
}

// LogPlayerDisconnect logs a dropped game socket. The player keeps their
// seat; a reconnect with the same session cookie resumes it.
func LogPlayerDisconnect(logger *logrus.Logger, playerID uuid.UUID, remoteAddr string, err error) {
	fields := logrus.Fields{
		"player_id": playerID,
		"remote":    remoteAddr,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("Player disconnected")
}
