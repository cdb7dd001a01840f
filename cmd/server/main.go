// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/truco/internal/auth"
	"github.com/jason-s-yu/truco/internal/database"
	"github.com/jason-s-yu/truco/internal/handlers"
	"github.com/jason-s-yu/truco/internal/middleware"
	"github.com/jason-s-yu/truco/internal/store"
)

func main() {
	auth.Init()

	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Postgres is optional: without it the server still runs games, it just
	// skips accounts and durable results.
	if os.Getenv("PG_HOST") != "" {
		if err := database.ConnectDB(); err != nil {
			log.Fatalf("database connect failed: %v", err)
		}
		defer database.DB.Close()
	} else {
		logger.Warn("PG_HOST not set; accounts and durable results disabled")
	}

	// Live game state lives in Redis when configured, in process memory
	// otherwise.
	var stores store.Stores
	if os.Getenv("REDIS_ADDR") != "" {
		rs, err := store.ConnectRedis(context.Background())
		if err != nil {
			log.Fatalf("redis connect failed: %v", err)
		}
		stores = rs.Stores()
		logger.Info("Using Redis stores")
	} else {
		stores = store.NewMemoryStores().Stores()
		logger.Info("Using in-memory stores")
	}

	cm := handlers.NewConnectionManager(logger)
	srv := handlers.NewGameServer(stores, cm, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler(logger))
	mux.HandleFunc("/user/claim", handlers.ClaimGuestHandler(srv))
	mux.HandleFunc("/user/update", handlers.UpdateCredentialsHandler(srv))

	mux.Handle("/game/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(logger, srv, cm),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
