// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jason-s-yu/truco/internal/models"
)

const (
	handKeyPrefix   = "truco:hand:"
	scoreKeyPrefix  = "truco:score:"
	gameKeyPrefix   = "truco:game:"
	playerKeyPrefix = "truco:player:"
	openGamesKey    = "truco:games:open"

	// Live records expire if a game is abandoned.
	recordExpiration = 2 * time.Hour
)

// RedisStores persists the live game state in Redis as JSON values. Distinct
// keys are naturally safe for concurrent access; the game server still
// serializes operations against the same game.
type RedisStores struct {
	client *redis.Client
}

// ConnectRedis dials Redis using REDIS_ADDR and REDIS_DB (defaults
// localhost:6379, db 0) and pings it before returning stores.
func ConnectRedis(ctx context.Context) (*RedisStores, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	dbIdx := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			dbIdx = v
		}
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: dbIdx})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &RedisStores{client: client}, nil
}

// NewRedisStores wraps an existing client, e.g. a test server.
func NewRedisStores(client *redis.Client) *RedisStores {
	return &RedisStores{client: client}
}

// Stores returns the interface bundle backed by this instance.
func (r *RedisStores) Stores() Stores {
	return Stores{
		Hands:   &redisHandStore{r.client},
		Scores:  &redisScoreStore{r.client},
		Games:   &redisGameStore{r.client},
		Players: &redisPlayerStore{r.client},
	}
}

func redisGet(ctx context.Context, client *redis.Client, key string, out interface{}) error {
	data, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func redisSet(ctx context.Context, client *redis.Client, key string, val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := client.Set(ctx, key, data, recordExpiration).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

type redisHandStore struct{ client *redis.Client }

func (s *redisHandStore) Get(ctx context.Context, id uuid.UUID) (*models.Hand, error) {
	var h models.Hand
	if err := redisGet(ctx, s.client, handKeyPrefix+id.String(), &h); err != nil {
		return nil, err
	}
	restoreCardValues(&h)
	return &h, nil
}

func (s *redisHandStore) Save(ctx context.Context, hand *models.Hand) error {
	return redisSet(ctx, s.client, handKeyPrefix+hand.ID.String(), hand)
}

func (s *redisHandStore) Update(ctx context.Context, hand *models.Hand) error {
	return s.Save(ctx, hand)
}

// restoreCardValues recomputes card strengths after decoding, so a record
// written by an older build is never trusted for ordering.
func restoreCardValues(h *models.Hand) {
	for id, cards := range h.CardsDealt {
		for i, c := range cards {
			h.CardsDealt[id][i].Value = models.CardValue(c.Rank, c.Suit)
		}
	}
	for _, r := range h.Rounds {
		for id, c := range r.CardsPlayed {
			if c != nil {
				card := models.NewCard(c.Rank, c.Suit)
				r.CardsPlayed[id] = &card
			}
		}
	}
	if h.Envido != nil {
		for id, cards := range h.Envido.CardsPlayed {
			for i, c := range cards {
				h.Envido.CardsPlayed[id][i].Value = models.CardValue(c.Rank, c.Suit)
			}
		}
	}
}

type redisScoreStore struct{ client *redis.Client }

func (s *redisScoreStore) Get(ctx context.Context, gameID uuid.UUID) (*models.Score, error) {
	var sc models.Score
	if err := redisGet(ctx, s.client, scoreKeyPrefix+gameID.String(), &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *redisScoreStore) Save(ctx context.Context, score *models.Score) error {
	return redisSet(ctx, s.client, scoreKeyPrefix+score.GameID.String(), score)
}

func (s *redisScoreStore) Update(ctx context.Context, score *models.Score) error {
	return s.Save(ctx, score)
}

type redisGameStore struct{ client *redis.Client }

func (s *redisGameStore) Get(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var g models.Game
	if err := redisGet(ctx, s.client, gameKeyPrefix+id.String(), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *redisGameStore) Save(ctx context.Context, game *models.Game) error {
	if err := redisSet(ctx, s.client, gameKeyPrefix+game.ID.String(), game); err != nil {
		return err
	}
	return s.indexOpen(ctx, game)
}

func (s *redisGameStore) Update(ctx context.Context, game *models.Game) error {
	return s.Save(ctx, game)
}

// indexOpen keeps a set of joinable game ids so listing does not scan keys.
func (s *redisGameStore) indexOpen(ctx context.Context, game *models.Game) error {
	id := game.ID.String()
	if game.Status == models.GameWaiting && !game.Full() {
		return s.client.SAdd(ctx, openGamesKey, id).Err()
	}
	return s.client.SRem(ctx, openGamesKey, id).Err()
}

func (s *redisGameStore) ListAvailable(ctx context.Context) ([]*models.Game, error) {
	ids, err := s.client.SMembers(ctx, openGamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", openGamesKey, err)
	}
	var open []*models.Game
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		g, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Expired game, drop the stale index entry.
			_ = s.client.SRem(ctx, openGamesKey, raw).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		open = append(open, g)
	}
	return open, nil
}

type redisPlayerStore struct{ client *redis.Client }

func (s *redisPlayerStore) Get(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var p models.Player
	if err := redisGet(ctx, s.client, playerKeyPrefix+id.String(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *redisPlayerStore) Save(ctx context.Context, player *models.Player) error {
	return redisSet(ctx, s.client, playerKeyPrefix+player.ID.String(), player)
}

func (s *redisPlayerStore) Update(ctx context.Context, player *models.Player) error {
	return s.Save(ctx, player)
}
