// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jason-s-yu/truco/internal/models"
)

// MemoryStores holds every collaborator in process memory, safe for
// concurrent use across distinct keys. Gets hand out deep copies so a failed
// operation never leaves a half-mutated record behind.
type MemoryStores struct {
	mu      sync.RWMutex
	hands   map[uuid.UUID]*models.Hand
	scores  map[uuid.UUID]*models.Score
	games   map[uuid.UUID]*models.Game
	players map[uuid.UUID]*models.Player
}

// NewMemoryStores returns empty in-memory stores.
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		hands:   make(map[uuid.UUID]*models.Hand),
		scores:  make(map[uuid.UUID]*models.Score),
		games:   make(map[uuid.UUID]*models.Game),
		players: make(map[uuid.UUID]*models.Player),
	}
}

// Stores returns the interface bundle backed by this instance.
func (m *MemoryStores) Stores() Stores {
	return Stores{
		Hands:   (*memoryHandStore)(m),
		Scores:  (*memoryScoreStore)(m),
		Games:   (*memoryGameStore)(m),
		Players: (*memoryPlayerStore)(m),
	}
}

type memoryHandStore MemoryStores

func (s *memoryHandStore) Get(_ context.Context, id uuid.UUID) (*models.Hand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hands[id]
	if !ok {
		return nil, ErrNotFound
	}
	return h.Clone(), nil
}

func (s *memoryHandStore) Save(_ context.Context, hand *models.Hand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hands[hand.ID] = hand.Clone()
	return nil
}

func (s *memoryHandStore) Update(ctx context.Context, hand *models.Hand) error {
	return s.Save(ctx, hand)
}

type memoryScoreStore MemoryStores

func (s *memoryScoreStore) Get(_ context.Context, gameID uuid.UUID) (*models.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scores[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return sc.Clone(), nil
}

func (s *memoryScoreStore) Save(_ context.Context, score *models.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[score.GameID] = score.Clone()
	return nil
}

func (s *memoryScoreStore) Update(ctx context.Context, score *models.Score) error {
	return s.Save(ctx, score)
}

type memoryGameStore MemoryStores

func (s *memoryGameStore) Get(_ context.Context, id uuid.UUID) (*models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

func (s *memoryGameStore) Save(_ context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game.Clone()
	return nil
}

func (s *memoryGameStore) Update(ctx context.Context, game *models.Game) error {
	return s.Save(ctx, game)
}

func (s *memoryGameStore) ListAvailable(_ context.Context) ([]*models.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open []*models.Game
	for _, g := range s.games {
		if g.Status == models.GameWaiting && !g.Full() {
			open = append(open, g.Clone())
		}
	}
	return open, nil
}

type memoryPlayerStore MemoryStores

func (s *memoryPlayerStore) Get(_ context.Context, id uuid.UUID) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	player := *p
	return &player, nil
}

func (s *memoryPlayerStore) Save(_ context.Context, player *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *memoryPlayerStore) Update(ctx context.Context, player *models.Player) error {
	return s.Save(ctx, player)
}
