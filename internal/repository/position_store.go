package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tractorbooking/internal/domain"
)

// Position is the last location an owner reported for a booking's tractor.
type Position struct {
	Location   domain.Location `json:"location"`
	ReportedAt time.Time       `json:"reported_at"`
}

// RedisPositionStore keeps live positions outside the booking record, with a TTL.
type RedisPositionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPositionStore(client *redis.Client, ttl time.Duration) *RedisPositionStore {
	return &RedisPositionStore{client: client, ttl: ttl}
}

func positionKey(id uuid.UUID) string {
	return "position:" + id.String()
}

func (s *RedisPositionStore) Save(ctx context.Context, bookingID uuid.UUID, p Position) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, positionKey(bookingID), data, s.ttl).Err()
}

func (s *RedisPositionStore) Get(ctx context.Context, bookingID uuid.UUID) (*Position, error) {
	data, err := s.client.Get(ctx, positionKey(bookingID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p Position
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisPositionStore) Delete(ctx context.Context, bookingID uuid.UUID) error {
	return s.client.Del(ctx, positionKey(bookingID)).Err()
}

// MemoryPositionStore is the single-instance fallback when Redis is not configured.
type MemoryPositionStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[uuid.UUID]Position
}

func NewMemoryPositionStore(ttl time.Duration) *MemoryPositionStore {
	return &MemoryPositionStore{ttl: ttl, now: time.Now, items: make(map[uuid.UUID]Position)}
}

func (s *MemoryPositionStore) Save(_ context.Context, bookingID uuid.UUID, p Position) error {
	s.mu.Lock()
	s.items[bookingID] = p
	s.mu.Unlock()
	return nil
}

func (s *MemoryPositionStore) Get(_ context.Context, bookingID uuid.UUID) (*Position, error) {
	s.mu.RLock()
	p, ok := s.items[bookingID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && s.now().Sub(p.ReportedAt) > s.ttl {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryPositionStore) Delete(_ context.Context, bookingID uuid.UUID) error {
	s.mu.Lock()
	delete(s.items, bookingID)
	s.mu.Unlock()
	return nil
}
