package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tractorbooking/internal/domain"
)

func TestMemoryPositionStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	s := NewMemoryPositionStore(2 * time.Minute)
	s.now = func() time.Time { return now }
	id := uuid.New()

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Save(ctx, id, Position{Location: domain.Location{Lat: 43.2, Lng: 76.9}, ReportedAt: now}))
	now = now.Add(time.Minute)
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 43.2, got.Location.Lat)

	now = now.Add(2 * time.Minute)
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryPositionStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryPositionStore(0)
	id := uuid.New()

	require.NoError(t, s.Save(ctx, id, Position{ReportedAt: time.Now()}))
	require.NoError(t, s.Delete(ctx, id))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
