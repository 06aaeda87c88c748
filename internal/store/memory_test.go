package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoomLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Room(ctx, "missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	require.NoError(t, s.CreateRoom(ctx, "r1", "secret"))

	r, err := s.Room(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "secret", r.Password)
	assert.Empty(t, r.HostID)
}

func TestMemoryStore_ClaimHost(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateRoom(ctx, "r1", "secret"))

	won, err := s.ClaimHost(ctx, "r1", "alice")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = s.ClaimHost(ctx, "r1", "bob")
	require.NoError(t, err)
	assert.False(t, won, "second claim must lose")

	r, err := s.Room(ctx, "r1")
	require.NoError(t, err)
	assert.EqualValues(t, "alice", r.HostID)
}

func TestMemoryStore_Content(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	content, err := s.Content(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, content, "unset content reads as empty")

	require.NoError(t, s.SetContent(ctx, "r1", "package main"))
	content, err = s.Content(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "package main", content)
}
