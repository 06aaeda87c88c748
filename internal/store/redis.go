package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"collabide/server/internal/domain"
)

const (
	fieldPassword = "password"
	fieldHostID   = "host_id"
)

// RedisStore keeps room records as hashes so the host slot can be claimed
// atomically with HSETNX. An absent host_id field means the room has no host.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func roomKey(id domain.RoomID) string {
	return "collab:room:" + string(id)
}

func contentKey(id domain.RoomID) string {
	return "collab:room:" + string(id) + ":content"
}

func (s *RedisStore) CreateRoom(ctx context.Context, id domain.RoomID, password string) error {
	if err := s.rdb.HSet(ctx, roomKey(id), fieldPassword, password).Err(); err != nil {
		return fmt.Errorf("create room %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Room(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	m, err := s.rdb.HGetAll(ctx, roomKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read room %s: %w", id, err)
	}
	if len(m) == 0 {
		return nil, ErrRoomNotFound
	}
	return &domain.Room{
		ID:       id,
		Password: m[fieldPassword],
		HostID:   domain.ParticipantID(m[fieldHostID]),
	}, nil
}

func (s *RedisStore) ClaimHost(ctx context.Context, id domain.RoomID, user domain.ParticipantID) (bool, error) {
	ok, err := s.rdb.HSetNX(ctx, roomKey(id), fieldHostID, string(user)).Result()
	if err != nil {
		return false, fmt.Errorf("claim host for room %s: %w", id, err)
	}
	return ok, nil
}

func (s *RedisStore) SetContent(ctx context.Context, id domain.RoomID, content string) error {
	if err := s.rdb.Set(ctx, contentKey(id), content, 0).Err(); err != nil {
		return fmt.Errorf("set content for room %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Content(ctx context.Context, id domain.RoomID) (string, error) {
	v, err := s.rdb.Get(ctx, contentKey(id)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read content for room %s: %w", id, err)
	}
	return v, nil
}
