package store

import (
	"context"
	"sync"

	"collabide/server/internal/domain"
)

// MemoryStore is a process-local RoomStore. It backs tests and the
// single-instance fallback when no shared store is reachable.
type MemoryStore struct {
	mu      sync.Mutex
	rooms   map[domain.RoomID]*domain.Room
	content map[domain.RoomID]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[domain.RoomID]*domain.Room),
		content: make(map[domain.RoomID]string),
	}
}

func (s *MemoryStore) CreateRoom(_ context.Context, id domain.RoomID, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[id] = &domain.Room{ID: id, Password: password}
	return nil
}

func (s *MemoryStore) Room(_ context.Context, id domain.RoomID) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) ClaimHost(_ context.Context, id domain.RoomID, user domain.ParticipantID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return false, ErrRoomNotFound
	}
	if r.HostID != "" {
		return false, nil
	}
	r.HostID = user
	return true, nil
}

func (s *MemoryStore) SetContent(_ context.Context, id domain.RoomID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[id] = content
	return nil
}

func (s *MemoryStore) Content(_ context.Context, id domain.RoomID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content[id], nil
}
