// Package store holds the room records shared by every server instance:
// the password/host metadata that gates admission and the last known
// document content used to catch up a joining guest.
package store

import (
	"context"
	"errors"

	"collabide/server/internal/domain"
)

var ErrRoomNotFound = errors.New("room not found")

type RoomStore interface {
	// CreateRoom persists a fresh record with no host assigned.
	CreateRoom(ctx context.Context, id domain.RoomID, password string) error

	// Room returns the record or ErrRoomNotFound.
	Room(ctx context.Context, id domain.RoomID) (*domain.Room, error)

	// ClaimHost assigns user as the room's host only if no host is recorded
	// yet. It reports whether the claim won; at most one claim ever wins for
	// a given room, even when concurrent first-joiners race across instances.
	ClaimHost(ctx context.Context, id domain.RoomID, user domain.ParticipantID) (bool, error)

	SetContent(ctx context.Context, id domain.RoomID, content string) error
	Content(ctx context.Context, id domain.RoomID) (string, error)
}
