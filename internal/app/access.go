package app

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"collabide/server/internal/domain"
	"collabide/server/internal/store"
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const DefaultPasswordLength = 8

// AccessController owns room lifecycle: creation, password issuance and
// admission checks. It is stateless itself; everything lives in the shared
// store so any instance can validate a join.
type AccessController struct {
	store       store.RoomStore
	passwordLen int
}

func NewAccessController(st store.RoomStore, passwordLen int) *AccessController {
	if passwordLen <= 0 {
		passwordLen = DefaultPasswordLength
	}
	return &AccessController{store: st, passwordLen: passwordLen}
}

func (a *AccessController) CreateRoom(ctx context.Context) (domain.RoomID, string, error) {
	id := domain.RoomID(uuid.NewString())
	password, err := randomPassword(a.passwordLen)
	if err != nil {
		return "", "", err
	}
	if err := a.store.CreateRoom(ctx, id, password); err != nil {
		return "", "", err
	}
	if err := a.store.SetContent(ctx, id, ""); err != nil {
		return "", "", err
	}
	log.Info().Str("module", "app.access").Str("room", string(id)).Msg("room created")
	return id, password, nil
}

// EvaluateJoin decides the admission outcome for a join attempt.
// The first joiner of a room becomes its host without a password; host
// assignment goes through the store's atomic claim, so at most one host is
// ever recorded even when two first-joiners race. The recorded host may
// rejoin as host; everyone else needs the room password.
func (a *AccessController) EvaluateJoin(ctx context.Context, room domain.RoomID, user domain.ParticipantID, password string) (domain.Admission, error) {
	rec, err := a.store.Room(ctx, room)
	if err == store.ErrRoomNotFound {
		return domain.AdmissionNotFound, nil
	}
	if err != nil {
		return 0, err
	}

	if rec.HostID == "" {
		claimed, err := a.store.ClaimHost(ctx, room, user)
		if err != nil {
			return 0, err
		}
		if claimed {
			log.Info().Str("module", "app.access").Str("room", string(room)).Str("user", string(user)).Msg("host assigned")
			return domain.AdmittedHost, nil
		}
		// Lost the first-join race; fall through to the guest checks.
	} else if rec.HostID == user {
		return domain.AdmittedHost, nil
	}

	if password == "" {
		return domain.AdmissionPasswordRequired, nil
	}
	if password != rec.Password {
		return domain.AdmissionInvalidPassword, nil
	}
	return domain.AdmittedGuest, nil
}

func randomPassword(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	for i, b := range buf {
		buf[i] = passwordAlphabet[int(b)%len(passwordAlphabet)]
	}
	return string(buf), nil
}
