package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabide/server/internal/domain"
	"collabide/server/internal/store"
)

func TestCreateRoom(t *testing.T) {
	ac := NewAccessController(store.NewMemoryStore(), 8)

	id, password, err := ac.CreateRoom(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, id)
	assert.Len(t, password, 8)
	for _, r := range password {
		assert.True(t, strings.ContainsRune(passwordAlphabet, r), "password rune %q outside alphabet", r)
	}
}

func TestEvaluateJoin(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		setup    func(t *testing.T, ac *AccessController) (domain.RoomID, string)
		user     domain.ParticipantID
		password func(roomPassword string) string
		want     domain.Admission
	}{
		{
			name: "unknown room",
			setup: func(t *testing.T, ac *AccessController) (domain.RoomID, string) {
				return "no-such-room", ""
			},
			user:     "alice",
			password: func(string) string { return "anything" },
			want:     domain.AdmissionNotFound,
		},
		{
			name: "first joiner becomes host without password",
			setup: func(t *testing.T, ac *AccessController) (domain.RoomID, string) {
				id, pw, err := ac.CreateRoom(ctx)
				require.NoError(t, err)
				return id, pw
			},
			user:     "alice",
			password: func(string) string { return "" },
			want:     domain.AdmittedHost,
		},
		{
			name: "second joiner with correct password is guest",
			setup: func(t *testing.T, ac *AccessController) (domain.RoomID, string) {
				id, pw, err := ac.CreateRoom(ctx)
				require.NoError(t, err)
				_, err = ac.EvaluateJoin(ctx, id, "alice", "")
				require.NoError(t, err)
				return id, pw
			},
			user:     "bob",
			password: func(pw string) string { return pw },
			want:     domain.AdmittedGuest,
		},
		{
			name: "second joiner without password is rejected",
			setup: func(t *testing.T, ac *AccessController) (domain.RoomID, string) {
				id, pw, err := ac.CreateRoom(ctx)
				require.NoError(t, err)
				_, err = ac.EvaluateJoin(ctx, id, "alice", "")
				require.NoError(t, err)
				return id, pw
			},
			user:     "bob",
			password: func(string) string { return "" },
			want:     domain.AdmissionPasswordRequired,
		},
		{
			name: "second joiner with wrong password is rejected",
			setup: func(t *testing.T, ac *AccessController) (domain.RoomID, string) {
				id, pw, err := ac.CreateRoom(ctx)
				require.NoError(t, err)
				_, err = ac.EvaluateJoin(ctx, id, "alice", "")
				require.NoError(t, err)
				return id, pw
			},
			user:     "bob",
			password: func(string) string { return "wrong" },
			want:     domain.AdmissionInvalidPassword,
		},
		{
			name: "recorded host rejoins as host",
			setup: func(t *testing.T, ac *AccessController) (domain.RoomID, string) {
				id, pw, err := ac.CreateRoom(ctx)
				require.NoError(t, err)
				_, err = ac.EvaluateJoin(ctx, id, "alice", "")
				require.NoError(t, err)
				return id, pw
			},
			user:     "alice",
			password: func(string) string { return "" },
			want:     domain.AdmittedHost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ac := NewAccessController(store.NewMemoryStore(), 8)
			room, roomPassword := tt.setup(t, ac)

			got, err := ac.EvaluateJoin(ctx, room, tt.user, tt.password(roomPassword))

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateJoin_ConcurrentFirstJoin(t *testing.T) {
	ctx := context.Background()
	ac := NewAccessController(store.NewMemoryStore(), 8)

	id, _, err := ac.CreateRoom(ctx)
	require.NoError(t, err)

	const joiners = 16
	results := make([]domain.Admission, joiners)
	errs := make([]error, joiners)
	var wg sync.WaitGroup
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = ac.EvaluateJoin(ctx, id, domain.ParticipantID(fmt.Sprintf("user-%d", i)), "")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "joiner %d", i)
	}

	hosts := 0
	for _, adm := range results {
		if adm == domain.AdmittedHost {
			hosts++
		}
	}
	assert.Equal(t, 1, hosts, "at most one host must ever be recorded")
}
