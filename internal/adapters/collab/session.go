// Package collab drives the per-connection lifecycle of the collaboration
// socket: accept, join handshake, message loop, teardown.
package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"collabide/server/internal/app"
	"collabide/server/internal/domain"
	"collabide/server/internal/store"
)

var ErrBackpressure = errors.New("backpressure")

// Publisher is the cross-instance half of a broadcast.
type Publisher interface {
	Publish(ctx context.Context, room domain.RoomID, payload []byte) error
}

type Controller struct {
	Access   *app.AccessController
	Registry *app.Registry
	Router   *app.Router
	Store    store.RoomStore
	Bridge   Publisher // nil when running single-instance

	ReadLimit    int64
	WriteTimeout time.Duration

	// Per-room fences ordering a joining guest's content snapshot against
	// concurrent edits. Entries live as long as the room has local
	// connections.
	lmu   sync.Mutex
	locks map[domain.RoomID]*sync.Mutex
}

func (ctl *Controller) roomLock(room domain.RoomID) *sync.Mutex {
	ctl.lmu.Lock()
	defer ctl.lmu.Unlock()
	if ctl.locks == nil {
		ctl.locks = make(map[domain.RoomID]*sync.Mutex)
	}
	l, ok := ctl.locks[room]
	if !ok {
		l = &sync.Mutex{}
		ctl.locks[room] = l
	}
	return l
}

func (ctl *Controller) dropRoomLock(room domain.RoomID) {
	ctl.lmu.Lock()
	delete(ctl.locks, room)
	ctl.lmu.Unlock()
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *wsConn) TrySend(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- payload:
	default:
		return ErrBackpressure
	}
	return nil
}

// Close stops accepting frames and lets the write pump drain what is
// already queued; the pump closes the underlying socket when it finishes,
// so a rejection frame enqueued just before Close still reaches the client.
func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is a joined participant. Role is decided at join time and fixed
// for the life of the connection.
type session struct {
	room domain.RoomID
	user domain.ParticipantID
	role domain.Role
	conn *wsConn
}

// HandleCollab upgrades the connection and runs the session state machine:
// Connecting -> AwaitingJoin -> Joined -> Closed. Room and participant ids
// come from the path, never from the body.
func (ctl *Controller) HandleCollab(ctx context.Context, c *gin.Context) {
	room := domain.RoomID(c.Param("roomId"))
	user := domain.ParticipantID(c.Param("userId"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}
	log.Info().Str("module", "collab").Str("room", string(room)).Str("user", string(user)).Msg("new collab connection")

	conn := &wsConn{conn: ws, send: make(chan []byte, 32)}
	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(conn)
	go ctl.runSession(ctx, cancel, room, user, conn)
}

func (ctl *Controller) runSession(ctx context.Context, cancel context.CancelFunc, room domain.RoomID, user domain.ParticipantID, conn *wsConn) {
	defer cancel()
	defer conn.Close()

	sess, ok := ctl.awaitJoin(ctx, room, user, conn)
	if !ok {
		return
	}
	defer ctl.teardown(sess)
	ctl.readLoop(ctx, sess)
}

// awaitJoin consumes exactly one frame, which must be a join carrying the
// room password. Any other frame, or a rejected admission, answers with an
// error and closes the connection.
func (ctl *Controller) awaitJoin(ctx context.Context, room domain.RoomID, user domain.ParticipantID, conn *wsConn) (*session, bool) {
	_, data, err := conn.conn.ReadMessage()
	if err != nil {
		log.Info().Err(err).Str("module", "collab").Str("user", string(user)).Msg("closed before join")
		return nil, false
	}

	var p struct {
		Type     domain.Kind `json:"type"`
		Password string      `json:"password"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Type != domain.KindJoin {
		ctl.sendFrame(conn, domain.NewError("expected a join message"))
		return nil, false
	}

	adm, err := ctl.Access.EvaluateJoin(ctx, room, user, p.Password)
	if err != nil {
		log.Error().Err(err).Str("module", "collab").Str("room", string(room)).Msg("admission check failed")
		ctl.sendFrame(conn, domain.NewError("internal error"))
		return nil, false
	}

	switch adm {
	case domain.AdmissionNotFound:
		ctl.sendFrame(conn, domain.NewError("room not found"))
		return nil, false
	case domain.AdmissionPasswordRequired:
		ctl.sendFrame(conn, domain.NewError("password required"))
		return nil, false
	case domain.AdmissionInvalidPassword:
		ctl.sendFrame(conn, domain.NewError("invalid password"))
		return nil, false
	}

	sess := &session{room: room, user: user, role: adm.Role(), conn: conn}
	if sess.role == domain.RoleGuest {
		// The content read is a network round-trip on the production store.
		// Holding the room lock across read, register and catch-up enqueue
		// keeps concurrent edits from landing between room_joined and
		// initial_content: an edit is either in the snapshot or queued
		// strictly after it.
		lock := ctl.roomLock(room)
		lock.Lock()
		content, err := ctl.Store.Content(ctx, room)
		ctl.Registry.Register(room, user, conn)
		ctl.sendFrame(conn, domain.NewRoomJoined(room, sess.role))
		if err != nil {
			log.Error().Err(err).Str("module", "collab").Str("room", string(room)).Msg("reading room content")
		} else {
			ctl.sendFrame(conn, domain.NewInitialContent(content))
		}
		lock.Unlock()
	} else {
		ctl.Registry.Register(room, user, conn)
		ctl.sendFrame(conn, domain.NewRoomJoined(room, sess.role))
	}

	// Join announcements are seen by the joiner too.
	ctl.announce(ctx, room, fmt.Sprintf("%s joined the room", user), user)
	log.Info().Str("module", "collab").Str("room", string(room)).Str("user", string(user)).Str("role", string(sess.role)).Msg("joined")
	return sess, true
}

// handleFrame stamps the sender on an inbound frame and relays it.
// Malformed payloads are logged and dropped without closing the connection.
func (ctl *Controller) handleFrame(ctx context.Context, sess *session, data []byte) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("module", "collab").Str("user", string(sess.user)).Msg("dropping malformed frame")
		return
	}

	kind, _ := msg["type"].(string)
	switch k := domain.Kind(kind); {
	case k == domain.KindJoin:
		log.Warn().Str("module", "collab").Str("user", string(sess.user)).Msg("duplicate join ignored")
		return
	case k.HostOnly() && sess.role != domain.RoleHost:
		ctl.sendFrame(sess.conn, domain.NewError("only the host can modify the file tree"))
		return
	}

	msg["userId"] = string(sess.user)
	msg["role"] = string(sess.role)

	out, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("re-encoding frame")
		return
	}

	if content, ok := msg["content"].(string); ok {
		// Store and fan out under the room lock so a guest mid-catch-up
		// sees this edit either in its snapshot or after initial_content.
		lock := ctl.roomLock(sess.room)
		lock.Lock()
		if err := ctl.Store.SetContent(ctx, sess.room, content); err != nil {
			log.Error().Err(err).Str("module", "collab").Str("room", string(sess.room)).Msg("storing room content")
		}
		ctl.Router.BroadcastLocal(sess.room, out, sess.user)
		lock.Unlock()
	} else {
		ctl.Router.BroadcastLocal(sess.room, out, sess.user)
	}
	ctl.publish(ctx, sess.room, out)
}

// teardown deregisters the connection and announces the departure.
// The local announcement is skipped when no local connections remain; the
// bridge still carries it to instances that do have them. A session whose
// handle was displaced by a reconnect announces nothing: the participant
// is still in the room.
func (ctl *Controller) teardown(sess *session) {
	removed, emptied := ctl.Registry.Unregister(sess.room, sess.user, sess.conn)
	if !removed {
		log.Info().Str("module", "collab").Str("room", string(sess.room)).Str("user", string(sess.user)).Msg("displaced session closed")
		return
	}
	if emptied {
		ctl.dropRoomLock(sess.room)
	}
	note, err := json.Marshal(domain.NewNotification(fmt.Sprintf("%s left the room", sess.user), sess.user))
	if err != nil {
		return
	}
	if !emptied {
		ctl.Router.BroadcastLocal(sess.room, note, sess.user)
	}
	ctl.publish(context.Background(), sess.room, note)
	log.Info().Str("module", "collab").Str("room", string(sess.room)).Str("user", string(sess.user)).Msg("session closed")
}

// DeliverRemote replays a payload that originated on another instance to
// the local connections of the room. It never republishes. The room lock
// parks remote edits behind any local guest's in-flight catch-up.
func (ctl *Controller) DeliverRemote(room domain.RoomID, payload []byte) {
	lock := ctl.roomLock(room)
	lock.Lock()
	ctl.Router.BroadcastLocal(room, payload, app.NoExclude)
	lock.Unlock()
}

func (ctl *Controller) announce(ctx context.Context, room domain.RoomID, content string, user domain.ParticipantID) {
	note, err := json.Marshal(domain.NewNotification(content, user))
	if err != nil {
		return
	}
	ctl.Router.BroadcastLocal(room, note, app.NoExclude)
	ctl.publish(ctx, room, note)
}

func (ctl *Controller) publish(ctx context.Context, room domain.RoomID, payload []byte) {
	if ctl.Bridge == nil {
		return
	}
	// Errors already degrade to local-only delivery inside the bridge.
	_ = ctl.Bridge.Publish(ctx, room, payload)
}

func (ctl *Controller) sendFrame(conn *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("sendFrame marshal")
		return
	}
	_ = conn.TrySend(b)
}
