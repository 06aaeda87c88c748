package collab

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const defaultWriteTimeout = 5 * time.Second

func (ctl *Controller) writeTimeout() time.Duration {
	if ctl.WriteTimeout > 0 {
		return ctl.WriteTimeout
	}
	return defaultWriteTimeout
}

// writePump is the only writer of the underlying socket. It drains the send
// channel until Close and then closes the socket, so queued frames are
// flushed before the peer sees the connection drop.
func (ctl *Controller) writePump(c *wsConn) {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.writeTimeout())); err != nil {
			log.Error().Err(err).Str("module", "collab").Msg("writePump set deadline")
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Str("module", "collab").Msg("writePump write error")
			return
		}
	}
}

// readLoop pulls frames until the transport closes or ctx is canceled.
// A read error is normal teardown, never fatal for the room.
func (ctl *Controller) readLoop(ctx context.Context, sess *session) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := sess.conn.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "collab").Str("user", string(sess.user)).Msg("read loop closing")
				return
			}
			ctl.handleFrame(ctx, sess, data)
		}
	}
}
