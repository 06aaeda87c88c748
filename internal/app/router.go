package app

import (
	"github.com/rs/zerolog/log"

	"collabide/server/internal/domain"
)

// NoExclude broadcasts to every registered connection, the sender included.
const NoExclude = domain.ParticipantID("")

// Router fans a payload out to the connections of one room on this process.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// BroadcastLocal delivers payload to every connection registered for the
// room except exclude. Delivery is best-effort: participants whose send
// fails are pruned from the registry after the iteration completes, never
// during it, and their handles are closed so the client observes the
// disconnect instead of lingering deaf in the room. Failures are not
// surfaced to any other client.
func (rt *Router) BroadcastLocal(room domain.RoomID, payload []byte, exclude domain.ParticipantID) {
	var failed []Snapshot
	for _, peer := range rt.registry.Participants(room) {
		if peer.ID == exclude {
			continue
		}
		if err := peer.Conn.TrySend(payload); err != nil {
			log.Warn().Err(err).Str("module", "app.router").Str("room", string(room)).Str("user", string(peer.ID)).Msg("dropping unreachable connection")
			failed = append(failed, peer)
		}
	}
	for _, peer := range failed {
		rt.registry.Unregister(room, peer.ID, peer.Conn)
		peer.Conn.Close()
	}
}
