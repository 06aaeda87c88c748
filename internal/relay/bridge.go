// Package relay propagates room broadcasts between server instances over a
// Redis pub/sub backbone so a multi-process deployment behaves as one
// logical room.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"collabide/server/internal/domain"
)

const channelPrefix = "collab:room:"

// DeliverFunc performs a local-only broadcast of a payload that originated
// on another instance. It must never republish to the broker.
type DeliverFunc func(room domain.RoomID, payload []byte)

// envelope wraps every published payload with the id of the instance that
// published it, so an instance can skip its own broadcasts when they come
// back over the pattern subscription.
type envelope struct {
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}

type inbound struct {
	channel string
	payload string
}

type Bridge struct {
	rdb        *redis.Client
	instanceID string
	deliver    DeliverFunc

	// Handoff between the blocking subscriber goroutine and the delivery
	// loop: single producer, single consumer.
	queue chan inbound
}

func NewBridge(rdb *redis.Client, deliver DeliverFunc) *Bridge {
	return &Bridge{
		rdb:        rdb,
		instanceID: uuid.NewString(),
		deliver:    deliver,
		queue:      make(chan inbound, 64),
	}
}

// Publish relays a locally broadcast payload to the other instances.
// Broker failures degrade the system to single-instance operation; they are
// logged and never returned to a session as fatal.
func (b *Bridge) Publish(ctx context.Context, room domain.RoomID, payload []byte) error {
	raw, err := json.Marshal(envelope{Origin: b.instanceID, Data: payload})
	if err != nil {
		return fmt.Errorf("encode relay envelope: %w", err)
	}
	if err := b.rdb.Publish(ctx, channelPrefix+string(room), raw).Err(); err != nil {
		log.Warn().Err(err).Str("module", "relay").Str("room", string(room)).Msg("publish failed, local-only broadcast")
		return err
	}
	return nil
}

// Run subscribes to every room channel and replays inbound payloads to the
// local registry until ctx is canceled. The subscriber goroutine may block
// indefinitely on receive; it only hands items across the queue.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	go func() {
		for msg := range pubsub.Channel() {
			select {
			case b.queue <- inbound{channel: msg.Channel, payload: msg.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info().Str("module", "relay").Str("instance", b.instanceID).Msg("fanout bridge running")
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-b.queue:
			b.handleInbound(in.channel, []byte(in.payload))
		}
	}
}

func (b *Bridge) handleInbound(channel string, payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Warn().Err(err).Str("module", "relay").Str("channel", channel).Msg("dropping malformed relay payload")
		return
	}
	if env.Origin == b.instanceID {
		return
	}
	room := domain.RoomID(strings.TrimPrefix(channel, channelPrefix))
	b.deliver(room, env.Data)
}
