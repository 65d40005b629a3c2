package redis

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"viewora-deals/pkg/logger"
)

const roomEventsChannel = "interest_room_events"

// roomEnvelope wraps a room event for transit between instances. Origin lets
// a subscriber drop its own publications: the local hub already delivered
// them, and re-injecting would duplicate frames.
type roomEnvelope struct {
	Origin           string          `json:"origin"`
	InterestID       string          `json:"interest_id"`
	ExcludeSessionID string          `json:"exclude_session_id,omitempty"`
	Payload          json.RawMessage `json:"payload"`
}

// RoomBridge relays room events over redis pub/sub so sessions connected to
// different instances still share a room. The in-process hub stays the
// source of truth for membership; the bridge only moves frames.
type RoomBridge struct {
	client     *redis.Client
	instanceID string
	log        logger.Logger
}

func NewRoomBridge(client *redis.Client, instanceID string, log logger.Logger) *RoomBridge {
	return &RoomBridge{
		client:     client,
		instanceID: instanceID,
		log:        log,
	}
}

func (b *RoomBridge) PublishRoomEvent(interestID string, event interface{}, excludeSessionID string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	envelope := roomEnvelope{
		Origin:           b.instanceID,
		InterestID:       interestID,
		ExcludeSessionID: excludeSessionID,
		Payload:          payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return b.client.Publish(context.Background(), roomEventsChannel, data).Err()
}

// Run subscribes and feeds remote events into deliver until ctx is done.
// deliver is the local hub's fan-out.
func (b *RoomBridge) Run(ctx context.Context, deliver func(interestID string, payload json.RawMessage, excludeSessionID string)) error {
	pubsub := b.client.Subscribe(ctx, roomEventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	b.log.Info("Room bridge subscribed", "channel", roomEventsChannel)

	for {
		select {
		case msg := <-ch:
			var envelope roomEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				b.log.Error("Failed to parse room envelope", "payload", msg.Payload, "error", err)
				continue
			}

			if envelope.Origin == b.instanceID {
				continue
			}

			deliver(envelope.InterestID, envelope.Payload, envelope.ExcludeSessionID)

		case <-ctx.Done():
			b.log.Info("Room bridge stopped")
			return ctx.Err()
		}
	}
}
