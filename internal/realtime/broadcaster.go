package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/polybazaar/polybazaar-backend/pkg/logger"
)

// publisher is the subset of the redis client the broadcaster needs.
type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Event is the JSON envelope published on the broadcast channel. Clients use
// the name as a refresh hint and refetch; the payload is advisory only.
type Event struct {
	Name    string    `json:"event"`
	Payload any       `json:"payload,omitempty"`
	EmitTS  time.Time `json:"emitted_at"`
}

// Broadcaster publishes fire-and-forget refresh events over redis pub/sub.
// Publish failures are logged and swallowed: a missed event must never fail
// the operation that produced it, and offline subscribers simply miss it.
type Broadcaster struct {
	pub     publisher
	channel string
	logg    *logger.Logger
}

// NewBroadcaster wires the broadcaster to a redis publisher and channel.
func NewBroadcaster(pub publisher, channel string, logg *logger.Logger) *Broadcaster {
	return &Broadcaster{
		pub:     pub,
		channel: channel,
		logg:    logg,
	}
}

// Broadcast emits one named event. Safe to call on a nil receiver.
func (b *Broadcaster) Broadcast(ctx context.Context, event string, payload any) {
	if b == nil || b.pub == nil {
		return
	}

	body, err := json.Marshal(Event{
		Name:    event,
		Payload: payload,
		EmitTS:  time.Now().UTC(),
	})
	if err != nil {
		b.warn(ctx, event, err)
		return
	}

	if err := b.pub.Publish(ctx, b.channel, body); err != nil {
		b.warn(ctx, event, err)
	}
}

func (b *Broadcaster) warn(ctx context.Context, event string, err error) {
	if b.logg == nil {
		return
	}
	ctx = b.logg.WithField(ctx, "event", event)
	b.logg.Warn(ctx, "broadcast dropped: "+err.Error())
}
