// Package broker provides the group pub/sub substrate sessions use to fan
// events out to every member of a room channel.
package broker

import "context"

// Broadcast kinds carried on a channel. These tag the resulting wire events.
const (
	KindEnter   = "enter"
	KindLeave   = "leave"
	KindMessage = "message"
)

// Broadcast is the payload fanned out to every subscriber of a channel.
type Broadcast struct {
	Kind     string `json:"kind"`
	Room     string `json:"room"`
	Username string `json:"username"`
	Message  string `json:"message,omitempty"`
}

// Subscriber receives broadcasts for channels it is subscribed to.
// Deliver must not block: a stalled subscriber must not delay delivery to
// other subscribers of the same channel.
type Subscriber interface {
	Deliver(b Broadcast)
}

// Broker fans published broadcasts out to all current subscribers of a
// channel, at least once each. Subscribing an already-subscribed subscriber
// is a no-op, as is unsubscribing one that was never subscribed.
type Broker interface {
	Subscribe(ctx context.Context, channel string, sub Subscriber) error
	Unsubscribe(ctx context.Context, channel string, sub Subscriber) error
	Publish(ctx context.Context, channel string, b Broadcast) error
	Close() error
}
