package core

import "github.com/dmarkhas/relaychat-server/internal/store"

// Delivery reports the outcome of one fan-out: which connections were
// attempted and which had their event dropped. A drop never blocks
// delivery to the rest of the subscriber set.
type Delivery struct {
	Recipients []*Client
	Dropped    []*Client
}

// Broadcaster fans a persisted message out to the channel's subscribers.
type Broadcaster struct {
	router *Router
}

// NewBroadcaster constructs a broadcaster over the given router.
func NewBroadcaster(router *Router) *Broadcaster {
	return &Broadcaster{router: router}
}

// Publish delivers msg to every client subscribed to its channel at the
// moment of the call. Must only be invoked with an already-persisted
// message; delivery failures do not affect its durability.
func (b *Broadcaster) Publish(msg *store.Message) Delivery {
	var d Delivery
	ev := &Event{Kind: EventNewMessage, Message: msg}
	for _, c := range b.router.Subscribers(msg.ChannelID) {
		d.Recipients = append(d.Recipients, c)
		if !c.trySend(ev) {
			d.Dropped = append(d.Dropped, c)
		}
	}
	return d
}
