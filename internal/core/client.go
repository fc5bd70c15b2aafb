package core

// User is the immutable identity bound to a connection for its lifetime.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Client is one live transport session as seen by the core layer.
type Client struct {
	ID       string
	User     User
	Commands chan *Command
	Events   chan *Event

	// closed by the hub when the client is unregistered
	done chan struct{}
	// channels the client is subscribed to; owned by the hub loop
	channels map[int64]struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id string, user User) *Client {
	return &Client{
		ID:       id,
		User:     user,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 8),
		done:     make(chan struct{}),
		channels: make(map[int64]struct{}),
	}
}

// trySend delivers an event without blocking. Returns false if the client's
// event buffer is full (slow consumer) and the event was dropped.
func (c *Client) trySend(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
