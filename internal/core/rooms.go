package core

// Router tracks which clients are subscribed to which channel.
// Subscriptions are ephemeral: they do not survive the connection.
// Owned by the hub loop; callers never touch it concurrently.
type Router struct {
	rooms map[int64]map[*Client]struct{}
}

// NewRouter constructs an empty router.
func NewRouter() *Router {
	return &Router{rooms: make(map[int64]map[*Client]struct{})}
}

// Join subscribes the client to a channel. Returns false if the client was
// already subscribed (no-op).
func (r *Router) Join(c *Client, channelID int64) bool {
	if _, exists := c.channels[channelID]; exists {
		return false
	}
	room, ok := r.rooms[channelID]
	if !ok {
		room = make(map[*Client]struct{})
		r.rooms[channelID] = room
	}
	room[c] = struct{}{}
	c.channels[channelID] = struct{}{}
	return true
}

// Leave unsubscribes the client from a channel. Returns false if the client
// was not subscribed (no-op).
func (r *Router) Leave(c *Client, channelID int64) bool {
	if _, exists := c.channels[channelID]; !exists {
		return false
	}
	delete(c.channels, channelID)
	if room, ok := r.rooms[channelID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(r.rooms, channelID)
		}
	}
	return true
}

// LeaveAll removes the client from every channel it is subscribed to.
// Invoked when a connection is destroyed.
func (r *Router) LeaveAll(c *Client) {
	for channelID := range c.channels {
		r.Leave(c, channelID)
	}
}

// Subscribers returns a snapshot of the clients currently subscribed to a
// channel. Clients joining after the snapshot is taken are not included.
func (r *Router) Subscribers(channelID int64) []*Client {
	room, ok := r.rooms[channelID]
	if !ok {
		return nil
	}
	subs := make([]*Client, 0, len(room))
	for c := range room {
		subs = append(subs, c)
	}
	return subs
}
