package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dmarkhas/relaychat-server/internal/store"
)

// Hub coordinates live connections: presence counting, channel
// subscriptions, message ingest and fan-out. All registry and router
// mutations happen on the single Run goroutine, so none of the shared
// state needs locking; store writes are the only operations that suspend
// the loop.
type Hub struct {
	registry *Registry
	router   *Router
	pipeline *Pipeline
	caster   *Broadcaster

	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand

	// closed when Run returns so lifecycle calls never block on a
	// stopped hub
	stopped chan struct{}

	log *zerolog.Logger
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// NewHub creates a hub over the given message store.
func NewHub(st store.MessageStore, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	router := NewRouter()
	return &Hub{
		registry:   NewRegistry(),
		router:     router,
		pipeline:   NewPipeline(st),
		caster:     NewBroadcaster(router),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand),
		stopped:    make(chan struct{}),
		log:        logger,
	}
}

// RegisterClient hands an authenticated connection to the hub. The client
// starts receiving presence updates immediately and channel traffic once
// it joins.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

// UnregisterClient removes a connection: leave-all, then presence
// unregister, then one presence publication. Safe to call once per client.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Run processes lifecycle events and client commands until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.registry.Register(c.User.ID)
			go h.pump(c)
			h.log.Debug().
				Str("client_id", c.ID).
				Int64("user_id", c.User.ID).
				Int("connections", h.registry.Count(c.User.ID)).
				Msg("client registered")
			h.publishPresence()

		case c := <-h.unregister:
			if _, ok := h.clients[c]; !ok {
				continue
			}
			delete(h.clients, c)
			// Leave rooms before the registry mutation so no broadcast can
			// target the dead connection afterwards.
			h.router.LeaveAll(c)
			h.registry.Unregister(c.User.ID)
			close(c.done)
			close(c.Events)
			h.log.Debug().
				Str("client_id", c.ID).
				Int64("user_id", c.User.ID).
				Int("connections", h.registry.Count(c.User.ID)).
				Msg("client unregistered")
			h.publishPresence()

		case env := <-h.commands:
			if _, ok := h.clients[env.client]; !ok {
				// Connection destroyed before the command was dispatched.
				continue
			}
			h.handleCommand(ctx, env.client, env.cmd)
		}
	}
}

// pump forwards one client's commands into the hub's single consumer.
func (h *Hub) pump(c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-h.stopped:
				return
			}
		case <-c.done:
			return
		case <-h.stopped:
			return
		}
	}
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinChannel:
		if h.router.Join(c, cmd.ChannelID) {
			h.log.Debug().Str("client_id", c.ID).Int64("channel_id", cmd.ChannelID).Msg("joined channel")
		}

	case CommandLeaveChannel:
		if h.router.Leave(c, cmd.ChannelID) {
			h.log.Debug().Str("client_id", c.ID).Int64("channel_id", cmd.ChannelID).Msg("left channel")
		}

	case CommandSendMessage:
		msg, err := h.pipeline.Submit(ctx, cmd.ChannelID, c.User.ID, cmd.Content)
		if err != nil {
			// Scoped to the originating connection; nobody else hears
			// about a failed attempt.
			c.trySend(&Event{Kind: EventError, Error: errorFor(err)})
			h.log.Warn().Err(err).
				Str("client_id", c.ID).
				Int64("channel_id", cmd.ChannelID).
				Msg("message rejected")
			return
		}
		if msg.UserName == "" {
			msg.UserName = c.User.Name
		}
		d := h.caster.Publish(msg)
		h.log.Debug().
			Int64("message_id", msg.ID).
			Int64("channel_id", msg.ChannelID).
			Int("recipients", len(d.Recipients)).
			Int("dropped", len(d.Dropped)).
			Msg("message broadcast")
	}
}

// publishPresence pushes the full online set to every connection,
// process-wide, on each registry change. No diffing against the previous
// snapshot; O(clients) per connect/disconnect is fine at this scale.
func (h *Hub) publishPresence() {
	ev := &Event{Kind: EventPresence, OnlineUserIDs: h.registry.OnlineUserIDs()}
	for c := range h.clients {
		c.trySend(ev)
	}
}
