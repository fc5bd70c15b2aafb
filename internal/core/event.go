package core

import "github.com/dmarkhas/relaychat-server/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventNewMessage notifies channel subscribers about a new message.
	EventNewMessage EventKind = iota
	// EventPresence delivers the full online-user set to all clients.
	EventPresence
	// EventError notifies the originating client about a failed action.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind          EventKind
	Message       *store.Message // for EventNewMessage
	OnlineUserIDs []int64        // for EventPresence
	Error         *CoreError     // for EventError
}
