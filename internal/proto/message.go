package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin  = "channel:join"
	InboundTypeLeave = "channel:leave"
	InboundTypeSend  = "message:send"

	OutboundTypeMessage  = "message:new"
	OutboundTypePresence = "presence:update"
	OutboundTypeError    = "error"
)

// ChannelData selects the channel for join/leave requests.
type ChannelData struct {
	ChannelID int64 `json:"channelId"`
}

// SendData is a chat message from the client.
type SendData struct {
	ChannelID int64  `json:"channelId"`
	Content   string `json:"content"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// UserRef identifies the author of a message.
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MessagePayload is the normalized message shape, identical for socket
// broadcasts and REST history responses.
type MessagePayload struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channel_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	User      UserRef   `json:"user"`
}

// PresencePayload carries the full set of currently online users.
type PresencePayload struct {
	OnlineUserIDs []int64 `json:"onlineUserIds"`
}

// ErrorPayload describes a failed action, delivered only to the
// originating connection.
type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
