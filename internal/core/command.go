package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinChannel subscribes the client to a channel's live updates.
	CommandJoinChannel CommandKind = iota
	// CommandLeaveChannel unsubscribes the client from a channel.
	CommandLeaveChannel
	// CommandSendMessage persists and fans out a chat message.
	CommandSendMessage
)

// Command represents an action requested by a client.
type Command struct {
	Kind      CommandKind
	ChannelID int64
	Content   string
}
