package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered user.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Channel represents a durable chat channel.
type Channel struct {
	ID          int64
	Name        string
	Description string
	CreatedBy   *int64
	CreatedAt   time.Time
	MemberCount int
}

// Message represents a persisted chat message.
// UserName is resolved by a join on read paths and may be empty on insert.
type Message struct {
	ID        int64
	ChannelID int64
	UserID    int64
	UserName  string
	Content   string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// ChannelStore handles channel and membership persistence.
type ChannelStore interface {
	// CreateChannel creates a new channel and adds the creator as a member.
	CreateChannel(ctx context.Context, name, description string, createdBy int64) (*Channel, error)

	// GetChannel retrieves a channel by ID.
	GetChannel(ctx context.Context, id int64) (*Channel, error)

	// ListChannels lists all channels with member counts, newest first.
	ListChannels(ctx context.Context) ([]*Channel, error)

	// ListJoinedChannels lists channels the user is a member of, newest first.
	ListJoinedChannels(ctx context.Context, userID int64) ([]*Channel, error)

	// AddMember adds a user to a channel. Idempotent.
	AddMember(ctx context.Context, channelID, userID int64) error

	// RemoveMember removes a user from a channel. Idempotent.
	RemoveMember(ctx context.Context, channelID, userID int64) error

	// ListMembers lists all members of a channel.
	ListMembers(ctx context.Context, channelID int64) ([]*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertMessage persists a message, assigning its id and created_at.
	// The returned record is the canonical form of the message.
	InsertMessage(ctx context.Context, channelID, userID int64, content string) (*Message, error)

	// ListMessagesBefore returns up to limit messages for a channel strictly
	// older than the cursor (all messages when cursor is nil), ordered
	// oldest to newest with id ascending among equal timestamps.
	ListMessagesBefore(ctx context.Context, channelID int64, cursor *time.Time, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ChannelStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
