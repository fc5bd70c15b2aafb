package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dmarkhas/relaychat-server/internal/store"
)

// Schema is the full database schema. Applied on startup; every statement
// is idempotent so re-running against an existing database is safe.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS channels (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	created_by  INTEGER,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (created_by) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS channel_members (
	channel_id INTEGER NOT NULL,
	user_id    INTEGER NOT NULL,
	joined_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (channel_id, user_id),
	FOREIGN KEY (channel_id) REFERENCES channels(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	channel_id INTEGER NOT NULL,
	user_id    INTEGER NOT NULL,
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (channel_id) REFERENCES channels(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_channel_members_user ON channel_members(user_id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and ensures the schema exists.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema or seed rows.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, name, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// ==== ChannelStore implementation ====

// CreateChannel creates a new channel and adds the creator as a member.
func (s *SQLiteStore) CreateChannel(ctx context.Context, name, description string, createdBy int64) (*store.Channel, error) {
	query := `
		INSERT INTO channels (name, description, created_by)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, name, description, createdBy)
	if err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if err := s.AddMember(ctx, id, createdBy); err != nil {
		return nil, err
	}

	return s.GetChannel(ctx, id)
}

// GetChannel retrieves a channel by ID, including its member count.
func (s *SQLiteStore) GetChannel(ctx context.Context, id int64) (*store.Channel, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_by, c.created_at,
		       (SELECT COUNT(*) FROM channel_members cm WHERE cm.channel_id = c.id)
		FROM channels c
		WHERE c.id = ?
	`
	var ch store.Channel
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&ch.ID,
		&ch.Name,
		&ch.Description,
		&ch.CreatedBy,
		&ch.CreatedAt,
		&ch.MemberCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query channel: %w", err)
	}
	return &ch, nil
}

// ListChannels lists all channels with member counts, newest first.
func (s *SQLiteStore) ListChannels(ctx context.Context) ([]*store.Channel, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_by, c.created_at,
		       COUNT(cm.user_id)
		FROM channels c
		LEFT JOIN channel_members cm ON cm.channel_id = c.id
		GROUP BY c.id
		ORDER BY c.created_at DESC, c.id DESC
	`
	return s.queryChannels(ctx, query)
}

// ListJoinedChannels lists channels the user is a member of, newest first.
func (s *SQLiteStore) ListJoinedChannels(ctx context.Context, userID int64) ([]*store.Channel, error) {
	query := `
		SELECT c.id, c.name, c.description, c.created_by, c.created_at,
		       (SELECT COUNT(*) FROM channel_members cm2 WHERE cm2.channel_id = c.id)
		FROM channels c
		JOIN channel_members cm ON cm.channel_id = c.id AND cm.user_id = ?
		ORDER BY c.created_at DESC, c.id DESC
	`
	return s.queryChannels(ctx, query, userID)
}

func (s *SQLiteStore) queryChannels(ctx context.Context, query string, args ...any) ([]*store.Channel, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	channels := make([]*store.Channel, 0)
	for rows.Next() {
		var ch store.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Description, &ch.CreatedBy, &ch.CreatedAt, &ch.MemberCount); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, &ch)
	}
	return channels, rows.Err()
}

// AddMember adds a user to a channel. Idempotent.
func (s *SQLiteStore) AddMember(ctx context.Context, channelID, userID int64) error {
	query := `
		INSERT OR IGNORE INTO channel_members (channel_id, user_id)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, channelID, userID); err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a channel. Idempotent.
func (s *SQLiteStore) RemoveMember(ctx context.Context, channelID, userID int64) error {
	query := `
		DELETE FROM channel_members
		WHERE channel_id = ? AND user_id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, channelID, userID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// ListMembers lists all members of a channel.
func (s *SQLiteStore) ListMembers(ctx context.Context, channelID int64) ([]*store.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.password_hash, u.created_at
		FROM channel_members cm
		JOIN users u ON u.id = cm.user_id
		WHERE cm.channel_id = ?
		ORDER BY u.id
	`
	rows, err := s.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make([]*store.User, 0)
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, &u)
	}
	return members, rows.Err()
}

// ==== MessageStore implementation ====

// InsertMessage persists a message, assigning its id and created_at.
func (s *SQLiteStore) InsertMessage(ctx context.Context, channelID, userID int64, content string) (*store.Message, error) {
	now := time.Now().UTC()

	query := `
		INSERT INTO messages (channel_id, user_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, channelID, userID, content, now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	var userName string
	if err := s.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, userID).Scan(&userName); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query sender name: %w", err)
	}

	return &store.Message{
		ID:        id,
		ChannelID: channelID,
		UserID:    userID,
		UserName:  userName,
		Content:   content,
		CreatedAt: now,
	}, nil
}

// ListMessagesBefore returns up to limit messages older than the cursor,
// ordered oldest to newest. The newest-first query with an id tie-break is
// reversed, so equal timestamps come out id ascending within the page.
func (s *SQLiteStore) ListMessagesBefore(ctx context.Context, channelID int64, cursor *time.Time, limit int) ([]*store.Message, error) {
	var query string
	var args []any

	if cursor != nil {
		query = `
			SELECT m.id, m.channel_id, m.user_id, u.name, m.content, m.created_at
			FROM messages m
			JOIN users u ON u.id = m.user_id
			WHERE m.channel_id = ? AND m.created_at < ?
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?
		`
		args = []any{channelID, cursor.UTC(), limit}
	} else {
		query = `
			SELECT m.id, m.channel_id, m.user_id, u.name, m.content, m.created_at
			FROM messages m
			JOIN users u ON u.id = m.user_id
			WHERE m.channel_id = ?
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?
		`
		args = []any{channelID, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.ChannelID, &msg.UserID, &msg.UserName, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Reverse to get chronological order
	for i := 0; i < len(messages)/2; i++ {
		j := len(messages) - 1 - i
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
