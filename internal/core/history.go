package core

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarkhas/relaychat-server/internal/store"
)

// HistoryPage is one page of channel history, oldest to newest. NextCursor
// is the created_at of the oldest message in the page, or nil when the page
// is empty, and is passed back to request the next older page.
type HistoryPage struct {
	Messages   []*store.Message
	NextCursor *time.Time
}

// Paginator serves backward-cursor pagination over the message store.
// Pages are ordered consistently with the live broadcast stream, so a
// client can walk history and then switch to live updates without a gap.
type Paginator struct {
	store        store.MessageStore
	defaultLimit int
}

// NewPaginator constructs a paginator with the given default page size.
func NewPaginator(st store.MessageStore, defaultLimit int) *Paginator {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &Paginator{store: st, defaultLimit: defaultLimit}
}

// Page returns up to limit messages strictly older than cursor (the most
// recent messages when cursor is nil). The cursor comparison uses
// created_at only; a run of equal timestamps longer than a page can
// straddle a page boundary ambiguously, which is an accepted limitation.
func (p *Paginator) Page(ctx context.Context, channelID int64, cursor *time.Time, limit int) (*HistoryPage, error) {
	if limit <= 0 {
		limit = p.defaultLimit
	}

	messages, err := p.store.ListMessagesBefore(ctx, channelID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	page := &HistoryPage{Messages: messages}
	if len(messages) > 0 {
		oldest := messages[0].CreatedAt
		page.NextCursor = &oldest
	}
	return page, nil
}
