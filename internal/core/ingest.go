package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmarkhas/relaychat-server/internal/store"
)

// Pipeline validates and persists incoming messages. It is the single write
// path for both the live socket and the REST fallback, so both produce
// records with identical shape and ordering semantics.
type Pipeline struct {
	store store.MessageStore
}

// NewPipeline constructs a pipeline over the given message store.
func NewPipeline(st store.MessageStore) *Pipeline {
	return &Pipeline{store: st}
}

// Submit trims and validates rawContent, persists it, and returns the
// canonical message record with store-assigned id and created_at.
// Returns ErrEmptyContent when the trimmed content is empty; store failures
// are wrapped and nothing is persisted or broadcast for them.
func (p *Pipeline) Submit(ctx context.Context, channelID, userID int64, rawContent string) (*store.Message, error) {
	content := strings.TrimSpace(rawContent)
	if content == "" {
		return nil, ErrEmptyContent
	}

	msg, err := p.store.InsertMessage(ctx, channelID, userID, content)
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	return msg, nil
}
