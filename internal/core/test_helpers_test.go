package core

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmarkhas/relaychat-server/internal/store"
)

// memStore is an in-memory MessageStore with a deterministic clock,
// good enough to drive the hub and paginator in tests.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	clock      time.Time
	step       time.Duration
	messages   []*store.Message
	failInsert error
}

func newMemStore() *memStore {
	return &memStore{
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		step:  time.Second,
	}
}

func (m *memStore) InsertMessage(_ context.Context, channelID, userID int64, content string) (*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInsert != nil {
		return nil, m.failInsert
	}

	m.nextID++
	m.clock = m.clock.Add(m.step)
	msg := &store.Message{
		ID:        m.nextID,
		ChannelID: channelID,
		UserID:    userID,
		Content:   content,
		CreatedAt: m.clock,
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

// seed inserts a message with an explicit timestamp, bypassing the clock.
func (m *memStore) seed(channelID, userID int64, content string, at time.Time) *store.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	msg := &store.Message{
		ID:        m.nextID,
		ChannelID: channelID,
		UserID:    userID,
		Content:   content,
		CreatedAt: at,
	}
	m.messages = append(m.messages, msg)
	return msg
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func (m *memStore) ListMessagesBefore(_ context.Context, channelID int64, cursor *time.Time, limit int) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*store.Message
	for _, msg := range m.messages {
		if msg.ChannelID != channelID {
			continue
		}
		if cursor != nil && !msg.CreatedAt.Before(*cursor) {
			continue
		}
		matched = append(matched, msg)
	}

	// newest first with id descending among ties, then truncate and reverse
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	for i := 0; i < len(matched)/2; i++ {
		j := len(matched) - 1 - i
		matched[i], matched[j] = matched[j], matched[i]
	}
	return matched, nil
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind, within time.Duration) {
	t.Helper()

	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}
