package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHubJoinBroadcast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	st := newMemStore()
	hub := NewHub(st, nil)
	go hub.Run(ctx)

	alice := NewClient("a", User{ID: 1, Name: "alice"})
	bob := NewClient("b", User{ID: 2, Name: "bob"})
	carol := NewClient("c", User{ID: 3, Name: "carol"})

	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	hub.RegisterClient(carol)

	// Each sender's own echo is a barrier: commands from one client are
	// handled in order, so receiving the echo proves the join before it
	// was applied.
	alice.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: 42}
	alice.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "sync-a"}
	mustEvent(t, alice.Events, EventNewMessage)

	bob.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: 42}
	bob.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "sync-b"}
	mustEvent(t, alice.Events, EventNewMessage)
	mustEvent(t, bob.Events, EventNewMessage)

	alice.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "hello"}

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventNewMessage)
		if ev.Message.Content != "hello" || ev.Message.ChannelID != 42 {
			t.Fatalf("unexpected message event: %+v", ev.Message)
		}
		if ev.Message.UserID != 1 || ev.Message.UserName != "alice" {
			t.Fatalf("message must carry the sender identity: %+v", ev.Message)
		}
	}

	// Carol never joined channel 42 and must receive nothing.
	mustNoEvent(t, carol.Events, EventNewMessage, 200*time.Millisecond)

	if st.count() != 3 {
		t.Fatalf("expected three persisted messages, got %d", st.count())
	}
}

func TestHubLeaveStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(newMemStore(), nil)
	go hub.Run(ctx)

	alice := NewClient("a", User{ID: 1, Name: "alice"})
	bob := NewClient("b", User{ID: 2, Name: "bob"})
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: 42}
	alice.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "sync-a"}
	mustEvent(t, alice.Events, EventNewMessage)

	bob.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: 42}
	bob.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "sync-b"}
	mustEvent(t, alice.Events, EventNewMessage)
	mustEvent(t, bob.Events, EventNewMessage)

	// Bob leaves, then sends. His own commands are handled in order, so by
	// the time alice sees this message the leave has already happened, and
	// bob must not get a copy of what he sent.
	bob.Commands <- &Command{Kind: CommandLeaveChannel, ChannelID: 42}
	bob.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "after-leave"}

	ev := mustEvent(t, alice.Events, EventNewMessage)
	if ev.Message.Content != "after-leave" {
		t.Fatalf("expected the post-leave message, got %+v", ev.Message)
	}
	mustNoEvent(t, bob.Events, EventNewMessage, 200*time.Millisecond)
}

func TestHubEmptyMessageScopedError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	st := newMemStore()
	hub := NewHub(st, nil)
	go hub.Run(ctx)

	alice := NewClient("a", User{ID: 1, Name: "alice"})
	bob := NewClient("b", User{ID: 2, Name: "bob"})
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: 42}
	bob.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: 42}

	alice.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "   \n"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeEmptyContent {
		t.Fatalf("expected empty_content error, got %+v", ev)
	}
	// No persistence, no broadcast, nobody else informed.
	if st.count() != 0 {
		t.Fatalf("empty content must never be persisted, got %d messages", st.count())
	}
	mustNoEvent(t, bob.Events, EventNewMessage, 200*time.Millisecond)
	mustNoEvent(t, bob.Events, EventError, 50*time.Millisecond)
}

func TestHubStoreFailureScopedError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	st := newMemStore()
	st.failInsert = errors.New("db locked")
	hub := NewHub(st, nil)
	go hub.Run(ctx)

	alice := NewClient("a", User{ID: 1, Name: "alice"})
	bob := NewClient("b", User{ID: 2, Name: "bob"})
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: 42}
	bob.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: 42}

	alice.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "hello"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeStore {
		t.Fatalf("expected store_error, got %+v", ev)
	}
	mustNoEvent(t, bob.Events, EventNewMessage, 200*time.Millisecond)
}

func TestHubPresencePerRegistryChange(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(newMemStore(), nil)
	go hub.Run(ctx)

	observer := NewClient("obs", User{ID: 1, Name: "observer"})
	hub.RegisterClient(observer)

	ev := mustEvent(t, observer.Events, EventPresence)
	if len(ev.OnlineUserIDs) != 1 || ev.OnlineUserIDs[0] != 1 {
		t.Fatalf("expected [1], got %v", ev.OnlineUserIDs)
	}

	// User 7 opens two connections.
	first := NewClient("c1", User{ID: 7, Name: "dual"})
	second := NewClient("c2", User{ID: 7, Name: "dual"})
	hub.RegisterClient(first)

	ev = mustEvent(t, observer.Events, EventPresence)
	if !containsID(ev.OnlineUserIDs, 7) {
		t.Fatalf("user 7 should be online after first connection, got %v", ev.OnlineUserIDs)
	}

	hub.RegisterClient(second)
	mustEvent(t, observer.Events, EventPresence)

	// Closing one connection keeps the user online.
	hub.UnregisterClient(second)
	ev = mustEvent(t, observer.Events, EventPresence)
	if !containsID(ev.OnlineUserIDs, 7) {
		t.Fatalf("user 7 should still be online with one connection left, got %v", ev.OnlineUserIDs)
	}

	// Closing the last one removes the user entirely.
	hub.UnregisterClient(first)
	ev = mustEvent(t, observer.Events, EventPresence)
	if containsID(ev.OnlineUserIDs, 7) {
		t.Fatalf("user 7 should be gone, got %v", ev.OnlineUserIDs)
	}
	if len(ev.OnlineUserIDs) != 1 || ev.OnlineUserIDs[0] != 1 {
		t.Fatalf("only the observer should remain, got %v", ev.OnlineUserIDs)
	}
}

func TestHubUnregisterLeavesAllChannels(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(newMemStore(), nil)
	go hub.Run(ctx)

	alice := NewClient("a", User{ID: 1, Name: "alice"})
	bob := NewClient("b", User{ID: 2, Name: "bob"})
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: 42}
	alice.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "sync-a"}
	mustEvent(t, alice.Events, EventNewMessage)

	bob.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: 42}
	bob.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "sync-b"}
	mustEvent(t, alice.Events, EventNewMessage)
	mustEvent(t, bob.Events, EventNewMessage)

	hub.UnregisterClient(bob)

	// A later broadcast must not attempt the dead connection.
	alice.Commands <- &Command{Kind: CommandSendMessage, ChannelID: 42, Content: "after"}
	ev := mustEvent(t, alice.Events, EventNewMessage)
	if ev.Message.Content != "after" {
		t.Fatalf("expected the second message, got %+v", ev.Message)
	}
}

func TestHubStoppedUnblocksLifecycleCalls(t *testing.T) {
	hub := NewHub(newMemStore(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	runDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(runDone)
	}()

	alice := NewClient("a", User{ID: 1, Name: "alice"})
	hub.RegisterClient(alice)

	cancel()
	<-runDone

	// A connection torn down after shutdown must not hang on the hub.
	finished := make(chan struct{})
	go func() {
		hub.UnregisterClient(alice)
		hub.RegisterClient(NewClient("b", User{ID: 2, Name: "bob"}))
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("lifecycle calls must return once the hub has stopped")
	}
}

func containsID(ids []int64, want int64) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
