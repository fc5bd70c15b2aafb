package core

import (
	"testing"

	"github.com/dmarkhas/relaychat-server/internal/store"
)

func TestBroadcastReachesSubscribersOnly(t *testing.T) {
	router := NewRouter()
	caster := NewBroadcaster(router)

	alice := NewClient("a", User{ID: 1, Name: "alice"})
	bob := NewClient("b", User{ID: 2, Name: "bob"})
	carol := NewClient("c", User{ID: 3, Name: "carol"})

	router.Join(alice, 42)
	router.Join(bob, 42)
	router.Join(carol, 99)

	msg := &store.Message{ID: 1, ChannelID: 42, UserID: 1, UserName: "alice", Content: "hello"}
	d := caster.Publish(msg)

	if len(d.Recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(d.Recipients))
	}
	if len(d.Dropped) != 0 {
		t.Fatalf("expected no drops, got %d", len(d.Dropped))
	}

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventNewMessage)
		if ev.Message.Content != "hello" || ev.Message.ChannelID != 42 {
			t.Fatalf("unexpected message event: %+v", ev.Message)
		}
	}
	select {
	case ev := <-carol.Events:
		t.Fatalf("carol must receive nothing, got %+v", ev)
	default:
	}
}

func TestBroadcastDropDoesNotBlockOthers(t *testing.T) {
	router := NewRouter()
	caster := NewBroadcaster(router)

	slow := NewClient("slow", User{ID: 1, Name: "slow"})
	fast := NewClient("fast", User{ID: 2, Name: "fast"})
	router.Join(slow, 42)
	router.Join(fast, 42)

	// Fill the slow client's event buffer so the next send must drop.
	for i := 0; i < cap(slow.Events); i++ {
		slow.Events <- &Event{Kind: EventPresence}
	}

	msg := &store.Message{ID: 1, ChannelID: 42, UserID: 2, Content: "hi"}
	d := caster.Publish(msg)

	if len(d.Recipients) != 2 {
		t.Fatalf("expected both connections attempted, got %d", len(d.Recipients))
	}
	if len(d.Dropped) != 1 || d.Dropped[0] != slow {
		t.Fatalf("expected the slow client to be dropped, got %+v", d.Dropped)
	}

	ev := mustEvent(t, fast.Events, EventNewMessage)
	if ev.Message.Content != "hi" {
		t.Fatalf("fast client should still get the message, got %+v", ev.Message)
	}
}
