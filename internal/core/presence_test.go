package core

import "testing"

func TestRegistryCountsPerConnection(t *testing.T) {
	r := NewRegistry()

	r.Register(7)
	r.Register(7)
	if got := r.Count(7); got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}

	r.Unregister(7)
	if got := r.Count(7); got != 1 {
		t.Fatalf("expected count 1 after one unregister, got %d", got)
	}
	if ids := r.OnlineUserIDs(); len(ids) != 1 || ids[0] != 7 {
		t.Fatalf("user should still be online, got %v", ids)
	}

	r.Unregister(7)
	if ids := r.OnlineUserIDs(); len(ids) != 0 {
		t.Fatalf("user should be absent from the online set, got %v", ids)
	}
	if got := r.Count(7); got != 0 {
		t.Fatalf("expected count 0, got %d", got)
	}
}

func TestRegistryUnregisterUnknownIsNoop(t *testing.T) {
	r := NewRegistry()

	r.Unregister(42)
	if got := r.Count(42); got != 0 {
		t.Fatalf("count must never go negative, got %d", got)
	}
	if ids := r.OnlineUserIDs(); len(ids) != 0 {
		t.Fatalf("expected empty online set, got %v", ids)
	}
}

func TestRegistryOnlineSetIsSorted(t *testing.T) {
	r := NewRegistry()

	for _, id := range []int64{9, 3, 5, 3} {
		r.Register(id)
	}

	ids := r.OnlineUserIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 distinct users, got %v", ids)
	}
	for i, want := range []int64{3, 5, 9} {
		if ids[i] != want {
			t.Fatalf("expected %v at index %d, got %v", want, i, ids)
		}
	}
}
