package core

import "sort"

// Registry tracks how many live connections each user has open.
// It is owned by the hub loop; callers never touch it concurrently.
type Registry struct {
	counts map[int64]int
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{counts: make(map[int64]int)}
}

// Register increments the user's connection count, creating the entry at 1.
func (r *Registry) Register(userID int64) {
	r.counts[userID]++
}

// Unregister decrements the user's connection count. The entry is removed
// entirely once the count reaches zero; a user with no connections is
// absent from the online set, never present with a zero count.
func (r *Registry) Unregister(userID int64) {
	current, ok := r.counts[userID]
	if !ok {
		return
	}
	if current <= 1 {
		delete(r.counts, userID)
		return
	}
	r.counts[userID] = current - 1
}

// Count returns the number of open connections for a user.
func (r *Registry) Count(userID int64) int {
	return r.counts[userID]
}

// OnlineUserIDs returns the current online set, sorted for stable output.
func (r *Registry) OnlineUserIDs() []int64 {
	ids := make([]int64, 0, len(r.counts))
	for id := range r.counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
