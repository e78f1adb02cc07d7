package calendar

import (
	"sync"
	"time"
)

// Registry owns one Collection per signed-in user.
type Registry struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{collections: make(map[string]*Collection)}
}

// For returns the user's collection, creating it on first use.
func (r *Registry) For(userID string) *Collection {
	r.mu.Lock()
	defer r.mu.Unlock()
	collection, ok := r.collections[userID]
	if !ok {
		collection = NewCollection()
		r.collections[userID] = collection
	}
	return collection
}

// Lookup returns the user's collection when one exists.
func (r *Registry) Lookup(userID string) (*Collection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	collection, ok := r.collections[userID]
	return collection, ok
}

// Drop forgets the user's collection, e.g. on logout.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	delete(r.collections, userID)
	r.mu.Unlock()
}

// Len returns the number of live collections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.collections)
}

// EvictIdle drops collections untouched for longer than idle and returns how many were removed.
func (r *Registry) EvictIdle(now time.Time, idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for userID, collection := range r.collections {
		if now.Sub(collection.LastTouched()) > idle {
			delete(r.collections, userID)
			evicted++
		}
	}
	return evicted
}
