package store

import "sync"

// Registry keeps one EmailStore per signed-in user. A store lives from the
// first request of a session until Drop is called on logout.
type Registry struct {
	stores map[string]*EmailStore
	mutex  sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make(map[string]*EmailStore),
	}
}

// Open returns the user's store, creating it on first use. init runs once on
// a newly created store before any other caller can see it.
func (r *Registry) Open(userID string, init func(*EmailStore)) *EmailStore {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if s, exists := r.stores[userID]; exists {
		return s
	}
	s := NewEmailStore()
	if init != nil {
		init(s)
	}
	r.stores[userID] = s
	return s
}

// Lookup returns the user's store without creating one.
func (r *Registry) Lookup(userID string) (*EmailStore, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s, exists := r.stores[userID]
	return s, exists
}

// Drop forgets the user's working set. Persisted records are not touched.
func (r *Registry) Drop(userID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.stores, userID)
}
