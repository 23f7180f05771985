package session

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mindsprout/pal-agent/internal/domain"
)

// Registry tracks at most one live machine per user. Machines left idle
// past the TTL are evicted, and eviction cancels their countdowns so an
// abandoned session cannot leak a ticking timer.
type Registry struct {
	mu      sync.Mutex
	cache   *gocache.Cache
	factory func(domain.UserID) *Machine
}

// NewRegistry builds a registry evicting machines after ttl of inactivity.
func NewRegistry(ttl time.Duration, factory func(domain.UserID) *Machine) *Registry {
	c := gocache.New(ttl, ttl/2)
	c.OnEvicted(func(_ string, v interface{}) {
		if m, ok := v.(*Machine); ok {
			m.Reset()
			m.Ledger().StopRegen()
		}
	})
	return &Registry{cache: c, factory: factory}
}

// Get returns the user's machine if one is live. Access refreshes the TTL.
func (r *Registry) Get(userID domain.UserID) (*Machine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.cache.Get(string(userID))
	if !ok {
		return nil, false
	}
	m := v.(*Machine)
	r.cache.SetDefault(string(userID), m)
	return m, true
}

// GetOrCreate returns the user's machine, creating one on first use.
func (r *Registry) GetOrCreate(userID domain.UserID) *Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.cache.Get(string(userID)); ok {
		m := v.(*Machine)
		r.cache.SetDefault(string(userID), m)
		return m
	}
	m := r.factory(userID)
	r.cache.SetDefault(string(userID), m)
	return m
}

// Drop evicts the user's machine immediately (logout).
func (r *Registry) Drop(userID domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(string(userID))
}
