// Package spawner owns where enemies come from and who is told when they die:
// the global Registry of live enemies and the Camps that spawn them, leash
// them and replace them.
package spawner

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Member is anything the registry tracks.
type Member interface {
	ID() string
}

// Registry tracks all live enemies by ID.
// All methods are safe for concurrent use.
//
// Invariant: NotifyDeath reports true at most once per ID.
type Registry struct {
	mu     sync.RWMutex
	live   map[string]Member
	dead   map[string]struct{}
	logger *zap.Logger
}

// NewRegistry creates an empty Registry.
//
// Precondition: logger must not be nil.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		panic("spawner.NewRegistry: logger must not be nil")
	}
	return &Registry{
		live:   make(map[string]Member),
		dead:   make(map[string]struct{}),
		logger: logger.Named("registry"),
	}
}

// Add registers m.
//
// Precondition: m must not be nil.
// Postcondition: Returns an error if the ID is already registered or has died.
func (r *Registry) Add(m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := m.ID()
	if _, ok := r.live[id]; ok {
		return fmt.Errorf("spawner.Registry.Add: %q already registered", id)
	}
	if _, ok := r.dead[id]; ok {
		return fmt.Errorf("spawner.Registry.Add: %q has died", id)
	}
	r.live[id] = m
	return nil
}

// Get returns the live member with the given ID.
//
// Postcondition: Returns (m, true) if found, or (nil, false) otherwise.
func (r *Registry) Get(id string) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.live[id]
	return m, ok
}

// Remove forgets a live member without recording a death.
//
// Postcondition: Returns an error if the member is not live.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.live[id]; !ok {
		return fmt.Errorf("spawner.Registry.Remove: %q not found", id)
	}
	delete(r.live, id)
	return nil
}

// NotifyDeath records that m died.
//
// Postcondition: Returns true the first time it is called for m's ID and
// false on every later call.
func (r *Registry) NotifyDeath(m Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := m.ID()
	if _, ok := r.dead[id]; ok {
		r.logger.Warn("duplicate death notification ignored", zap.String("enemy", id))
		return false
	}
	delete(r.live, id)
	r.dead[id] = struct{}{}
	r.logger.Info("enemy died", zap.String("enemy", id))
	return true
}

// Live returns the live members sorted by ID.
func (r *Registry) Live() []Member {
	r.mu.RLock()
	out := make([]Member, 0, len(r.live))
	for _, m := range r.live {
		out = append(out, m)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Len returns the number of live members.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}

// Deaths returns the number of recorded deaths.
func (r *Registry) Deaths() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dead)
}
