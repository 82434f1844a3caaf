package enemy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/spellbound/internal/game/fsm"
)

// ErrUnknownStrategy is returned when an archetype names a strategy that is
// not registered for its role.
var ErrUnknownStrategy = errors.New("enemy: unknown strategy")

// Role is a slot in the EnemyStates bundle.
type Role string

const (
	RoleIdle   Role = "idle"
	RoleChase  Role = "chase"
	RoleAttack Role = "attack"
)

// Constructor builds one state bound to its owning enemy.
type Constructor func(e *Enemy) (fsm.State, error)

// Registry maps strategy identifiers to constructors per role.
//
// Invariant: each (role, name) pair is registered at most once.
type Registry struct {
	ctors map[Role]map[string]Constructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[Role]map[string]Constructor)}
}

// Register stores ctor for name in role.
//
// Precondition: ctor must not be nil.
// Postcondition: returns error on (role, name) collision.
func (r *Registry) Register(role Role, name string, ctor Constructor) error {
	if ctor == nil {
		panic("enemy.Registry.Register: ctor must not be nil")
	}
	byName := r.ctors[role]
	if byName == nil {
		byName = make(map[string]Constructor)
		r.ctors[role] = byName
	}
	if _, exists := byName[name]; exists {
		return fmt.Errorf("enemy.Registry: %s strategy %q already registered", role, name)
	}
	byName[name] = ctor
	return nil
}

// Build instantiates the strategy name for role, bound to e.
func (r *Registry) Build(role Role, name string, e *Enemy) (fsm.State, error) {
	ctor, ok := r.ctors[role][name]
	if !ok {
		return nil, fmt.Errorf("%s strategy %q: %w", role, name, ErrUnknownStrategy)
	}
	s, err := ctor(e)
	if err != nil {
		return nil, fmt.Errorf("%s strategy %q: %w", role, name, err)
	}
	return s, nil
}

// Names returns the registered strategy names for role, sorted.
func (r *Registry) Names(role Role) []string {
	var out []string
	for n := range r.ctors[role] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a Registry with every built-in strategy. The
// scripted idle strategy is registered only when caller is non-nil.
func DefaultRegistry(caller ScriptCaller) *Registry {
	r := NewRegistry()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(r.Register(RoleIdle, "sentry", newSentry))
	must(r.Register(RoleChase, "pursue", newPursue))
	must(r.Register(RoleAttack, "ranged", newRanged))
	must(r.Register(RoleAttack, "melee", newMelee))
	if caller != nil {
		must(r.Register(RoleIdle, "scripted", func(e *Enemy) (fsm.State, error) {
			return newScripted(e, caller)
		}))
	}
	return r
}
