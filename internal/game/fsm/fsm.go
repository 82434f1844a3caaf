// Package fsm implements the generic actor state machine: exactly one active
// State per owner, Exit always before the next Enter, and re-entrant
// transition requests deferred to the next Update.
package fsm

import (
	"go.uber.org/zap"
)

// State is one behaviour of an actor.
//
// Enter hooks up every subscription and timer the state needs; Exit must undo
// all of it. Update runs once per tick while the state is active and may
// request a transition, after which it must return without touching the owner.
type State interface {
	Name() string
	Enter()
	Update()
	Exit()
}

// Machine holds the single active State of one actor.
//
// Invariant: at most one State is active; Exit of the outgoing state returns
// before Enter of the incoming state begins.
// Machine is not safe for concurrent use; the owning actor's tick is the
// only writer.
type Machine struct {
	owner         string
	current       State
	pending       State
	transitioning bool
	count         int
	observers     []func(from, to State)
	logger        *zap.Logger
}

// NewMachine returns a Machine with no active state.
//
// Precondition: logger must not be nil.
func NewMachine(owner string, logger *zap.Logger) *Machine {
	if logger == nil {
		panic("fsm.NewMachine: logger must not be nil")
	}
	return &Machine{owner: owner, logger: logger}
}

// Current returns the active state, or nil before the first transition.
func (m *Machine) Current() State { return m.current }

// Pending returns the transition queued by a re-entrant request, or nil.
func (m *Machine) Pending() State { return m.pending }

// Transitions returns how many transitions have completed.
func (m *Machine) Transitions() int { return m.count }

// Observe registers fn to run after every completed transition.
func (m *Machine) Observe(fn func(from, to State)) {
	m.observers = append(m.observers, fn)
}

// ChangeState exits the current state and enters next. Re-entering the same
// state is a full Exit/Enter cycle.
//
// When called while another transition is running (from inside an Enter or
// Exit), the request is queued and applied at the start of the next Update;
// the latest queued request wins.
//
// Precondition: next must not be nil.
// Postcondition: Returns true if next is now the active state, false if the
// request was deferred.
func (m *Machine) ChangeState(next State) bool {
	if next == nil {
		panic("fsm.Machine.ChangeState: next must not be nil")
	}
	if m.transitioning {
		m.pending = next
		m.logger.Debug("transition deferred",
			zap.String("owner", m.owner),
			zap.String("to", next.Name()),
		)
		return false
	}
	m.pending = nil
	m.transitioning = true
	prev := m.current
	if prev != nil {
		prev.Exit()
	}
	m.current = next
	next.Enter()
	m.transitioning = false
	m.count++

	if m.logger.Core().Enabled(zap.DebugLevel) {
		m.logger.Debug("state changed",
			zap.String("owner", m.owner),
			zap.String("from", nameOf(prev)),
			zap.String("to", next.Name()),
		)
	}
	for _, fn := range m.observers {
		fn(prev, next)
	}
	return true
}

// Update applies any deferred transition, then updates the active state.
func (m *Machine) Update() {
	if m.pending != nil {
		m.ChangeState(m.pending)
	}
	if m.current != nil {
		m.current.Update()
	}
}

func nameOf(s State) string {
	if s == nil {
		return "none"
	}
	return s.Name()
}
