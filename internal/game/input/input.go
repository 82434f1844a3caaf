// Package input is the boundary to the input device layer. Devices are out of
// scope; the core only sees discrete events routed through a Dispatcher.
package input

import "fmt"

// Kind is the type of an input event.
type Kind int

const (
	KeyDown Kind = iota
	KeyUp
	MenuToggle
)

// String returns the event kind name.
func (k Kind) String() string {
	switch k {
	case KeyDown:
		return "key_down"
	case KeyUp:
		return "key_up"
	case MenuToggle:
		return "menu_toggle"
	default:
		return "unknown"
	}
}

// Action names the binding a key event is for.
type Action string

const (
	ActionPrimary  Action = "primary"
	ActionMovement Action = "movement"
	ActionNone     Action = ""
)

// Event is one discrete input event.
type Event struct {
	Kind   Kind
	Action Action
}

// String renders the event for logs.
func (e Event) String() string {
	if e.Action == ActionNone {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", e.Kind, e.Action)
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	id   int
	kind Kind
	fn   Handler
}

// Dispatcher routes events to subscribers by kind, in subscription order.
// It is not safe for concurrent use; the simulation loop drains queued
// events into it once per tick.
type Dispatcher struct {
	subs   []subscription
	nextID int
}

// NewDispatcher returns a Dispatcher with no subscribers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers fn for events of kind and returns the function that
// removes it. The returned function is idempotent.
//
// Precondition: fn must not be nil.
func (d *Dispatcher) Subscribe(kind Kind, fn Handler) (unsubscribe func()) {
	if fn == nil {
		panic("input.Dispatcher.Subscribe: fn must not be nil")
	}
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscription{id: id, kind: kind, fn: fn})
	return func() {
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch delivers ev to every current subscriber of its kind. Handlers may
// subscribe or unsubscribe while running; changes apply to the next event.
func (d *Dispatcher) Dispatch(ev Event) {
	snapshot := append([]subscription(nil), d.subs...)
	for _, s := range snapshot {
		if s.kind == ev.Kind && d.subscribed(s.id) {
			s.fn(ev)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (d *Dispatcher) Subscribers() int { return len(d.subs) }

func (d *Dispatcher) subscribed(id int) bool {
	for _, s := range d.subs {
		if s.id == id {
			return true
		}
	}
	return false
}
