// Package schedule is the central timer service of the simulation. Every
// time-based suspension in the combat core (hover force loops, leash checks,
// grace-period stops, cooldowns, delayed effect cleanup) is a Timer owned by
// the caller and fired from Scheduler.Advance, which the world calls once per
// tick. Nothing here blocks and nothing runs on another goroutine.
package schedule

import (
	"container/heap"
	"time"
)

// Clock selects which time base a Timer runs on.
type Clock int

const (
	// Scaled time follows the world time scale; it stops while the game is
	// paused.
	Scaled Clock = iota
	// Unscaled time always advances by the real frame time.
	Unscaled
)

// String returns the clock name.
func (c Clock) String() string {
	switch c {
	case Scaled:
		return "scaled"
	case Unscaled:
		return "unscaled"
	default:
		return "unknown"
	}
}

// Timer is a cancellation handle for one scheduled callback.
//
// Invariant: once Stop returns, the callback never runs again.
type Timer struct {
	s        *Scheduler
	clock    Clock
	due      time.Duration
	interval time.Duration
	seq      uint64
	fn       func()
	index    int
	done     bool
}

// Stop cancels the timer. It is safe to call on a nil Timer and safe to call
// more than once.
//
// Postcondition: Returns true iff this call prevented a pending firing.
func (t *Timer) Stop() bool {
	if t == nil || t.done {
		return false
	}
	t.done = true
	if t.index >= 0 {
		heap.Remove(&t.s.queues[t.clock], t.index)
	}
	return true
}

// Active reports whether the timer will fire again.
func (t *Timer) Active() bool {
	return t != nil && !t.done
}

// Due returns the clock time at which the timer fires next.
func (t *Timer) Due() time.Duration {
	return t.due
}

// Scheduler owns all pending timers for one world.
// It is not safe for concurrent use; the simulation loop is its only caller.
type Scheduler struct {
	now    [2]time.Duration
	queues [2]timerQueue
	seq    uint64
}

// New returns a Scheduler with both clocks at zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the scaled clock time.
func (s *Scheduler) Now() time.Duration { return s.now[Scaled] }

// UnscaledNow returns the unscaled clock time.
func (s *Scheduler) UnscaledNow() time.Duration { return s.now[Unscaled] }

// After schedules fn to run once when d of scaled time has passed.
//
// Precondition: fn must not be nil.
// Postcondition: Returns an active Timer; d <= 0 fires on the next Advance.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	return s.push(Scaled, d, 0, fn)
}

// AfterUnscaled schedules fn on the unscaled clock. Used for cleanup work that
// must happen regardless of simulation speed.
//
// Precondition: fn must not be nil.
func (s *Scheduler) AfterUnscaled(d time.Duration, fn func()) *Timer {
	return s.push(Unscaled, d, 0, fn)
}

// Every schedules fn to run each interval of scaled time, first firing one
// interval from now, until the returned Timer is stopped.
//
// Precondition: interval > 0; fn must not be nil.
func (s *Scheduler) Every(interval time.Duration, fn func()) *Timer {
	if interval <= 0 {
		panic("schedule.Every: interval must be > 0")
	}
	return s.push(Scaled, interval, interval, fn)
}

// Pending returns the number of active timers on both clocks.
func (s *Scheduler) Pending() int {
	return len(s.queues[Scaled]) + len(s.queues[Unscaled])
}

// Advance moves the scaled clock by dt*scale and the unscaled clock by dt,
// firing every timer that comes due in due-time order (ties in scheduling
// order). While a callback runs, Now reports that timer's due time.
//
// Precondition: dt >= 0. A negative scale is treated as 0.
// Postcondition: Now() and UnscaledNow() have advanced; no active timer on
// either clock is due at or before the new clock time.
func (s *Scheduler) Advance(dt time.Duration, scale float64) {
	if dt < 0 {
		dt = 0
	}
	if scale < 0 {
		scale = 0
	}
	s.run(Scaled, s.now[Scaled]+time.Duration(float64(dt)*scale))
	s.run(Unscaled, s.now[Unscaled]+dt)
}

func (s *Scheduler) run(c Clock, target time.Duration) {
	q := &s.queues[c]
	for len(*q) > 0 {
		t := (*q)[0]
		if t.due > target {
			break
		}
		heap.Pop(q)
		s.now[c] = t.due
		if t.interval > 0 {
			t.due += t.interval
			s.seq++
			t.seq = s.seq
			heap.Push(q, t)
		} else {
			t.done = true
		}
		t.fn()
	}
	s.now[c] = target
}

func (s *Scheduler) push(c Clock, d, interval time.Duration, fn func()) *Timer {
	if fn == nil {
		panic("schedule: fn must not be nil")
	}
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &Timer{
		s:        s,
		clock:    c,
		due:      s.now[c] + d,
		interval: interval,
		seq:      s.seq,
		fn:       fn,
		index:    -1,
	}
	heap.Push(&s.queues[c], t)
	return t
}

// timerQueue is a min-heap ordered by (due, seq).
type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
