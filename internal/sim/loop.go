package sim

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/input"
)

// ErrStopped is returned by Submit once the loop has exited.
var ErrStopped = errors.New("sim: loop stopped")

// Command mutates the world on the loop goroutine.
type Command func(w *World)

// KeyDown presses action.
func KeyDown(a input.Action) Command {
	return func(w *World) { w.Dispatch(input.Event{Kind: input.KeyDown, Action: a}) }
}

// KeyUp releases action.
func KeyUp(a input.Action) Command {
	return func(w *World) { w.Dispatch(input.Event{Kind: input.KeyUp, Action: a}) }
}

// ToggleMenu opens or closes the menu.
func ToggleMenu() Command {
	return func(w *World) { w.Dispatch(input.Event{Kind: input.MenuToggle}) }
}

// Move sets the movement input.
func Move(dir geom.Vec3) Command {
	return func(w *World) { w.Move(dir) }
}

// Loop ticks a World on its own goroutine. Commands submitted from any
// goroutine run on the loop goroutine before the next tick, in order.
//
// Invariant: the world is only touched from the loop goroutine while it runs.
type Loop struct {
	world    *World
	interval time.Duration
	maxFrame time.Duration
	cmds     chan Command
	done     chan struct{}
	logger   *zap.Logger

	mu     sync.Mutex
	onTick []func(*World)
}

// NewLoop returns a loop that ticks w every interval. A tick after a stall
// simulates at most maxFrame.
//
// Precondition: interval must be > 0; w and logger must not be nil.
func NewLoop(w *World, interval, maxFrame time.Duration, logger *zap.Logger) *Loop {
	if interval <= 0 {
		panic("sim.NewLoop: interval must be > 0")
	}
	if w == nil || logger == nil {
		panic("sim.NewLoop: world and logger must not be nil")
	}
	return &Loop{
		world:    w,
		interval: interval,
		maxFrame: max(maxFrame, interval),
		cmds:     make(chan Command, 64),
		done:     make(chan struct{}),
		logger:   logger.Named("loop"),
	}
}

// OnTick registers fn to run on the loop goroutine after every tick.
func (l *Loop) OnTick(fn func(*World)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onTick = append(l.onTick, fn)
}

// Submit queues cmd for the next tick. It blocks while the queue is full.
//
// Postcondition: Returns ErrStopped if the loop has exited, or ctx.Err().
func (l *Loop) Submit(ctx context.Context, cmd Command) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.cmds <- cmd:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed after the loop has exited and the world has been closed.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Start begins the tick loop. Runs until ctx is cancelled.
//
// Postcondition: the world is ticked once per interval with the elapsed wall
// time, capped at maxFrame.
func (l *Loop) Start(ctx context.Context) {
	go func() {
		defer close(l.done)
		defer l.world.Close()
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				l.logger.Info("loop stopped", zap.Uint64("ticks", l.world.Ticks()))
				return
			case now := <-ticker.C:
				l.drain()
				dt := min(now.Sub(last), l.maxFrame)
				last = now
				l.world.Tick(dt)
				l.mu.Lock()
				observers := slices.Clone(l.onTick)
				l.mu.Unlock()
				for _, fn := range observers {
					fn(l.world)
				}
			}
		}
	}()
}

func (l *Loop) drain() {
	for {
		select {
		case cmd := <-l.cmds:
			cmd(l.world)
		default:
			return
		}
	}
}
