package enemy

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/fsm"
)

// Idle waits for the player. Line of sight, aggro range and noise each
// independently wake it into Chase.
type Idle struct {
	e *Enemy
	// wake decides whether the player has been noticed this tick.
	wake func() bool
}

func newSentry(e *Enemy) (fsm.State, error) {
	s := &Idle{e: e}
	s.wake = s.sensed
	return s, nil
}

// Name returns "idle".
func (s *Idle) Name() string { return "idle" }

// Enter stops all movement.
func (s *Idle) Enter() {
	s.e.env.Nav.Stop()
	s.e.env.Animator.SetParameter(ParamSpeed, 0)
}

// Update moves to Chase once the player is noticed.
func (s *Idle) Update() {
	if s.wake() {
		s.e.ChangeState(s.e.states.Chase)
	}
}

// Exit has nothing to undo.
func (s *Idle) Exit() {}

func (s *Idle) sensed() bool {
	sensor := s.e.env.Sensor
	if sensor.CanSeePlayer() {
		return true
	}
	if _, d, ok := s.e.distanceToPlayer(); ok && d <= s.e.arch.AggroRange {
		return true
	}
	return sensor.HeardNoiseAbove(s.e.arch.NoiseThreshold)
}

// ScriptScope is the VM scope enemy hooks run in.
const ScriptScope = "enemies"

func newScripted(e *Enemy, caller ScriptCaller) (fsm.State, error) {
	if e.arch.Script == "" {
		return nil, fmt.Errorf("scripted idle needs a script hook: %w", ErrMissingCapability)
	}
	s := &Idle{e: e}
	s.wake = func() bool {
		_, d, ok := e.distanceToPlayer()
		if !ok {
			return false
		}
		ret, err := caller.CallHook(ScriptScope, e.arch.Script,
			lua.LString(e.ID()),
			lua.LNumber(d),
			lua.LBool(e.env.Sensor.CanSeePlayer()),
			lua.LNumber(e.arch.AggroRange),
		)
		if err != nil {
			e.logger.Debug("wake hook failed, using sensors", zap.String("hook", e.arch.Script), zap.Error(err))
			return s.sensed()
		}
		if ret == lua.LNil {
			return s.sensed()
		}
		return lua.LVAsBool(ret)
	}
	return s, nil
}
