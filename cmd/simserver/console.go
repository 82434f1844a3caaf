package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/spellbound/internal/game/geom"
	"github.com/cory-johannsen/spellbound/internal/game/input"
	"github.com/cory-johannsen/spellbound/internal/sim"
)

// errQuit is returned by parseCommand for the quit command.
var errQuit = errors.New("quit")

// parseCommand turns one console line into a loop command.
//
// Postcondition: Returns (nil, nil) for a blank line and errQuit for quit.
func parseCommand(line string) (sim.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	switch fields[0] {
	case "quit", "exit":
		return nil, errQuit
	case "menu":
		return sim.ToggleMenu(), nil
	case "press", "release":
		if len(fields) != 2 {
			return nil, fmt.Errorf("usage: %s primary|movement", fields[0])
		}
		a, err := parseAction(fields[1])
		if err != nil {
			return nil, err
		}
		if fields[0] == "press" {
			return sim.KeyDown(a), nil
		}
		return sim.KeyUp(a), nil
	case "move":
		if len(fields) != 3 {
			return nil, errors.New("usage: move <x> <z>")
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("move x: %w", err)
		}
		z, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("move z: %w", err)
		}
		return sim.Move(geom.Vec3{X: x, Z: z}), nil
	case "stop":
		return sim.Move(geom.Zero), nil
	default:
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}
}

func parseAction(s string) (input.Action, error) {
	switch input.Action(s) {
	case input.ActionPrimary, input.ActionMovement:
		return input.Action(s), nil
	}
	return input.ActionNone, fmt.Errorf("unknown action %q", s)
}

// runConsole feeds commands read from r into loop until r is exhausted or
// quit is entered. Cancelling ctx also ends it.
func runConsole(ctx context.Context, r io.Reader, loop *sim.Loop, logger *zap.Logger) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			cmd, err := parseCommand(line)
			if errors.Is(err, errQuit) {
				logger.Info("quit requested")
				return nil
			}
			if err != nil {
				logger.Warn("bad command", zap.String("line", line), zap.Error(err))
				continue
			}
			if cmd == nil {
				continue
			}
			if err := loop.Submit(ctx, cmd); err != nil {
				if errors.Is(err, sim.ErrStopped) || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}
