package tui

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Screen states.
const (
	stateLoading   = "loading"
	stateReady     = "ready"
	stateSwitching = "switching"
	stateFailed    = "failed"
)

// Screen events.
const (
	eventLoaded  = "LOADED"
	eventRefresh = "REFRESH"
	eventSwitch  = "SWITCH"
	eventDone    = "DONE"
	eventFail    = "FAIL"
)

// screenContext is the statekit context type. The screen keeps its data in
// the Bubble Tea model, so it carries nothing.
type screenContext struct{}

// screenMachine tracks whether the port screen is loading, idle, switching
// a port, or showing an error. Only ready and failed accept new work. A
// finished switch reloads the inventory, since uhubctl may also switch the
// companion of a USB3 dual hub.
type screenMachine struct {
	interp *statekit.Interpreter[screenContext]
}

func newScreenMachine() (*screenMachine, error) {
	machine, err := statekit.NewMachine[screenContext]("hubctl-ports").
		WithInitial(stateLoading).
		WithContext(screenContext{}).
		State(stateLoading).
		On(eventLoaded).Target(stateReady).
		On(eventFail).Target(stateFailed).Done().
		State(stateReady).
		On(eventRefresh).Target(stateLoading).
		On(eventSwitch).Target(stateSwitching).Done().
		State(stateSwitching).
		On(eventDone).Target(stateLoading).
		On(eventFail).Target(stateFailed).Done().
		State(stateFailed).
		On(eventRefresh).Target(stateLoading).
		On(eventSwitch).Target(stateSwitching).Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("building screen state machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.Start()
	return &screenMachine{interp: interp}, nil
}

func (s *screenMachine) send(event string) {
	s.interp.Send(statekit.Event{Type: statekit.EventType(event)})
}

func (s *screenMachine) current() string {
	return string(s.interp.State().Value)
}

// busy reports whether a uhubctl call is in flight.
func (s *screenMachine) busy() bool {
	switch s.current() {
	case stateLoading, stateSwitching:
		return true
	}
	return false
}
