// Package fsm defines the lifecycle of a single rewrite.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateCapturing    State = "capturing"
	StateTransforming State = "transforming"
	StateCommitting   State = "committing"
	StateError        State = "error"
)

const (
	EventStart       Event = "start"
	EventCaptured    Event = "captured"
	EventTransformed Event = "transformed"
	EventCommitted   Event = "committed"
	EventSkip        Event = "skip"
	EventCancel      Event = "cancel"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
)

type edge struct {
	from  State
	event Event
}

var transitions = map[edge]State{
	{StateIdle, EventStart}:               StateCapturing,
	{StateCapturing, EventCaptured}:       StateTransforming,
	{StateCapturing, EventSkip}:           StateIdle,
	{StateCapturing, EventCancel}:         StateIdle,
	{StateTransforming, EventTransformed}: StateCommitting,
	{StateTransforming, EventCancel}:      StateIdle,
	{StateCommitting, EventCommitted}:     StateIdle,
	{StateError, EventReset}:              StateIdle,
}

var known = map[State]bool{
	StateIdle:         true,
	StateCapturing:    true,
	StateTransforming: true,
	StateCommitting:   true,
	StateError:        true,
}

// Transition returns the state reached from current on event. Fail is
// accepted from every known state.
func Transition(current State, event Event) (State, error) {
	if !known[current] {
		return current, fmt.Errorf("unknown state %q", current)
	}
	if event == EventFail {
		return StateError, nil
	}
	next, ok := transitions[edge{current, event}]
	if !ok {
		return current, fmt.Errorf("invalid transition: %s --(%s)--> ?", current, event)
	}
	return next, nil
}

// Busy reports whether a rewrite is in flight.
func (s State) Busy() bool {
	return s == StateCapturing || s == StateTransforming || s == StateCommitting
}
