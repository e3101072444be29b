// Package fsm defines the dictation lifecycle states and their legal transitions.
package fsm

import "fmt"

type State string

type Event string

const (
	StateLoading    State = "loading"
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
	StateStopped    State = "stopped"
)

const (
	EventLoaded   Event = "loaded"
	EventStart    Event = "start"
	EventStop     Event = "stop"
	EventDone     Event = "done"
	EventShutdown Event = "shutdown"
)

// Transition returns the state reached by applying event to current.
// Invalid pairs return current unchanged together with an error.
func Transition(current State, event Event) (State, error) {
	if event == EventShutdown {
		return StateStopped, nil
	}

	switch current {
	case StateLoading:
		if event == EventLoaded {
			return StateIdle, nil
		}
	case StateIdle:
		if event == EventStart {
			return StateRecording, nil
		}
	case StateRecording:
		if event == EventStop {
			return StateProcessing, nil
		}
	case StateProcessing:
		if event == EventDone {
			return StateIdle, nil
		}
	case StateStopped:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
	return current, invalidTransition(current, event)
}

// Toggleable reports whether the user toggle has any effect in s.
func Toggleable(s State) bool {
	return s == StateIdle || s == StateRecording
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}

// Label is the menu text shown while in s.
func (s State) Label() string {
	switch s {
	case StateLoading:
		return "Loading…"
	case StateIdle:
		return "Start Recording"
	case StateRecording:
		return "Stop Recording"
	case StateProcessing:
		return "Transcribing…"
	case StateStopped:
		return "Quitting…"
	}
	return string(s)
}
