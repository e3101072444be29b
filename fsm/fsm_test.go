package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateLoading

	steps := []struct {
		event Event
		want  State
	}{
		{EventLoaded, StateIdle},
		{EventStart, StateRecording},
		{EventStop, StateProcessing},
		{EventDone, StateIdle},
		{EventStart, StateRecording},
	}
	for _, step := range steps {
		next, err := Transition(s, step.event)
		require.NoError(t, err)
		require.Equal(t, step.want, next)
		s = next
	}
}

func TestTransitionShutdownFromAnyState(t *testing.T) {
	for _, state := range []State{StateLoading, StateIdle, StateRecording, StateProcessing, StateStopped} {
		next, err := Transition(state, EventShutdown)
		require.NoError(t, err)
		require.Equal(t, StateStopped, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{name: "loading start", state: StateLoading, event: EventStart},
		{name: "loading stop", state: StateLoading, event: EventStop},
		{name: "idle stop", state: StateIdle, event: EventStop},
		{name: "idle done", state: StateIdle, event: EventDone},
		{name: "idle loaded", state: StateIdle, event: EventLoaded},
		{name: "recording start", state: StateRecording, event: EventStart},
		{name: "recording done", state: StateRecording, event: EventDone},
		{name: "processing start", state: StateProcessing, event: EventStart},
		{name: "processing stop", state: StateProcessing, event: EventStop},
		{name: "stopped start", state: StateStopped, event: EventStart},
		{name: "stopped loaded", state: StateStopped, event: EventLoaded},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid transition")
			require.Equal(t, tc.state, next)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}

func TestToggleable(t *testing.T) {
	require.True(t, Toggleable(StateIdle))
	require.True(t, Toggleable(StateRecording))
	require.False(t, Toggleable(StateLoading))
	require.False(t, Toggleable(StateProcessing))
	require.False(t, Toggleable(StateStopped))
}

func TestLabels(t *testing.T) {
	require.Equal(t, "Loading…", StateLoading.Label())
	require.Equal(t, "Start Recording", StateIdle.Label())
	require.Equal(t, "Stop Recording", StateRecording.Label())
	require.Equal(t, "Transcribing…", StateProcessing.Label())
}
