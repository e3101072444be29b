package main

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"murmur/fsm"
)

func update(t *testing.T, m tuiModel, msg tea.Msg) tuiModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(tuiModel)
}

func TestTUIStateAndTranscript(t *testing.T) {
	m := tuiModel{state: fsm.StateLoading, label: fsm.StateLoading.Label()}
	m = update(t, m, InfoMsg{Hotkey: "ctrl+q", Device: "USB Mic"})
	m = update(t, m, StateMsg{State: fsm.StateIdle, Label: fsm.StateIdle.Label()})
	m = update(t, m, TranscriptMsg{Text: "first words"})

	view := m.View()
	for _, want := range []string{"idle", "space: Start Recording", "hotkey: ctrl+q", "mic: USB Mic", "first words", "last (1 copied)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTUISpaceTogglesOnlyWhenToggleable(t *testing.T) {
	var calls atomic.Int32
	toggled := make(chan struct{}, 4)
	toggle := func() {
		calls.Add(1)
		toggled <- struct{}{}
	}
	space := tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}

	m := tuiModel{state: fsm.StateProcessing, toggle: toggle}
	update(t, m, space)

	m.state = fsm.StateIdle
	update(t, m, space)
	select {
	case <-toggled:
	case <-time.After(time.Second):
		t.Fatal("toggle not called in idle")
	}
	time.Sleep(10 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("toggle calls = %d, want 1", n)
	}
}

func TestTUIQuit(t *testing.T) {
	_, cmd := tuiModel{}.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

type recordingMenu struct{ labels []string }

func (r *recordingMenu) Update(_ fsm.State, label string) { r.labels = append(r.labels, label) }

func TestMenusFanOut(t *testing.T) {
	a, b := &recordingMenu{}, &recordingMenu{}
	menus{a, b}.Update(fsm.StateRecording, "Stop Recording")
	if len(a.labels) != 1 || len(b.labels) != 1 || b.labels[0] != "Stop Recording" {
		t.Errorf("a=%v b=%v", a.labels, b.labels)
	}
}

type sliceClipboard struct{ copied []string }

func (s *sliceClipboard) Copy(text string) error {
	s.copied = append(s.copied, text)
	return nil
}

func TestObservedClipboard(t *testing.T) {
	inner := &sliceClipboard{}
	var seen []string
	c := &observedClipboard{Clipboard: inner, listeners: []func(string){
		func(s string) { seen = append(seen, s) },
	}}
	if err := c.Copy("x"); err != nil {
		t.Fatal(err)
	}
	if len(inner.copied) != 1 || len(seen) != 1 {
		t.Errorf("copied=%v seen=%v", inner.copied, seen)
	}
}
