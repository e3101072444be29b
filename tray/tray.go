package tray

import (
	"sync"

	"github.com/energye/systray"
	"golang.design/x/hotkey/mainthread"

	"murmur/fsm"
)

// Tray is the menu-bar item. Its first entry carries the lifecycle label
// and toggles recording when clicked.
type Tray struct {
	onToggle   func()
	onCopyLast func()

	mu      sync.Mutex
	ready   bool
	state   fsm.State
	label   string
	hasLast bool

	mRecord *systray.MenuItem
	mCopy   *systray.MenuItem

	quit      chan struct{}
	closeOnce sync.Once
	end       func()
}

func New(onToggle, onCopyLast func()) *Tray {
	return &Tray{
		onToggle:   onToggle,
		onCopyLast: onCopyLast,
		state:      fsm.StateLoading,
		label:      fsm.StateLoading.Label(),
		quit:       make(chan struct{}),
	}
}

// Start shows the tray icon. The returned channel closes when the user
// picks Quit.
func (t *Tray) Start() <-chan struct{} {
	start, end := systray.RunWithExternalLoop(t.onReady, t.onExit)
	t.end = end
	done := make(chan struct{})
	mainthread.Call(func() {
		start()
		close(done)
	})
	<-done
	return t.quit
}

func (t *Tray) Stop() {
	if t.end != nil {
		mainthread.Call(t.end)
	}
	t.onExit()
}

func (t *Tray) onReady() {
	systray.SetTooltip("murmur")

	t.mu.Lock()
	t.mRecord = systray.AddMenuItem(t.label, "Start or stop recording")
	t.mRecord.Click(func() {
		if t.onToggle != nil {
			t.onToggle()
		}
	})
	t.mCopy = systray.AddMenuItem("Copy Last Transcript", "Copy the last transcript to the clipboard")
	t.mCopy.Click(func() {
		if t.onCopyLast != nil {
			t.onCopyLast()
		}
	})
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit murmur")
	mQuit.Click(t.onExit)
	systray.CreateMenu()

	t.ready = true
	t.apply()
	t.mu.Unlock()
}

func (t *Tray) onExit() {
	t.closeOnce.Do(func() { close(t.quit) })
}

// Update sets the label and icon for state. Calls before the tray is
// ready are applied once it is.
func (t *Tray) Update(state fsm.State, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state, t.label = state, label
	if t.ready {
		t.apply()
	}
}

func (t *Tray) SetHasLast(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hasLast = on
	if t.ready {
		t.apply()
	}
}

// apply expects t.mu held.
func (t *Tray) apply() {
	icon, template := iconFor(t.state)
	if template {
		systray.SetTemplateIcon(icon, iconIdle)
	} else {
		systray.SetIcon(icon)
	}
	t.mRecord.SetTitle(t.label)
	if fsm.Toggleable(t.state) {
		t.mRecord.Enable()
	} else {
		t.mRecord.Disable()
	}
	if t.hasLast {
		t.mCopy.Enable()
	} else {
		t.mCopy.Disable()
	}
}
