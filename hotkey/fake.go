package hotkey

import "sync/atomic"

type FakeHotkey struct {
	keydown     chan struct{}
	RegisterErr error
	registered  atomic.Bool
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{keydown: make(chan struct{}, 1)}
}

func (f *FakeHotkey) Register() error {
	if f.RegisterErr != nil {
		return f.RegisterErr
	}
	f.registered.Store(true)
	return nil
}

func (f *FakeHotkey) Unregister()              { f.registered.Store(false) }
func (f *FakeHotkey) Keydown() <-chan struct{} { return f.keydown }
func (f *FakeHotkey) String() string           { return "fake" }
func (f *FakeHotkey) Registered() bool         { return f.registered.Load() }

func (f *FakeHotkey) SimKeydown() { f.keydown <- struct{}{} }
