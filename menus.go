package main

import (
	"murmur/fsm"
	"murmur/shell"
)

// menus fans a lifecycle update out to every active surface.
type menus []shell.Menu

func (ms menus) Update(state fsm.State, label string) {
	for _, m := range ms {
		m.Update(state, label)
	}
}

// observedClipboard copies text and tells listeners about each transcript.
type observedClipboard struct {
	shell.Clipboard
	listeners []func(string)
}

func (c *observedClipboard) Copy(text string) error {
	for _, fn := range c.listeners {
		fn(text)
	}
	return c.Clipboard.Copy(text)
}
