package clipboard

import (
	"fmt"
	"sync/atomic"
	"time"

	cb "github.com/atotto/clipboard"
)

// Clipboard writes transcripts to the system clipboard and, when autopaste
// is on, sends the paste shortcut to the focused window afterwards.
type Clipboard struct {
	autopaste  atomic.Bool
	pasteDelay time.Duration

	write func(string) error
	paste func() error
}

func New(autopaste bool) *Clipboard {
	c := &Clipboard{
		pasteDelay: 50 * time.Millisecond,
		write:      cb.WriteAll,
		paste:      Paste,
	}
	c.autopaste.Store(autopaste)
	return c
}

func (c *Clipboard) SetAutopaste(on bool) { c.autopaste.Store(on) }

func (c *Clipboard) Copy(text string) error {
	if err := c.write(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	if !c.autopaste.Load() {
		return nil
	}
	// let the clipboard owner settle before the target app reads it
	time.Sleep(c.pasteDelay)
	if err := c.paste(); err != nil {
		return fmt.Errorf("autopaste: %w", err)
	}
	return nil
}

func Read() (string, error) {
	return cb.ReadAll()
}

// Available reports whether a clipboard backend exists (xclip, xsel or
// wl-copy on Linux).
func Available() bool {
	return !cb.Unsupported
}
