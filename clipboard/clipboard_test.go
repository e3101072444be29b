package clipboard

import (
	"errors"
	"strings"
	"testing"
)

func newTestClipboard(autopaste bool) (*Clipboard, *[]string, *int) {
	var written []string
	pastes := 0
	c := New(autopaste)
	c.pasteDelay = 0
	c.write = func(s string) error {
		written = append(written, s)
		return nil
	}
	c.paste = func() error {
		pastes++
		return nil
	}
	return c, &written, &pastes
}

func TestCopy(t *testing.T) {
	c, written, pastes := newTestClipboard(false)
	if err := c.Copy("hello"); err != nil {
		t.Fatal(err)
	}
	if len(*written) != 1 || (*written)[0] != "hello" {
		t.Errorf("written = %v", *written)
	}
	if *pastes != 0 {
		t.Errorf("pasted %d times with autopaste off", *pastes)
	}
}

func TestCopyAutopaste(t *testing.T) {
	c, _, pastes := newTestClipboard(true)
	if err := c.Copy("hello"); err != nil {
		t.Fatal(err)
	}
	if *pastes != 1 {
		t.Errorf("pastes = %d, want 1", *pastes)
	}

	c.SetAutopaste(false)
	c.Copy("again")
	if *pastes != 1 {
		t.Errorf("pastes = %d after disabling, want 1", *pastes)
	}
}

func TestCopyErrors(t *testing.T) {
	c, _, pastes := newTestClipboard(true)
	c.write = func(string) error { return errors.New("no xclip") }
	err := c.Copy("x")
	if err == nil || !strings.Contains(err.Error(), "no xclip") {
		t.Fatalf("err = %v", err)
	}
	if *pastes != 0 {
		t.Error("pasted after a failed copy")
	}

	c, _, _ = newTestClipboard(true)
	c.paste = func() error { return errors.New("uinput denied") }
	if err := c.Copy("x"); err == nil || !strings.Contains(err.Error(), "autopaste") {
		t.Fatalf("err = %v", err)
	}
}
