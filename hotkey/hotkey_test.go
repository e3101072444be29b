package hotkey

import (
	"strings"
	"testing"

	"golang.design/x/hotkey"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		mods []hotkey.Modifier
		key  hotkey.Key
		name string
	}{
		{"ctrl+q", []hotkey.Modifier{modifiers["ctrl"]}, hotkey.KeyQ, "ctrl+q"},
		{"Ctrl+Shift+Space", []hotkey.Modifier{modifiers["ctrl"], modifiers["shift"]}, hotkey.KeySpace, "ctrl+shift+space"},
		{" control + F9 ", []hotkey.Modifier{modifiers["ctrl"]}, hotkey.KeyF9, "control+f9"},
		{"ctrl+ctrl+1", []hotkey.Modifier{modifiers["ctrl"]}, hotkey.Key1, "ctrl+ctrl+1"},
		{"f12", nil, hotkey.KeyF12, "f12"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if c.Key != tt.key {
				t.Errorf("key = %v, want %v", c.Key, tt.key)
			}
			if len(c.Mods) != len(tt.mods) {
				t.Fatalf("mods = %v, want %v", c.Mods, tt.mods)
			}
			for i := range tt.mods {
				if c.Mods[i] != tt.mods[i] {
					t.Errorf("mod %d = %v, want %v", i, c.Mods[i], tt.mods[i])
				}
			}
			if c.Name != tt.name {
				t.Errorf("name = %q, want %q", c.Name, tt.name)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, tt := range []struct{ in, want string }{
		{"", "missing key"},
		{"ctrl+", "missing key"},
		{"hyper+q", "unknown modifier"},
		{"ctrl+pause", "unknown key"},
	} {
		_, err := Parse(tt.in)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Parse(%q) = %v, want %q", tt.in, err, tt.want)
		}
	}
}

func TestFake(t *testing.T) {
	f := NewFake()
	if err := f.Register(); err != nil {
		t.Fatal(err)
	}
	if !f.Registered() {
		t.Error("not registered")
	}
	f.SimKeydown()
	select {
	case <-f.Keydown():
	default:
		t.Error("keydown not delivered")
	}
	f.Unregister()
	if f.Registered() {
		t.Error("still registered")
	}
}
