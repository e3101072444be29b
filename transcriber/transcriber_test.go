package transcriber

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stringer struct{}

func (stringer) String() string { return "from stringer" }

func TestTranscribeBeforeLoad(t *testing.T) {
	c := New(NewFake("hello", nil), WithQuiet(false))
	if _, err := c.Transcribe(context.Background(), "x.wav"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestLoadPlacement(t *testing.T) {
	tests := []struct {
		name     string
		accel    Device
		placeErr map[Device]error
		want     Device
		placed   []Device
		wantErr  bool
	}{
		{name: "no accelerator", want: DeviceCPU, placed: []Device{DeviceCPU}},
		{name: "accelerator", accel: DeviceCUDA, want: DeviceCUDA, placed: []Device{DeviceCUDA}},
		{
			name:     "accelerator fails",
			accel:    DeviceMetal,
			placeErr: map[Device]error{DeviceMetal: errors.New("no metal")},
			want:     DeviceCPU,
			placed:   []Device{DeviceMetal, DeviceCPU},
		},
		{
			name:     "cpu fails",
			placeErr: map[Device]error{DeviceCPU: errors.New("oom")},
			placed:   []Device{DeviceCPU},
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFake("hi", nil)
			f.Accel = tt.accel
			f.PlaceErr = tt.placeErr
			c := New(f, WithQuiet(false))

			err := c.Load(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected load error")
				}
				if c.Ready() {
					t.Error("client should not be ready")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got := c.Device(); got != tt.want {
				t.Errorf("Device = %q, want %q", got, tt.want)
			}
			got := f.Placements()
			if strings.Join(devs(got), ",") != strings.Join(devs(tt.placed), ",") {
				t.Errorf("placements = %v, want %v", got, tt.placed)
			}
		})
	}
}

func devs(ds []Device) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}

func TestLoadOnce(t *testing.T) {
	f := NewFake("hi", nil)
	c := New(f, WithQuiet(false))
	for range 3 {
		if err := c.Load(context.Background()); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	if n := f.Acquires(); n != 1 {
		t.Errorf("Acquire called %d times, want 1", n)
	}
}

func TestLoadAcquireFailure(t *testing.T) {
	f := NewFake("hi", nil)
	f.LoadErr = errors.New("model missing")
	c := New(f, WithQuiet(false))

	err := c.Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "model missing") {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.Transcribe(context.Background(), "x.wav"); !errors.Is(err, ErrNotReady) {
		t.Errorf("Transcribe after failed load = %v, want ErrNotReady", err)
	}
}

func TestTranscribeResultShapes(t *testing.T) {
	tests := []struct {
		name string
		out  any
		want string
	}{
		{"string", "hello world", "hello world"},
		{"hypotheses", []Hypothesis{{Text: "first"}, {Text: "second"}}, "first"},
		{"empty hypotheses", []Hypothesis{}, ""},
		{"hypothesis", Hypothesis{Text: "single"}, "single"},
		{"hypothesis pointer", &Hypothesis{Text: "ptr"}, "ptr"},
		{"strings", []string{"a", "b"}, "a"},
		{"stringer", stringer{}, "from stringer"},
		{"number", 42, "42"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Fake{Output: tt.out}
			c := New(f, WithQuiet(false))
			if err := c.Load(context.Background()); err != nil {
				t.Fatal(err)
			}
			got, err := c.Transcribe(context.Background(), "x.wav")
			if err != nil {
				t.Fatalf("Transcribe: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranscribeFailure(t *testing.T) {
	f := NewFake("", errors.New("decoder exploded"))
	c := New(f, WithQuiet(false))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err := c.Transcribe(context.Background(), "x.wav")
	if err == nil || !strings.Contains(err.Error(), "decoder exploded") {
		t.Fatalf("err = %v", err)
	}
	if paths := f.Paths(); len(paths) != 1 || paths[0] != "x.wav" {
		t.Errorf("paths = %v", paths)
	}
}

func TestTranscribeTimeout(t *testing.T) {
	f := NewFake("late", nil)
	f.Delay = time.Second
	c := New(f, WithQuiet(false), WithTimeout(20*time.Millisecond))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	_, err := c.Transcribe(context.Background(), "x.wav")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout did not bound the inference")
	}
}

func TestClose(t *testing.T) {
	f := NewFake("x", nil)
	c := New(f, WithQuiet(false))
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !f.Closed() {
		t.Error("backend not closed")
	}
	if c.Ready() {
		t.Error("client still ready after Close")
	}
}

func TestCallsDuringLoadDoNotBlock(t *testing.T) {
	f := NewFake("hello", nil)
	f.Hold = make(chan struct{})
	c := New(f, WithQuiet(false))

	loaded := make(chan error, 1)
	go func() { loaded <- c.Load(context.Background()) }()
	for f.Acquires() == 0 {
		time.Sleep(time.Millisecond)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.Transcribe(context.Background(), "x.wav")
		c.Device()
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, ErrNotReady) {
			t.Fatalf("err = %v, want ErrNotReady", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Transcribe blocked while the model was loading")
	}

	close(f.Hold)
	if err := <-loaded; err != nil {
		t.Fatal(err)
	}
	if !c.Ready() {
		t.Error("client should be ready after load")
	}
}

func TestCancelDuringLoadThenClose(t *testing.T) {
	f := NewFake("hello", nil)
	f.Hold = make(chan struct{})
	c := New(f, WithQuiet(false))

	ctx, cancel := context.WithCancel(context.Background())
	loaded := make(chan error, 1)
	go func() { loaded <- c.Load(ctx) }()
	for f.Acquires() == 0 {
		time.Sleep(time.Millisecond)
	}

	closed := make(chan struct{})
	go func() {
		cancel()
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on an in-flight load")
	}
	select {
	case err := <-loaded:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("load err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("load did not observe cancellation")
	}
}
