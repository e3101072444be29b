package transcriber

import (
	"context"
	"sync"
	"time"
)

// Fake is a scripted Backend for tests and headless runs.
type Fake struct {
	Output   any
	Err      error
	Delay    time.Duration
	Accel    Device
	PlaceErr map[Device]error
	LoadErr  error
	// Hold blocks Acquire until it is closed or the context ends.
	Hold chan struct{}

	mu       sync.Mutex
	placed   []Device
	acquires int
	paths    []string
	closed   bool
}

func NewFake(text string, err error) *Fake {
	return &Fake{Output: text, Err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Acquire(ctx context.Context) error {
	f.mu.Lock()
	f.acquires++
	f.mu.Unlock()
	if f.Hold != nil {
		select {
		case <-f.Hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.LoadErr
}

func (f *Fake) Accelerator() (Device, bool) {
	return f.Accel, f.Accel != ""
}

func (f *Fake) Place(_ context.Context, dev Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, dev)
	return f.PlaceErr[dev]
}

func (f *Fake) Infer(ctx context.Context, path string) (any, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Output, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *Fake) Placements() []Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Device(nil), f.placed...)
}

func (f *Fake) Acquires() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquires
}

func (f *Fake) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
