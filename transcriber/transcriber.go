package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/wav"

	"murmur/log"
)

var ErrNotReady = errors.New("transcription model is not loaded")

// Device is where the model runs.
type Device string

const (
	DeviceCPU    Device = "cpu"
	DeviceMetal  Device = "metal"
	DeviceCUDA   Device = "cuda"
	DeviceRemote Device = "remote"
)

// Backend is a pretrained speech-to-text model the Client drives.
// Acquire and Place are called once, in that order, before any Infer.
type Backend interface {
	Name() string
	Acquire(ctx context.Context) error
	// Accelerator reports the preferred non-CPU device, if one is present.
	Accelerator() (Device, bool)
	Place(ctx context.Context, dev Device) error
	Infer(ctx context.Context, path string) (any, error)
	Close() error
}

type Option func(*Client)

// WithTimeout bounds each inference. Zero leaves it unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithQuiet controls whether backend stdout/stderr is captured away from
// the process output during load and inference.
func WithQuiet(quiet bool) Option {
	return func(c *Client) { c.quiet = quiet }
}

// Client wraps exactly one backend. Load must succeed before Transcribe.
type Client struct {
	backend Backend
	timeout time.Duration
	quiet   bool

	// loadMu serializes Load; mu only guards the fields below it and is
	// never held across backend calls.
	loadMu sync.Mutex
	mu     sync.Mutex
	ready  bool
	device Device

	inferMu sync.Mutex
}

func New(b Backend, opts ...Option) *Client {
	c := &Client{backend: b, quiet: true, device: DeviceCPU}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return c.backend.Name() }

func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *Client) Device() Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// Load acquires the model and places it on the accelerator when available,
// falling back to CPU if accelerator placement fails. Later calls after a
// successful load do nothing.
func (c *Client) Load(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if c.Ready() {
		return nil
	}

	start := time.Now()
	var dev Device
	err := c.silenced("load", func() error {
		if err := c.backend.Acquire(ctx); err != nil {
			return fmt.Errorf("acquire %s model: %w", c.backend.Name(), err)
		}
		var err error
		dev, err = c.place(ctx)
		return err
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.device = dev
	c.ready = true
	c.mu.Unlock()
	log.ModelLoaded(c.backend.Name(), string(dev), time.Since(start))
	return nil
}

func (c *Client) place(ctx context.Context) (Device, error) {
	acc, ok := c.backend.Accelerator()
	if !ok || acc == DeviceCPU {
		if err := c.backend.Place(ctx, DeviceCPU); err != nil {
			return "", fmt.Errorf("place model on cpu: %w", err)
		}
		return DeviceCPU, nil
	}

	err := c.backend.Place(ctx, acc)
	if err == nil {
		return acc, nil
	}
	log.Warnf("model placement on %s failed, falling back to cpu: %v", acc, err)
	if err := c.backend.Place(ctx, DeviceCPU); err != nil {
		return "", fmt.Errorf("place model on cpu: %w", err)
	}
	return DeviceCPU, nil
}

// Transcribe runs one synchronous inference on the WAV at path and returns
// the first hypothesis text.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	if !c.Ready() {
		return "", ErrNotReady
	}

	c.inferMu.Lock()
	defer c.inferMu.Unlock()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	var out any
	err := c.silenced("inference", func() error {
		var err error
		out, err = c.backend.Infer(ctx, path)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("transcription aborted: %w", ctx.Err())
		}
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	text := decode(out)
	log.InferenceMetrics(inferenceStats(path, c.backend.Name(), c.Device(), time.Since(start), text))
	return text, nil
}

// Close releases the backend. It does not wait for an in-flight Load;
// cancel the Load context first to stop it.
func (c *Client) Close() error {
	c.mu.Lock()
	c.ready = false
	c.mu.Unlock()
	return c.backend.Close()
}

func (c *Client) silenced(stage string, fn func() error) error {
	if !c.quiet {
		return fn()
	}
	captured, err := captureOutput(fn)
	if err != nil && len(captured) > 0 {
		log.Warnf("%s %s output: %s", c.backend.Name(), stage, tail(captured, 2048))
	}
	return err
}

func inferenceStats(path, backend string, dev Device, took time.Duration, text string) log.Inference {
	m := log.Inference{
		Backend:  backend,
		Device:   string(dev),
		Duration: took,
		Chars:    len([]rune(text)),
	}
	f, err := os.Open(path)
	if err != nil {
		return m
	}
	defer f.Close()
	if st, err := f.Stat(); err == nil {
		m.FileKB = float64(st.Size()) / 1024
	}
	if d, err := wav.NewDecoder(f).Duration(); err == nil {
		m.AudioS = d.Seconds()
	}
	return m
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
