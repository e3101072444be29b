package audio

import (
	"encoding/binary"
	"sync"
	"time"
)

const fakeFrameSize = 1024

// FakeContext stands in for a microphone. Captures it creates replay pcm on
// Start and accept further blocks through Feed.
type FakeContext struct {
	pcm []byte

	StartErr   error
	StopDelay  time.Duration
	StartPanic bool

	mu      sync.Mutex
	current *FakeCapture
	opened  int
}

func NewFakeContext(pcm []byte) *FakeContext {
	return &FakeContext{pcm: pcm}
}

// NewFakeContextFromWAV replays the samples of a mono 16-bit WAV file.
func NewFakeContextFromWAV(path string) (*FakeContext, error) {
	samples, _, err := ReadArtifact(path)
	if err != nil {
		return nil, err
	}
	return NewFakeContext(SamplesToPCM(samples)), nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	c := &FakeCapture{
		pcm:        f.pcm,
		startErr:   f.StartErr,
		startPanic: f.StartPanic,
		stopDelay:  f.StopDelay,
		errs:       make(chan error, 1),
	}
	f.mu.Lock()
	f.current = c
	f.opened++
	f.mu.Unlock()
	return c, nil
}

// Opened reports how many captures have been created.
func (f *FakeContext) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Feed delivers pcm to the most recent capture. It reports false when no
// capture is running.
func (f *FakeContext) Feed(pcm []byte) bool {
	f.mu.Lock()
	c := f.current
	f.mu.Unlock()
	if c == nil {
		return false
	}
	return c.feed(pcm)
}

// Fail reports a stream error on the most recent capture, as if the device
// had gone away.
func (f *FakeContext) Fail(err error) bool {
	f.mu.Lock()
	c := f.current
	f.mu.Unlock()
	if c == nil {
		return false
	}
	select {
	case c.errs <- err:
		return true
	default:
		return false
	}
}

// Closed reports whether the most recent capture has been closed.
func (f *FakeContext) Closed() bool {
	f.mu.Lock()
	c := f.current
	f.mu.Unlock()
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type FakeCapture struct {
	pcm        []byte
	startErr   error
	startPanic bool
	stopDelay  time.Duration
	errs       chan error

	mu      sync.Mutex
	cb      DataCallback
	running bool
	closed  bool
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

func (c *FakeCapture) DeviceName() string { return "fake" }

func (c *FakeCapture) Err() <-chan error { return c.errs }

func (c *FakeCapture) Start() error {
	if c.startPanic {
		panic("capture driver crashed")
	}
	if c.startErr != nil {
		return c.startErr
	}
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()

	chunkBytes := fakeFrameSize * BytesPerSample
	for pos := 0; pos < len(c.pcm); pos += chunkBytes {
		end := min(pos+chunkBytes, len(c.pcm))
		c.feed(c.pcm[pos:end])
	}
	return nil
}

func (c *FakeCapture) feed(pcm []byte) bool {
	c.mu.Lock()
	cb, running := c.cb, c.running
	c.mu.Unlock()
	if !running || cb == nil {
		return false
	}
	chunk := make([]byte, len(pcm))
	copy(chunk, pcm)
	cb(chunk, uint32(len(chunk)/BytesPerSample))
	return true
}

func (c *FakeCapture) Stop() {
	if c.stopDelay > 0 {
		time.Sleep(c.stopDelay)
	}
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

func (c *FakeCapture) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// SamplesToPCM converts samples to little-endian 16-bit PCM bytes.
func SamplesToPCM(samples []int16) []byte {
	pcm := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}
