package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"murmur/log"
)

var ErrAlreadyRecording = errors.New("already recording")

const DefaultJoinTimeout = 3 * time.Second

type RecorderOptions struct {
	Device      *DeviceInfo
	Config      CaptureConfig
	Dir         string        // artifact directory, os.TempDir() when empty
	JoinTimeout time.Duration // bounded wait for the capture goroutine on Stop
}

// Recorder owns one recording session at a time. Captured blocks are
// appended in arrival order and flushed to a WAV artifact on Stop.
type Recorder struct {
	ctx  Context
	opts RecorderOptions

	mu      sync.Mutex
	active  bool
	failed  error // stream failure of the last session, returned by Stop
	id      string
	chunks  [][]int16
	stop    chan struct{}
	done    chan struct{}
	devName string
}

func NewRecorder(ctx Context, opts RecorderOptions) *Recorder {
	if opts.Config.SampleRate == 0 {
		opts.Config.SampleRate = DefaultSampleRate
	}
	if opts.Config.Channels == 0 {
		opts.Config.Channels = 1
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = DefaultJoinTimeout
	}
	return &Recorder{ctx: ctx, opts: opts}
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// DeviceName reports the device used by the most recent session.
func (r *Recorder) DeviceName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.devName
}

// Start opens the input stream and begins a new session. It returns
// ErrAlreadyRecording, leaving the running session untouched, if one is active.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.active = true
	r.failed = nil
	r.id = uuid.NewString()
	r.chunks = nil
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	stop, done, id := r.stop, r.done, r.id
	r.mu.Unlock()

	ready := make(chan error, 1)
	go r.capture(id, stop, done, ready)

	if err := <-ready; err != nil {
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
		return err
	}
	log.Info("recording_start: " + id)
	return nil
}

func (r *Recorder) capture(id string, stop <-chan struct{}, done chan<- struct{}, ready chan<- error) {
	defer close(done)
	signaled := false
	signal := func(err error) {
		if !signaled {
			signaled = true
			ready <- err
		}
	}
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("capture panic: %v", p)
			log.Errorf("%v", err)
			r.mu.Lock()
			if r.id == id {
				if signaled && r.active {
					r.failed = err
				}
				r.active = false
			}
			r.mu.Unlock()
			signal(err)
		}
	}()

	dev, err := r.ctx.NewCapture(r.opts.Device, r.opts.Config)
	if err != nil {
		signal(fmt.Errorf("open capture: %w", err))
		return
	}
	defer dev.Close()

	dev.SetCallback(func(data []byte, _ uint32) {
		if len(data) < BytesPerSample {
			return
		}
		chunk := PCMToSamples(data)
		r.mu.Lock()
		if r.active {
			r.chunks = append(r.chunks, chunk)
		}
		r.mu.Unlock()
	})
	defer dev.ClearCallback()

	if err := dev.Start(); err != nil {
		signal(fmt.Errorf("start capture: %w", err))
		return
	}
	defer dev.Stop()

	r.mu.Lock()
	r.devName = dev.DeviceName()
	r.mu.Unlock()
	signal(nil)

	select {
	case <-stop:
	case err := <-dev.Err():
		log.Errorf("capture stream failed: %v", err)
		r.mu.Lock()
		if r.id == id && r.active {
			r.failed = fmt.Errorf("capture stream: %w", err)
			r.active = false
			r.chunks = nil
		}
		r.mu.Unlock()
	}
}

// Stop ends the session and writes the captured audio to a new artifact.
// It returns nil, nil when no session is active or nothing was captured,
// and the stream error when the session ended early.
func (r *Recorder) Stop() (*Artifact, error) {
	r.mu.Lock()
	if !r.active {
		err := r.failed
		r.failed = nil
		r.mu.Unlock()
		return nil, err
	}
	r.active = false
	close(r.stop)
	done, id := r.done, r.id
	r.mu.Unlock()

	select {
	case <-done:
	case <-time.After(r.opts.JoinTimeout):
		log.Warnf("capture did not stop within %s, continuing", r.opts.JoinTimeout)
	}

	r.mu.Lock()
	chunks := r.chunks
	r.chunks = nil
	r.mu.Unlock()

	samples := concat(chunks)
	log.Infof("recording_stop: %s chunks=%d samples=%d", id, len(chunks), len(samples))
	if len(samples) == 0 {
		return nil, nil
	}
	return WriteArtifact(r.opts.Dir, "murmur-"+id+".wav", samples, int(r.opts.Config.SampleRate))
}

func concat(chunks [][]int16) []int16 {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	if n == 0 {
		return nil
	}
	out := make([]int16, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
