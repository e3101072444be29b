// Package shell runs the dictation lifecycle: it owns the state machine and
// connects the recorder, the transcriber and the user-facing surfaces.
package shell

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"murmur/audio"
	"murmur/fsm"
	"murmur/log"
	"murmur/transcriber"
)

const DefaultStartCueDelay = 500 * time.Millisecond

type Recorder interface {
	Start() error
	Stop() (*audio.Artifact, error)
	Recording() bool
	DeviceName() string
}

type Transcriber interface {
	Load(ctx context.Context) error
	Transcribe(ctx context.Context, path string) (string, error)
	Device() transcriber.Device
}

type Clipboard interface {
	Copy(text string) error
}

type Notifier interface {
	Notify(message string) error
	Alert(message string) error
}

type Cues interface {
	PlayStart()
	PlayStop()
	PlayDone()
	PlayError()
}

// Menu mirrors the lifecycle state in the user interface.
type Menu interface {
	Update(state fsm.State, label string)
}

type Options struct {
	Hotkey        string
	StartCueDelay time.Duration
	PreviewLength int
	// OnFatal runs after a model load failure has been reported.
	OnFatal func(error)
}

type Shell struct {
	rec    Recorder
	stt    Transcriber
	clip   Clipboard
	notify Notifier
	cues   Cues
	menu   Menu
	opts   Options

	// toggleMu serializes user toggles; mu guards the fields below.
	toggleMu sync.Mutex
	mu       sync.Mutex
	state    fsm.State
	lastText string
	count    int
	cueTimer *time.Timer

	ctx      context.Context
	cancel   context.CancelFunc
	pipeline sync.WaitGroup
}

func New(rec Recorder, stt Transcriber, clip Clipboard, notify Notifier, cues Cues, menu Menu, opts Options) *Shell {
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = 100
	}
	if opts.OnFatal == nil {
		opts.OnFatal = func(error) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Shell{
		rec:    rec,
		stt:    stt,
		clip:   clip,
		notify: notify,
		cues:   cues,
		menu:   menu,
		opts:   opts,
		state:  fsm.StateLoading,
		ctx:    ctx,
		cancel: cancel,
	}
	s.menu.Update(fsm.StateLoading, fsm.StateLoading.Label())
	return s
}

func (s *Shell) State() fsm.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Shell) LastText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastText
}

// Count is the number of successful transcriptions.
func (s *Shell) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Shell) SetPreviewLength(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.opts.PreviewLength = n
	s.mu.Unlock()
}

// fire applies event and refreshes the menu. It expects s.mu held.
func (s *Shell) fire(event fsm.Event) error {
	next, err := fsm.Transition(s.state, event)
	if err != nil {
		return err
	}
	log.Infof("state: %s --(%s)--> %s", s.state, event, next)
	s.state = next
	s.menu.Update(next, next.Label())
	return nil
}

// Load loads the model and moves to idle. A load failure (error or panic)
// is shown in a blocking alert and handed to OnFatal.
func (s *Shell) Load(ctx context.Context) (err error) {
	// Shutdown also ends a load in progress.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("model load panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil && s.State() == fsm.StateStopped {
			log.Infof("model load abandoned: %v", err)
			return
		}
		if err != nil {
			s.fatal(err)
		}
	}()

	if err := s.stt.Load(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	err = s.fire(fsm.EventLoaded)
	s.mu.Unlock()
	if err != nil {
		// Shutdown won the race; nothing to report.
		log.Warnf("model loaded after shutdown: %v", err)
		return nil
	}

	msg := fmt.Sprintf("Ready: Press %s or menu to start recording (%s)", s.opts.Hotkey, s.stt.Device())
	if dev := s.rec.DeviceName(); dev != "" {
		msg += " using " + dev
	}
	if err := s.notify.Notify(msg); err != nil {
		log.Warnf("ready notification: %v", err)
	}
	return nil
}

func (s *Shell) fatal(err error) {
	log.Errorf("model load failed: %v", err)
	if aerr := s.notify.Alert("Failed to load model: " + err.Error()); aerr != nil {
		log.Warnf("alert: %v", aerr)
	}
	s.opts.OnFatal(err)
}

// Toggle starts recording when idle and stops it when recording. In any
// other state it does nothing.
func (s *Shell) Toggle() {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	switch s.State() {
	case fsm.StateIdle:
		s.startRecording()
	case fsm.StateRecording:
		s.stopRecording()
	default:
		log.Infof("toggle ignored in state %s", s.State())
	}
}

func (s *Shell) startRecording() {
	if err := s.rec.Start(); err != nil {
		log.Errorf("recording start failed: %v", err)
		s.menu.Update(fsm.StateIdle, fsm.StateIdle.Label())
		return
	}

	s.mu.Lock()
	if err := s.fire(fsm.EventStart); err != nil {
		s.mu.Unlock()
		log.Errorf("start: %v", err)
		s.discard()
		return
	}
	// Delay the cue so the microphone does not pick it up.
	s.cueTimer = time.AfterFunc(s.opts.StartCueDelay, func() {
		if s.State() == fsm.StateRecording {
			s.cues.PlayStart()
		}
	})
	s.mu.Unlock()
}

func (s *Shell) stopRecording() {
	s.cues.PlayStop()

	s.mu.Lock()
	if s.cueTimer != nil {
		s.cueTimer.Stop()
		s.cueTimer = nil
	}
	if err := s.fire(fsm.EventStop); err != nil {
		s.mu.Unlock()
		log.Errorf("stop: %v", err)
		return
	}
	s.pipeline.Add(1)
	s.mu.Unlock()

	go s.process()
}

// process turns the finished recording into clipboard text and always ends
// back in idle.
func (s *Shell) process() {
	defer s.pipeline.Done()
	defer s.finish()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("pipeline panic: %v\n%s", r, debug.Stack())
			s.fail(fmt.Errorf("panic: %v", r))
		}
	}()

	art, err := s.rec.Stop()
	if err != nil {
		s.fail(err)
		return
	}
	if art == nil {
		log.Info("no audio captured")
		return
	}
	defer func() {
		if err := art.Remove(); err != nil {
			log.Warnf("remove %s: %v", art.Path, err)
		}
	}()

	text, err := s.stt.Transcribe(s.ctx, art.Path)
	if err != nil {
		if errors.Is(err, context.Canceled) && s.State() == fsm.StateStopped {
			return
		}
		s.fail(err)
		return
	}
	s.deliver(text)
}

func (s *Shell) deliver(text string) {
	s.cues.PlayDone()
	if err := s.clip.Copy(text); err != nil {
		log.Warnf("clipboard: %v", err)
	}

	s.mu.Lock()
	s.lastText = text
	s.count++
	n := s.opts.PreviewLength
	s.mu.Unlock()

	if err := s.notify.Notify("Done: " + Preview(text, n)); err != nil {
		log.Warnf("notification: %v", err)
	}
	log.TranscriptionText(text)
}

func (s *Shell) fail(err error) {
	log.Errorf("processing failed: %v", err)
	s.cues.PlayError()
	if aerr := s.notify.Alert("Processing failed: " + err.Error()); aerr != nil {
		log.Warnf("alert: %v", aerr)
	}
}

func (s *Shell) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != fsm.StateProcessing {
		return
	}
	if err := s.fire(fsm.EventDone); err != nil {
		log.Errorf("done: %v", err)
	}
}

// Shutdown discards any active recording and moves to stopped. Later
// toggles do nothing.
func (s *Shell) Shutdown() {
	s.mu.Lock()
	if s.cueTimer != nil {
		s.cueTimer.Stop()
		s.cueTimer = nil
	}
	s.fire(fsm.EventShutdown)
	s.mu.Unlock()

	s.cancel()
	if s.rec.Recording() {
		s.discard()
	}
}

func (s *Shell) discard() {
	art, err := s.rec.Stop()
	if err != nil {
		log.Warnf("stop recorder: %v", err)
	}
	if art != nil {
		art.Remove()
	}
}

// Wait blocks until any in-flight transcription has finished.
func (s *Shell) Wait() {
	s.pipeline.Wait()
}

// Preview shortens text to n characters, appending "..." when cut.
func Preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
