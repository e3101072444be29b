package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/config"
	"murmur/hotkey"
	"murmur/log"
	"murmur/notify"
	"murmur/shell"
)

// syncWriter serializes lines written from the pipeline goroutine and the
// stdin driver.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

// stdoutClipboard prints transcripts instead of touching the system
// clipboard.
type stdoutClipboard struct{ out *syncWriter }

func (c stdoutClipboard) Copy(text string) error {
	c.out.printf("TRANSCRIPT: %s\n", text)
	return nil
}

// runTestMode replays wavPath as the microphone and drives the real shell
// from commands read on in: TOGGLE, WAIT, SLEEP <ms>, QUIT. It returns the
// process exit code.
func runTestMode(cfg *config.Config, wavPath string, in io.Reader, w io.Writer) int {
	out := &syncWriter{w: w}

	actx, err := audio.NewFakeContextFromWAV(wavPath)
	if err != nil {
		out.printf("ERROR: loading WAV: %v\n", err)
		return 1
	}
	client, err := newClient(cfg)
	if err != nil {
		out.printf("ERROR: %v\n", err)
		return 1
	}
	defer client.Close()

	rec := audio.NewRecorder(actx, audio.RecorderOptions{
		Config:      audio.CaptureConfig{SampleRate: uint32(cfg.SampleRate), Channels: 1},
		JoinTimeout: cfg.JoinTimeout,
	})
	cues := beep.New(beep.Sounds{})
	cues.Disable()
	console := &notify.Console{Print: func(kind, msg string) {
		out.printf("%s: %s\n", kind, msg)
	}}

	var fatal error
	sh := shell.New(rec, client, stdoutClipboard{out: out}, console, cues, menus{}, shell.Options{
		Hotkey:        "TOGGLE",
		StartCueDelay: cfg.StartCueDelay,
		PreviewLength: cfg.PreviewLength,
		OnFatal:       func(err error) { fatal = err },
	})
	if err := sh.Load(context.Background()); err != nil || fatal != nil {
		return 1
	}

	hk := hotkey.NewFake()
	if err := hk.Register(); err != nil {
		out.printf("ERROR: %v\n", err)
		return 1
	}
	defer hk.Unregister()

	toggled := make(chan struct{})
	go func() {
		for range hk.Keydown() {
			sh.Toggle()
			toggled <- struct{}{}
		}
	}()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "TOGGLE":
			hk.SimKeydown()
			<-toggled
		case cmd == "WAIT":
			sh.Wait()
		case cmd == "QUIT":
			sh.Shutdown()
			log.SessionEnd(sh.Count())
			return 0
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(strings.TrimPrefix(cmd, "SLEEP ")); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case cmd == "":
		default:
			out.printf("ERROR: unknown command %q\n", cmd)
		}
	}
	sh.Wait()
	sh.Shutdown()
	log.SessionEnd(sh.Count())
	return 0
}
