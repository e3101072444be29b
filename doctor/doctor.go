package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"murmur/audio"
	"murmur/hotkey"
)

// Check is one diagnostic step. Run returns nil on pass; anything it prints
// to w is shown indented under the step.
type Check struct {
	Name string
	Run  func(ctx context.Context, w io.Writer) error
}

// Run executes checks in order and stops at the first failure. It returns an
// exit code (0=all pass, 1=any fail).
func Run(ctx context.Context, out io.Writer, checks []Check) int {
	resetTerminal()
	fmt.Fprintln(out, "murmur doctor - system diagnostics")
	fmt.Fprintln(out, "==================================")

	for i, c := range checks {
		fmt.Fprintf(out, "\n[%d/%d] %s\n", i+1, len(checks), c.Name)
		if err := c.Run(ctx, indent{out}); err != nil {
			fmt.Fprintf(out, "  FAIL: %v\n", err)
			fmt.Fprintln(out, "\nSome checks failed. See details above.")
			return 1
		}
		fmt.Fprintln(out, "  PASS")
	}
	fmt.Fprintln(out, "\nAll checks passed!")
	return 0
}

type indent struct{ w io.Writer }

func (i indent) Write(p []byte) (int, error) {
	lines := strings.SplitAfter(string(p), "\n")
	for _, l := range lines {
		if l == "" {
			continue
		}
		if _, err := io.WriteString(i.w, "  "+l); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// HotkeyCheck registers hk and waits for one press.
func HotkeyCheck(hk hotkey.Hotkey, timeout time.Duration) Check {
	return Check{
		Name: "Hotkey detection",
		Run: func(ctx context.Context, w io.Writer) error {
			if err := hk.Register(); err != nil {
				return fmt.Errorf("could not register hotkey: %w", err)
			}
			defer hk.Unregister()
			fmt.Fprintf(w, "Press %s...\n", hk)

			select {
			case <-hk.Keydown():
				fmt.Fprintln(w, "hotkey detected")
				return nil
			case <-time.After(timeout):
				return errors.New("timeout waiting for hotkey")
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

type Recorder interface {
	Start() error
	Stop() (*audio.Artifact, error)
}

type Transcriber interface {
	Load(ctx context.Context) error
	Transcribe(ctx context.Context, path string) (string, error)
}

// MicrophoneCheck records for d, then loads the model and transcribes the
// recording.
func MicrophoneCheck(rec Recorder, stt Transcriber, d time.Duration) Check {
	return Check{
		Name: "Microphone and transcription",
		Run: func(ctx context.Context, w io.Writer) error {
			fmt.Fprintln(w, "Loading model...")
			if err := stt.Load(ctx); err != nil {
				return fmt.Errorf("load model: %w", err)
			}

			fmt.Fprintf(w, "Speak for %s...\n", d)
			if err := rec.Start(); err != nil {
				return fmt.Errorf("recording error: %w", err)
			}
			select {
			case <-time.After(d):
			case <-ctx.Done():
			}
			art, err := rec.Stop()
			if err != nil {
				return fmt.Errorf("recording error: %w", err)
			}
			if art == nil {
				return errors.New("no audio captured")
			}
			defer art.Remove()
			fmt.Fprintf(w, "Recorded %.1fs, transcribing...\n", art.Duration().Seconds())

			text, err := stt.Transcribe(ctx, art.Path)
			if err != nil {
				return fmt.Errorf("transcription error: %w", err)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				text = "(no speech detected)"
			}
			fmt.Fprintf(w, "Transcribed text: %s\n", text)
			return nil
		},
	}
}

// ClipboardCheck writes a marker and reads it back. A hung clipboard tool
// (no compositor access) fails after timeout.
func ClipboardCheck(write func(string) error, read func() (string, error), timeout time.Duration) Check {
	return Check{
		Name: "Clipboard copy",
		Run: func(ctx context.Context, w io.Writer) error {
			want := fmt.Sprintf("murmur-doctor-%d", time.Now().UnixNano())

			type result struct {
				got   string
				err   error
				phase string
			}
			ch := make(chan result, 1)
			go func() {
				if err := write(want); err != nil {
					ch <- result{err: err, phase: "write"}
					return
				}
				got, err := read()
				if err != nil {
					ch <- result{err: err, phase: "read"}
					return
				}
				ch <- result{got: got}
			}()

			select {
			case res := <-ch:
				if res.err != nil {
					return fmt.Errorf("clipboard %s failed: %w", res.phase, res.err)
				}
				if res.got != want {
					return fmt.Errorf("clipboard mismatch: wrote %q, got %q", want, res.got)
				}
				fmt.Fprintln(w, "clipboard write/read verified")
				return nil
			case <-time.After(timeout):
				return errors.New("clipboard timed out (clipboard tool hung - compositor not accessible?)")
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}
