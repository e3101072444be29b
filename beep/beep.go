package beep

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"

	"murmur/log"
)

type Cue int

const (
	CueStart Cue = iota
	CueStop
	CueDone
	CueError
)

func (c Cue) String() string {
	switch c {
	case CueStart:
		return "start"
	case CueStop:
		return "stop"
	case CueDone:
		return "done"
	case CueError:
		return "error"
	}
	return fmt.Sprintf("cue(%d)", int(c))
}

// Sounds maps cues to audio files. An empty path, a missing file or a
// missing player falls back to the built-in tone.
type Sounds struct {
	Start string
	Stop  string
	Done  string
}

// Player plays the start, stop and done cues. Playback never blocks the
// caller and failures are only logged.
type Player struct {
	mu       sync.Mutex
	sounds   Sounds
	disabled bool

	tone     func(Cue)
	playFile func(path string) error
}

// DefaultSounds returns the system sound files used out of the box: Ping and
// Glass on macOS, the freedesktop theme on Linux, none on Windows.
func DefaultSounds() Sounds { return defaultSounds }

func New(s Sounds) *Player {
	return &Player{sounds: s, tone: playTone, playFile: runPlayer}
}

func (p *Player) SetSounds(s Sounds) {
	p.mu.Lock()
	p.sounds = s
	p.mu.Unlock()
}

func (p *Player) Disable() {
	p.mu.Lock()
	p.disabled = true
	p.mu.Unlock()
}

func (p *Player) PlayStart() { p.play(CueStart) }
func (p *Player) PlayStop()  { p.play(CueStop) }
func (p *Player) PlayDone()  { p.play(CueDone) }
func (p *Player) PlayError() { p.play(CueError) }

func (p *Player) play(c Cue) {
	p.mu.Lock()
	disabled := p.disabled
	file := p.fileFor(c)
	p.mu.Unlock()
	if disabled {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("cue %s panic: %v", c, r)
			}
		}()
		if file != "" {
			err := p.playFile(file)
			if err == nil {
				return
			}
			log.Warnf("cue %s: play %s: %v", c, file, err)
		}
		p.tone(c)
	}()
}

func (p *Player) fileFor(c Cue) string {
	switch c {
	case CueStart:
		return p.sounds.Start
	case CueStop:
		return p.sounds.Stop
	case CueDone:
		return p.sounds.Done
	}
	return ""
}

// runPlayer hands the file to the platform's command-line audio player.
func runPlayer(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "afplay"
	case "linux":
		name = "paplay"
	default:
		return fmt.Errorf("no sound file player on %s", runtime.GOOS)
	}
	out, err := exec.Command(name, path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}
