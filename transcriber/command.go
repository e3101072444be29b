package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"murmur/audio"
	"murmur/log"
)

// DefaultArgv runs whisper.cpp's CLI without timestamps or progress output.
var DefaultArgv = []string{"whisper-cli", "-m", "{model}", "-f", "{input}", "-nt", "-np"}

const DefaultNoGPUFlag = "-ng"

// CommandConfig describes an external speech-to-text program. Argv elements
// may contain {model} and {input} placeholders.
type CommandConfig struct {
	Argv        []string
	NoGPUFlag   string
	Model       string
	ModelURL    string
	ModelSHA256 string
}

// Command transcribes by running an external program per artifact and
// reading the transcript from its standard output.
type Command struct {
	cfg    CommandConfig
	device Device
	http   *TracedClient

	goos, goarch string
	lookPath     func(string) (string, error)
}

func NewCommand(cfg CommandConfig) *Command {
	if len(cfg.Argv) == 0 {
		cfg.Argv = DefaultArgv
	}
	return &Command{
		cfg:      cfg,
		device:   DeviceCPU,
		http:     NewTracedClient(),
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
		lookPath: exec.LookPath,
	}
}

func (c *Command) Name() string { return "command" }

func (c *Command) Acquire(ctx context.Context) error {
	if _, err := c.lookPath(c.cfg.Argv[0]); err != nil {
		return fmt.Errorf("speech-to-text program %q not found: %w", c.cfg.Argv[0], err)
	}
	if c.cfg.Model == "" {
		return nil
	}
	return FetchModel(ctx, c.http, c.cfg.ModelURL, c.cfg.Model, c.cfg.ModelSHA256)
}

func (c *Command) Accelerator() (Device, bool) {
	if c.goos == "darwin" && c.goarch == "arm64" {
		return DeviceMetal, true
	}
	if _, err := c.lookPath("nvidia-smi"); err == nil {
		return DeviceCUDA, true
	}
	return "", false
}

// Place warms the program up on a short silent clip with the flags for dev.
// A failing warm-up means the device cannot be used.
func (c *Command) Place(ctx context.Context, dev Device) error {
	dir, err := os.MkdirTemp("", "murmur-warmup-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	silence := make([]int16, audio.DefaultSampleRate/2)
	art, err := audio.WriteArtifact(dir, "warmup.wav", silence, audio.DefaultSampleRate)
	if err != nil {
		return fmt.Errorf("write warm-up clip: %w", err)
	}
	if _, err := c.run(ctx, dev, art.Path); err != nil {
		return fmt.Errorf("warm-up on %s: %w", dev, err)
	}
	c.device = dev
	return nil
}

func (c *Command) Infer(ctx context.Context, path string) (any, error) {
	return c.run(ctx, c.device, path)
}

func (c *Command) Close() error { return nil }

func (c *Command) run(ctx context.Context, dev Device, input string) (string, error) {
	argv := c.argv(dev, input)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(tail(stderr.Bytes(), 512)); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", filepath.Base(argv[0]), err, msg)
		}
		return "", fmt.Errorf("%s: %w", filepath.Base(argv[0]), err)
	}
	if stderr.Len() > 0 {
		log.Infof("command_stderr: %s", strings.TrimSpace(tail(stderr.Bytes(), 512)))
	}
	return joinLines(stdout.String()), nil
}

func (c *Command) argv(dev Device, input string) []string {
	r := strings.NewReplacer("{model}", c.cfg.Model, "{input}", input)
	out := make([]string, 0, len(c.cfg.Argv)+1)
	for _, a := range c.cfg.Argv {
		out = append(out, r.Replace(a))
	}
	if dev == DeviceCPU && c.cfg.NoGPUFlag != "" {
		out = append(out, c.cfg.NoGPUFlag)
	}
	return out
}

// joinLines collapses per-segment output lines into one transcript.
func joinLines(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
