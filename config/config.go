package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"murmur/beep"
	"murmur/transcriber"
)

var ErrUnknownBackend = errors.New("unknown transcription backend")

const (
	BackendCommand = "command"
	BackendOpenAI  = "openai"
	BackendFake    = "fake"
)

type Command struct {
	Argv        []string `yaml:"argv"`
	NoGPUFlag   string   `yaml:"no_gpu_flag"`
	Model       string   `yaml:"model"`
	ModelURL    string   `yaml:"model_url"`
	ModelSHA256 string   `yaml:"model_sha256"`
}

type OpenAI struct {
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Format   string `yaml:"format"`
	APIKey   string `yaml:"-"`
}

// Sounds are the audio files played for each cue, the system sounds by
// default. Empty means a
// synthesized tone.
type Sounds struct {
	Start string `yaml:"start"`
	Stop  string `yaml:"stop"`
	Done  string `yaml:"done"`
}

type Config struct {
	Hotkey            string        `yaml:"hotkey"`
	SampleRate        int           `yaml:"sample_rate"`
	Device            string        `yaml:"device"`
	StartCueDelay     time.Duration `yaml:"start_cue_delay"`
	JoinTimeout       time.Duration `yaml:"join_timeout"`
	TranscribeTimeout time.Duration `yaml:"transcribe_timeout"`
	PreviewLength     int           `yaml:"preview_length"`
	Quiet             bool          `yaml:"quiet"`
	Autopaste         bool          `yaml:"autopaste"`
	Backend           string        `yaml:"backend"`
	Command           Command       `yaml:"command"`
	OpenAI            OpenAI        `yaml:"openai"`
	Sounds            Sounds        `yaml:"sounds"`
}

func Default() *Config {
	return &Config{
		Hotkey:        "ctrl+q",
		SampleRate:    16000,
		StartCueDelay: 500 * time.Millisecond,
		JoinTimeout:   3 * time.Second,
		PreviewLength: 100,
		Quiet:         true,
		Backend:       BackendCommand,
		Command: Command{
			Argv:      append([]string(nil), transcriber.DefaultArgv...),
			NoGPUFlag: transcriber.DefaultNoGPUFlag,
			Model:     DefaultModelPath(),
			ModelURL:  transcriber.DefaultModelURL,
		},
		OpenAI: OpenAI{
			Model:  transcriber.DefaultOpenAIModel,
			Format: "wav",
		},
		Sounds: Sounds(beep.DefaultSounds()),
	}
}

// DefaultPath is config.yaml under the user configuration directory
// (XDG_CONFIG_HOME, ~/Library/Application Support, %AppData%).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "murmur", "config.yaml")
}

func DefaultModelPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "murmur", "models", "ggml-base.en.bin")
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults. OPENAI_API_KEY fills the API key.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	return cfg, cfg.Validate()
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendCommand:
		if len(c.Command.Argv) == 0 || c.Command.Argv[0] == "" {
			return fmt.Errorf("command.argv must name a program")
		}
	case BackendOpenAI, BackendFake:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Hotkey == "" {
		return fmt.Errorf("hotkey must not be empty")
	}
	if c.StartCueDelay < 0 || c.JoinTimeout < 0 || c.TranscribeTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.PreviewLength <= 0 {
		return fmt.Errorf("preview_length must be positive, got %d", c.PreviewLength)
	}
	return nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
