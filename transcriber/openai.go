package transcriber

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"murmur/audio"
	"murmur/encoder"
)

const DefaultOpenAIModel = openai.Whisper1

type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	// Format is the upload encoding: "wav" sends the artifact as recorded,
	// "flac" re-encodes it losslessly first.
	Format string
}

// OpenAI sends artifacts to an OpenAI-compatible transcription endpoint.
type OpenAI struct {
	cfg    OpenAIConfig
	http   *TracedClient
	client *openai.Client
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Format == "" {
		cfg.Format = string(encoder.FormatWAV)
	}
	return &OpenAI{cfg: cfg, http: NewTracedClient()}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Acquire(context.Context) error {
	if o.cfg.APIKey == "" && o.cfg.BaseURL == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	switch encoder.Format(o.cfg.Format) {
	case encoder.FormatWAV, encoder.FormatFLAC:
	default:
		return fmt.Errorf("unsupported upload format %q", o.cfg.Format)
	}

	conf := openai.DefaultConfig(o.cfg.APIKey)
	if o.cfg.BaseURL != "" {
		conf.BaseURL = o.cfg.BaseURL
	}
	conf.HTTPClient = o.http
	o.client = openai.NewClientWithConfig(conf)
	return nil
}

func (o *OpenAI) Accelerator() (Device, bool) { return DeviceRemote, true }

func (o *OpenAI) Place(context.Context, Device) error { return nil }

func (o *OpenAI) Infer(ctx context.Context, path string) (any, error) {
	if o.client == nil {
		return nil, ErrNotReady
	}
	req := openai.AudioRequest{
		Model:    o.cfg.Model,
		FilePath: path,
		Language: o.cfg.Language,
		Format:   openai.AudioResponseFormatJSON,
	}
	if encoder.Format(o.cfg.Format) == encoder.FormatFLAC {
		samples, rate, err := audio.ReadArtifact(path)
		if err != nil {
			return nil, err
		}
		data, err := encoder.Encode(encoder.FormatFLAC, samples, rate)
		if err != nil {
			return nil, fmt.Errorf("encode flac: %w", err)
		}
		req.FilePath = "audio.flac"
		req.Reader = bytes.NewReader(data)
	}

	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, err
	}
	return []Hypothesis{{Text: resp.Text}}, nil
}

func (o *OpenAI) Close() error { return nil }
