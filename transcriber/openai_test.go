package transcriber

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"murmur/audio"
)

func TestOpenAITranscribe(t *testing.T) {
	for _, format := range []string{"wav", "flac"} {
		t.Run(format, func(t *testing.T) {
			var gotFile, gotModel string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
					http.NotFound(w, r)
					return
				}
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				gotModel = r.FormValue("model")
				if _, hdr, err := r.FormFile("file"); err == nil {
					gotFile = hdr.Filename
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"text": "remote words"})
			}))
			defer srv.Close()

			art, err := audio.WriteArtifact(t.TempDir(), "clip.wav", make([]int16, 1600), audio.DefaultSampleRate)
			if err != nil {
				t.Fatal(err)
			}

			c := New(NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1", Format: format}), WithQuiet(false))
			if err := c.Load(context.Background()); err != nil {
				t.Fatalf("Load: %v", err)
			}
			if c.Device() != DeviceRemote {
				t.Errorf("Device = %q", c.Device())
			}
			text, err := c.Transcribe(context.Background(), art.Path)
			if err != nil {
				t.Fatalf("Transcribe: %v", err)
			}
			if text != "remote words" {
				t.Errorf("text = %q", text)
			}
			if gotModel != DefaultOpenAIModel {
				t.Errorf("model = %q", gotModel)
			}
			if filepath.Ext(gotFile) != "."+format {
				t.Errorf("uploaded file %q, want .%s", gotFile, format)
			}
		})
	}
}

func TestOpenAIAcquireValidation(t *testing.T) {
	if err := NewOpenAI(OpenAIConfig{}).Acquire(context.Background()); err == nil {
		t.Error("expected error without API key or base URL")
	}
	if err := NewOpenAI(OpenAIConfig{APIKey: "k", Format: "ogg"}).Acquire(context.Background()); err == nil {
		t.Error("expected error for unsupported format")
	}
}
