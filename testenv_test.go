package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"murmur/audio"
	"murmur/config"
)

func writeWAV(t *testing.T, n int) string {
	t.Helper()
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}
	a, err := audio.WriteArtifact(t.TempDir(), "in.wav", samples, 16000)
	if err != nil {
		t.Fatal(err)
	}
	return a.Path
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Backend = config.BackendFake
	cfg.StartCueDelay = time.Millisecond
	cfg.Quiet = false
	return cfg
}

func TestRunTestMode(t *testing.T) {
	t.Setenv("MURMUR_FAKE_TEXT", "hello from the fake")
	var out bytes.Buffer
	in := strings.NewReader("TOGGLE\nSLEEP 5\nTOGGLE\nWAIT\nQUIT\n")

	if code := runTestMode(testConfig(), writeWAV(t, 8000), in, &out); code != 0 {
		t.Fatalf("exit code = %d\n%s", code, out.String())
	}
	got := out.String()
	for _, want := range []string{
		"NOTIFY: Ready: Press TOGGLE",
		"TRANSCRIPT: hello from the fake\n",
		"NOTIFY: Done: hello from the fake\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunTestModeTwoSessions(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("TOGGLE\nTOGGLE\nWAIT\nTOGGLE\nTOGGLE\nWAIT\n")
	if code := runTestMode(testConfig(), writeWAV(t, 1600), in, &out); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if n := strings.Count(out.String(), "TRANSCRIPT: "); n != 2 {
		t.Errorf("transcripts = %d, want 2\n%s", n, out.String())
	}
}

func TestRunTestModeUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	code := runTestMode(testConfig(), writeWAV(t, 160), strings.NewReader("JUMP\nQUIT\n"), &out)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), `ERROR: unknown command "JUMP"`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunTestModeLoadFailure(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg := testConfig()
	cfg.Backend = config.BackendOpenAI
	cfg.OpenAI.APIKey = ""
	var out bytes.Buffer
	if code := runTestMode(cfg, writeWAV(t, 160), strings.NewReader("QUIT\n"), &out); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "ALERT: Failed to load model: ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunTestModeMissingWAV(t *testing.T) {
	var out bytes.Buffer
	code := runTestMode(testConfig(), "/nonexistent/in.wav", strings.NewReader(""), &out)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.HasPrefix(out.String(), "ERROR: loading WAV") {
		t.Errorf("output = %q", out.String())
	}
}
