//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"murmur/audio"
)

var (
	testBinary string
	speechPath string
	silentPath string
)

func TestMain(m *testing.M) {
	testBinary = os.Getenv("MURMUR_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "MURMUR_TEST_BIN not set; build murmur and point it at the binary")
		os.Exit(1)
	}

	dir, err := os.MkdirTemp("", "murmur-integration")
	if err != nil {
		fmt.Fprintf(os.Stderr, "temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	tone := make([]int16, 16000)
	for i := range tone {
		tone[i] = int16((i % 64) * 256)
	}
	a, err := audio.WriteArtifact(dir, "tone.wav", tone, 16000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate tone.wav: %v\n", err)
		os.Exit(1)
	}
	speechPath = a.Path
	if p := os.Getenv("MURMUR_TEST_WAV"); p != "" {
		speechPath = p
	}

	a, err = audio.WriteArtifact(dir, "silence.wav", make([]int16, 16000), 16000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate silence.wav: %v\n", err)
		os.Exit(1)
	}
	silentPath = a.Path

	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

// runMurmur runs the binary headless and returns its stdout and log
// directory.
func runMurmur(t *testing.T, stdin string, env []string, args ...string) (string, string) {
	t.Helper()
	logDir := t.TempDir()
	cmdArgs := append([]string{"-logpath", logDir, "-config", filepath.Join(t.TempDir(), "none.yaml")}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), env...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("murmur exited with error: %v\noutput: %s", err, out)
	}
	return string(out), logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestFakeBackend(t *testing.T) {
	out, logDir := runMurmur(t, cmds("TOGGLE", "TOGGLE", "WAIT", "QUIT"),
		[]string{"MURMUR_FAKE_TEXT=integration words"}, "-backend", "fake", "-test", speechPath)

	if !strings.Contains(out, "TRANSCRIPT: integration words") {
		t.Errorf("stdout missing transcript:\n%s", out)
	}
	if !strings.Contains(out, "NOTIFY: Done: integration words") {
		t.Errorf("stdout missing notification:\n%s", out)
	}
	if !strings.Contains(readLog(t, logDir, "transcribe_log.txt"), "integration words") {
		t.Error("transcribe_log.txt missing transcript")
	}
	diag := readLog(t, logDir, "diagnostics_log.txt")
	for _, want := range []string{"model_loaded", "recording_start", "transcription"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %q", want)
		}
	}
}

func TestTwoSessions(t *testing.T) {
	_, logDir := runMurmur(t, cmds("TOGGLE", "TOGGLE", "WAIT", "TOGGLE", "TOGGLE", "WAIT", "QUIT"),
		nil, "-backend", "fake", "-test", speechPath)
	lines := strings.Split(strings.TrimSpace(readLog(t, logDir, "transcribe_log.txt")), "\n")
	if len(lines) != 2 {
		t.Errorf("transcripts = %d, want 2", len(lines))
	}
}

func TestCommandBackend(t *testing.T) {
	if _, err := exec.LookPath("whisper-cli"); err != nil {
		t.Skip("whisper-cli not on PATH")
	}
	out, logDir := runMurmur(t, cmds("TOGGLE", "SLEEP 200", "TOGGLE", "WAIT", "QUIT"),
		nil, "-backend", "command", "-test", speechPath)
	if strings.Contains(out, "ALERT:") {
		t.Fatalf("unexpected alert:\n%s", out)
	}
	if strings.TrimSpace(readLog(t, logDir, "transcribe_log.txt")) == "" {
		t.Fatal("transcribe_log.txt is empty, expected transcribed words")
	}
}

func TestSilence(t *testing.T) {
	out, _ := runMurmur(t, cmds("TOGGLE", "TOGGLE", "WAIT", "QUIT"), nil, "-backend", "fake", "-test", silentPath)
	if strings.Contains(out, "ALERT:") {
		t.Errorf("silence should not alert:\n%s", out)
	}
}
