package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	diagName       = "diagnostics_log.txt"
	transcriptName = "transcribe_log.txt"
	crashName      = "crash_log.txt"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcriptFile *os.File
	crashFile      *os.File
	logMu          sync.Mutex
	ready          atomic.Bool
	pid            int
	dir            string
)

// Inference describes one completed transcription for the diagnostic log.
type Inference struct {
	Backend  string
	Device   string
	AudioS   float64
	FileKB   float64
	Duration time.Duration
	Chars    int
}

// ResolveDir picks the log directory: the -logpath flag, then
// MURMUR_LOG_PATH, then the OS default.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absolute(flagPath)
	}
	if env := os.Getenv("MURMUR_LOG_PATH"); env != "" {
		return absolute(env)
	}
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}
	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, diagName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	transcriptFile, err = os.OpenFile(filepath.Join(dir, transcriptName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		diagFile = nil
		return err
	}

	diagLog = zerolog.New(zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}).With().Timestamp().Int("pid", pid).Logger()

	ready.Store(true)
	return nil
}

// CaptureCrashes routes fatal runtime output (unrecovered panics in any
// goroutine) to crash_log.txt in the log directory.
func CaptureCrashes() error {
	logMu.Lock()
	defer logMu.Unlock()

	f, err := os.OpenFile(filepath.Join(dir, crashName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := debug.SetCrashOutput(f, debug.CrashOptions{}); err != nil {
		f.Close()
		return err
	}
	crashFile = f
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	ready.Store(false)
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcriptFile != nil {
		transcriptFile.Close()
		transcriptFile = nil
	}
	if crashFile != nil {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		crashFile.Close()
		crashFile = nil
	}
}

func Info(msg string) {
	if ready.Load() {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if ready.Load() {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if ready.Load() {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if ready.Load() {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if ready.Load() {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if ready.Load() {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func ModelLoaded(backend, device string, took time.Duration) {
	if !ready.Load() {
		return
	}
	diagLog.Info().
		Str("backend", backend).
		Str("device", device).
		Float64("load_ms", float64(took.Microseconds())/1000).
		Msg("model_loaded")
}

func InferenceMetrics(m Inference) {
	if !ready.Load() {
		return
	}
	diagLog.Info().
		Str("backend", m.Backend).
		Str("device", m.Device).
		Float64("audio_s", m.AudioS).
		Float64("file_kb", m.FileKB).
		Float64("infer_ms", float64(m.Duration.Microseconds())/1000).
		Int("chars", m.Chars).
		Msg("transcription")
}

// TranscriptionText appends one line to transcribe_log.txt:
// "2006-01-02 15:04:05\t[pid]\ttext".
func TranscriptionText(text string) {
	if !ready.Load() {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	if transcriptFile == nil {
		return
	}
	fmt.Fprintf(transcriptFile, "%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
}

func SessionStart(backend, hotkey string, sampleRate int) {
	if !ready.Load() {
		return
	}
	diagLog.Info().
		Str("backend", backend).
		Str("hotkey", hotkey).
		Int("sample_rate", sampleRate).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !ready.Load() {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("session_end")
}
