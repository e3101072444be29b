package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.design/x/hotkey/mainthread"

	"murmur/audio"
	"murmur/beep"
	"murmur/clipboard"
	"murmur/config"
	"murmur/doctor"
	"murmur/hotkey"
	"murmur/log"
	"murmur/notify"
	"murmur/shell"
	"murmur/shutdown"
	"murmur/transcriber"
	"murmur/tray"
)

var version = "dev"

func init() {
	// macOS requires hotkey and tray calls on the main thread.
	runtime.LockOSThread()
}

func main() {
	mainthread.Init(run)
}

type flags struct {
	configPath string
	logPath    string
	hotkey     string
	device     string
	backend    string
	autopaste  bool
	quiet      bool
	setup      bool
	doctor     bool
	test       bool
	tui        bool
	version    bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*flags, error) {
	f := &flags{}
	fs.StringVar(&f.configPath, "config", config.DefaultPath(), "path to config.yaml")
	fs.StringVar(&f.logPath, "logpath", "", "log directory path (default: OS-specific location, MURMUR_LOG_PATH)")
	fs.StringVar(&f.hotkey, "hotkey", "", "global hotkey, e.g. ctrl+q or ctrl+shift+space")
	fs.StringVar(&f.device, "device", "", "use named microphone device")
	fs.StringVar(&f.backend, "backend", "", "transcription backend: command, openai or fake")
	fs.BoolVar(&f.autopaste, "autopaste", false, "paste into the focused window after copying")
	fs.BoolVar(&f.quiet, "quiet", true, "capture model output instead of printing it")
	fs.BoolVar(&f.setup, "setup", false, "select microphone device and save it to the config")
	fs.BoolVar(&f.doctor, "doctor", false, "run system diagnostics and exit")
	fs.BoolVar(&f.test, "test", false, "headless mode: replay a WAV file, driven by stdin")
	fs.BoolVar(&f.tui, "tui", false, "show a terminal status view")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	return f, fs.Parse(args)
}

// applyFlags overrides config values with flags given on the command line.
// It runs again on every config reload so flags keep winning.
func applyFlags(cfg *config.Config, fs *flag.FlagSet, f *flags) error {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "hotkey":
			cfg.Hotkey = f.hotkey
		case "device":
			cfg.Device = f.device
		case "backend":
			cfg.Backend = f.backend
		case "autopaste":
			cfg.Autopaste = f.autopaste
		case "quiet":
			cfg.Quiet = f.quiet
		case "tui":
			// Output capture redirects fd 1, which the TUI draws on.
			cfg.Quiet = false
		}
	})
	return cfg.Validate()
}

func newBackend(cfg *config.Config) (transcriber.Backend, error) {
	switch cfg.Backend {
	case config.BackendCommand:
		return transcriber.NewCommand(transcriber.CommandConfig{
			Argv:        cfg.Command.Argv,
			NoGPUFlag:   cfg.Command.NoGPUFlag,
			Model:       cfg.Command.Model,
			ModelURL:    cfg.Command.ModelURL,
			ModelSHA256: cfg.Command.ModelSHA256,
		}), nil
	case config.BackendOpenAI:
		return transcriber.NewOpenAI(transcriber.OpenAIConfig{
			APIKey:   cfg.OpenAI.APIKey,
			BaseURL:  cfg.OpenAI.BaseURL,
			Model:    cfg.OpenAI.Model,
			Language: cfg.OpenAI.Language,
			Format:   cfg.OpenAI.Format,
		}), nil
	case config.BackendFake:
		text := os.Getenv("MURMUR_FAKE_TEXT")
		if text == "" {
			text = "fake transcript"
		}
		return transcriber.NewFake(text, nil), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
}

func newClient(cfg *config.Config) (*transcriber.Client, error) {
	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	return transcriber.New(backend,
		transcriber.WithQuiet(cfg.Quiet),
		transcriber.WithTimeout(cfg.TranscribeTimeout),
	), nil
}

func fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Error(msg)
	fmt.Fprintln(os.Stderr, "Error: "+msg)
	log.Close()
	os.Exit(1)
}

func run() {
	fs := flag.NewFlagSet("murmur", flag.ExitOnError)
	f, _ := parseFlags(fs, os.Args[1:])

	if f.version {
		fmt.Printf("murmur %s\n", version)
		return
	}

	logDir, err := log.ResolveDir(f.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logDir)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	if err := log.CaptureCrashes(); err != nil {
		log.Warnf("crash log: %v", err)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fatalf("%v", err)
	}
	if err := applyFlags(cfg, fs, f); err != nil {
		fatalf("%v", err)
	}
	log.SessionStart(cfg.Backend, cfg.Hotkey, cfg.SampleRate)

	if f.test {
		if fs.NArg() == 0 {
			fatalf("usage: murmur -test <wav-file>")
		}
		os.Exit(runTestMode(cfg, fs.Arg(0), os.Stdin, os.Stdout))
	}

	actx, err := audio.NewContext()
	if err != nil {
		fatalf("initializing audio: %v", err)
	}
	defer actx.Close()

	if f.doctor {
		code := runDoctor(cfg, actx)
		log.Close()
		os.Exit(code)
	}

	if f.setup {
		dev, err := audio.SelectDevice(actx)
		if err != nil && !errors.Is(err, audio.ErrSelectionAborted) {
			fatalf("device selection: %v", err)
		}
		if dev != nil {
			cfg.Device = dev.Name
			if err := cfg.Save(f.configPath); err != nil {
				log.Warnf("save config: %v", err)
				fmt.Fprintf(os.Stderr, "Warning: could not save config: %v\n", err)
			}
		}
	}

	device, err := audio.FindDevice(actx, cfg.Device)
	if err != nil {
		log.Warnf("%v, using system default", err)
		fmt.Fprintf(os.Stderr, "Warning: %v, using system default\n", err)
	}

	combo, err := hotkey.Parse(cfg.Hotkey)
	if err != nil {
		fatalf("%v", err)
	}

	rec := audio.NewRecorder(actx, audio.RecorderOptions{
		Device:      device,
		Config:      audio.CaptureConfig{SampleRate: uint32(cfg.SampleRate), Channels: 1},
		JoinTimeout: cfg.JoinTimeout,
	})
	client, err := newClient(cfg)
	if err != nil {
		fatalf("%v", err)
	}
	cues := beep.New(beep.Sounds(cfg.Sounds))
	clip := clipboard.New(cfg.Autopaste)
	if cfg.Autopaste {
		if err := clipboard.Init(); err != nil {
			log.Warnf("paste init failed: %v", err)
		}
	}
	if !clipboard.Available() {
		log.Warn("no clipboard utility found; transcripts will only be logged")
	}

	var sh *shell.Shell
	ui := menus{}
	t := tray.New(func() { sh.Toggle() }, func() {
		if text := sh.LastText(); text != "" {
			if err := clip.Copy(text); err != nil {
				log.Warnf("copy last: %v", err)
			}
		}
	})
	ui = append(ui, t)
	if f.tui {
		ui = append(ui, tuiMenu{})
	}
	observed := &observedClipboard{Clipboard: clip, listeners: []func(string){
		func(string) { t.SetHasLast(true) },
		func(text string) { tuiSend(TranscriptMsg{Text: text}) },
	}}

	sh = shell.New(rec, client, observed, notify.New(), cues, ui, shell.Options{
		Hotkey:        combo.Name,
		StartCueDelay: cfg.StartCueDelay,
		PreviewLength: cfg.PreviewLength,
		OnFatal:       func(error) { exit(1) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hk := hotkey.New(combo)
	app := &application{shell: sh, hotkey: hk, tray: t, client: client, cancel: cancel}
	exit = app.shutdown

	trayQuit := t.Start()

	if f.tui {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(sh.Toggle)
		tuiMu.Unlock()
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			exit(0)
		}()
		tuiSend(InfoMsg{Hotkey: combo.Name, Device: deviceLabel(device)})
	}

	shutdown.Handle(func(sig os.Signal) {
		log.Info("signal: " + sig.String())
		exit(0)
	})
	go func() {
		<-trayQuit
		log.Info("tray_quit")
		exit(0)
	}()

	go func() {
		err := config.Watch(ctx, f.configPath, func(c *config.Config) {
			if err := applyFlags(c, fs, f); err != nil {
				log.Warnf("config reload: %v", err)
				return
			}
			log.Info("config_reloaded")
			cues.SetSounds(beep.Sounds(c.Sounds))
			clip.SetAutopaste(c.Autopaste)
			sh.SetPreviewLength(c.PreviewLength)
		}, func(err error) {
			log.Warnf("config reload: %v", err)
		})
		if err != nil {
			log.Warnf("config watch: %v", err)
		}
	}()

	if err := hk.Register(); err != nil {
		fatalf("%v", err)
	}

	go func() {
		start := time.Now()
		if err := sh.Load(ctx); err == nil {
			log.Infof("ready after %s", time.Since(start).Round(time.Millisecond))
		}
	}()

	for range hk.Keydown() {
		sh.Toggle()
	}
}

func runDoctor(cfg *config.Config, actx audio.Context) int {
	doctor.SaveTerminal()
	combo, err := hotkey.Parse(cfg.Hotkey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	device, err := audio.FindDevice(actx, cfg.Device)
	if err != nil {
		fmt.Printf("Warning: %v, using system default\n", err)
	}
	client, err := newClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer client.Close()
	rec := audio.NewRecorder(actx, audio.RecorderOptions{
		Device:      device,
		Config:      audio.CaptureConfig{SampleRate: uint32(cfg.SampleRate), Channels: 1},
		JoinTimeout: cfg.JoinTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := shutdown.Handle(func(os.Signal) {
		fmt.Println("\nInterrupted")
		cancel()
	})
	defer stop()

	return doctor.Run(ctx, os.Stdout, []doctor.Check{
		doctor.HotkeyCheck(hotkey.New(combo), 10*time.Second),
		doctor.MicrophoneCheck(rec, client, 3*time.Second),
		doctor.ClipboardCheck(clipboard.New(false).Copy, clipboard.Read, 3*time.Second),
	})
}

func deviceLabel(d *audio.DeviceInfo) string {
	if d == nil {
		return "system default"
	}
	if audio.IsBluetooth(d.Name) {
		return d.Name + " (bluetooth, lower quality)"
	}
	return d.Name
}

// exit runs the shutdown sequence. It is replaced once the application is
// wired up.
var exit = func(code int) {
	log.Close()
	os.Exit(code)
}

type application struct {
	shell  *shell.Shell
	hotkey hotkey.Hotkey
	tray   *tray.Tray
	client *transcriber.Client
	cancel context.CancelFunc
	once   sync.Once
}

// stop tears everything down without waiting for a model load in progress.
func (a *application) stop() {
	a.shell.Shutdown()
	a.cancel()
	a.hotkey.Unregister()
	log.SessionEnd(a.shell.Count())
	a.client.Close()
	a.tray.Stop()
	tuiMu.Lock()
	if tuiProgram != nil {
		tuiProgram.Quit()
	}
	tuiMu.Unlock()
	log.Close()
}

func (a *application) shutdown(code int) {
	a.once.Do(func() {
		a.stop()
		os.Exit(code)
	})
}
