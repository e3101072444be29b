package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"murmur/log"
)

var defaultSounds = Sounds{
	Start: "/System/Library/Sounds/Ping.aiff",
	Stop:  "/System/Library/Sounds/Ping.aiff",
	Done:  "/System/Library/Sounds/Glass.aiff",
}

var (
	malgoCtx  *malgo.AllocatedContext
	device    *malgo.Device
	soundOnce sync.Once
	soundErr  error

	// read from the audio callback
	playing atomic.Pointer[[]byte]
	playPos atomic.Uint32
	playMu  sync.Mutex
)

func initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	var err error
	device, err = malgo.InitDevice(malgoCtx.Context, config, malgo.DeviceCallbacks{Data: dataCallback})
	return err
}

func initSound() {
	malgoCtx, soundErr = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if soundErr != nil {
		return
	}
	if soundErr = initDevice(); soundErr != nil {
		malgoCtx.Uninit()
		malgoCtx = nil
	}
}

func dataCallback(out, _ []byte, frameCount uint32) {
	want := frameCount * 2
	written := uint32(0)
	if samples := playing.Load(); samples != nil {
		pos := playPos.Load()
		if remaining := uint32(len(*samples)) - pos; remaining > 0 {
			written = min(want, remaining)
			copy(out[:written], (*samples)[pos:pos+written])
			playPos.Store(pos + written)
		} else {
			playing.Store(nil)
		}
	}
	clear(out[written:])
}

func toBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

func playTone(c Cue) {
	soundOnce.Do(initSound)
	if soundErr != nil {
		log.Warnf("cue %s: audio output unavailable: %v", c, soundErr)
		return
	}
	buf := toBytes(synthesize(c))

	playMu.Lock()
	defer playMu.Unlock()

	device.Stop()
	playPos.Store(0)
	playing.Store(&buf)

	if err := device.Start(); err != nil {
		// the device goes stale across sleep/wake; rebuild it once
		device.Uninit()
		if err := initDevice(); err != nil {
			playing.Store(nil)
			log.Warnf("cue %s: reinit output: %v", c, err)
			return
		}
		if err := device.Start(); err != nil {
			playing.Store(nil)
			log.Warnf("cue %s: start output: %v", c, err)
		}
	}
}
