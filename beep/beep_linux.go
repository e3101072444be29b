package beep

import (
	"github.com/jfreymuth/pulse"

	"murmur/log"
)

const freedesktop = "/usr/share/sounds/freedesktop/stereo/"

var defaultSounds = Sounds{
	Start: freedesktop + "message.oga",
	Stop:  freedesktop + "message.oga",
	Done:  freedesktop + "complete.oga",
}

func playTone(c Cue) {
	samples := synthesize(c)
	if len(samples) == 0 {
		return
	}
	client, err := pulse.NewClient(pulse.ClientApplicationName("murmur"))
	if err != nil {
		log.Warnf("cue %s: pulse client: %v", c, err)
		return
	}
	defer client.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := client.NewPlayback(reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackMediaName("murmur "+c.String()),
	)
	if err != nil {
		log.Warnf("cue %s: pulse playback: %v", c, err)
		return
	}
	defer stream.Close()
	stream.Start()
	stream.Drain()
	stream.Stop()
}
