package beep

import "math"

const sampleRate = 44100

type tone struct {
	freq     float64
	duration float64
	volume   float64
	decay    float64
	// repeat plays the tone twice separated by gap seconds
	repeat bool
	gap    float64
	// glide is the frequency of a second tone appended directly after
	glide float64
}

var tones = map[Cue]tone{
	CueStart: {freq: 1200, duration: 0.2, volume: 0.5, decay: 60},
	CueStop:  {freq: 900, duration: 0.2, volume: 0.5, decay: 40},
	CueDone:  {freq: 880, duration: 0.12, volume: 0.4, decay: 30, glide: 1320},
	CueError: {freq: 350, duration: 0.08, volume: 0.6, decay: 30, repeat: true, gap: 0.05},
}

func generateTick(rate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(rate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(rate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

// synthesize renders a cue as mono 16-bit samples at sampleRate.
func synthesize(c Cue) []int16 {
	ts, ok := tones[c]
	if !ok {
		return nil
	}
	tick := generateTick(sampleRate, ts.freq, ts.duration, ts.volume, ts.decay)
	out := append([]int16(nil), tick...)
	if ts.glide > 0 {
		out = append(out, generateTick(sampleRate, ts.glide, ts.duration, ts.volume, ts.decay)...)
	}
	if ts.repeat {
		out = append(out, make([]int16, int(float64(sampleRate)*ts.gap))...)
		out = append(out, tick...)
	}
	return out
}
