package beep

var defaultSounds = Sounds{}

// No tone playback on Windows.
func playTone(Cue) {}
