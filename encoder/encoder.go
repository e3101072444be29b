package encoder

import "fmt"

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder turns mono 16-bit PCM into an upload format.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// Format names an upload encoding accepted by Encode.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
)

// Encode runs the whole sample slice through the encoder for format in
// BlockSize chunks.
func Encode(format Format, samples []int16, sampleRate int) ([]byte, error) {
	var enc Encoder
	switch format {
	case FormatFLAC:
		f, err := NewFlac(sampleRate)
		if err != nil {
			return nil, err
		}
		enc = f
	default:
		return nil, fmt.Errorf("unsupported encoding %q", format)
	}

	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
