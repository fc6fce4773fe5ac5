package sound

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// Loop replays a mono sample buffer forever.
type Loop struct {
	samples []float32
	pos     int
}

// NewLoop returns nil for an empty buffer.
func NewLoop(samples []float32) *Loop {
	if len(samples) == 0 {
		return nil
	}
	return &Loop{samples: samples}
}

// Next returns the next sample, wrapping at the end.
func (l *Loop) Next() float32 {
	v := l.samples[l.pos]
	l.pos++
	if l.pos >= len(l.samples) {
		l.pos = 0
	}
	return v
}

// Len returns the loop length in samples.
func (l *Loop) Len() int { return len(l.samples) }

// LoadLoop decodes the WAV at path at SampleRate.
func LoadLoop(path string) (*Loop, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := DecodeLoop(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	return l, nil
}

// DecodeLoop decodes WAV data and downmixes it to mono.
func DecodeLoop(r io.ReadSeeker) (*Loop, error) {
	stream, err := wav.DecodeWithSampleRate(SampleRate, r)
	if err != nil {
		return nil, fmt.Errorf("decoding wav: %w", err)
	}
	decoded, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("reading decoded wav: %w", err)
	}
	samples := downmix(decoded)
	if len(samples) == 0 {
		return nil, fmt.Errorf("wav has no audio data")
	}
	return NewLoop(samples), nil
}

// downmix averages interleaved stereo 16-bit frames.
func downmix(pcm []byte) []float32 {
	frames := len(pcm) / FrameBytes
	if frames == 0 {
		return nil
	}
	samples := make([]float32, frames)
	for i := range samples {
		o := i * FrameBytes
		left := int16(binary.LittleEndian.Uint16(pcm[o : o+2]))
		right := int16(binary.LittleEndian.Uint16(pcm[o+2 : o+4]))
		samples[i] = (float32(left) + float32(right)) * (0.5 / 32768.0)
	}
	return samples
}
