package audio

import (
	"encoding/binary"
	"math"
	"time"
)

const (
	DefaultSampleRate = 16000
	CanonicalChannels = 1
)

// CanonicalBuffer is mono 16-bit PCM at a fixed rate. Every input mode converges here before
// recognition.
type CanonicalBuffer struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

func (b *CanonicalBuffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	frames := len(b.Samples) / b.Channels
	return time.Duration(frames) * time.Second / time.Duration(b.SampleRate)
}

// PCM16LE returns the samples as little-endian bytes (LINEAR16).
func (b *CanonicalBuffer) PCM16LE() []byte {
	return encodePCM16LE(b.Samples)
}

func (b *CanonicalBuffer) LevelDBFS() float64 {
	return LevelDBFS(b.Samples)
}

func encodePCM16LE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// DecodePCM16LE reads little-endian 16-bit samples; a trailing odd byte is ignored.
func DecodePCM16LE(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

// LevelDBFS returns the RMS level relative to full scale. Silence is -Inf.
func LevelDBFS(samples []int16) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}
