package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always emits 16-bit little-endian stereo.
const mp3Channels = 2

type MP3Decoder struct{}

func (MP3Decoder) Decode(data []byte) (*audio.Decoded, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open mp3 stream: %w", err)
	}
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("read mp3 frames: %w", err)
	}
	return &audio.Decoded{
		Samples:    audio.DecodePCM16LE(pcm),
		SampleRate: d.SampleRate(),
		Channels:   mp3Channels,
	}, nil
}
