package audio

import (
	"bytes"
	"fmt"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/jfreymuth/oggvorbis"
)

type OggVorbisDecoder struct{}

func (OggVorbisDecoder) Decode(data []byte) (*audio.Decoded, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read ogg vorbis: %w", err)
	}
	return &audio.Decoded{
		Float:      samples,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}, nil
}
