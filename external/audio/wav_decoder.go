package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/go-audio/wav"
)

type WAVDecoder struct{}

func (WAVDecoder) Decode(data []byte) (*audio.Decoded, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read wav pcm: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, errors.New("wav file has no format chunk")
	}
	depth := int(d.BitDepth)
	if depth == 0 {
		depth = buf.SourceBitDepth
	}
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		s, err := toPCM16(v, depth)
		if err != nil {
			return nil, err
		}
		samples[i] = s
	}
	return &audio.Decoded{
		Samples:    samples,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

func toPCM16(v, bitDepth int) (int16, error) {
	switch bitDepth {
	case 8:
		return int16((v - 128) << 8), nil
	case 16:
		return int16(v), nil
	case 24:
		return int16(v >> 8), nil
	case 32:
		return int16(v >> 16), nil
	default:
		return 0, fmt.Errorf("unsupported wav bit depth %d", bitDepth)
	}
}
