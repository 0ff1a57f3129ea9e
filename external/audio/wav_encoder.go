package audio

import (
	"fmt"
	"io"

	"github.com/foxseedlab/firassist/internal/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV stores a canonical buffer as 16-bit PCM WAV.
func WriteWAV(w io.WriteSeeker, buf *audio.CanonicalBuffer) error {
	if buf == nil || buf.SampleRate <= 0 || buf.Channels <= 0 {
		return fmt.Errorf("cannot write wav: buffer has no format")
	}
	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		data[i] = int(s)
	}
	enc := wav.NewEncoder(w, buf.SampleRate, 16, buf.Channels, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: buf.Channels, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
