package audio

import (
	"fmt"

	"github.com/foxseedlab/firassist/internal/failure"
)

// Normalizer turns any Source into a CanonicalBuffer at TargetRate, mono.
type Normalizer struct {
	TargetRate int
	Decoders   Decoders
}

func NewNormalizer(targetRate int, decoders Decoders) *Normalizer {
	if targetRate <= 0 {
		targetRate = DefaultSampleRate
	}
	return &Normalizer{TargetRate: targetRate, Decoders: decoders}
}

func (n *Normalizer) Normalize(src Source) (*CanonicalBuffer, error) {
	switch s := src.(type) {
	case FileUpload:
		return n.normalizeFile(s)
	case *FileUpload:
		return n.normalizeFile(*s)
	case StreamFrame:
		return n.normalizeFrame(s)
	case *StreamFrame:
		return n.normalizeFrame(*s)
	case MicrophoneSegment:
		return n.normalizeSegment(s)
	case *MicrophoneSegment:
		return n.normalizeSegment(*s)
	default:
		return nil, fmt.Errorf("%w: unknown source %T", failure.ErrUnsupportedFormat, src)
	}
}

func (n *Normalizer) normalizeFile(f FileUpload) (*CanonicalBuffer, error) {
	if len(f.Data) == 0 {
		return nil, fmt.Errorf("%w: empty upload %q", failure.ErrUnsupportedFormat, f.Filename)
	}
	format := DetectFormat(f.Filename, f.ContentType, f.Data)
	dec, ok := n.Decoders[format]
	if format == FormatUnknown || !ok {
		return nil, fmt.Errorf("%w: cannot decode %q (%s)", failure.ErrUnsupportedFormat, f.Filename, f.ContentType)
	}
	decoded, err := dec.Decode(f.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", failure.ErrUnsupportedFormat, format, err)
	}
	return n.fromDecoded(decoded)
}

func (n *Normalizer) normalizeFrame(f StreamFrame) (*CanonicalBuffer, error) {
	return n.fromDecoded(&Decoded{
		Samples:    f.Samples,
		Float:      f.Float,
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
	})
}

func (n *Normalizer) normalizeSegment(s MicrophoneSegment) (*CanonicalBuffer, error) {
	if s.SampleRate == n.TargetRate && s.Channels == CanonicalChannels && len(s.Samples) > 0 {
		return &CanonicalBuffer{Samples: s.Samples, SampleRate: s.SampleRate, Channels: CanonicalChannels}, nil
	}
	return n.fromDecoded(&Decoded{Samples: s.Samples, SampleRate: s.SampleRate, Channels: s.Channels})
}

func (n *Normalizer) fromDecoded(d *Decoded) (*CanonicalBuffer, error) {
	if d == nil || d.SampleRate <= 0 || d.Channels <= 0 {
		return nil, fmt.Errorf("%w: missing sample rate or channel count", failure.ErrUnsupportedFormat)
	}
	var mono []int16
	switch {
	case d.Float != nil:
		mono = DownmixFloat(d.Float, d.Channels)
	default:
		if len(d.Samples)%d.Channels != 0 {
			return nil, fmt.Errorf("%w: %d samples do not divide into %d channels", failure.ErrUnsupportedFormat, len(d.Samples), d.Channels)
		}
		mono = Downmix(d.Samples, d.Channels)
	}
	if len(mono) == 0 {
		return nil, fmt.Errorf("%w: no audio samples", failure.ErrUnsupportedFormat)
	}
	return &CanonicalBuffer{
		Samples:    Resample(mono, d.SampleRate, n.TargetRate),
		SampleRate: n.TargetRate,
		Channels:   CanonicalChannels,
	}, nil
}
