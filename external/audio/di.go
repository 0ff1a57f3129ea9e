package audio

import (
	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/config"
	"github.com/samber/do/v2"
)

func Decoders() audio.Decoders {
	return audio.Decoders{
		audio.FormatWAV: WAVDecoder{},
		audio.FormatMP3: MP3Decoder{},
		audio.FormatOgg: OggVorbisDecoder{},
	}
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*audio.Normalizer, error) {
		c := do.MustInvoke[*config.Config](i)
		return audio.NewNormalizer(c.TargetSampleRate, Decoders()), nil
	})
	do.ProvideValue(injector, audio.MixerFactory(func() audio.Mixer {
		return NewOpusMixer()
	}))
	do.Provide(injector, func(i do.Injector) (audio.MicrophoneFactory, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewDeviceMicrophoneFactory(DeviceMicrophoneConfig{
			Enabled:       c.MicrophoneBackend == config.MicrophoneBackendPortAudio,
			SampleRate:    c.TargetSampleRate,
			ThresholdDBFS: c.ListenThresholdDBFS,
			SilenceGap:    c.ListenSilenceGap,
		}), nil
	})
}
