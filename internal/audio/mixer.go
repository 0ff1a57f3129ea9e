package audio

// Mixer decodes per-speaker Opus packets and mixes them into mono 48 kHz PCM16LE frames, so
// the voice feed reaches the frame microphone already downmixed.
type Mixer interface {
	WriteOpusPacket(userID string, opus []byte)
	ReadMixedPCM(buf []byte) (int, error)
	Close()
}

type MixerFactory func() Mixer

const (
	MixerSampleRate = 48000
	MixerChannels   = 1
)
