//go:build opus

package audio

import (
	"log/slog"
	"sync"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/hraban/opus"
)

// OpusMixer keeps one decoder and one bounded frame queue per speaker.
type OpusMixer struct {
	mu        sync.Mutex
	decoders  map[string]*opus.Decoder
	queues    map[string]*speakerQueue
	discarded int64
	closed    bool
}

func NewOpusMixer() audio.Mixer {
	return &OpusMixer{
		decoders: make(map[string]*opus.Decoder),
		queues:   make(map[string]*speakerQueue),
	}
}

func (m *OpusMixer) WriteOpusPacket(speakerID string, opusData []byte) {
	if len(opusData) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	dec, ok := m.decoders[speakerID]
	if !ok {
		var err error
		dec, err = opus.NewDecoder(audio.MixerSampleRate, voiceOpusChannels)
		if err != nil {
			slog.Warn("failed to create opus decoder", "user_id", speakerID, "error", err)
			return
		}
		m.decoders[speakerID] = dec
		m.queues[speakerID] = &speakerQueue{}
		slog.Debug("new voice speaker", "user_id", speakerID, "speakers", len(m.decoders))
	}
	pcm := make([]int16, voiceFrameSamples*voiceOpusChannels)
	n, err := dec.Decode(opusData, pcm)
	if err != nil || n == 0 {
		return
	}
	if m.queues[speakerID].push(downmixStereo(pcm[:n*voiceOpusChannels])) {
		m.discarded++
		if m.discarded == 1 || m.discarded%500 == 0 {
			slog.Warn("voice mixer is behind; discarding oldest frames", "user_id", speakerID, "discarded_frames", m.discarded)
		}
	}
}

func (m *OpusMixer) ReadMixedPCM(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, nil
	}
	mixed, ok := mixSpeakers(m.queues)
	if !ok {
		return 0, nil
	}
	return writePCM16LE(buf, mixed), nil
}

func (m *OpusMixer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.decoders = nil
	m.queues = nil
}
