//go:build !opus

package audio

import (
	"log/slog"
	"sync"

	"github.com/foxseedlab/firassist/internal/audio"
)

// silentMixer stands in when the binary is built without Opus support. Voice listening still
// starts but never hears anything, so the first packet is reported once.
type silentMixer struct {
	warnOnce sync.Once
}

func NewOpusMixer() audio.Mixer {
	return &silentMixer{}
}

func (m *silentMixer) WriteOpusPacket(speakerID string, _ []byte) {
	m.warnOnce.Do(func() {
		slog.Warn("discarding discord voice: built without opus support (rebuild with -tags opus)", "user_id", speakerID)
	})
}

func (m *silentMixer) ReadMixedPCM(_ []byte) (int, error) {
	return 0, nil
}

func (m *silentMixer) Close() {}
