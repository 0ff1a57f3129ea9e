//go:build !opus

package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSilentMixerNeverProducesAudio(t *testing.T) {
	t.Parallel()

	m := NewOpusMixer()
	m.WriteOpusPacket("alice", []byte{0xfc, 0xff, 0xfe})
	m.WriteOpusPacket("alice", []byte{0xfc, 0xff, 0xfe})
	n, err := m.ReadMixedPCM(make([]byte, 64))
	require.NoError(t, err)
	require.Zero(t, n)
	m.Close()
}
