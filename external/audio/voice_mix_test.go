package audio

import (
	"testing"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/stretchr/testify/require"
)

func constantFrame(v int16) []int16 {
	f := make([]int16, voiceFrameSamples)
	for i := range f {
		f[i] = v
	}
	return f
}

func TestDownmixStereoAveragesPairs(t *testing.T) {
	t.Parallel()

	mono := downmixStereo([]int16{100, 300, -200, 200, 32767, 32767, 7})
	require.Equal(t, []int16{200, 0, 32767}, mono)
}

func TestDownmixStereoCapsAtOneFrame(t *testing.T) {
	t.Parallel()

	mono := downmixStereo(make([]int16, voiceFrameSamples*voiceOpusChannels*2))
	require.Len(t, mono, voiceFrameSamples)
}

func TestMixSpeakersSumsOneFramePerSpeakerWithClipping(t *testing.T) {
	t.Parallel()

	queues := map[string]*speakerQueue{
		"alice": {},
		"bob":   {},
		"carol": {},
	}
	queues["alice"].push(constantFrame(20000))
	queues["alice"].push(constantFrame(5))
	queues["bob"].push(constantFrame(20000))

	mixed, ok := mixSpeakers(queues)
	require.True(t, ok)
	require.Len(t, mixed, voiceFrameSamples)
	require.Equal(t, int16(32767), mixed[0])

	mixed, ok = mixSpeakers(queues)
	require.True(t, ok)
	require.Equal(t, int16(5), mixed[voiceFrameSamples-1])

	_, ok = mixSpeakers(queues)
	require.False(t, ok)
}

func TestSpeakerQueueDiscardsOldestWhenFull(t *testing.T) {
	t.Parallel()

	q := &speakerQueue{}
	for i := 0; i < maxQueuedVoiceFrames; i++ {
		require.False(t, q.push([]int16{int16(i)}))
	}
	require.True(t, q.push([]int16{-1}))

	first, ok := q.pop()
	require.True(t, ok)
	require.Equal(t, []int16{1}, first)
	require.Len(t, q.frames, maxQueuedVoiceFrames-1)
}

func TestWritePCM16LEFitsBuffer(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 5)
	n := writePCM16LE(buf, []int16{1, -2, 3})
	require.Equal(t, 4, n)
	require.Equal(t, []int16{1, -2}, audio.DecodePCM16LE(buf[:n]))
}
