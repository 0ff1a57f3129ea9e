package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func loudFrame(n int) []int16 {
	f := make([]int16, n)
	for i := range f {
		if i%2 == 0 {
			f[i] = 12000
		} else {
			f[i] = -12000
		}
	}
	return f
}

func TestFrameMicrophoneTimesOutWithoutSpeech(t *testing.T) {
	t.Parallel()

	mic := NewFrameMicrophone(FrameMicrophoneConfig{SampleRate: 16000, Channels: 1})
	mic.Push(make([]int16, 320))

	_, err := mic.Capture(context.Background(), 30*time.Millisecond, time.Second)
	require.ErrorIs(t, err, ErrNoSpeech)
}

func TestFrameMicrophoneEndsOnSilenceGap(t *testing.T) {
	t.Parallel()

	mic := NewFrameMicrophone(FrameMicrophoneConfig{SampleRate: 16000, Channels: 1, SilenceGap: 20 * time.Millisecond})
	require.True(t, mic.Push(loudFrame(320)))
	require.True(t, mic.Push(loudFrame(320)))

	seg, err := mic.Capture(context.Background(), time.Second, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, seg.Samples, 640)
	require.Equal(t, 16000, seg.SampleRate)
	require.False(t, seg.CapturedAt.IsZero())
}

func TestFrameMicrophoneCapsAtMaxDuration(t *testing.T) {
	t.Parallel()

	mic := NewFrameMicrophone(FrameMicrophoneConfig{SampleRate: 1000, Channels: 1})
	for i := 0; i < 5; i++ {
		mic.Push(loudFrame(100))
	}

	seg, err := mic.Capture(context.Background(), time.Second, 250*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, seg.Samples, 250)
	require.Equal(t, 250*time.Millisecond, seg.Duration())
}

func TestFrameMicrophoneCloseAndCancel(t *testing.T) {
	t.Parallel()

	mic := NewFrameMicrophone(FrameMicrophoneConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mic.Capture(ctx, time.Second, time.Second)
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, mic.Close())
	require.NoError(t, mic.Close())
	require.False(t, mic.Push(loudFrame(10)))
	_, err = mic.Capture(context.Background(), time.Second, time.Second)
	require.ErrorIs(t, err, ErrMicrophoneClosed)
}

func TestFrameMicrophoneDropsWhenFull(t *testing.T) {
	t.Parallel()

	mic := NewFrameMicrophone(FrameMicrophoneConfig{BufferFrames: 1})
	require.True(t, mic.Push(loudFrame(10)))
	require.False(t, mic.Push(loudFrame(10)))
	require.EqualValues(t, 1, mic.Dropped())
}

func TestFrameMicrophoneKeepsBufferedSpeechAfterClose(t *testing.T) {
	t.Parallel()

	// Close and buffered frames are ready together; the outcome must not depend on select order.
	for i := 0; i < 200; i++ {
		mic := NewFrameMicrophone(FrameMicrophoneConfig{SampleRate: 16000, Channels: 1})
		require.True(t, mic.Push(loudFrame(320)))
		require.True(t, mic.Push(loudFrame(320)))
		require.NoError(t, mic.Close())

		seg, err := mic.Capture(context.Background(), time.Second, 10*time.Second)
		require.NoError(t, err)
		require.Len(t, seg.Samples, 640)
	}
}

func TestFrameMicrophoneClosedWithOnlySilenceBuffered(t *testing.T) {
	t.Parallel()

	mic := NewFrameMicrophone(FrameMicrophoneConfig{SampleRate: 16000, Channels: 1})
	require.True(t, mic.Push(make([]int16, 320)))
	require.NoError(t, mic.Close())

	_, err := mic.Capture(context.Background(), time.Second, 10*time.Second)
	require.ErrorIs(t, err, ErrMicrophoneClosed)
}

func TestFrameMicrophoneRejectsPartialInterleavedFrames(t *testing.T) {
	t.Parallel()

	mic := NewFrameMicrophone(FrameMicrophoneConfig{SampleRate: 48000, Channels: 2, SilenceGap: 20 * time.Millisecond})
	require.False(t, mic.Push(loudFrame(301)))
	require.EqualValues(t, 1, mic.Dropped())
	require.True(t, mic.Push(loudFrame(300)))

	seg, err := mic.Capture(context.Background(), time.Second, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, seg.Samples, 300)
	require.Zero(t, len(seg.Samples)%seg.Channels)
}
