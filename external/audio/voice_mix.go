package audio

import (
	"encoding/binary"

	"github.com/foxseedlab/firassist/internal/audio"
)

// Discord sends stereo Opus; the mixer downmixes each speaker before summing.
const (
	voiceFrameMs         = 20
	voiceOpusChannels    = 2
	voiceFrameSamples    = audio.MixerSampleRate * voiceFrameMs / 1000
	maxQueuedVoiceFrames = 50
)

// speakerQueue holds one speaker's decoded mono frames, oldest first. Past
// maxQueuedVoiceFrames the oldest frame is discarded so a slow reader lags at most a second.
type speakerQueue struct {
	frames [][]int16
}

func (q *speakerQueue) push(frame []int16) (discarded bool) {
	if len(q.frames) >= maxQueuedVoiceFrames {
		q.frames = q.frames[1:]
		discarded = true
	}
	q.frames = append(q.frames, frame)
	return discarded
}

func (q *speakerQueue) pop() ([]int16, bool) {
	if len(q.frames) == 0 {
		return nil, false
	}
	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, true
}

// downmixStereo averages interleaved left/right pairs into a mono frame of at most
// voiceFrameSamples samples.
func downmixStereo(pcm []int16) []int16 {
	n := min(len(pcm)/voiceOpusChannels, voiceFrameSamples)
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16((int32(pcm[2*i]) + int32(pcm[2*i+1])) / 2)
	}
	return out
}

// mixSpeakers pops one frame per speaker and sums them with clipping. It reports false when
// nobody had a frame queued.
func mixSpeakers(queues map[string]*speakerQueue) ([]int16, bool) {
	acc := make([]int32, voiceFrameSamples)
	mixedAny := false
	for _, q := range queues {
		frame, ok := q.pop()
		if !ok {
			continue
		}
		mixedAny = true
		for i := 0; i < len(frame) && i < voiceFrameSamples; i++ {
			acc[i] += int32(frame[i])
		}
	}
	if !mixedAny {
		return nil, false
	}
	out := make([]int16, voiceFrameSamples)
	for i, v := range acc {
		out[i] = clampPCM(v)
	}
	return out, true
}

func clampPCM(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

func writePCM16LE(buf []byte, samples []int16) int {
	n := min(len(buf)/2, len(samples))
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(samples[i]))
	}
	return n * 2
}
