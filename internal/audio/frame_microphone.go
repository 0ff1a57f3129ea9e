package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultSpeechThresholdDBFS = -45.0
	DefaultSilenceGap          = 800 * time.Millisecond
	defaultFrameBuffer         = 512
)

type FrameMicrophoneConfig struct {
	SampleRate    int
	Channels      int
	ThresholdDBFS float64
	SilenceGap    time.Duration
	BufferFrames  int
}

// FrameMicrophone is a Microphone fed by pushed PCM frames, e.g. from a browser websocket or a
// Discord voice mixer. Frames are interleaved and must match the configured format.
type FrameMicrophone struct {
	cfg       FrameMicrophoneConfig
	frames    chan []int16
	closed    chan struct{}
	closeOnce sync.Once
	dropped   atomic.Int64
}

func NewFrameMicrophone(cfg FrameMicrophoneConfig) *FrameMicrophone {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = CanonicalChannels
	}
	if cfg.ThresholdDBFS == 0 {
		cfg.ThresholdDBFS = DefaultSpeechThresholdDBFS
	}
	if cfg.SilenceGap <= 0 {
		cfg.SilenceGap = DefaultSilenceGap
	}
	if cfg.BufferFrames <= 0 {
		cfg.BufferFrames = defaultFrameBuffer
	}
	return &FrameMicrophone{
		cfg:    cfg,
		frames: make(chan []int16, cfg.BufferFrames),
		closed: make(chan struct{}),
	}
}

// Push never blocks. It reports false when the frame was dropped because the buffer is full,
// the microphone is closed, or the frame does not hold whole interleaved sample frames.
func (m *FrameMicrophone) Push(samples []int16) bool {
	if len(samples) == 0 {
		return false
	}
	if len(samples)%m.cfg.Channels != 0 {
		m.dropped.Add(1)
		return false
	}
	select {
	case <-m.closed:
		return false
	default:
	}
	select {
	case m.frames <- samples:
		return true
	default:
		m.dropped.Add(1)
		return false
	}
}

func (m *FrameMicrophone) Dropped() int64 {
	return m.dropped.Load()
}

func (m *FrameMicrophone) SampleRate() int { return m.cfg.SampleRate }
func (m *FrameMicrophone) Channels() int   { return m.cfg.Channels }

func (m *FrameMicrophone) Close() error {
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *FrameMicrophone) Capture(ctx context.Context, wait, maxDuration time.Duration) (MicrophoneSegment, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	maxSamples := int(int64(maxDuration)*int64(m.cfg.SampleRate)/int64(time.Second)) * m.cfg.Channels
	var (
		collected []int16
		started   bool
	)
	finish := func() MicrophoneSegment {
		if maxSamples > 0 && len(collected) > maxSamples {
			collected = collected[:maxSamples]
		}
		return MicrophoneSegment{
			Samples:    collected,
			SampleRate: m.cfg.SampleRate,
			Channels:   m.cfg.Channels,
			CapturedAt: time.Now(),
		}
	}

	// accept reports true once the segment reached maxDuration.
	accept := func(frame []int16) bool {
		loud := LevelDBFS(frame) >= m.cfg.ThresholdDBFS
		if !started && !loud {
			return false
		}
		started = true
		collected = append(collected, frame...)
		if maxSamples > 0 && len(collected) >= maxSamples {
			return true
		}
		if loud {
			timer.Reset(m.cfg.SilenceGap)
		}
		return false
	}

	for {
		select {
		case <-ctx.Done():
			return MicrophoneSegment{}, ctx.Err()
		case <-m.closed:
			if m.drainBuffered(accept) {
				return finish(), nil
			}
			if started {
				return finish(), nil
			}
			return MicrophoneSegment{}, ErrMicrophoneClosed
		case <-timer.C:
			if started {
				return finish(), nil
			}
			return MicrophoneSegment{}, ErrNoSpeech
		case frame := <-m.frames:
			if accept(frame) {
				return finish(), nil
			}
		}
	}
}

// drainBuffered hands frames pushed before the close to accept, so the feed closing ends the
// utterance instead of truncating it. It reports true when accept completed the segment.
func (m *FrameMicrophone) drainBuffered(accept func([]int16) bool) bool {
	for {
		select {
		case frame := <-m.frames:
			if accept(frame) {
				return true
			}
		default:
			return false
		}
	}
}
