//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/gordonklaus/portaudio"
)

const portAudioFramesPerBuffer = 1024

// portAudioMicrophone reads the default input device at the target rate, mono, and feeds the
// frames into a FrameMicrophone so segmentation matches the other live sources.
type portAudioMicrophone struct {
	*audio.FrameMicrophone
	stream    *portaudio.Stream
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func openDeviceMicrophone(cfg DeviceMicrophoneConfig) (audio.Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	in := make([]int16, portAudioFramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(audio.CanonicalChannels, 0, float64(cfg.SampleRate), len(in), in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	m := &portAudioMicrophone{
		FrameMicrophone: audio.NewFrameMicrophone(audio.FrameMicrophoneConfig{
			SampleRate:    cfg.SampleRate,
			Channels:      audio.CanonicalChannels,
			ThresholdDBFS: cfg.ThresholdDBFS,
			SilenceGap:    cfg.SilenceGap,
		}),
		stream: stream,
		stop:   make(chan struct{}),
	}
	m.wg.Add(1)
	go m.readLoop(in)
	slog.Info("local microphone opened", "sample_rate", cfg.SampleRate)
	return m, nil
}

func (m *portAudioMicrophone) readLoop(in []int16) {
	defer m.wg.Done()
	for {
		select {
		case <-m.stop:
			return
		default:
		}
		if err := m.stream.Read(); err != nil {
			slog.Warn("local microphone read failed", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		frame := make([]int16, len(in))
		copy(frame, in)
		m.Push(frame)
	}
}

func (m *portAudioMicrophone) Capture(ctx context.Context, wait, maxDuration time.Duration) (audio.MicrophoneSegment, error) {
	return m.FrameMicrophone.Capture(ctx, wait, maxDuration)
}

func (m *portAudioMicrophone) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
		_ = m.FrameMicrophone.Close()
		if stopErr := m.stream.Stop(); stopErr != nil {
			err = stopErr
		}
		_ = m.stream.Close()
		_ = portaudio.Terminate()
		slog.Info("local microphone closed")
	})
	return err
}
