package audio

import (
	"errors"
	"sync"
	"time"

	"github.com/foxseedlab/firassist/internal/audio"
)

var ErrDeviceMicrophoneDisabled = errors.New("no local microphone backend configured")

type DeviceMicrophoneConfig struct {
	Enabled       bool
	SampleRate    int
	ThresholdDBFS float64
	SilenceGap    time.Duration
}

// DeviceMicrophoneFactory hands out the single local capture device. Opening it a second time
// before the first handle is closed fails with audio.ErrMicrophoneBusy.
type DeviceMicrophoneFactory struct {
	cfg DeviceMicrophoneConfig

	mu    sync.Mutex
	inUse bool
}

func NewDeviceMicrophoneFactory(cfg DeviceMicrophoneConfig) audio.MicrophoneFactory {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.DefaultSampleRate
	}
	return &DeviceMicrophoneFactory{cfg: cfg}
}

func (f *DeviceMicrophoneFactory) Open() (audio.Microphone, error) {
	if !f.cfg.Enabled {
		return nil, ErrDeviceMicrophoneDisabled
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inUse {
		return nil, audio.ErrMicrophoneBusy
	}
	mic, err := openDeviceMicrophone(f.cfg)
	if err != nil {
		return nil, err
	}
	f.inUse = true
	return &ownedMicrophone{Microphone: mic, release: f.release}, nil
}

func (f *DeviceMicrophoneFactory) release() {
	f.mu.Lock()
	f.inUse = false
	f.mu.Unlock()
}

type ownedMicrophone struct {
	audio.Microphone
	once    sync.Once
	release func()
}

func (m *ownedMicrophone) Close() error {
	var err error
	m.once.Do(func() {
		err = m.Microphone.Close()
		m.release()
	})
	return err
}
