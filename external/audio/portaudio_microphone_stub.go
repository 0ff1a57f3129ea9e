//go:build !portaudio

package audio

import (
	"errors"

	"github.com/foxseedlab/firassist/internal/audio"
)

func openDeviceMicrophone(_ DeviceMicrophoneConfig) (audio.Microphone, error) {
	return nil, errors.New("binary built without the portaudio tag")
}
