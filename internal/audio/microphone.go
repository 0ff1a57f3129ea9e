package audio

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoSpeech         = errors.New("no speech detected before timeout")
	ErrMicrophoneClosed = errors.New("microphone closed")
	ErrMicrophoneBusy   = errors.New("microphone is owned by another listening session")
)

// Microphone yields one bounded utterance per Capture call. Capture returns ErrNoSpeech when
// nothing is heard within wait, and never returns more than maxDuration of audio.
type Microphone interface {
	Capture(ctx context.Context, wait, maxDuration time.Duration) (MicrophoneSegment, error)
	Close() error
}

type MicrophoneFactory interface {
	Open() (Microphone, error)
}
