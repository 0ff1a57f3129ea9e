package audio

import "time"

// Source is one of FileUpload, StreamFrame or MicrophoneSegment.
type Source interface {
	sourceKind() string
}

// FileUpload is an encoded container (wav, mp3, ogg) uploaded by the user.
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StreamFrame carries raw interleaved samples from a realtime stream. Exactly one of Samples
// or Float is set.
type StreamFrame struct {
	Samples    []int16
	Float      []float32
	SampleRate int
	Channels   int
}

// MicrophoneSegment is a bounded utterance captured from a microphone.
type MicrophoneSegment struct {
	Samples    []int16
	SampleRate int
	Channels   int
	CapturedAt time.Time
}

func (FileUpload) sourceKind() string        { return "file" }
func (StreamFrame) sourceKind() string       { return "stream" }
func (MicrophoneSegment) sourceKind() string { return "microphone" }

func (s MicrophoneSegment) Duration() time.Duration {
	if s.SampleRate <= 0 || s.Channels <= 0 {
		return 0
	}
	return time.Duration(len(s.Samples)/s.Channels) * time.Second / time.Duration(s.SampleRate)
}
