package transcriber

import (
	"context"
	"time"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/failure"
)

// Transcriber converts a canonical buffer into text in the given recognition language.
// Implementations return errors wrapping failure.ErrUnintelligible when nothing usable was
// recognized and failure.ErrServiceUnavailable for any service-side failure.
type Transcriber interface {
	Transcribe(ctx context.Context, buf *audio.CanonicalBuffer, recognitionTag string) (string, error)
}

// Result is one transcription outcome: exactly one of Text and Err is meaningful.
type Result struct {
	Text       string
	Err        error
	CapturedAt time.Time
}

func NewResult(text string, err error) Result {
	if err != nil {
		return Result{Err: err, CapturedAt: time.Now()}
	}
	return Result{Text: text, CapturedAt: time.Now()}
}

func (r Result) OK() bool {
	return r.Err == nil
}

func (r Result) Failure() failure.Kind {
	return failure.KindOf(r.Err)
}
