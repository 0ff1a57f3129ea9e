package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/foxseedlab/firassist/internal/metrics"
)

const MIMETypeMP3 = "audio/mpeg"

// Synthesizer renders plain text as compressed audio in the given two-letter language code.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}

type Artifact struct {
	Data     []byte
	MIMEType string
}

// DataURI embeds the artifact for an inline audio player.
func (a *Artifact) DataURI() string {
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

type Adapter struct {
	synth   Synthesizer
	metrics *metrics.Metrics
}

func NewAdapter(synth Synthesizer, m *metrics.Metrics) *Adapter {
	return &Adapter{synth: synth, metrics: m}
}

// Synthesize cleans the Markdown reply and renders it. Every failure wraps
// failure.ErrSynthesisFailed so callers can keep showing the text.
func (a *Adapter) Synthesize(ctx context.Context, text, languageCode string) (*Artifact, error) {
	plain := CleanMarkdown(text)
	if plain == "" {
		a.observe("empty")
		return nil, fmt.Errorf("nothing to speak after cleaning: %w", failure.ErrSynthesisFailed)
	}

	data, err := a.synth.Synthesize(ctx, plain, languageCode)
	if err != nil {
		a.observe("error")
		slog.Warn("speech synthesis failed", "language_code", languageCode, "error", err)
		return nil, fmt.Errorf("synthesize %s speech: %v: %w", languageCode, err, failure.ErrSynthesisFailed)
	}
	if len(data) == 0 {
		a.observe("empty")
		return nil, fmt.Errorf("synthesizer returned no audio: %w", failure.ErrSynthesisFailed)
	}

	a.observe("ok")
	return &Artifact{Data: data, MIMEType: MIMETypeMP3}, nil
}

func (a *Adapter) observe(outcome string) {
	if a.metrics != nil {
		a.metrics.SynthesisOutcomes.WithLabelValues(outcome).Inc()
	}
}
