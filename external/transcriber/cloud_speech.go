package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/firassist/external/gcp"
	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	Model           string
}

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

type CloudSpeechTranscriber struct {
	projectID       string
	credentialsJSON string
	location        string
	model           string
	metrics         *metrics.Metrics

	mu        sync.Mutex
	recognize recognizeFunc
	closeFn   func() error
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig, m *metrics.Metrics) *CloudSpeechTranscriber {
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "global"
	}
	return &CloudSpeechTranscriber{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		location:        location,
		model:           strings.TrimSpace(cfg.Model),
		metrics:         m,
	}
}

var _ transcriber.Transcriber = (*CloudSpeechTranscriber)(nil)

func (t *CloudSpeechTranscriber) Transcribe(ctx context.Context, buf *audio.CanonicalBuffer, recognitionTag string) (string, error) {
	if buf == nil || len(buf.Samples) == 0 {
		return "", fmt.Errorf("transcribe empty buffer: %w", failure.ErrUnintelligible)
	}

	recognize, err := t.client(ctx)
	if err != nil {
		t.observe("client_error", 0)
		return "", fmt.Errorf("create speech client: %v: %w", err, failure.ErrServiceUnavailable)
	}

	start := time.Now()
	resp, err := recognize(ctx, t.buildRequest(buf, recognitionTag))
	elapsed := time.Since(start)
	if err != nil {
		t.observe("service_unavailable", elapsed)
		slog.Warn("cloud speech recognize failed",
			"language", recognitionTag,
			"code", status.Code(err).String(),
			"error", err,
		)
		return "", classifyRecognizeError(err)
	}

	text := joinTranscripts(resp)
	if text == "" {
		t.observe("unintelligible", elapsed)
		return "", fmt.Errorf("no transcript for %s audio of %s: %w", recognitionTag, buf.Duration(), failure.ErrUnintelligible)
	}

	t.observe("ok", elapsed)
	slog.Debug("cloud speech recognized", "language", recognitionTag, "chars", len(text), "elapsed_ms", elapsed.Milliseconds())
	return text, nil
}

func (t *CloudSpeechTranscriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closeFn == nil {
		return nil
	}
	err := t.closeFn()
	t.closeFn = nil
	t.recognize = nil
	return err
}

// Shutdown lets the injector release the client on exit.
func (t *CloudSpeechTranscriber) Shutdown() error {
	return t.Close()
}

func (t *CloudSpeechTranscriber) client(ctx context.Context) (recognizeFunc, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recognize != nil {
		return t.recognize, nil
	}

	opts, err := gcp.ClientOptions(gcp.ClientConfig{
		CredentialsJSON: t.credentialsJSON,
		Service:         "speech",
		Location:        t.location,
	})
	if err != nil {
		return nil, err
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	slog.Info("cloud speech client initialized", "location", t.location, "model", t.model)

	t.recognize = func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	}
	t.closeFn = client.Close
	return t.recognize, nil
}

func (t *CloudSpeechTranscriber) buildRequest(buf *audio.CanonicalBuffer, recognitionTag string) *speechpb.RecognizeRequest {
	return &speechpb.RecognizeRequest{
		Recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.projectID, t.location),
		Config: &speechpb.RecognitionConfig{
			Model:         t.model,
			LanguageCodes: []string{recognitionTag},
			DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
				ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
					Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
					SampleRateHertz:   int32(buf.SampleRate),
					AudioChannelCount: int32(audio.CanonicalChannels),
				},
			},
			Features: &speechpb.RecognitionFeatures{
				EnableAutomaticPunctuation: true,
			},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{
			Content: buf.PCM16LE(),
		},
	}
}

func (t *CloudSpeechTranscriber) observe(outcome string, elapsed time.Duration) {
	if t.metrics == nil {
		return
	}
	t.metrics.TranscriptionOutcomes.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		t.metrics.TranscriptionDuration.Observe(elapsed.Seconds())
	}
}

// joinTranscripts concatenates the top alternative of every result in order.
func joinTranscripts(resp *speechpb.RecognizeResponse) string {
	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if text := strings.TrimSpace(alts[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// classifyRecognizeError maps every RPC failure onto ErrServiceUnavailable; the gRPC code is
// kept in the message for the logs.
func classifyRecognizeError(err error) error {
	code := status.Code(err)
	if code == codes.Unknown {
		return fmt.Errorf("recognize: %v: %w", err, failure.ErrServiceUnavailable)
	}
	return fmt.Errorf("recognize (%s): %v: %w", code, err, failure.ErrServiceUnavailable)
}
