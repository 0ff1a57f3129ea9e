package synthesizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/foxseedlab/firassist/external/gcp"
	"github.com/foxseedlab/firassist/internal/speech"
)

type CloudTTSConfig struct {
	CredentialsJSON string
	// Region is appended to the two-letter code to pick a voice, e.g. "hi" + "IN".
	Region string
}

type synthesizeFunc func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)

type CloudTTSSynthesizer struct {
	credentialsJSON string
	region          string

	mu         sync.Mutex
	synthesize synthesizeFunc
	closeFn    func() error
}

func NewCloudTTSSynthesizer(cfg CloudTTSConfig) *CloudTTSSynthesizer {
	return &CloudTTSSynthesizer{
		credentialsJSON: cfg.CredentialsJSON,
		region:          strings.ToUpper(strings.TrimSpace(cfg.Region)),
	}
}

var _ speech.Synthesizer = (*CloudTTSSynthesizer)(nil)

func (s *CloudTTSSynthesizer) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	call, err := s.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("create text-to-speech client: %w", err)
	}
	resp, err := call(ctx, s.buildRequest(text, languageCode))
	if err != nil {
		return nil, err
	}
	return resp.GetAudioContent(), nil
}

func (s *CloudTTSSynthesizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeFn == nil {
		return nil
	}
	err := s.closeFn()
	s.closeFn = nil
	s.synthesize = nil
	return err
}

func (s *CloudTTSSynthesizer) Shutdown() error {
	return s.Close()
}

func (s *CloudTTSSynthesizer) client(ctx context.Context) (synthesizeFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.synthesize != nil {
		return s.synthesize, nil
	}

	opts, err := gcp.ClientOptions(gcp.ClientConfig{CredentialsJSON: s.credentialsJSON})
	if err != nil {
		return nil, err
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	slog.Info("text-to-speech client initialized", "region", s.region)

	s.synthesize = func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
		return client.SynthesizeSpeech(ctx, req)
	}
	s.closeFn = client.Close
	return s.synthesize, nil
}

func (s *CloudTTSSynthesizer) buildRequest(text, languageCode string) *texttospeechpb.SynthesizeSpeechRequest {
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: voiceLanguage(languageCode, s.region),
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}
}

// voiceLanguage turns a two-letter code into a BCP-47 voice locale. Codes that already carry
// a region are passed through.
func voiceLanguage(code, region string) string {
	code = strings.TrimSpace(code)
	if region == "" || strings.Contains(code, "-") {
		return code
	}
	return strings.ToLower(code) + "-" + region
}
