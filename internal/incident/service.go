package incident

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/firassist/internal/assistant"
	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/foxseedlab/firassist/internal/language"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/repository"
	"github.com/foxseedlab/firassist/internal/speech"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"github.com/foxseedlab/firassist/internal/translator"
	"github.com/foxseedlab/firassist/internal/webhook"
)

const archiveTimeout = 15 * time.Second

type Mode string

const (
	ModeText        Mode = "text"
	ModeAudioUpload Mode = "audio"
	ModeLiveVoice   Mode = "live"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText, "":
		return ModeText, true
	case ModeAudioUpload, "upload":
		return ModeAudioUpload, true
	case ModeLiveVoice, "voice":
		return ModeLiveVoice, true
	default:
		return "", false
	}
}

type Request struct {
	Mode     Mode
	Language language.Language
	// Text is the typed description, or the recognized utterance in live mode.
	Text   string
	Upload *audio.FileUpload
	Speak  bool

	Channel repository.Channel
	OwnerID string
}

// Notice is an inline, non-fatal message for the officer.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Response struct {
	Mode       Mode             `json:"mode"`
	Language   string           `json:"language"`
	Transcript string           `json:"transcript,omitempty"`
	Query      string           `json:"query,omitempty"`
	Reply      string           `json:"reply,omitempty"`
	ReplyHTML  string           `json:"reply_html,omitempty"`
	Audio      *speech.Artifact `json:"-"`
	Notices    []Notice         `json:"notices,omitempty"`
}

func (r *Response) Answered() bool {
	return r.Reply != ""
}

func (r *Response) notice(code, message string) {
	r.Notices = append(r.Notices, Notice{Code: code, Message: message})
}

// Normalizer converts an audio source into the canonical buffer.
type Normalizer interface {
	Normalize(src audio.Source) (*audio.CanonicalBuffer, error)
}

type Deps struct {
	Normalizer  Normalizer
	Transcriber transcriber.Transcriber
	Translator  translator.Translator
	Assistant   assistant.Assistant
	// Speech is nil when spoken replies are disabled.
	Speech     *speech.Adapter
	Repository repository.Repository
	Webhook    webhook.Sender
	Metrics    *metrics.Metrics
}

type Service struct {
	deps    Deps
	pending sync.WaitGroup
}

func NewService(deps Deps) *Service {
	if deps.Translator == nil {
		deps.Translator = translator.Passthrough{}
	}
	return &Service{deps: deps}
}

// Submit runs one incident description through recognition, translation, the assistant and
// synthesis. Failures never abort the caller: they come back as notices on the response. The
// conversation is only extended when the assistant produced a reply.
func (s *Service) Submit(ctx context.Context, conv *assistant.Conversation, req Request) *Response {
	resp := &Response{Mode: req.Mode, Language: req.Language.Name}
	if req.Language.Name == "" {
		resp.notice("unsupported_language", messageUnsupportedLanguage)
		return resp
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.IncidentRequests.WithLabelValues(string(req.Mode)).Inc()
	}

	text, ok := s.obtainText(ctx, req, resp)
	if !ok {
		return resp
	}

	query := text
	if !req.Language.IsEnglish() {
		translated, err := s.deps.Translator.Translate(ctx, text, req.Language.TranslationCode, "en")
		if err != nil {
			slog.Warn("translation failed; continuing with original text", "language", req.Language.Name, "error", err)
			resp.notice("translation_skipped", messageTranslationSkipped)
		} else {
			query = translated
		}
	}
	resp.Query = query

	reply, err := s.deps.Assistant.Reply(ctx, assistant.ReplyRequest{
		History:      conv.Turns(),
		Message:      query,
		LanguageName: req.Language.Name,
	})
	if err != nil {
		slog.Error("assistant reply failed", "conversation_id", conv.ID(), "error", err)
		resp.notice(failure.KindOf(err).String(), failureMessage(stageAssistant, err))
		return resp
	}
	resp.Reply = reply

	if html, err := renderMarkdown(reply); err != nil {
		slog.Warn("failed to render reply markdown", "error", err)
	} else {
		resp.ReplyHTML = html
	}

	if req.Speak && s.deps.Speech != nil {
		art, err := s.deps.Speech.Synthesize(ctx, reply, req.Language.SynthesisCode)
		if err != nil {
			resp.notice(failure.KindSynthesisFailed.String(), failureMessage(stageSynthesis, err))
		} else {
			resp.Audio = art
		}
	}

	conv.Append(query, reply)
	s.archive(ctx, conv, req, resp)
	return resp
}

// HandleUtterance turns one listening result into a response. Failed results become a notice
// without calling the assistant.
func (s *Service) HandleUtterance(ctx context.Context, conv *assistant.Conversation, base Request, result transcriber.Result) *Response {
	if !result.OK() {
		resp := &Response{Mode: ModeLiveVoice, Language: base.Language.Name}
		resp.notice(result.Failure().String(), failureMessage(stageRecognition, result.Err))
		return resp
	}
	base.Mode = ModeLiveVoice
	base.Text = result.Text
	base.Upload = nil
	return s.Submit(ctx, conv, base)
}

// Wait blocks until pending webhook deliveries finish.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) Shutdown() {
	s.Wait()
}

func (s *Service) obtainText(ctx context.Context, req Request, resp *Response) (string, bool) {
	switch req.Mode {
	case ModeAudioUpload:
		if req.Upload == nil || len(req.Upload.Data) == 0 {
			resp.notice("empty_input", messageMissingAudio)
			return "", false
		}
		buf, err := s.deps.Normalizer.Normalize(*req.Upload)
		s.observeNormalize("file", err)
		if err != nil {
			slog.Warn("failed to normalize upload", "filename", req.Upload.Filename, "content_type", req.Upload.ContentType, "error", err)
			resp.notice(failure.KindOf(err).String(), failureMessage(stageRecognition, err))
			return "", false
		}
		text, err := s.deps.Transcriber.Transcribe(ctx, buf, req.Language.RecognitionTag)
		if err != nil {
			resp.notice(failure.KindOf(err).String(), failureMessage(stageRecognition, err))
			return "", false
		}
		resp.Transcript = text
		return text, true
	case ModeLiveVoice:
		text := strings.TrimSpace(req.Text)
		if text == "" {
			resp.notice(failure.KindUnintelligible.String(), messageUnintelligible)
			return "", false
		}
		resp.Transcript = text
		return text, true
	default:
		text := strings.TrimSpace(req.Text)
		if text == "" {
			resp.notice("empty_input", messageEmptyInput)
			return "", false
		}
		return text, true
	}
}

func (s *Service) observeNormalize(source string, err error) {
	if s.deps.Metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = failure.KindOf(err).String()
	}
	s.deps.Metrics.AudioNormalized.WithLabelValues(source, outcome).Inc()
}

// archive stores the exchange in order, then notifies the webhook off the request path. Both
// are best effort.
func (s *Service) archive(ctx context.Context, conv *assistant.Conversation, req Request, resp *Response) {
	payload := webhook.IncidentWebhookPayload{
		SchemaVersion:  webhook.IncidentPayloadSchemaVersion,
		ConversationID: conv.ID(),
		Channel:        string(req.Channel),
		InputMode:      string(req.Mode),
		Language:       req.Language.Name,
		Transcript:     resp.Transcript,
		Query:          resp.Query,
		Reply:          resp.Reply,
		AnsweredAt:     time.Now(),
	}
	for _, n := range resp.Notices {
		payload.Notices = append(payload.Notices, n.Code)
	}

	if s.deps.Repository != nil {
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
		if err := s.store(storeCtx, conv, req, payload); err != nil {
			slog.Error("failed to archive conversation turns", "conversation_id", conv.ID(), "error", err)
		}
		cancel()
	}

	if s.deps.Webhook == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := s.deps.Webhook.SendIncident(ctx, payload); err != nil {
			slog.Error("failed to send incident webhook", "conversation_id", conv.ID(), "error", err)
		}
	}()
}

func (s *Service) store(ctx context.Context, conv *assistant.Conversation, req Request, p webhook.IncidentWebhookPayload) error {
	channel := req.Channel
	if channel == "" {
		channel = repository.ChannelWeb
	}
	if _, err := s.deps.Repository.CreateConversation(ctx, repository.CreateConversationInput{
		ID:           conv.ID(),
		Channel:      channel,
		OwnerID:      req.OwnerID,
		LanguageName: req.Language.Name,
		StartedAt:    time.Now(),
	}); err != nil {
		return err
	}
	return s.deps.Repository.AppendTurns(ctx, repository.AppendTurnsInput{
		ConversationID: conv.ID(),
		Turns: []repository.TurnInput{
			{Role: string(assistant.RoleUser), Content: p.Query, InputMode: p.InputMode, At: p.AnsweredAt},
			{Role: string(assistant.RoleAssistant), Content: p.Reply, At: p.AnsweredAt},
		},
	})
}
