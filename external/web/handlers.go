package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/incident"
	"github.com/foxseedlab/firassist/internal/language"
	"github.com/foxseedlab/firassist/internal/listening"
	"github.com/foxseedlab/firassist/internal/repository"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"github.com/gofiber/fiber/v2"
)

type languageDTO struct {
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	Default    bool   `json:"default"`
}

type incidentResponseDTO struct {
	*incident.Response
	Answered          bool   `json:"answered"`
	AudioDataURI      string `json:"audio,omitempty"`
	ConversationID    string `json:"conversation_id"`
	ConversationTurns int    `json:"conversation_turns"`
}

type listenResultsDTO struct {
	Active  bool                  `json:"active"`
	State   string                `json:"state"`
	Results []incidentResponseDTO `json:"results"`
}

func (s *Server) toDTO(ws *webSession, resp *incident.Response) incidentResponseDTO {
	conv := ws.conversation()
	dto := incidentResponseDTO{
		Response:          resp,
		Answered:          resp.Answered(),
		ConversationID:    conv.ID(),
		ConversationTurns: conv.Len(),
	}
	if resp.Audio != nil {
		dto.AudioDataURI = resp.Audio.DataURI()
	}
	return dto
}

func (s *Server) handleLanguages(c *fiber.Ctx) error {
	all := language.All()
	out := make([]languageDTO, 0, len(all))
	for _, l := range all {
		out = append(out, languageDTO{Name: l.Name, NativeName: l.NativeName, Default: l.Name == s.cfg.DefaultLanguage.Name})
	}
	return c.JSON(out)
}

func (s *Server) handleIncident(c *fiber.Ctx) error {
	ws := currentSession(c)
	mode, ok := incident.ParseMode(c.FormValue("mode"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown mode %q", c.FormValue("mode")))
	}
	if mode == incident.ModeLiveVoice {
		return fiber.NewError(fiber.StatusBadRequest, "live voice runs over /ws/listen")
	}

	req := incident.Request{
		Mode:     mode,
		Language: s.resolveLanguage(c.FormValue("language")),
		Text:     c.FormValue("text"),
		Speak:    parseBool(c.FormValue("speak")),
		Channel:  repository.ChannelWeb,
		OwnerID:  ws.id,
	}
	if mode == incident.ModeAudioUpload {
		upload, err := s.readUpload(c)
		if err != nil {
			return err
		}
		req.Upload = upload
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.RequestTimeout)
	defer cancel()
	resp := s.incidents.Submit(ctx, ws.conversation(), req)
	return c.JSON(s.toDTO(ws, resp))
}

// readUpload returns nil without error when no file was attached; the pipeline reports that
// as a notice.
func (s *Server) readUpload(c *fiber.Ctx) (*audio.FileUpload, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil
	}
	if s.cfg.MaxUploadBytes > 0 && fh.Size > int64(s.cfg.MaxUploadBytes) {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("audio file exceeds %d bytes", s.cfg.MaxUploadBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	return &audio.FileUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}

func (s *Server) handleResetConversation(c *fiber.Ctx) error {
	ws := currentSession(c)
	conv := ws.resetConversation()
	slog.Info("conversation reset", "web_session_id", ws.id, "conversation_id", conv.ID())
	return c.JSON(fiber.Map{"conversation_id": conv.ID()})
}

func (s *Server) handleListenStart(c *fiber.Ctx) error {
	ws := currentSession(c)
	lang := s.resolveLanguage(c.FormValue("language"))
	if lang.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "unsupported language")
	}
	sess, err := s.listener.StartDevice(listenOwner(ws.id), lang.RecognitionTag)
	switch {
	case errors.Is(err, listening.ErrAlreadyListening), errors.Is(err, audio.ErrMicrophoneBusy):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case err != nil:
		slog.Warn("failed to start device listening", "web_session_id", ws.id, "error", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "local microphone is unavailable")
	}
	ws.setListenLanguage(lang)
	return c.JSON(fiber.Map{"listening_session_id": sess.ID(), "language": lang.Name, "state": sess.State().String()})
}

// handleListenStop joins the worker and answers whatever was queued before the stop.
func (s *Server) handleListenStop(c *fiber.Ctx) error {
	ws := currentSession(c)
	owner := listenOwner(ws.id)
	sess, ok := s.listener.Get(owner)
	if !ok {
		return c.JSON(listenResultsDTO{State: listening.StateStopped.String(), Results: []incidentResponseDTO{}})
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.RequestTimeout)
	defer cancel()
	if _, err := s.listener.Stop(ctx, owner); err != nil {
		return fmt.Errorf("stop listening: %w", err)
	}
	return c.JSON(listenResultsDTO{
		Active:  false,
		State:   sess.State().String(),
		Results: s.answer(ctx, ws, sess.Drain()),
	})
}

func (s *Server) handleListenResults(c *fiber.Ctx) error {
	ws := currentSession(c)
	sess, ok := s.listener.Get(listenOwner(ws.id))
	if !ok {
		return c.JSON(listenResultsDTO{State: listening.StateIdle.String(), Results: []incidentResponseDTO{}})
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.RequestTimeout)
	defer cancel()
	results := s.answer(ctx, ws, sess.Drain())
	return c.JSON(listenResultsDTO{
		Active:  sess.Active(),
		State:   sess.State().String(),
		Results: results,
	})
}

func (s *Server) answer(ctx context.Context, ws *webSession, results []transcriber.Result) []incidentResponseDTO {
	base := incident.Request{
		Language: ws.getListenLanguage(),
		Speak:    s.cfg.SynthesisEnabled,
		Channel:  repository.ChannelWeb,
		OwnerID:  ws.id,
	}
	if base.Language.Name == "" {
		base.Language = s.cfg.DefaultLanguage
	}
	out := make([]incidentResponseDTO, 0, len(results))
	for _, r := range results {
		resp := s.incidents.HandleUtterance(ctx, ws.conversation(), base, r)
		out = append(out, s.toDTO(ws, resp))
	}
	return out
}

// resolveLanguage falls back to the default for an empty value and returns the zero Language
// for an unknown one.
func (s *Server) resolveLanguage(v string) language.Language {
	if strings.TrimSpace(v) == "" {
		return s.cfg.DefaultLanguage
	}
	l, _ := language.Lookup(v)
	return l
}

func parseBool(v string) bool {
	if strings.EqualFold(v, "on") || strings.EqualFold(v, "yes") {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
