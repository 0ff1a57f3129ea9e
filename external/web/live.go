package web

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/incident"
	"github.com/foxseedlab/firassist/internal/language"
	"github.com/foxseedlab/firassist/internal/listening"
	"github.com/foxseedlab/firassist/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	livePollInterval  = 200 * time.Millisecond
	liveStopCommand   = "stop"
	liveDefaultRate   = 48000
	liveMinSampleRate = 8000
	liveMaxSampleRate = 48000
)

var errLiveClosed = errors.New("live socket closed")

type liveEvent struct {
	Type     string               `json:"type"`
	Language string               `json:"language,omitempty"`
	State    string               `json:"state,omitempty"`
	Error    string               `json:"error,omitempty"`
	Result   *incidentResponseDTO `json:"result,omitempty"`
}

// liveConn serializes writes; the reader and the relay goroutine share one socket.
type liveConn struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (l *liveConn) send(ev liveEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errLiveClosed
	}
	return l.conn.WriteJSON(ev)
}

// close sends a normal close frame and closes the socket once.
func (l *liveConn) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = l.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = l.conn.Close()
}

type liveParams struct {
	lang       language.Language
	sampleRate int
	channels   int
}

func parseLiveParams(langValue, rateValue, channelsValue string, fallback language.Language) (liveParams, error) {
	p := liveParams{lang: fallback, sampleRate: liveDefaultRate, channels: 1}
	if strings.TrimSpace(langValue) != "" {
		l, ok := language.Lookup(langValue)
		if !ok {
			return p, errors.New("unsupported language")
		}
		p.lang = l
	}
	if rateValue != "" {
		rate, err := strconv.Atoi(rateValue)
		if err != nil || rate < liveMinSampleRate || rate > liveMaxSampleRate {
			return p, errors.New("rate must be between 8000 and 48000")
		}
		p.sampleRate = rate
	}
	if channelsValue != "" {
		ch, err := strconv.Atoi(channelsValue)
		if err != nil || ch < 1 || ch > 2 {
			return p, errors.New("channels must be 1 or 2")
		}
		p.channels = ch
	}
	return p, nil
}

// liveListenHandler streams browser microphone audio into a listening session. Binary
// messages carry interleaved PCM16LE at the negotiated rate; the text message "stop" or a
// disconnect ends the session after the queued utterances are answered.
func (s *Server) liveListenHandler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		conn := &liveConn{conn: c}
		defer conn.close()
		ws, _ := c.Locals(localWebSession).(*webSession)
		if ws == nil {
			_ = conn.send(liveEvent{Type: "error", Error: "missing web session"})
			return
		}
		params, err := parseLiveParams(c.Query("language"), c.Query("rate"), c.Query("channels"), s.cfg.DefaultLanguage)
		if err != nil {
			_ = conn.send(liveEvent{Type: "error", Error: err.Error()})
			return
		}

		mic := audio.NewFrameMicrophone(audio.FrameMicrophoneConfig{
			SampleRate:    params.sampleRate,
			Channels:      params.channels,
			ThresholdDBFS: s.cfg.ThresholdDBFS,
			SilenceGap:    s.cfg.SilenceGap,
		})
		owner := listenOwner(ws.id)
		sess, err := s.listener.Start(owner, params.lang.RecognitionTag, mic)
		if err != nil {
			msg := "could not start listening"
			if errors.Is(err, listening.ErrAlreadyListening) {
				msg = err.Error()
			}
			_ = conn.send(liveEvent{Type: "error", Error: msg})
			return
		}
		ws.setListenLanguage(params.lang)
		slog.Info("live listening connected", "web_session_id", ws.id, "listening_session_id", sess.ID(), "language", params.lang.Name, "sample_rate", params.sampleRate, "channels", params.channels)
		_ = conn.send(liveEvent{Type: "started", Language: params.lang.Name, State: sess.State().String()})

		relayDone := make(chan struct{})
		go func() {
			defer close(relayDone)
			s.relayLive(conn, ws, sess, params.lang)
		}()
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			s.readLiveFrames(c, mic)
		}()

		select {
		case <-readDone:
		case <-sess.Done():
			slog.Info("live listening ended by the session", "web_session_id", ws.id, "listening_session_id", sess.ID())
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
		defer cancel()
		if _, err := s.listener.Stop(ctx, owner); err != nil {
			slog.Warn("failed to stop live listening", "web_session_id", ws.id, "error", err)
		}
		<-relayDone
		_ = conn.send(liveEvent{Type: "stopped", State: sess.State().String()})
		// Unblocks a reader still waiting for the next client frame.
		conn.close()
		<-readDone
		slog.Info("live listening closed", "web_session_id", ws.id, "listening_session_id", sess.ID(), "dropped_frames", mic.Dropped())
	})
}

// readLiveFrames returns on "stop" or on a read error, including the socket being closed.
func (s *Server) readLiveFrames(c *websocket.Conn, mic *audio.FrameMicrophone) {
	for {
		mt, msg, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("live listening read ended", "error", err)
			}
			return
		}
		switch mt {
		case websocket.BinaryMessage:
			if len(msg) >= 2 && !mic.Push(audio.DecodePCM16LE(msg)) {
				slog.Debug("live frame dropped", "frame_bytes", len(msg))
			}
		case websocket.TextMessage:
			if strings.EqualFold(strings.TrimSpace(string(msg)), liveStopCommand) {
				return
			}
		}
	}
}

// relayLive polls the session queue and answers each utterance in capture order until the
// session has stopped and its queue is empty.
func (s *Server) relayLive(conn *liveConn, ws *webSession, sess *listening.Session, lang language.Language) {
	base := incident.Request{
		Language: lang,
		Speak:    s.cfg.SynthesisEnabled,
		Channel:  repository.ChannelWeb,
		OwnerID:  ws.id,
	}
	ticker := time.NewTicker(livePollInterval)
	defer ticker.Stop()
	for {
		finished := false
		select {
		case <-ticker.C:
		case <-sess.Done():
			finished = true
		}
		for _, r := range sess.Drain() {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
			resp := s.incidents.HandleUtterance(ctx, ws.conversation(), base, r)
			cancel()
			dto := s.toDTO(ws, resp)
			if err := conn.send(liveEvent{Type: "result", Result: &dto}); err != nil {
				slog.Debug("failed to write live result", "web_session_id", ws.id, "error", err)
			}
		}
		if finished {
			return
		}
	}
}
