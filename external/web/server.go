package web

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/foxseedlab/firassist/internal/assistant"
	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/incident"
	"github.com/foxseedlab/firassist/internal/language"
	"github.com/foxseedlab/firassist/internal/listening"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultRequestTimeout = 2 * time.Minute
	defaultSessionTTL     = 12 * time.Hour
	// Multipart framing and the text fields ride on top of the audio file.
	bodyLimitSlack = 64 << 10
)

type Incidents interface {
	Submit(ctx context.Context, conv *assistant.Conversation, req incident.Request) *incident.Response
	HandleUtterance(ctx context.Context, conv *assistant.Conversation, base incident.Request, result transcriber.Result) *incident.Response
}

type Listener interface {
	Start(owner, recognitionTag string, mic audio.Microphone) (*listening.Session, error)
	StartDevice(owner, recognitionTag string) (*listening.Session, error)
	Get(owner string) (*listening.Session, bool)
	Stop(ctx context.Context, owner string) (bool, error)
}

type Config struct {
	Addr             string
	MaxUploadBytes   int
	DefaultLanguage  language.Language
	ThresholdDBFS    float64
	SilenceGap       time.Duration
	RequestTimeout   time.Duration
	SessionTTL       time.Duration
	SecureCookies    bool
	SynthesisEnabled bool
}

type Server struct {
	cfg       Config
	app       *fiber.App
	incidents Incidents
	listener  Listener
	sessions  *sessionStore
}

func NewServer(cfg Config, incidents Incidents, listener Listener, gatherer prometheus.Gatherer) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.DefaultLanguage.Name == "" {
		cfg.DefaultLanguage = language.Default()
	}
	s := &Server{
		cfg:       cfg,
		incidents: incidents,
		listener:  listener,
	}
	s.sessions = newSessionStore(cfg.SessionTTL, s.releaseExpired)

	app := fiber.New(fiber.Config{
		AppName:               "firassist",
		BodyLimit:             cfg.MaxUploadBytes + bodyLimitSlack,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(accessLog)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	app.Use(s.sessionMiddleware)
	app.Get("/", s.handleIndex)
	app.Get("/api/languages", s.handleLanguages)
	app.Post("/api/incidents", s.handleIncident)
	app.Post("/api/conversation/reset", s.handleResetConversation)
	app.Post("/api/listen/start", s.handleListenStart)
	app.Post("/api/listen/stop", s.handleListenStop)
	app.Get("/api/listen/results", s.handleListenResults)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/listen", s.liveListenHandler())

	s.app = app
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks until the server is shut down.
func (s *Server) Listen() error {
	slog.Info("http server listening", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Stop drains in-flight requests and closes the listener.
func (s *Server) Stop(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// releaseExpired stops listening for web sessions that were evicted while still active.
func (s *Server) releaseExpired(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()
	if stopped, err := s.listener.Stop(ctx, listenOwner(sessionID)); err != nil {
		slog.Warn("failed to stop listening for expired web session", "web_session_id", sessionID, "error", err)
	} else if stopped {
		slog.Info("stopped listening for expired web session", "web_session_id", sessionID)
	}
}

func listenOwner(sessionID string) string {
	return "web:" + sessionID
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		slog.Error("http handler failed", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(code).JSON(fiber.Map{"error": "internal error"})
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	status := c.Response().StatusCode()
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}
	slog.Info("http request", "method", c.Method(), "path", c.Path(), "status", status, "duration_ms", time.Since(start).Milliseconds())
	return err
}
