package web

import (
	"sync"
	"time"

	"github.com/foxseedlab/firassist/internal/assistant"
	"github.com/foxseedlab/firassist/internal/language"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	sessionCookieName = "fir_session"
	localWebSession   = "web_session"
)

// webSession is the browser-scoped state: one conversation and the language of the last
// listening start.
type webSession struct {
	id string

	mu             sync.Mutex
	conv           *assistant.Conversation
	listenLanguage language.Language
	lastSeen       time.Time
}

func (w *webSession) conversation() *assistant.Conversation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conv
}

func (w *webSession) resetConversation() *assistant.Conversation {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conv = assistant.NewConversation()
	return w.conv
}

func (w *webSession) setListenLanguage(l language.Language) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listenLanguage = l
}

func (w *webSession) getListenLanguage() language.Language {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.listenLanguage
}

type sessionStore struct {
	ttl       time.Duration
	onExpired func(id string)
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*webSession
}

func newSessionStore(ttl time.Duration, onExpired func(id string)) *sessionStore {
	return &sessionStore{
		ttl:       ttl,
		onExpired: onExpired,
		now:       time.Now,
		sessions:  make(map[string]*webSession),
	}
}

// touch returns the live session for id and refreshes its idle deadline.
func (s *sessionStore) touch(id string) (*webSession, bool) {
	if id == "" {
		return nil, false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if now.Sub(ws.lastSeen) > s.ttl {
		return nil, false
	}
	ws.lastSeen = now
	return ws, true
}

// create registers a fresh session and evicts the ones idle past the TTL.
func (s *sessionStore) create() *webSession {
	now := s.now()
	ws := &webSession{
		id:       uuid.NewString(),
		conv:     assistant.NewConversation(),
		lastSeen: now,
	}
	s.mu.Lock()
	var expired []string
	for id, existing := range s.sessions {
		existing.mu.Lock()
		idle := now.Sub(existing.lastSeen)
		existing.mu.Unlock()
		if idle > s.ttl {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	s.sessions[ws.id] = ws
	s.mu.Unlock()

	if s.onExpired != nil {
		for _, id := range expired {
			go s.onExpired(id)
		}
	}
	return ws
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) sessionMiddleware(c *fiber.Ctx) error {
	ws, ok := s.sessions.touch(c.Cookies(sessionCookieName))
	if !ok {
		ws = s.sessions.create()
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookieName,
			Value:    ws.id,
			Path:     "/",
			HTTPOnly: true,
			Secure:   s.cfg.SecureCookies,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	c.Locals(localWebSession, ws)
	return c.Next()
}

func currentSession(c *fiber.Ctx) *webSession {
	ws, _ := c.Locals(localWebSession).(*webSession)
	return ws
}
