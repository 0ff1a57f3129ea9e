package listening

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"github.com/hashicorp/go-multierror"
)

// Manager keeps at most one active listening session per owner. An owner is a web session
// or a Discord voice channel.
type Manager struct {
	cfg         Config
	normalizer  Normalizer
	transcriber transcriber.Transcriber
	devices     audio.MicrophoneFactory
	metrics     *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(cfg Config, n Normalizer, stt transcriber.Transcriber, devices audio.MicrophoneFactory, m *metrics.Metrics) *Manager {
	return &Manager{
		cfg:         cfg,
		normalizer:  n,
		transcriber: stt,
		devices:     devices,
		metrics:     m,
		sessions:    make(map[string]*Session),
	}
}

// Start runs a new session on mic for owner. When owner already has an active session the
// request is rejected with ErrAlreadyListening and mic is closed.
func (m *Manager) Start(owner, recognitionTag string, mic audio.Microphone) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeLocked(owner) {
		_ = mic.Close()
		return nil, ErrAlreadyListening
	}
	s := NewSession(m.cfg, recognitionTag, mic, m.normalizer, m.transcriber, m.metrics)
	if err := s.Start(); err != nil {
		return nil, err
	}
	m.sessions[owner] = s
	slog.Info("listening session registered", "owner", owner, "listening_session_id", s.ID())
	return s, nil
}

// StartDevice opens the local microphone and runs a session on it.
func (m *Manager) StartDevice(owner, recognitionTag string) (*Session, error) {
	m.mu.Lock()
	active := m.activeLocked(owner)
	m.mu.Unlock()
	if active {
		return nil, ErrAlreadyListening
	}
	if m.devices == nil {
		return nil, fmt.Errorf("open microphone: no device configured")
	}
	mic, err := m.devices.Open()
	if err != nil {
		return nil, fmt.Errorf("open microphone: %w", err)
	}
	return m.Start(owner, recognitionTag, mic)
}

func (m *Manager) Get(owner string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[owner]
	return s, ok
}

func (m *Manager) IsActive(owner string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked(owner)
}

// Stop cancels the owner's session and joins its worker before forgetting it. It reports
// whether a session existed.
func (m *Manager) Stop(ctx context.Context, owner string) (bool, error) {
	m.mu.Lock()
	s, ok := m.sessions[owner]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}

	if err := s.StopAndWait(ctx); err != nil {
		return true, fmt.Errorf("wait for listening session %s: %w", s.ID(), err)
	}

	m.mu.Lock()
	if m.sessions[owner] == s {
		delete(m.sessions, owner)
	}
	m.mu.Unlock()
	slog.Info("listening session removed", "owner", owner, "listening_session_id", s.ID())
	return true, nil
}

// StopAll stops every session and returns the number stopped.
func (m *Manager) StopAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	owners := make([]string, 0, len(m.sessions))
	for owner := range m.sessions {
		owners = append(owners, owner)
	}
	m.mu.Unlock()

	var (
		result  *multierror.Error
		stopped int
	)
	for _, owner := range owners {
		ok, err := m.Stop(ctx, owner)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if ok {
			stopped++
		}
	}
	return stopped, result.ErrorOrNil()
}

func (m *Manager) activeLocked(owner string) bool {
	s, ok := m.sessions[owner]
	return ok && s.Active()
}
