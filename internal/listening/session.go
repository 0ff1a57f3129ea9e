package listening

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"github.com/google/uuid"
)

var (
	ErrAlreadyListening = errors.New("a listening session is already active")
	ErrSessionStarted   = errors.New("listening session already started")
)

type State int32

const (
	StateIdle State = iota
	StateListening
	StateRecognizing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateRecognizing:
		return "recognizing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Normalizer converts a captured segment into the canonical buffer.
type Normalizer interface {
	Normalize(src audio.Source) (*audio.CanonicalBuffer, error)
}

type Config struct {
	UtteranceTimeout time.Duration
	MaxUtterance     time.Duration
	QueueSize        int
}

type Session struct {
	id             string
	recognitionTag string
	cfg            Config
	mic            audio.Microphone
	normalizer     Normalizer
	transcriber    transcriber.Transcriber
	metrics        *metrics.Metrics

	state   atomic.Int32
	results chan transcriber.Result
	dropped atomic.Int64

	startOnce sync.Once
	started   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSession builds an idle session that owns mic until the worker exits.
func NewSession(cfg Config, recognitionTag string, mic audio.Microphone, n Normalizer, stt transcriber.Transcriber, m *metrics.Metrics) *Session {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:             uuid.NewString(),
		recognitionTag: recognitionTag,
		cfg:            cfg,
		mic:            mic,
		normalizer:     n,
		transcriber:    stt,
		metrics:        m,
		results:        make(chan transcriber.Result, cfg.QueueSize),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) RecognitionTag() string { return s.recognitionTag }

func (s *Session) State() State { return State(s.state.Load()) }

// Dropped reports results discarded because the session was stopped while the queue was full.
func (s *Session) Dropped() int64 { return s.dropped.Load() }

// Start spawns the single worker. A session can only be started once.
func (s *Session) Start() error {
	err := ErrSessionStarted
	s.startOnce.Do(func() {
		err = nil
		s.started.Store(true)
		s.setState(StateListening)
		if s.metrics != nil {
			s.metrics.ActiveListeningSessions.Inc()
		}
		slog.Info("listening session started", "listening_session_id", s.id, "language", s.recognitionTag)
		go s.run()
	})
	return err
}

// Stop sets the cancellation token. The worker observes it at the top of its next iteration,
// so at most one in-flight recognition still completes.
func (s *Session) Stop() {
	s.cancel()
}

// Done is closed once the worker has exited and released the microphone. Calling it on a
// session that was never started releases the microphone and marks the session stopped.
func (s *Session) Done() <-chan struct{} {
	if !s.started.Load() {
		s.startOnce.Do(func() {
			s.setState(StateStopped)
			close(s.results)
			_ = s.mic.Close()
			close(s.done)
		})
	}
	return s.done
}

func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) StopAndWait(ctx context.Context) error {
	s.Stop()
	return s.Wait(ctx)
}

// Active reports whether the worker is still running.
func (s *Session) Active() bool {
	if !s.started.Load() {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Poll returns the next queued result without blocking.
func (s *Session) Poll() (transcriber.Result, bool) {
	select {
	case r, ok := <-s.results:
		return r, ok
	default:
		return transcriber.Result{}, false
	}
}

// Drain returns every queued result in capture order without blocking.
func (s *Session) Drain() []transcriber.Result {
	var out []transcriber.Result
	for {
		r, ok := s.Poll()
		if !ok {
			return out
		}
		out = append(out, r)
	}
}

// Results is the queue itself, for consumers that would rather block. It is closed once the
// worker exits.
func (s *Session) Results() <-chan transcriber.Result {
	return s.results
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

func (s *Session) cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *Session) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("listening worker panicked", "listening_session_id", s.id, "panic", fmt.Sprint(r))
		}
		if err := s.mic.Close(); err != nil {
			slog.Warn("failed to close microphone", "listening_session_id", s.id, "error", err)
		}
		s.setState(StateStopped)
		close(s.results)
		if s.metrics != nil {
			s.metrics.ActiveListeningSessions.Dec()
		}
		slog.Info("listening session stopped", "listening_session_id", s.id, "dropped_results", s.dropped.Load())
		close(s.done)
	}()

	// Capture and recognition are detached from the cancellation token: a wait iteration and
	// an in-flight recognition always run to completion.
	work := context.WithoutCancel(s.ctx)

	for {
		if s.cancelled() {
			return
		}
		s.setState(StateListening)

		seg, err := s.mic.Capture(work, s.cfg.UtteranceTimeout, s.cfg.MaxUtterance)
		if errors.Is(err, audio.ErrNoSpeech) {
			continue
		}
		if s.cancelled() {
			slog.Debug("discarding utterance captured after stop", "listening_session_id", s.id)
			return
		}
		if errors.Is(err, audio.ErrMicrophoneClosed) {
			slog.Info("microphone feed closed", "listening_session_id", s.id)
			return
		}
		if err != nil {
			slog.Error("microphone capture failed", "listening_session_id", s.id, "error", err)
			s.publish(transcriber.NewResult("", fmt.Errorf("capture audio: %v: %w", err, failure.ErrServiceUnavailable)))
			return
		}

		s.setState(StateRecognizing)
		s.publish(s.recognize(work, seg))
	}
}

func (s *Session) recognize(ctx context.Context, seg audio.MicrophoneSegment) transcriber.Result {
	buf, err := s.normalizer.Normalize(seg)
	if err != nil {
		return s.stamp(transcriber.NewResult("", err), seg)
	}
	text, err := s.transcriber.Transcribe(ctx, buf, s.recognitionTag)
	return s.stamp(transcriber.NewResult(text, err), seg)
}

func (s *Session) stamp(r transcriber.Result, seg audio.MicrophoneSegment) transcriber.Result {
	if !seg.CapturedAt.IsZero() {
		r.CapturedAt = seg.CapturedAt
	}
	return r
}

func (s *Session) publish(r transcriber.Result) {
	if s.metrics != nil {
		outcome := "ok"
		if !r.OK() {
			outcome = r.Failure().String()
		}
		s.metrics.ListeningUtterances.WithLabelValues(outcome).Inc()
	}
	select {
	case s.results <- r:
		return
	default:
	}
	// Queue is full: wait for the consumer unless the session is being torn down.
	select {
	case s.results <- r:
	case <-s.ctx.Done():
		s.dropped.Add(1)
		slog.Warn("dropping result on stopped session with full queue", "listening_session_id", s.id)
	}
}
