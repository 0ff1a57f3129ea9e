package listening

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/failure"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/transcriber"
)

type captureStep struct {
	seg     audio.MicrophoneSegment
	err     error
	started chan struct{}
	release chan struct{}
}

type mockMicrophone struct {
	mu       sync.Mutex
	steps    []captureStep
	captures int
	closes   atomic.Int32
}

func (m *mockMicrophone) Capture(_ context.Context, _, _ time.Duration) (audio.MicrophoneSegment, error) {
	m.mu.Lock()
	m.captures++
	if len(m.steps) == 0 {
		m.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return audio.MicrophoneSegment{}, audio.ErrNoSpeech
	}
	step := m.steps[0]
	m.steps = m.steps[1:]
	m.mu.Unlock()

	if step.started != nil {
		close(step.started)
	}
	if step.release != nil {
		<-step.release
	}
	return step.seg, step.err
}

func (m *mockMicrophone) Close() error {
	m.closes.Add(1)
	return nil
}

func (m *mockMicrophone) captureCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

type mockTranscriber struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
	err     error
}

func (m *mockTranscriber) Transcribe(_ context.Context, buf *audio.CanonicalBuffer, _ string) (string, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()

	if m.entered != nil && n == 1 {
		close(m.entered)
	}
	if m.release != nil {
		<-m.release
	}
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("utterance-%d", buf.Samples[0]), nil
}

func (m *mockTranscriber) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func segment(marker int16) audio.MicrophoneSegment {
	samples := make([]int16, 160)
	for i := range samples {
		samples[i] = marker
	}
	return audio.MicrophoneSegment{
		Samples:    samples,
		SampleRate: audio.DefaultSampleRate,
		Channels:   1,
		CapturedAt: time.Now(),
	}
}

func testConfig() Config {
	return Config{UtteranceTimeout: 50 * time.Millisecond, MaxUtterance: 100 * time.Millisecond, QueueSize: 8}
}

func newTestSession(mic audio.Microphone, stt *mockTranscriber) *Session {
	return NewSession(testConfig(), "hi-IN", mic, audio.NewNormalizer(audio.DefaultSampleRate, nil), stt, metrics.NewNop())
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(message)
}

func TestSession_NewSessionIsIdle(t *testing.T) {
	s := newTestSession(&mockMicrophone{}, &mockTranscriber{})
	if s.State() != StateIdle {
		t.Fatalf("expected idle, got %s", s.State())
	}
	if s.Active() {
		t.Fatal("unstarted session must not be active")
	}
}

func TestSession_PublishesResultsInCaptureOrder(t *testing.T) {
	mic := &mockMicrophone{steps: []captureStep{{seg: segment(1)}, {seg: segment(2)}, {seg: segment(3)}}}
	stt := &mockTranscriber{}
	s := newTestSession(mic, stt)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	var got []string
	waitUntil(t, time.Second, func() bool {
		for _, r := range s.Drain() {
			got = append(got, r.Text)
		}
		return len(got) == 3
	}, "expected three results")

	want := []string{"utterance-1", "utterance-2", "utterance-3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("result %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if err := s.StopAndWait(context.Background()); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	if s.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", s.State())
	}
}

func TestSession_SecondStartIsRejected(t *testing.T) {
	s := newTestSession(&mockMicrophone{}, &mockTranscriber{})
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	defer func() { _ = s.StopAndWait(context.Background()) }()

	if err := s.Start(); !errors.Is(err, ErrSessionStarted) {
		t.Fatalf("expected ErrSessionStarted, got %v", err)
	}
}

func TestSession_NoSpeechLoopsWithoutEmitting(t *testing.T) {
	mic := &mockMicrophone{}
	stt := &mockTranscriber{}
	s := newTestSession(mic, stt)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	waitUntil(t, time.Second, func() bool { return mic.captureCount() >= 3 }, "expected repeated capture attempts")
	if _, ok := s.Poll(); ok {
		t.Fatal("no result expected when nothing was heard")
	}
	if stt.callCount() != 0 {
		t.Fatalf("transcriber must not be called, got %d calls", stt.callCount())
	}
	if err := s.StopAndWait(context.Background()); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
}

func TestSession_StopDuringWaitCompletesIterationWithoutRecognition(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	mic := &mockMicrophone{steps: []captureStep{{seg: segment(7), started: started, release: release}}}
	stt := &mockTranscriber{}
	s := newTestSession(mic, stt)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	<-started
	s.Stop()

	time.Sleep(20 * time.Millisecond)
	if !s.Active() {
		t.Fatal("session must stay active until the wait iteration completes")
	}
	if s.State() != StateListening {
		t.Fatalf("expected listening while waiting, got %s", s.State())
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
	if stt.callCount() != 0 {
		t.Fatalf("no recognition may start after stop, got %d calls", stt.callCount())
	}
	if s.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", s.State())
	}
	if mic.closes.Load() != 1 {
		t.Fatalf("expected microphone to be closed once, got %d", mic.closes.Load())
	}
}

func TestSession_InFlightRecognitionFinishesAfterStop(t *testing.T) {
	mic := &mockMicrophone{steps: []captureStep{{seg: segment(4)}, {seg: segment(5)}}}
	stt := &mockTranscriber{entered: make(chan struct{}), release: make(chan struct{})}
	s := newTestSession(mic, stt)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	<-stt.entered
	if s.State() != StateRecognizing {
		t.Fatalf("expected recognizing, got %s", s.State())
	}
	s.Stop()
	close(stt.release)

	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
	results := s.Drain()
	if len(results) != 1 || results[0].Text != "utterance-4" {
		t.Fatalf("expected the in-flight result only, got %+v", results)
	}
	if stt.callCount() != 1 {
		t.Fatalf("expected exactly one recognition call, got %d", stt.callCount())
	}
}

func TestSession_RecognitionFailureIsQueuedAndSessionContinues(t *testing.T) {
	mic := &mockMicrophone{steps: []captureStep{{seg: segment(1)}}}
	stt := &mockTranscriber{err: fmt.Errorf("recognize: %w", failure.ErrServiceUnavailable)}
	s := newTestSession(mic, stt)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	defer func() { _ = s.StopAndWait(context.Background()) }()

	waitUntil(t, time.Second, func() bool { return stt.callCount() == 1 }, "expected a recognition call")
	var r transcriber.Result
	waitUntil(t, time.Second, func() bool {
		var ok bool
		r, ok = s.Poll()
		return ok
	}, "expected a queued failure")

	if r.Failure() != failure.KindServiceUnavailable {
		t.Fatalf("expected service unavailable, got %s", r.Failure())
	}
	if !s.Active() {
		t.Fatal("a recognition failure must not end the session")
	}
}

func TestSession_MicrophoneFailureEndsSessionWithServiceUnavailable(t *testing.T) {
	mic := &mockMicrophone{steps: []captureStep{{err: errors.New("device unplugged")}}}
	s := newTestSession(mic, &mockTranscriber{})
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
	r, ok := s.Poll()
	if !ok {
		t.Fatal("expected a failure result")
	}
	if r.Failure() != failure.KindServiceUnavailable {
		t.Fatalf("expected service unavailable, got %s", r.Failure())
	}
}

func TestSession_ClosedFeedEndsSessionQuietly(t *testing.T) {
	mic := &mockMicrophone{steps: []captureStep{{err: audio.ErrMicrophoneClosed}}}
	s := newTestSession(mic, &mockTranscriber{})
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	if err := s.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected wait error: %v", err)
	}
	if _, ok := s.Poll(); ok {
		t.Fatal("closing the feed must not queue a result")
	}
}

func TestSession_WaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	mic := &mockMicrophone{steps: []captureStep{{seg: segment(1), release: release}}}
	s := newTestSession(mic, &mockTranscriber{})
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.StopAndWait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSession_DoneOnUnstartedSessionReleasesMicrophone(t *testing.T) {
	mic := &mockMicrophone{}
	s := newTestSession(mic, &mockTranscriber{})

	<-s.Done()
	if mic.closes.Load() != 1 {
		t.Fatalf("expected microphone release, got %d closes", mic.closes.Load())
	}
	if s.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", s.State())
	}
	if err := s.Start(); !errors.Is(err, ErrSessionStarted) {
		t.Fatalf("expected ErrSessionStarted, got %v", err)
	}
}
