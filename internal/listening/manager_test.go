package listening

import (
	"context"
	"errors"
	"testing"

	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockMicrophoneFactory struct {
	mic   audio.Microphone
	err   error
	opens int
}

func (f *mockMicrophoneFactory) Open() (audio.Microphone, error) {
	f.opens++
	if f.err != nil {
		return nil, f.err
	}
	return f.mic, nil
}

func newTestManager(devices audio.MicrophoneFactory) (*Manager, *metrics.Metrics) {
	m := metrics.NewNop()
	return NewManager(testConfig(), audio.NewNormalizer(audio.DefaultSampleRate, nil), &mockTranscriber{}, devices, m), m
}

func TestManager_SecondStartForSameOwnerIsRejected(t *testing.T) {
	manager, _ := newTestManager(nil)
	first := &mockMicrophone{}
	second := &mockMicrophone{}

	if _, err := manager.Start("owner-1", "hi-IN", first); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if _, err := manager.Start("owner-1", "hi-IN", second); !errors.Is(err, ErrAlreadyListening) {
		t.Fatalf("expected ErrAlreadyListening, got %v", err)
	}
	if second.closes.Load() != 1 {
		t.Fatal("rejected microphone must be released")
	}
	if first.closes.Load() != 0 {
		t.Fatal("active session microphone must stay open")
	}

	stopped, err := manager.Stop(context.Background(), "owner-1")
	if err != nil || !stopped {
		t.Fatalf("expected stop to succeed, stopped=%v err=%v", stopped, err)
	}
	if first.closes.Load() != 1 {
		t.Fatal("stop must join the worker and release the microphone")
	}
	if _, ok := manager.Get("owner-1"); ok {
		t.Fatal("stopped session must be forgotten")
	}

	if _, err := manager.Start("owner-1", "hi-IN", &mockMicrophone{}); err != nil {
		t.Fatalf("expected restart after stop to succeed, got %v", err)
	}
	_, _ = manager.StopAll(context.Background())
}

func TestManager_OwnersAreIndependent(t *testing.T) {
	manager, m := newTestManager(nil)

	if _, err := manager.Start("web-1", "en-IN", &mockMicrophone{}); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if _, err := manager.Start("discord-vc-1", "ta-IN", &mockMicrophone{}); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if got := testutil.ToFloat64(m.ActiveListeningSessions); got != 2 {
		t.Fatalf("expected 2 active sessions, got %v", got)
	}

	count, err := manager.StopAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected stop all error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 stopped sessions, got %d", count)
	}
	if manager.IsActive("web-1") || manager.IsActive("discord-vc-1") {
		t.Fatal("expected all sessions to be stopped")
	}
	if got := testutil.ToFloat64(m.ActiveListeningSessions); got != 0 {
		t.Fatalf("expected no active sessions, got %v", got)
	}
}

func TestManager_StopUnknownOwner(t *testing.T) {
	manager, _ := newTestManager(nil)
	stopped, err := manager.Stop(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stopped {
		t.Fatal("expected nothing to stop")
	}
}

func TestManager_StartDeviceChecksActiveBeforeOpening(t *testing.T) {
	devices := &mockMicrophoneFactory{mic: &mockMicrophone{}}
	manager, _ := newTestManager(devices)

	if _, err := manager.StartDevice("web-1", "en-IN"); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if _, err := manager.StartDevice("web-1", "en-IN"); !errors.Is(err, ErrAlreadyListening) {
		t.Fatalf("expected ErrAlreadyListening, got %v", err)
	}
	if devices.opens != 1 {
		t.Fatalf("device must not be reopened for an active owner, got %d opens", devices.opens)
	}
	_, _ = manager.StopAll(context.Background())
}

func TestManager_StartDevicePropagatesBusy(t *testing.T) {
	manager, _ := newTestManager(&mockMicrophoneFactory{err: audio.ErrMicrophoneBusy})

	if _, err := manager.StartDevice("web-2", "en-IN"); !errors.Is(err, audio.ErrMicrophoneBusy) {
		t.Fatalf("expected ErrMicrophoneBusy, got %v", err)
	}
}

func TestManager_StartDeviceWithoutFactory(t *testing.T) {
	manager, _ := newTestManager(nil)
	if _, err := manager.StartDevice("web-1", "en-IN"); err == nil {
		t.Fatal("expected error without a device factory")
	}
}
