package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:                        "development",
		HTTPAddr:                   ":8080",
		DefaultLanguage:            "Hindi",
		TargetSampleRate:           16000,
		MaxUploadBytes:             25 << 20,
		GoogleCloudProjectID:       "project-id",
		GoogleCloudCredentialsJSON: `{"type":"service_account"}`,
		LLMAPIKey:                  "key",
		LLMModel:                   "gemini-1.5-pro-002",
		ListenUtteranceTimeout:     5 * time.Second,
		ListenMaxUtterance:         10 * time.Second,
		ListenQueueSize:            16,
		MicrophoneBackend:          MicrophoneBackendNone,
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when required fields are missing")
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown language":   func(c *Config) { c.DefaultLanguage = "Klingon" },
		"sample rate":        func(c *Config) { c.TargetSampleRate = 4000 },
		"upload limit":       func(c *Config) { c.MaxUploadBytes = 0 },
		"utterance timeout":  func(c *Config) { c.ListenUtteranceTimeout = 0 },
		"max utterance":      func(c *Config) { c.ListenMaxUtterance = -time.Second },
		"queue size":         func(c *Config) { c.ListenQueueSize = 0 },
		"microphone backend": func(c *Config) { c.MicrophoneBackend = "alsa" },
		"discord guild":      func(c *Config) { c.DiscordToken = "token" },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode")
	}
	cfg.Env = "production"
	if cfg.IsDevelopment() {
		t.Fatal("expected non-development mode")
	}
}

func TestDiscordEnabled(t *testing.T) {
	cfg := validConfig()
	if cfg.DiscordEnabled() {
		t.Fatal("discord should be disabled without a token")
	}
	cfg.DiscordToken = "token"
	cfg.DiscordGuildID = "guild"
	if !cfg.DiscordEnabled() {
		t.Fatal("discord should be enabled with a token")
	}
}
