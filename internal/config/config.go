package config

import (
	"fmt"
	"time"

	"github.com/foxseedlab/firassist/internal/language"
)

const (
	MicrophoneBackendNone      = "none"
	MicrophoneBackendPortAudio = "portaudio"
)

type Config struct {
	Env      string
	LogJSON  bool
	HTTPAddr string

	DefaultLanguage  string
	TargetSampleRate int
	MaxUploadBytes   int

	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	TranslationEnabled         bool
	SynthesisEnabled           bool
	SynthesisRegion            string

	LLMAPIKey          string
	LLMBaseURL         string
	LLMModel           string
	LLMTemperature     float32
	LLMMaxOutputTokens int
	RequestTimeout     time.Duration

	ListenUtteranceTimeout time.Duration
	ListenMaxUtterance     time.Duration
	ListenSilenceGap       time.Duration
	ListenThresholdDBFS    float64
	ListenQueueSize        int
	MicrophoneBackend      string

	DatabaseURL        string
	DiscordToken       string
	DiscordGuildID     string
	IncidentWebhookURL string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if _, ok := language.Lookup(c.DefaultLanguage); !ok {
		return fmt.Errorf("DEFAULT_LANGUAGE %q is not a supported language", c.DefaultLanguage)
	}
	if c.TargetSampleRate < 8000 || c.TargetSampleRate > 48000 {
		return fmt.Errorf("TARGET_SAMPLE_RATE must be between 8000 and 48000, got %d", c.TargetSampleRate)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.ListenUtteranceTimeout <= 0 {
		return fmt.Errorf("LISTEN_UTTERANCE_TIMEOUT must be positive, got %s", c.ListenUtteranceTimeout)
	}
	if c.ListenMaxUtterance <= 0 {
		return fmt.Errorf("LISTEN_MAX_UTTERANCE must be positive, got %s", c.ListenMaxUtterance)
	}
	if c.ListenQueueSize <= 0 {
		return fmt.Errorf("LISTEN_QUEUE_SIZE must be positive, got %d", c.ListenQueueSize)
	}
	switch c.MicrophoneBackend {
	case MicrophoneBackendNone, MicrophoneBackendPortAudio:
	default:
		return fmt.Errorf("MICROPHONE_BACKEND must be %q or %q, got %q", MicrophoneBackendNone, MicrophoneBackendPortAudio, c.MicrophoneBackend)
	}
	if c.DiscordToken != "" && c.DiscordGuildID == "" {
		return fmt.Errorf("DISCORD_GUILD_ID is required when DISCORD_TOKEN is set")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "HTTP_ADDR", value: c.HTTPAddr},
		{name: "DEFAULT_LANGUAGE", value: c.DefaultLanguage},
		{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
		{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
		{name: "LLM_API_KEY", value: c.LLMAPIKey},
		{name: "LLM_MODEL", value: c.LLMModel},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != ""
}
