package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/firassist/internal/config"
	"github.com/joho/godotenv"
)

type envConfig struct {
	Env                        string        `env:"ENV" envDefault:"production"`
	LogJSON                    bool          `env:"LOG_JSON" envDefault:"true"`
	HTTPAddr                   string        `env:"HTTP_ADDR" envDefault:":8080"`
	DefaultLanguage            string        `env:"DEFAULT_LANGUAGE" envDefault:"English"`
	TargetSampleRate           int           `env:"TARGET_SAMPLE_RATE" envDefault:"16000"`
	MaxUploadBytes             int           `env:"MAX_UPLOAD_BYTES" envDefault:"26214400"`
	GoogleCloudProjectID       string        `env:"GOOGLE_CLOUD_PROJECT_ID,required"`
	GoogleCloudCredentialsJSON string        `env:"GOOGLE_CLOUD_CREDENTIALS_JSON,required"`
	GoogleCloudSpeechLocation  string        `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string        `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"long"`
	TranslationEnabled         bool          `env:"TRANSLATION_ENABLED" envDefault:"true"`
	SynthesisEnabled           bool          `env:"SYNTHESIS_ENABLED" envDefault:"true"`
	SynthesisRegion            string        `env:"SYNTHESIS_REGION" envDefault:"IN"`
	LLMAPIKey                  string        `env:"LLM_API_KEY,required"`
	LLMBaseURL                 string        `env:"LLM_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	LLMModel                   string        `env:"LLM_MODEL" envDefault:"gemini-1.5-pro-002"`
	LLMTemperature             float32       `env:"LLM_TEMPERATURE" envDefault:"1"`
	LLMMaxOutputTokens         int           `env:"LLM_MAX_OUTPUT_TOKENS" envDefault:"8192"`
	RequestTimeout             time.Duration `env:"REQUEST_TIMEOUT" envDefault:"90s"`
	ListenUtteranceTimeout     time.Duration `env:"LISTEN_UTTERANCE_TIMEOUT" envDefault:"5s"`
	ListenMaxUtterance         time.Duration `env:"LISTEN_MAX_UTTERANCE" envDefault:"10s"`
	ListenSilenceGap           time.Duration `env:"LISTEN_SILENCE_GAP" envDefault:"800ms"`
	ListenThresholdDBFS        float64       `env:"LISTEN_THRESHOLD_DBFS" envDefault:"-45"`
	ListenQueueSize            int           `env:"LISTEN_QUEUE_SIZE" envDefault:"16"`
	MicrophoneBackend          string        `env:"MICROPHONE_BACKEND" envDefault:"none"`
	DatabaseURL                string        `env:"DATABASE_URL"`
	DiscordToken               string        `env:"DISCORD_TOKEN"`
	DiscordGuildID             string        `env:"DISCORD_GUILD_ID"`
	IncidentWebhookURL         string        `env:"INCIDENT_WEBHOOK_URL"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*internalconfig.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file; using process environment only", "error", err)
	}

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		LogJSON:                    raw.LogJSON,
		HTTPAddr:                   raw.HTTPAddr,
		DefaultLanguage:            raw.DefaultLanguage,
		TargetSampleRate:           raw.TargetSampleRate,
		MaxUploadBytes:             raw.MaxUploadBytes,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		TranslationEnabled:         raw.TranslationEnabled,
		SynthesisEnabled:           raw.SynthesisEnabled,
		SynthesisRegion:            raw.SynthesisRegion,
		LLMAPIKey:                  raw.LLMAPIKey,
		LLMBaseURL:                 raw.LLMBaseURL,
		LLMModel:                   raw.LLMModel,
		LLMTemperature:             raw.LLMTemperature,
		LLMMaxOutputTokens:         raw.LLMMaxOutputTokens,
		RequestTimeout:             raw.RequestTimeout,
		ListenUtteranceTimeout:     raw.ListenUtteranceTimeout,
		ListenMaxUtterance:         raw.ListenMaxUtterance,
		ListenSilenceGap:           raw.ListenSilenceGap,
		ListenThresholdDBFS:        raw.ListenThresholdDBFS,
		ListenQueueSize:            raw.ListenQueueSize,
		MicrophoneBackend:          raw.MicrophoneBackend,
		DatabaseURL:                raw.DatabaseURL,
		DiscordToken:               raw.DiscordToken,
		DiscordGuildID:             raw.DiscordGuildID,
		IncidentWebhookURL:         raw.IncidentWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
