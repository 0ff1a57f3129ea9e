package assistant

import (
	"github.com/foxseedlab/firassist/internal/assistant"
	"github.com/foxseedlab/firassist/internal/config"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (assistant.Assistant, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewChatAssistant(ChatConfig{
			APIKey:          c.LLMAPIKey,
			BaseURL:         c.LLMBaseURL,
			Model:           c.LLMModel,
			Temperature:     c.LLMTemperature,
			MaxOutputTokens: c.LLMMaxOutputTokens,
		}, do.MustInvoke[*metrics.Metrics](i)), nil
	})
}
