package listening

import (
	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/config"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		normalizer := do.MustInvoke[*audio.Normalizer](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		devices := do.MustInvoke[audio.MicrophoneFactory](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return NewManager(ConfigFrom(cfg), normalizer, stt, devices, m), nil
	})
}

func ConfigFrom(c *config.Config) Config {
	return Config{
		UtteranceTimeout: c.ListenUtteranceTimeout,
		MaxUtterance:     c.ListenMaxUtterance,
		QueueSize:        c.ListenQueueSize,
	}
}
