package incident

import (
	"github.com/foxseedlab/firassist/internal/assistant"
	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/repository"
	"github.com/foxseedlab/firassist/internal/speech"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"github.com/foxseedlab/firassist/internal/translator"
	"github.com/foxseedlab/firassist/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Service, error) {
		return NewService(Deps{
			Normalizer:  do.MustInvoke[*audio.Normalizer](i),
			Transcriber: do.MustInvoke[transcriber.Transcriber](i),
			Translator:  do.MustInvoke[translator.Translator](i),
			Assistant:   do.MustInvoke[assistant.Assistant](i),
			Speech:      do.MustInvoke[*speech.Adapter](i),
			Repository:  do.MustInvoke[repository.Repository](i),
			Webhook:     do.MustInvoke[webhook.Sender](i),
			Metrics:     do.MustInvoke[*metrics.Metrics](i),
		}), nil
	})
}
