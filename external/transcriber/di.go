package transcriber

import (
	"github.com/foxseedlab/firassist/internal/config"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*CloudSpeechTranscriber, error) {
		c := do.MustInvoke[*config.Config](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return NewCloudSpeechTranscriber(CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
		}, m), nil
	})
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		return do.MustInvoke[*CloudSpeechTranscriber](i), nil
	})
}
