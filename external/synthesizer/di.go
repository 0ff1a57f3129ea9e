package synthesizer

import (
	"github.com/foxseedlab/firassist/internal/config"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/speech"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*CloudTTSSynthesizer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewCloudTTSSynthesizer(CloudTTSConfig{
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Region:          c.SynthesisRegion,
		}), nil
	})
	do.Provide(injector, func(i do.Injector) (*speech.Adapter, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.SynthesisEnabled {
			return nil, nil
		}
		return speech.NewAdapter(do.MustInvoke[*CloudTTSSynthesizer](i), do.MustInvoke[*metrics.Metrics](i)), nil
	})
}
