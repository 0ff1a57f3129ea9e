package translator

import (
	"github.com/foxseedlab/firassist/internal/config"
	"github.com/foxseedlab/firassist/internal/metrics"
	"github.com/foxseedlab/firassist/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (translator.Translator, error) {
		c := do.MustInvoke[*config.Config](i)
		if !c.TranslationEnabled {
			return translator.Passthrough{}, nil
		}
		return NewCloudTranslator(c.GoogleCloudCredentialsJSON, do.MustInvoke[*metrics.Metrics](i)), nil
	})
}
