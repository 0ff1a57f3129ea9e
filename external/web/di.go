package web

import (
	"github.com/foxseedlab/firassist/internal/config"
	"github.com/foxseedlab/firassist/internal/incident"
	"github.com/foxseedlab/firassist/internal/language"
	"github.com/foxseedlab/firassist/internal/listening"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		incidents := do.MustInvoke[*incident.Service](i)
		manager := do.MustInvoke[*listening.Manager](i)
		gatherer := do.MustInvoke[prometheus.Gatherer](i)
		lang, ok := language.Lookup(cfg.DefaultLanguage)
		if !ok {
			lang = language.Default()
		}
		return NewServer(Config{
			Addr:             cfg.HTTPAddr,
			MaxUploadBytes:   cfg.MaxUploadBytes,
			DefaultLanguage:  lang,
			ThresholdDBFS:    cfg.ListenThresholdDBFS,
			SilenceGap:       cfg.ListenSilenceGap,
			RequestTimeout:   cfg.RequestTimeout,
			SecureCookies:    !cfg.IsDevelopment(),
			SynthesisEnabled: cfg.SynthesisEnabled,
		}, incidents, manager, gatherer), nil
	})
}
