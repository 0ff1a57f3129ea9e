package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg, nil
	})
	do.Provide(injector, func(i do.Injector) (prometheus.Gatherer, error) {
		return do.MustInvoke[*prometheus.Registry](i), nil
	})
	do.Provide(injector, func(i do.Injector) (*Metrics, error) {
		return New(do.MustInvoke[*prometheus.Registry](i)), nil
	})
}
