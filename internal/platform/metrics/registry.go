// Package metrics owns the process Prometheus registry served at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	registry *prometheus.Registry
}

// NewRegistry registers the runtime collectors plus every service collector.
// Registering the same collector twice panics, so each service's collectors
// must be passed exactly once per process.
func NewRegistry(serviceCollectors ...[]prometheus.Collector) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	for _, group := range serviceCollectors {
		reg.MustRegister(group...)
	}
	return &Registry{registry: reg}
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
