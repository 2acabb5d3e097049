package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	registryPersists = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flockage",
			Subsystem: "registry",
			Name:      "persist_total",
			Help:      "Registry file writes by result (ok or failed).",
		}, []string{"result"},
	)
	registryFlocks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "flockage",
			Subsystem: "registry",
			Name:      "flocks",
			Help:      "Number of flocks currently registered.",
		},
	)
	calculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flockage",
			Name:      "calculations_total",
			Help:      "Age and date calculations by kind and outcome.",
		}, []string{"kind", "outcome"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	for _, c := range []prometheus.Collector{registryPersists, registryFlocks, calculations} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePersist records the outcome of a registry write.
func ObservePersist(ok bool) {
	if !regOK.Load() {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	registryPersists.WithLabelValues(result).Inc()
}

// SetFlocks records the current registry size.
func SetFlocks(n int) {
	if !regOK.Load() {
		return
	}
	registryFlocks.Set(float64(n))
}

// ObserveCalculation records one age ("age") or date ("date") calculation.
func ObserveCalculation(kind string, err error) {
	if !regOK.Load() {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	calculations.WithLabelValues(kind, outcome).Inc()
}
