package kernel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kernel_cache_hits_total",
		Help: "Total number of compiled-kernel cache hits",
	}, []string{"entry_point"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kernel_cache_misses_total",
		Help: "Total number of compiled-kernel cache misses (compilations)",
	}, []string{"entry_point"})

	compileFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kernel_compile_failures_total",
		Help: "Total number of failed kernel compilations",
	}, []string{"entry_point"})

	compileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kernel_compile_duration_seconds",
		Help:    "Duration of kernel compilations",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1.0},
	}, []string{"entry_point"})

	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kernel_dispatch_total",
		Help: "Total number of kernel dispatches submitted to a queue",
	}, []string{"entry_point", "status"})
)
