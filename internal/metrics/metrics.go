package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsManager is a singleton that owns the Prometheus registry and the
// switches deciding which metric families are collected
type MetricsManager struct {
	// System metrics
	systemCPUUsage    *prometheus.GaugeVec
	systemMemoryUsage *prometheus.GaugeVec

	// Go runtime metrics
	goGoroutines    prometheus.Gauge
	goHeapAlloc     prometheus.Gauge
	goHeapSys       prometheus.Gauge
	goGCPauseNs     prometheus.Histogram
	goGCCPUFraction prometheus.Gauge

	registry *prometheus.Registry

	businessEnabled bool
	systemEnabled   bool

	initialized bool
	mu          sync.RWMutex
}

// Options selects the metric families to collect
type Options struct {
	Business bool
	System   bool
}

var (
	instance *MetricsManager
	once     sync.Once
)

// GetInstance returns the singleton instance of MetricsManager
func GetInstance() *MetricsManager {
	once.Do(func() {
		instance = &MetricsManager{
			registry: prometheus.NewRegistry(),
		}
	})
	return instance
}

// Configure turns metric families on or off. Families are registered lazily
// on first use, so this must run before any Record call to take effect.
func Configure(opts Options) {
	mm := GetInstance()
	mm.mu.Lock()
	defer mm.mu.Unlock()

	mm.businessEnabled = opts.Business
	mm.systemEnabled = opts.System
}

// Enabled reports whether any metric family is being collected
func Enabled() bool {
	mm := GetInstance()
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.businessEnabled || mm.systemEnabled
}

func businessEnabled() bool {
	mm := GetInstance()
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.businessEnabled
}

func systemEnabled() bool {
	mm := GetInstance()
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.systemEnabled
}

// GetRegistry returns the Prometheus registry, nil when metrics are disabled
func GetRegistry() *prometheus.Registry {
	if !Enabled() {
		return nil
	}
	return GetInstance().registry
}
