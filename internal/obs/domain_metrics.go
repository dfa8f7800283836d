package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// DiscountRunTotal counts cart run evaluations by outcome.
	DiscountRunTotal *prometheus.CounterVec
	// DiscountOperationsTotal counts emitted discount operations by class.
	DiscountOperationsTotal *prometheus.CounterVec
	// RegistryCacheTotal tracks definition cache lookups by outcome.
	RegistryCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		DiscountRunTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_runs_total",
			Help:      "Count of discount cart run evaluations by outcome.",
		}, []string{"result"})
		DiscountOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discount_operations_total",
			Help:      "Count of discount operations emitted by class.",
		}, []string{"class"})
		RegistryCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_cache_total",
			Help:      "Count of discount definition cache lookups by outcome.",
		}, []string{"outcome"})

		mustRegisterCollector(reg, DiscountRunTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountRunTotal = v
			}
		})
		mustRegisterCollector(reg, DiscountOperationsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DiscountOperationsTotal = v
			}
		})
		mustRegisterCollector(reg, RegistryCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RegistryCacheTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
