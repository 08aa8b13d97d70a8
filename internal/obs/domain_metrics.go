package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// TaxPassTotal counts plugin dispatch outcomes per tax type.
	TaxPassTotal *prometheus.CounterVec
	// TaxPassDuration records how long a plugin's apply pass took in milliseconds.
	TaxPassDuration *prometheus.HistogramVec
	// TaxResolverAmbiguousTotal counts ambiguous zone resolutions per tax type.
	TaxResolverAmbiguousTotal *prometheus.CounterVec
	// TaxAmountComputed records the size of computed tax adjustments.
	TaxAmountComputed *prometheus.HistogramVec
	// BatchOrdersTotal counts orders processed by batch recompute tasks.
	BatchOrdersTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		TaxPassTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_pass_total",
			Help:      "Count of tax plugin dispatch outcomes.",
		}, []string{"tax_type", "result"})
		TaxPassDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tax_pass_duration_ms",
			Help:      "Duration of tax plugin apply passes in milliseconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}, []string{"tax_type"})
		TaxResolverAmbiguousTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_resolver_ambiguous_total",
			Help:      "Count of ambiguous jurisdiction resolutions, per tax type.",
		}, []string{"tax_type"})
		TaxAmountComputed = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tax_amount_computed",
			Help:      "Distribution of computed tax adjustment amounts in major units.",
			Buckets:   []float64{0.5, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}, []string{"tax_type"})
		BatchOrdersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_orders_total",
			Help:      "Count of orders processed by batch recompute tasks, by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, TaxPassTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TaxPassTotal = v
			}
		})
		mustRegisterCollector(reg, TaxPassDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				TaxPassDuration = v
			}
		})
		mustRegisterCollector(reg, TaxResolverAmbiguousTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TaxResolverAmbiguousTotal = v
			}
		})
		mustRegisterCollector(reg, TaxAmountComputed, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				TaxAmountComputed = v
			}
		})
		mustRegisterCollector(reg, BatchOrdersTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BatchOrdersTotal = v
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
		panic(fmt.Errorf("register metric: %w", err))
	}
}
