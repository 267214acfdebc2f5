package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OverrideEngaged  = "engaged"
	OverrideReleased = "released"
)

// PricingMetrics counts how the pricing core is exercised by quote traffic.
type PricingMetrics struct {
	totals   prometheus.Counter
	override *prometheus.CounterVec
	unpriced prometheus.Counter
}

// NewPricingMetrics registers the pricing counters on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	totals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricing_totals_computed_total",
		Help: "Quote totals recomputations.",
	})
	override := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_manual_override_total",
		Help: "Saved quote lines where the manual price override engaged or released.",
	}, []string{"direction"})
	unpriced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricing_unpriced_lines_total",
		Help: "Quote lines saved at zero price because the product has no tiers.",
	})
	reg.MustRegister(totals, override, unpriced)
	return &PricingMetrics{
		totals:   totals,
		override: override,
		unpriced: unpriced,
	}
}

func (m *PricingMetrics) IncTotalsComputed() {
	if m == nil || m.totals == nil {
		return
	}
	m.totals.Inc()
}

// IncOverride records a manual flag flip; direction is OverrideEngaged or OverrideReleased.
func (m *PricingMetrics) IncOverride(direction string) {
	if m == nil || m.override == nil {
		return
	}
	m.override.WithLabelValues(normalizeLabel(direction)).Inc()
}

func (m *PricingMetrics) IncUnpricedLine() {
	if m == nil || m.unpriced == nil {
		return
	}
	m.unpriced.Inc()
}
