// Package prometheusadapter exports draft approval metrics.
package prometheusadapter

import (
	"time"

	"vitrine/contexts/merchant-onboarding/draft-approval/ports"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vitrine"

var (
	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "draft_approval",
			Name:      "approvals_total",
			Help:      "Total number of draft approval calls by outcome",
		},
		[]string{"outcome"},
	)

	approvalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "draft_approval",
			Name:      "duration_seconds",
			Help:      "Draft approval latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"outcome"},
	)

	productsInsertedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "draft_approval",
			Name:      "products_inserted_total",
			Help:      "Total number of products created from approved drafts",
		},
	)

	allMetrics = []prometheus.Collector{
		approvalsTotal,
		approvalDuration,
		productsInsertedTotal,
	}
)

func Collectors() []prometheus.Collector {
	return append([]prometheus.Collector(nil), allMetrics...)
}

type Metrics struct{}

func (Metrics) RecordApproval(outcome string, duration time.Duration) {
	approvalsTotal.WithLabelValues(outcome).Inc()
	approvalDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (Metrics) RecordProductsInserted(count int) {
	if count <= 0 {
		return
	}
	productsInsertedTotal.Add(float64(count))
}

var _ ports.Metrics = Metrics{}
