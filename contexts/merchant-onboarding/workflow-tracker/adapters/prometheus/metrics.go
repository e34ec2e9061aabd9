// Package prometheusadapter exports workflow tracker counters.
package prometheusadapter

import (
	"vitrine/contexts/merchant-onboarding/workflow-tracker/ports"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vitrine"

var (
	stageAdvancesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "stage_advances_total",
			Help:      "Total number of workflow stage advance attempts",
		},
		[]string{"workflow_type", "result"}, // result: advanced, not_found, error
	)

	workflowsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "completed_total",
			Help:      "Total number of workflows that reached their final stage",
		},
		[]string{"workflow_type"},
	)

	allMetrics = []prometheus.Collector{
		stageAdvancesTotal,
		workflowsCompletedTotal,
	}
)

// Collectors returns the tracker collectors for registration.
func Collectors() []prometheus.Collector {
	return append([]prometheus.Collector(nil), allMetrics...)
}

// Metrics implements ports.Metrics on the package collectors.
type Metrics struct{}

func (Metrics) RecordStageAdvance(workflowType string, result string) {
	stageAdvancesTotal.WithLabelValues(workflowType, result).Inc()
}

func (Metrics) RecordWorkflowCompleted(workflowType string) {
	workflowsCompletedTotal.WithLabelValues(workflowType).Inc()
}

var _ ports.Metrics = Metrics{}
