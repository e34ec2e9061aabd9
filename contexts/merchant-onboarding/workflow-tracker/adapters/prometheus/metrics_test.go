package prometheusadapter

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordStageAdvance(t *testing.T) {
	before := testutil.ToFloat64(stageAdvancesTotal.WithLabelValues("onboarding", "advanced"))

	Metrics{}.RecordStageAdvance("onboarding", "advanced")
	Metrics{}.RecordStageAdvance("onboarding", "advanced")

	after := testutil.ToFloat64(stageAdvancesTotal.WithLabelValues("onboarding", "advanced"))
	assert.Equal(t, before+2, after)
}

func TestMetricsRecordWorkflowCompleted(t *testing.T) {
	before := testutil.ToFloat64(workflowsCompletedTotal.WithLabelValues("bulk_image_to_products"))
	Metrics{}.RecordWorkflowCompleted("bulk_image_to_products")
	assert.Equal(t, before+1, testutil.ToFloat64(workflowsCompletedTotal.WithLabelValues("bulk_image_to_products")))
}

func TestCollectorsRegisterCleanly(t *testing.T) {
	reg := prometheus.NewRegistry()
	for _, collector := range Collectors() {
		require.NoError(t, reg.Register(collector))
	}
	Metrics{}.RecordStageAdvance("onboarding", "error")
	count, err := testutil.GatherAndCount(reg, "vitrine_workflow_stage_advances_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)
}
