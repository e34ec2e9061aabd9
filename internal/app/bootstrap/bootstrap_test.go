package bootstrap

import (
	"context"
	"log/slog"
	"testing"
	"time"

	approvalmemory "vitrine/contexts/merchant-onboarding/draft-approval/adapters/memory"
	approvalapp "vitrine/contexts/merchant-onboarding/draft-approval/application"
	approvalentities "vitrine/contexts/merchant-onboarding/draft-approval/domain/entities"
	statusentities "vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	statuserrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	trackerapp "vitrine/contexts/merchant-onboarding/workflow-tracker/application"
	trackerentities "vitrine/contexts/merchant-onboarding/workflow-tracker/domain/entities"
	"vitrine/internal/platform/config"
	"vitrine/internal/platform/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inMemoryConfig() config.Config {
	return config.Config{
		ServiceName:                  "vitrine-test",
		HTTPPort:                     "0",
		EventBus:                     "memory",
		AuthMode:                     "header",
		StatusCacheTTL:               time.Minute,
		IdempotencyTTL:               time.Hour,
		DedupTTL:                     time.Hour,
		WorkerPollInterval:           10 * time.Millisecond,
		EnableBulkCompletionConsumer: true,
	}
}

func newTestStack(t *testing.T) *stack {
	t.Helper()
	st, err := buildStack(context.Background(), inMemoryConfig(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.close() })
	return st
}

// startBulkWorkflow creates a bulk workflow and advances it to the stage right
// before persistence.
func startBulkWorkflow(t *testing.T, st *stack, merchantID string, conversationID string) string {
	t.Helper()
	ctx := context.Background()
	state := st.tracker.Service.CreateWorkflowState(ctx, trackerapp.CreateWorkflowInput{
		ConversationID: conversationID,
		MerchantID:     merchantID,
		WorkflowType:   trackerentities.WorkflowTypeBulkImageToProducts,
	})
	require.NotNil(t, state)
	for state.CurrentStage < state.TotalStages-1 {
		require.True(t, st.tracker.Service.AdvanceWorkflowStage(ctx, state.WorkflowID, nil))
		state = st.tracker.Service.GetWorkflow(ctx, state.WorkflowID)
		require.NotNil(t, state)
	}
	return state.WorkflowID
}

func TestApprovalFlipsStatusAndCompletesTrackedWorkflow(t *testing.T) {
	st := newTestStack(t)
	st.approval.Store.SeedStore("user_1", approvalmemory.StoreRecord{StoreID: "store_1"})
	workflowID := startBulkWorkflow(t, st, "user_1", "conv_1")

	ctx := session.WithSession(context.Background(), session.Session{UserID: "user_1"})
	draft := approvalentities.NewDraftStoreState()
	_, err := draft.AddProduct(approvalentities.DraftProduct{
		Name:       "Oud Oil",
		Provenance: approvalentities.Provenance{Source: approvalentities.SourceAIGenerated},
	})
	require.NoError(t, err)

	result, err := st.approval.Service.ApproveDraft(ctx, approvalapp.ApproveDraftCommand{
		Draft:   draft,
		Context: approvalentities.ApprovalContext{ConversationID: "conv_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Saved.Products)

	status, err := st.status.Service.GetGatingStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, statusentities.StatusCompleted, status)

	record, ok := st.approval.Store.StoreSnapshot("store_1")
	require.True(t, ok)
	assert.Equal(t, "completed", record.OnboardingCompleted)

	workflow := st.tracker.Service.GetWorkflow(context.Background(), workflowID)
	require.NotNil(t, workflow)
	assert.True(t, workflow.IsComplete())
	products, ok := workflow.StageData.PersistenceComplete()
	require.True(t, ok)
	assert.Equal(t, result.ProductIDs, products.ProductIDs)
	assert.Equal(t, 1, st.tracker.Store.OutboxLen())
}

func TestApprovalRetryLeavesTrackedWorkflowUntouched(t *testing.T) {
	st := newTestStack(t)
	st.approval.Store.SeedStore("user_3", approvalmemory.StoreRecord{StoreID: "store_3"})
	state := st.tracker.Service.CreateWorkflowState(context.Background(), trackerapp.CreateWorkflowInput{
		ConversationID: "conv_3",
		MerchantID:     "user_3",
		WorkflowType:   trackerentities.WorkflowTypeOnboarding,
	})
	require.NotNil(t, state)

	ctx := session.WithSession(context.Background(), session.Session{UserID: "user_3"})
	approve := func() approvalentities.ApprovalResult {
		draft := approvalentities.NewDraftStoreState()
		_, err := draft.AddProduct(approvalentities.DraftProduct{
			Name:       "Oud Oil",
			Provenance: approvalentities.Provenance{Source: approvalentities.SourceAIGenerated},
		})
		require.NoError(t, err)
		result, err := st.approval.Service.ApproveDraft(ctx, approvalapp.ApproveDraftCommand{
			Draft:   draft,
			Context: approvalentities.ApprovalContext{ConversationID: "conv_3"},
		})
		require.NoError(t, err)
		return result
	}

	first := approve()
	require.Equal(t, 1, first.Saved.Products)
	afterFirst := st.tracker.Service.GetWorkflow(context.Background(), state.WorkflowID)
	require.NotNil(t, afterFirst)
	assert.Equal(t, 2, afterFirst.CurrentStage)

	retry := approve()
	assert.Equal(t, 0, retry.Saved.Products)
	assert.NotEmpty(t, retry.Note)

	afterRetry := st.tracker.Service.GetWorkflow(context.Background(), state.WorkflowID)
	require.NotNil(t, afterRetry)
	assert.Equal(t, afterFirst.CurrentStage, afterRetry.CurrentStage)
	products, ok := afterRetry.StageData.PersistenceComplete()
	require.True(t, ok)
	assert.Equal(t, first.ProductIDs, products.ProductIDs)
}

func TestWorkerRelaysCompletionIntoOnboardingStatus(t *testing.T) {
	st := newTestStack(t)
	st.approval.Store.SeedStore("user_2", approvalmemory.StoreRecord{StoreID: "store_2"})

	workflowID := startBulkWorkflow(t, st, "user_2", "conv_2")
	require.True(t, st.tracker.Service.AdvanceWorkflowStage(context.Background(), workflowID, nil))

	ctx, cancel := context.WithCancel(context.Background())
	worker := newWorkerApp(st)
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	assert.Eventually(t, func() bool {
		record, ok := st.approval.Store.StoreSnapshot("store_2")
		return ok && record.OnboardingCompleted == "completed"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		pending, err := st.outbox.ListPendingOutbox(context.Background(), 10)
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestSharedStoreStatusTranslatesMissingStore(t *testing.T) {
	shared := sharedStoreStatus{store: approvalmemory.NewStore()}

	_, err := shared.ResolveStore(context.Background(), "nobody")
	assert.ErrorIs(t, err, statuserrors.ErrNoStore)

	err = shared.SetOnboardingStatus(context.Background(), "store_x", statusentities.StatusSkipped)
	assert.ErrorIs(t, err, statuserrors.ErrNoStore)

	_, err = shared.GetOnboardingStatus(context.Background(), "store_x")
	assert.ErrorIs(t, err, statuserrors.ErrNoStore)
}

func TestWorkflowBridgeWithoutTrackedWorkflow(t *testing.T) {
	st := newTestStack(t)
	bridge := workflowBridge{tracker: st.tracker.Service}
	assert.False(t, bridge.ProductsPersisted(context.Background(), "conv_missing", []string{"p1"}))
}

func TestBuildStackRejectsRedisBusWithoutRedis(t *testing.T) {
	cfg := inMemoryConfig()
	cfg.EventBus = "redis"
	_, err := buildStack(context.Background(), cfg, slog.Default())
	assert.ErrorContains(t, err, "redis_addr")
}

func TestMigrateRequiresPostgres(t *testing.T) {
	err := Migrate(context.Background(), inMemoryConfig(), slog.Default())
	assert.Error(t, err)
}

func TestNormalizeAddr(t *testing.T) {
	assert.Equal(t, ":8080", normalizeAddr(""))
	assert.Equal(t, ":9090", normalizeAddr("9090"))
	assert.Equal(t, ":7000", normalizeAddr(":7000"))
}
