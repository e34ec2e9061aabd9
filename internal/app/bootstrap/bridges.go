package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	approvalmemory "vitrine/contexts/merchant-onboarding/draft-approval/adapters/memory"
	approvalerrors "vitrine/contexts/merchant-onboarding/draft-approval/domain/errors"
	approvalports "vitrine/contexts/merchant-onboarding/draft-approval/ports"
	statusapp "vitrine/contexts/merchant-onboarding/onboarding-status/application"
	statusentities "vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	statuserrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	statusports "vitrine/contexts/merchant-onboarding/onboarding-status/ports"
	trackerapp "vitrine/contexts/merchant-onboarding/workflow-tracker/application"
	trackerentities "vitrine/contexts/merchant-onboarding/workflow-tracker/domain/entities"
)

// Bounded contexts never import each other; the adapters below are the only
// place where one context calls into another.

// statusBridge routes the approval commit's status flip through the status
// service so the gating cache is refreshed together with the row.
type statusBridge struct {
	status statusapp.Service
}

var _ approvalports.OnboardingStatusUpdater = statusBridge{}

func (b statusBridge) MarkCompleted(ctx context.Context, storeID string) error {
	return b.status.ApplyForStore(ctx, storeID, statusentities.StatusCompleted)
}

// workflowBridge advances the conversation's in-progress workflow once the
// approved products are persisted.
type workflowBridge struct {
	tracker trackerapp.Service
	logger  *slog.Logger
}

var _ approvalports.WorkflowNotifier = workflowBridge{}

func (b workflowBridge) ProductsPersisted(ctx context.Context, conversationID string, productIDs []string) bool {
	state := b.tracker.GetWorkflowState(ctx, conversationID)
	if state == nil {
		return false
	}
	update := trackerentities.StageUpdate(trackerentities.PersistenceComplete{ProductIDs: productIDs}, nil)
	updated := b.tracker.AdvanceWorkflowStage(ctx, state.WorkflowID, update)
	if b.logger != nil {
		b.logger.Debug("approval advanced tracked workflow",
			"event", "bootstrap_workflow_bridge_advanced",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"conversation_id", conversationID,
			"workflow_id", state.WorkflowID,
			"updated", updated,
		)
	}
	return updated
}

// sharedStoreStatus exposes the approval memory store's rows to the status
// service, so both contexts see one stores table when running without postgres.
type sharedStoreStatus struct {
	store *approvalmemory.Store
}

var (
	_ statusports.StoreResolver = sharedStoreStatus{}
	_ statusports.StatusStore   = sharedStoreStatus{}
)

func (s sharedStoreStatus) ResolveStore(ctx context.Context, userID string) (statusentities.StoreRef, error) {
	org, err := s.store.GetUserOrganization(ctx, userID)
	if err != nil {
		return statusentities.StoreRef{}, translateStoreError(err)
	}
	return statusentities.StoreRef{
		StoreID: org.StoreID,
		Status:  statusentities.StoredStatus(org.OnboardingCompleted),
	}, nil
}

func (s sharedStoreStatus) GetOnboardingStatus(_ context.Context, storeID string) (statusentities.Status, error) {
	record, ok := s.store.StoreSnapshot(storeID)
	if !ok {
		return "", statuserrors.ErrNoStore
	}
	return statusentities.StoredStatus(record.OnboardingCompleted), nil
}

func (s sharedStoreStatus) SetOnboardingStatus(ctx context.Context, storeID string, status statusentities.Status) error {
	return translateStoreError(s.store.SetOnboardingStatus(ctx, storeID, string(status)))
}

func translateStoreError(err error) error {
	if errors.Is(err, approvalerrors.ErrStoreNotFound) {
		return statuserrors.ErrNoStore
	}
	return err
}
