package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "vitrine/contexts/merchant-onboarding/onboarding-status/application"
	"vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	"vitrine/contexts/merchant-onboarding/onboarding-status/ports"
	contractsv1 "vitrine/contracts/gen/events/v1"
)

const (
	defaultWorkflowCompletedConsumer = "onboarding-status-workflow-completed-cg"
	completingWorkflowType           = "bulk_image_to_products"
)

// WorkflowCompletionConsumer marks a merchant's onboarding completed when their
// bulk product workflow finishes.
type WorkflowCompletionConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Service       application.Service
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c WorkflowCompletionConsumer) Start(ctx context.Context) error {
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultWorkflowCompletedConsumer
	}
	return c.Subscriber.Subscribe(ctx, contractsv1.TopicWorkflowCompleted, group, c.Handle)
}

func (c WorkflowCompletionConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	if event.EventType != contractsv1.EventTypeWorkflowCompleted {
		return nil
	}

	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(c.dedupTTL()))
	if err != nil {
		logger.Error("workflow.completed dedupe failed",
			"event", "onboarding_workflow_completed_dedupe_failed",
			"module", "merchant-onboarding/onboarding-status",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("workflow.completed already processed",
			"event", "onboarding_workflow_completed_replayed",
			"module", "merchant-onboarding/onboarding-status",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload contractsv1.WorkflowCompletedData
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode workflow.completed payload: %w", err)
	}
	if payload.WorkflowType != completingWorkflowType {
		return nil
	}
	if strings.TrimSpace(payload.MerchantID) == "" {
		return fmt.Errorf("workflow.completed payload missing merchant_id")
	}

	if err := c.Service.ApplyForUser(ctx, payload.MerchantID, entities.StatusCompleted); err != nil {
		if errors.Is(err, domainerrors.ErrNoStore) {
			logger.Warn("workflow completed for merchant without store",
				"event", "onboarding_workflow_completed_no_store",
				"module", "merchant-onboarding/onboarding-status",
				"layer", "worker",
				"event_id", event.EventID,
				"merchant_id", payload.MerchantID,
			)
			return nil
		}
		return err
	}

	logger.Info("workflow completion marked onboarding completed",
		"event", "onboarding_workflow_completed_consumed",
		"module", "merchant-onboarding/onboarding-status",
		"layer", "worker",
		"event_id", event.EventID,
		"workflow_id", payload.WorkflowID,
		"merchant_id", payload.MerchantID,
	)
	return nil
}

func (c WorkflowCompletionConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
