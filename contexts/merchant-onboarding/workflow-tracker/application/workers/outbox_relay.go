package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "vitrine/contexts/merchant-onboarding/workflow-tracker/application"
	"vitrine/contexts/merchant-onboarding/workflow-tracker/ports"
	contractsv1 "vitrine/contracts/gen/events/v1"
)

const relayModule = "merchant-onboarding/workflow-tracker"

var defaultTopics = map[string]string{
	contractsv1.EventTypeWorkflowCompleted: contractsv1.TopicWorkflowCompleted,
}

// OutboxRelay drains the tracker outbox onto the event bus. A row is marked
// sent only after the publisher accepted it, so delivery is at-least-once and
// consumers dedup by event id. Rows that cannot be decoded or routed are left
// pending for inspection and do not stop the rest of the batch.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	// Topic overrides routing by event type when set.
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("workflow outbox poll failed",
			"event", "workflow_outbox_list_failed",
			"module", relayModule,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	sent, skipped := 0, 0
	for _, message := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := r.relay(ctx, logger, message)
		if err != nil {
			return err
		}
		if ok {
			sent++
		} else {
			skipped++
		}
	}

	logger.Info("workflow outbox drained",
		"event", "workflow_outbox_relay_completed",
		"module", relayModule,
		"layer", "worker",
		"sent_count", sent,
		"skipped_count", skipped,
	)
	return nil
}

// relay publishes one row. It reports false for rows it skipped; an error means
// the bus or the outbox failed and the cycle must stop.
func (r OutboxRelay) relay(ctx context.Context, logger *slog.Logger, message ports.OutboxMessage) (bool, error) {
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(message.Payload, &envelope); err != nil {
		logger.Error("workflow outbox row undecodable",
			"event", "workflow_outbox_decode_failed",
			"module", relayModule,
			"layer", "worker",
			"outbox_id", message.OutboxID,
			"event_type", message.EventType,
			"error", err.Error(),
		)
		return false, nil
	}

	topic := r.topicFor(envelope.EventType)
	if topic == "" {
		logger.Warn("workflow outbox row has no route",
			"event", "workflow_outbox_unrouted",
			"module", relayModule,
			"layer", "worker",
			"outbox_id", message.OutboxID,
			"event_type", envelope.EventType,
		)
		return false, nil
	}

	if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
		logger.Error("workflow outbox publish failed",
			"event", "workflow_outbox_publish_failed",
			"module", relayModule,
			"layer", "worker",
			"outbox_id", message.OutboxID,
			"event_id", envelope.EventID,
			"event_type", envelope.EventType,
			"topic", topic,
			"error", err.Error(),
		)
		return false, err
	}
	if err := r.Outbox.MarkOutboxSent(ctx, message.OutboxID, r.now()); err != nil {
		// already on the bus; the next cycle republishes and consumers dedup
		logger.Error("workflow outbox mark sent failed",
			"event", "workflow_outbox_mark_sent_failed",
			"module", relayModule,
			"layer", "worker",
			"outbox_id", message.OutboxID,
			"event_id", envelope.EventID,
			"error", err.Error(),
		)
		return false, err
	}

	logger.Debug("workflow outbox row relayed",
		"event", "workflow_outbox_row_relayed",
		"module", relayModule,
		"layer", "worker",
		"event_id", envelope.EventID,
		"event_type", envelope.EventType,
		"partition_key", envelope.PartitionKey,
		"topic", topic,
		"queued_for", time.Since(message.CreatedAt).Round(time.Millisecond).String(),
	)
	return true, nil
}

func (r OutboxRelay) topicFor(eventType string) string {
	if r.Topic != "" {
		return r.Topic
	}
	return defaultTopics[eventType]
}

func (r OutboxRelay) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
