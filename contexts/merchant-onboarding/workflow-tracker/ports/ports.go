package ports

import (
	"context"
	"time"

	"vitrine/contexts/merchant-onboarding/workflow-tracker/domain/entities"
	contractsv1 "vitrine/contracts/gen/events/v1"
)

// Clock allows deterministic testing of completed_at/updated_at stamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts workflow/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// WorkflowCompletedEvent is the outbound integration payload persisted to outbox
// when a workflow reaches its final stage.
type WorkflowCompletedEvent struct {
	EventID    string
	Workflow   entities.WorkflowState
	OccurredAt time.Time
}

// StageAdvancer mutates a locked workflow row in place.
type StageAdvancer func(state *entities.WorkflowState) (*WorkflowCompletedEvent, error)

// Repository owns workflow_states persistence.
type Repository interface {
	CreateWorkflow(ctx context.Context, state entities.WorkflowState) error
	GetWorkflow(ctx context.Context, workflowID string) (entities.WorkflowState, error)
	// GetLatestInProgress returns the most recently created in_progress row of a conversation.
	GetLatestInProgress(ctx context.Context, conversationID string) (entities.WorkflowState, error)
	// AdvanceWorkflow locks the row, hands it to advance and writes stage, status,
	// stage_data and completed_at back. A non-nil event returned by advance is
	// persisted to the outbox atomically with the row. Nothing is written when
	// advance fails.
	AdvanceWorkflow(ctx context.Context, workflowID string, advance StageAdvancer) (entities.WorkflowState, error)
	// MergeStageData overlays patch onto stage_data and touches updated_at only.
	MergeStageData(ctx context.Context, workflowID string, patch map[string]any, updatedAt time.Time) error
}

// OutboxMessage is a row ready to relay from the tracker outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// Metrics records tracker outcomes. Implementations must be safe for concurrent use.
type Metrics interface {
	RecordStageAdvance(workflowType string, result string)
	RecordWorkflowCompleted(workflowType string)
}
