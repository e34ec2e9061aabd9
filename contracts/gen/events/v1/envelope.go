package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical, versioned event envelope shared by producers and
// consumers. This package is contract-only and must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

const (
	// EventTypeWorkflowCompleted is emitted once when a workflow reaches its final stage.
	EventTypeWorkflowCompleted = "workflow.completed"
	// TopicWorkflowCompleted carries EventTypeWorkflowCompleted envelopes.
	TopicWorkflowCompleted = "merchant-onboarding.workflow.completed"
)

// WorkflowCompletedData is the Data payload of a workflow.completed envelope.
type WorkflowCompletedData struct {
	WorkflowID     string   `json:"workflow_id"`
	ConversationID string   `json:"conversation_id"`
	MerchantID     string   `json:"merchant_id"`
	WorkflowType   string   `json:"workflow_type"`
	TotalStages    int      `json:"total_stages"`
	ProductIDs     []string `json:"product_ids,omitempty"`
}
