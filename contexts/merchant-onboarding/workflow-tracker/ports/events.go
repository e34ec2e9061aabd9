package ports

import (
	"encoding/json"

	contractsv1 "vitrine/contracts/gen/events/v1"
)

const sourceService = "workflow-tracker"

// BuildWorkflowCompletedEnvelope renders the outbox payload shared by every
// repository implementation.
func BuildWorkflowCompletedEnvelope(event WorkflowCompletedEvent) (EventEnvelope, error) {
	data := contractsv1.WorkflowCompletedData{
		WorkflowID:     event.Workflow.WorkflowID,
		ConversationID: event.Workflow.ConversationID,
		MerchantID:     event.Workflow.MerchantID,
		WorkflowType:   string(event.Workflow.WorkflowType),
		TotalStages:    event.Workflow.TotalStages,
	}
	if persisted, ok := event.Workflow.StageData.PersistenceComplete(); ok {
		data.ProductIDs = persisted.ProductIDs
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventID:          event.EventID,
		EventType:        contractsv1.EventTypeWorkflowCompleted,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    sourceService,
		SchemaVersion:    1,
		PartitionKeyPath: "merchant_id",
		PartitionKey:     event.Workflow.MerchantID,
		Data:             raw,
	}, nil
}
