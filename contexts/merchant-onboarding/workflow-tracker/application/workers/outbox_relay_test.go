package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"vitrine/contexts/merchant-onboarding/workflow-tracker/adapters/memory"
	application "vitrine/contexts/merchant-onboarding/workflow-tracker/application"
	"vitrine/contexts/merchant-onboarding/workflow-tracker/domain/entities"
	"vitrine/contexts/merchant-onboarding/workflow-tracker/ports"
	contractsv1 "vitrine/contracts/gen/events/v1"
)

type recordingPublisher struct {
	topics []string
	events []ports.EventEnvelope
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func completeWorkflow(t *testing.T, store *memory.Store) entities.WorkflowState {
	t.Helper()
	service := application.Service{Repo: store, Clock: store, IDGenerator: store}
	ctx := context.Background()

	created := service.CreateWorkflowState(ctx, application.CreateWorkflowInput{
		ConversationID: "conv_relay",
		MerchantID:     "merchant_relay",
		WorkflowType:   entities.WorkflowTypeBulkImageToProducts,
		TotalStages:    2,
	})
	if created == nil {
		t.Fatal("expected workflow to be created")
	}
	update := entities.StageUpdate(entities.PersistenceComplete{ProductIDs: []string{"prod_1", "prod_2"}}, nil)
	if !service.AdvanceWorkflowStage(ctx, created.WorkflowID, update) {
		t.Fatal("expected completing advance to succeed")
	}
	return *created
}

func TestOutboxRelayPublishesCompletionOnce(t *testing.T) {
	store := memory.NewStore()
	workflow := completeWorkflow(t, store)
	publisher := &recordingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("first relay cycle failed: %v", err)
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay cycle failed: %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
	if publisher.topics[0] != contractsv1.TopicWorkflowCompleted {
		t.Fatalf("unexpected topic %s", publisher.topics[0])
	}
	envelope := publisher.events[0]
	if envelope.EventType != contractsv1.EventTypeWorkflowCompleted {
		t.Fatalf("unexpected event type %s", envelope.EventType)
	}
	if envelope.PartitionKey != workflow.MerchantID {
		t.Fatalf("expected partition key %s, got %s", workflow.MerchantID, envelope.PartitionKey)
	}
}

func TestOutboxRelayKeepsRowPendingOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	completeWorkflow(t, store)
	failing := &recordingPublisher{err: errors.New("broker down")}

	if err := (OutboxRelay{Outbox: store, Publisher: failing, Clock: store}).RunOnce(context.Background()); err == nil {
		t.Fatal("expected publish failure to surface")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected row to stay pending, got %d", len(pending))
	}

	healthy := &recordingPublisher{}
	if err := (OutboxRelay{Outbox: store, Publisher: healthy, Clock: store}).RunOnce(context.Background()); err != nil {
		t.Fatalf("retry cycle failed: %v", err)
	}
	if len(healthy.events) != 1 {
		t.Fatalf("expected retry to publish the pending row, got %d", len(healthy.events))
	}
}

// stubOutbox serves fixed rows and records which ones were marked sent.
type stubOutbox struct {
	rows []ports.OutboxMessage
	sent map[string]bool
}

func (o *stubOutbox) ListPendingOutbox(context.Context, int) ([]ports.OutboxMessage, error) {
	var out []ports.OutboxMessage
	for _, row := range o.rows {
		if !o.sent[row.OutboxID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (o *stubOutbox) MarkOutboxSent(_ context.Context, outboxID string, _ time.Time) error {
	o.sent[outboxID] = true
	return nil
}

func outboxRow(t *testing.T, outboxID string, eventType string) ports.OutboxMessage {
	t.Helper()
	payload, err := json.Marshal(ports.EventEnvelope{EventID: outboxID, EventType: eventType, PartitionKey: "merchant_1"})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return ports.OutboxMessage{OutboxID: outboxID, EventType: eventType, PartitionKey: "merchant_1", Payload: payload}
}

func TestOutboxRelaySkipsRowsItCannotRoute(t *testing.T) {
	outbox := &stubOutbox{
		rows: []ports.OutboxMessage{
			{OutboxID: "garbled", EventType: contractsv1.EventTypeWorkflowCompleted, Payload: []byte("{not json")},
			outboxRow(t, "unrouted", "workflow.archived"),
			outboxRow(t, "completed", contractsv1.EventTypeWorkflowCompleted),
		},
		sent: map[string]bool{},
	}
	publisher := &recordingPublisher{}

	if err := (OutboxRelay{Outbox: outbox, Publisher: publisher}).RunOnce(context.Background()); err != nil {
		t.Fatalf("relay cycle failed: %v", err)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventID != "completed" {
		t.Fatalf("expected only the routable row to be published, got %+v", publisher.events)
	}
	if publisher.topics[0] != contractsv1.TopicWorkflowCompleted {
		t.Fatalf("unexpected topic %s", publisher.topics[0])
	}
	if outbox.sent["garbled"] || outbox.sent["unrouted"] || !outbox.sent["completed"] {
		t.Fatalf("unexpected sent rows %v", outbox.sent)
	}
}
