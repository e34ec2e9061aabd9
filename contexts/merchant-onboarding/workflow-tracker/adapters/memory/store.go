package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vitrine/contexts/merchant-onboarding/workflow-tracker/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/workflow-tracker/domain/errors"
	"vitrine/contexts/merchant-onboarding/workflow-tracker/ports"
	contractsv1 "vitrine/contracts/gen/events/v1"
)

type outboxRecord struct {
	message ports.OutboxMessage
	sentAt  *time.Time
}

type Store struct {
	mu sync.RWMutex

	workflows map[string]entities.WorkflowState
	insertSeq map[string]int
	outbox    []outboxRecord
	sequence  uint64
}

func NewStore() *Store {
	return &Store{
		workflows: make(map[string]entities.WorkflowState),
		insertSeq: make(map[string]int),
	}
}

func (s *Store) CreateWorkflow(ctx context.Context, state entities.WorkflowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(state.WorkflowID) == "" {
		return domainerrors.ErrInvalidRequest
	}
	if _, exists := s.workflows[state.WorkflowID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.workflows[state.WorkflowID] = state.Clone()
	s.insertSeq[state.WorkflowID] = len(s.insertSeq)
	return nil
}

func (s *Store) GetWorkflow(ctx context.Context, workflowID string) (entities.WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.workflows[workflowID]
	if !ok {
		return entities.WorkflowState{}, domainerrors.ErrWorkflowNotFound
	}
	return item.Clone(), nil
}

func (s *Store) GetLatestInProgress(ctx context.Context, conversationID string) (entities.WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []entities.WorkflowState
	for _, item := range s.workflows {
		if item.ConversationID == conversationID && item.Status == entities.WorkflowStatusInProgress {
			matches = append(matches, item)
		}
	}
	if len(matches) == 0 {
		return entities.WorkflowState{}, domainerrors.ErrWorkflowNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return s.insertSeq[matches[i].WorkflowID] > s.insertSeq[matches[j].WorkflowID]
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches[0].Clone(), nil
}

func (s *Store) AdvanceWorkflow(ctx context.Context, workflowID string, advance ports.StageAdvancer) (entities.WorkflowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.workflows[workflowID]
	if !ok {
		return entities.WorkflowState{}, domainerrors.ErrWorkflowNotFound
	}
	state := existing.Clone()
	event, err := advance(&state)
	if err != nil {
		return entities.WorkflowState{}, err
	}

	var payload []byte
	if event != nil {
		envelope, err := ports.BuildWorkflowCompletedEnvelope(*event)
		if err != nil {
			return entities.WorkflowState{}, err
		}
		payload, err = json.Marshal(envelope)
		if err != nil {
			return entities.WorkflowState{}, err
		}
	}

	existing.CurrentStage = state.CurrentStage
	existing.StageData = state.StageData.Clone()
	existing.Status = state.Status
	existing.UpdatedAt = state.UpdatedAt.UTC()
	if state.CompletedAt != nil && existing.CompletedAt == nil {
		completedAt := state.CompletedAt.UTC()
		existing.CompletedAt = &completedAt
	}
	s.workflows[workflowID] = existing

	if event != nil {
		s.outbox = append(s.outbox, outboxRecord{message: ports.OutboxMessage{
			OutboxID:     event.EventID,
			EventType:    contractsv1.EventTypeWorkflowCompleted,
			PartitionKey: existing.MerchantID,
			Payload:      payload,
			CreatedAt:    event.OccurredAt.UTC(),
		}})
	}
	return existing.Clone(), nil
}

func (s *Store) MergeStageData(ctx context.Context, workflowID string, patch map[string]any, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.workflows[workflowID]
	if !ok {
		return domainerrors.ErrWorkflowNotFound
	}
	existing.StageData = existing.StageData.Merge(patch)
	existing.UpdatedAt = updatedAt.UTC()
	s.workflows[workflowID] = existing
	return nil
}

func (s *Store) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, record := range s.outbox {
		if record.sentAt != nil {
			continue
		}
		message := record.message
		message.Payload = append([]byte(nil), record.message.Payload...)
		items = append(items, message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			at := sentAt.UTC()
			s.outbox[i].sentAt = &at
			return nil
		}
	}
	return domainerrors.ErrRepositoryInvariantBroke
}

// OutboxLen exposes the total outbox size for tests.
func (s *Store) OutboxLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.outbox)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(ctx context.Context) (string, error) {
	return s.nextID("wf"), nil
}

func (s *Store) nextID(prefix string) string {
	n := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("%s_%d", prefix, n)
}

var _ ports.Repository = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
