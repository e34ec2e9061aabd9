package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vitrine/contexts/merchant-onboarding/workflow-tracker/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/workflow-tracker/domain/errors"
	"vitrine/contexts/merchant-onboarding/workflow-tracker/ports"
)

const moduleName = "merchant-onboarding/workflow-tracker"

// Service is the workflow stage tracker. Tracking is bookkeeping, not a commit
// path: every operation logs storage failures and reports them as nil/false so
// the onboarding conversation can carry on.
type Service struct {
	Repo        ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

type CreateWorkflowInput struct {
	ConversationID string
	MerchantID     string
	WorkflowType   entities.WorkflowType
	// TotalStages <= 0 falls back to the workflow type definition.
	TotalStages int
	InitialData map[string]any
}

func (s Service) CreateWorkflowState(ctx context.Context, input CreateWorkflowInput) *entities.WorkflowState {
	logger := ResolveLogger(s.Logger)
	conversationID := strings.TrimSpace(input.ConversationID)
	merchantID := strings.TrimSpace(input.MerchantID)
	if conversationID == "" || merchantID == "" {
		logger.Warn("workflow create rejected",
			"event", "workflow_create_invalid_request",
			"module", moduleName,
			"layer", "application",
			"conversation_id", conversationID,
		)
		return nil
	}

	definition, ok := entities.LookupDefinition(input.WorkflowType)
	if !ok {
		logger.Warn("workflow create rejected",
			"event", "workflow_create_unknown_type",
			"module", moduleName,
			"layer", "application",
			"conversation_id", conversationID,
			"workflow_type", string(input.WorkflowType),
		)
		return nil
	}
	totalStages := input.TotalStages
	if totalStages <= 0 {
		totalStages = definition.TotalStages()
	}

	workflowID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		logger.Error("workflow id generation failed",
			"event", "workflow_create_id_failed",
			"module", moduleName,
			"layer", "application",
			"conversation_id", conversationID,
			"error", err.Error(),
		)
		return nil
	}

	state := entities.NewWorkflowState(
		workflowID,
		conversationID,
		merchantID,
		definition.Type,
		totalStages,
		input.InitialData,
		s.now(),
	)
	if err := s.Repo.CreateWorkflow(ctx, state); err != nil {
		logger.Error("workflow create failed",
			"event", "workflow_create_failed",
			"module", moduleName,
			"layer", "application",
			"conversation_id", conversationID,
			"workflow_type", string(definition.Type),
			"error", err.Error(),
		)
		return nil
	}

	logger.Info("workflow created",
		"event", "workflow_created",
		"module", moduleName,
		"layer", "application",
		"workflow_id", state.WorkflowID,
		"conversation_id", conversationID,
		"workflow_type", string(definition.Type),
		"total_stages", totalStages,
	)
	return &state
}

// AdvanceWorkflowStage moves one stage forward (capped at total_stages) and
// merges stageUpdate into the accumulated stage_data.
func (s Service) AdvanceWorkflowStage(ctx context.Context, workflowID string, stageUpdate map[string]any) bool {
	logger := ResolveLogger(s.Logger)
	workflowID = strings.TrimSpace(workflowID)
	if workflowID == "" {
		return false
	}

	now := s.now()
	var (
		previousStage int
		completedNow  bool
		workflowType  string
	)
	state, err := s.Repo.AdvanceWorkflow(ctx, workflowID, func(state *entities.WorkflowState) (*ports.WorkflowCompletedEvent, error) {
		previousStage = state.CurrentStage
		workflowType = string(state.WorkflowType)
		completedNow = state.Advance(stageUpdate, now)
		if !completedNow {
			return nil, nil
		}
		eventID, err := s.IDGenerator.NewID(ctx)
		if err != nil {
			return nil, fmt.Errorf("completion event id: %w", err)
		}
		return &ports.WorkflowCompletedEvent{
			EventID:    eventID,
			Workflow:   state.Clone(),
			OccurredAt: now,
		}, nil
	})
	if err != nil {
		result := "error"
		if errors.Is(err, domainerrors.ErrWorkflowNotFound) {
			result = "not_found"
		}
		logger.Warn("workflow advance failed",
			"event", "workflow_advance_failed",
			"module", moduleName,
			"layer", "application",
			"workflow_id", workflowID,
			"result", result,
			"error", err.Error(),
		)
		s.recordAdvance(workflowType, result)
		return false
	}

	s.recordAdvance(string(state.WorkflowType), "advanced")
	if completedNow && s.Metrics != nil {
		s.Metrics.RecordWorkflowCompleted(string(state.WorkflowType))
	}
	logger.Info("workflow stage advanced",
		"event", "workflow_stage_advanced",
		"module", moduleName,
		"layer", "application",
		"workflow_id", workflowID,
		"from_stage", previousStage,
		"to_stage", state.CurrentStage,
		"total_stages", state.TotalStages,
		"status", string(state.Status),
	)
	return true
}

// GetWorkflowState returns the latest in_progress workflow of a conversation.
func (s Service) GetWorkflowState(ctx context.Context, conversationID string) *entities.WorkflowState {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil
	}
	state, err := s.Repo.GetLatestInProgress(ctx, conversationID)
	if err != nil {
		ResolveLogger(s.Logger).Debug("workflow lookup returned nothing",
			"event", "workflow_lookup_empty",
			"module", moduleName,
			"layer", "application",
			"conversation_id", conversationID,
			"error", err.Error(),
		)
		return nil
	}
	return &state
}

// GetWorkflow loads a workflow by id regardless of status.
func (s Service) GetWorkflow(ctx context.Context, workflowID string) *entities.WorkflowState {
	workflowID = strings.TrimSpace(workflowID)
	if workflowID == "" {
		return nil
	}
	state, err := s.Repo.GetWorkflow(ctx, workflowID)
	if err != nil {
		ResolveLogger(s.Logger).Debug("workflow lookup returned nothing",
			"event", "workflow_get_empty",
			"module", moduleName,
			"layer", "application",
			"workflow_id", workflowID,
			"error", err.Error(),
		)
		return nil
	}
	return &state
}

// UpdateWorkflowData annotates stage_data without moving current_stage or status.
func (s Service) UpdateWorkflowData(ctx context.Context, workflowID string, patch map[string]any) bool {
	workflowID = strings.TrimSpace(workflowID)
	if workflowID == "" {
		return false
	}
	if err := s.Repo.MergeStageData(ctx, workflowID, patch, s.now()); err != nil {
		ResolveLogger(s.Logger).Error("workflow data update failed",
			"event", "workflow_data_update_failed",
			"module", moduleName,
			"layer", "application",
			"workflow_id", workflowID,
			"error", err.Error(),
		)
		return false
	}
	return true
}

func (s Service) GetWorkflowProgress(workflow entities.WorkflowState) entities.Progress {
	return entities.ProgressOf(workflow)
}

func (s Service) recordAdvance(workflowType string, result string) {
	if s.Metrics == nil {
		return
	}
	if workflowType == "" {
		workflowType = "unknown"
	}
	s.Metrics.RecordStageAdvance(workflowType, result)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
