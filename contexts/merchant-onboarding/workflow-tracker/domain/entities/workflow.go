package entities

import (
	"math"
	"time"
)

type WorkflowStatus string

const (
	WorkflowStatusInProgress WorkflowStatus = "in_progress"
	WorkflowStatusCompleted  WorkflowStatus = "completed"
)

// WorkflowState is the persisted progress record of one conversation's workflow.
// Rows are never deleted; they double as the onboarding audit trail.
type WorkflowState struct {
	WorkflowID     string
	ConversationID string
	MerchantID     string
	WorkflowType   WorkflowType
	CurrentStage   int
	TotalStages    int
	StageData      StageData
	Status         WorkflowStatus
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewWorkflowState builds the initial row: stage 1, in progress.
func NewWorkflowState(
	workflowID string,
	conversationID string,
	merchantID string,
	workflowType WorkflowType,
	totalStages int,
	initialData map[string]any,
	now time.Time,
) WorkflowState {
	now = now.UTC()
	return WorkflowState{
		WorkflowID:     workflowID,
		ConversationID: conversationID,
		MerchantID:     merchantID,
		WorkflowType:   workflowType,
		CurrentStage:   1,
		TotalStages:    totalStages,
		StageData:      StageData(nil).Merge(initialData),
		Status:         WorkflowStatusInProgress,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Advance moves the workflow one stage forward, capped at TotalStages, and
// merges update into StageData. It reports whether this call performed the
// in_progress -> completed transition.
func (w *WorkflowState) Advance(update map[string]any, now time.Time) bool {
	now = now.UTC()
	next := w.CurrentStage + 1
	if next > w.TotalStages {
		next = w.TotalStages
	}
	if next < w.CurrentStage {
		next = w.CurrentStage
	}

	w.CurrentStage = next
	w.StageData = w.StageData.Merge(update)
	w.UpdatedAt = now

	if next != w.TotalStages {
		w.Status = WorkflowStatusInProgress
		return false
	}

	transitioned := w.Status != WorkflowStatusCompleted
	w.Status = WorkflowStatusCompleted
	if w.CompletedAt == nil {
		completedAt := now
		w.CompletedAt = &completedAt
	}
	return transitioned
}

func (w WorkflowState) IsComplete() bool {
	return w.Status == WorkflowStatusCompleted
}

func (w WorkflowState) Clone() WorkflowState {
	out := w
	out.StageData = w.StageData.Clone()
	if w.CompletedAt != nil {
		completedAt := *w.CompletedAt
		out.CompletedAt = &completedAt
	}
	return out
}

type Progress struct {
	CurrentStage int
	TotalStages  int
	Percentage   int
	IsComplete   bool
}

// ProgressOf is a pure projection; percentage rounds half away from zero.
func ProgressOf(w WorkflowState) Progress {
	out := Progress{
		CurrentStage: w.CurrentStage,
		TotalStages:  w.TotalStages,
		IsComplete:   w.IsComplete(),
	}
	if w.TotalStages > 0 {
		out.Percentage = int(math.Round(float64(w.CurrentStage) / float64(w.TotalStages) * 100))
	}
	return out
}
