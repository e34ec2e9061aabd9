package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"vitrine/contexts/merchant-onboarding/workflow-tracker/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/workflow-tracker/domain/errors"
	"vitrine/contexts/merchant-onboarding/workflow-tracker/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates or updates the tables owned by the tracker.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&workflowModel{}, &outboxModel{})
}

func (r *Repository) CreateWorkflow(ctx context.Context, state entities.WorkflowState) error {
	row := workflowModelFromEntity(state)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func (r *Repository) GetWorkflow(ctx context.Context, workflowID string) (entities.WorkflowState, error) {
	var row workflowModel
	err := r.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.WorkflowState{}, domainerrors.ErrWorkflowNotFound
		}
		return entities.WorkflowState{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetLatestInProgress(ctx context.Context, conversationID string) (entities.WorkflowState, error) {
	var rows []workflowModel
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND status = ?", conversationID, string(entities.WorkflowStatusInProgress)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Limit(1).
		Find(&rows).
		Error
	if err != nil {
		return entities.WorkflowState{}, err
	}
	if len(rows) == 0 {
		return entities.WorkflowState{}, domainerrors.ErrWorkflowNotFound
	}
	return rows[0].toEntity(), nil
}

func (r *Repository) AdvanceWorkflow(
	ctx context.Context,
	workflowID string,
	advance ports.StageAdvancer,
) (entities.WorkflowState, error) {
	var state entities.WorkflowState
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row workflowModel
		// FOR UPDATE serializes advances and data merges on the same row
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("workflow_id = ?", workflowID).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrWorkflowNotFound
			}
			return err
		}

		state = row.toEntity()
		event, err := advance(&state)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"current_stage": state.CurrentStage,
			"stage_data":    jsonMap(state.StageData),
			"status":        string(state.Status),
			"updated_at":    state.UpdatedAt.UTC(),
		}
		if state.CompletedAt != nil {
			updates["completed_at"] = gorm.Expr("COALESCE(completed_at, ?)", state.CompletedAt.UTC())
		}
		if err := tx.Model(&workflowModel{}).
			Where("workflow_id = ?", workflowID).
			Updates(updates).
			Error; err != nil {
			return err
		}
		if event == nil {
			return nil
		}

		outboxRow, err := newOutboxRow(*event)
		if err != nil {
			return err
		}
		if err := tx.Create(&outboxRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		return nil
	})
	if err != nil {
		return entities.WorkflowState{}, err
	}
	return state, nil
}

func newOutboxRow(event ports.WorkflowCompletedEvent) (outboxModel, error) {
	envelope, err := ports.BuildWorkflowCompletedEnvelope(event)
	if err != nil {
		return outboxModel{}, err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return outboxModel{}, err
	}
	return outboxModel{
		OutboxID:     event.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    event.OccurredAt.UTC(),
	}, nil
}

func (r *Repository) MergeStageData(
	ctx context.Context,
	workflowID string,
	patch map[string]any,
	updatedAt time.Time,
) error {
	raw, err := json.Marshal(jsonMap(patch))
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&workflowModel{}).
		Where("workflow_id = ?", workflowID).
		Updates(map[string]any{
			"stage_data": gorm.Expr("COALESCE(stage_data, '{}'::jsonb) || ?::jsonb", string(raw)),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrWorkflowNotFound
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

type workflowModel struct {
	WorkflowID     string     `gorm:"column:workflow_id;primaryKey"`
	ConversationID string     `gorm:"column:conversation_id;index:idx_workflow_states_conversation"`
	MerchantID     string     `gorm:"column:merchant_id;index"`
	WorkflowType   string     `gorm:"column:workflow_type"`
	CurrentStage   int        `gorm:"column:current_stage"`
	TotalStages    int        `gorm:"column:total_stages"`
	StageData      jsonMap    `gorm:"column:stage_data;type:jsonb;not null;default:'{}'"`
	Status         string     `gorm:"column:status;index:idx_workflow_states_conversation"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (workflowModel) TableName() string {
	return "workflow_states"
}

func workflowModelFromEntity(state entities.WorkflowState) workflowModel {
	row := workflowModel{
		WorkflowID:     state.WorkflowID,
		ConversationID: state.ConversationID,
		MerchantID:     state.MerchantID,
		WorkflowType:   string(state.WorkflowType),
		CurrentStage:   state.CurrentStage,
		TotalStages:    state.TotalStages,
		StageData:      jsonMap(state.StageData.Clone()),
		Status:         string(state.Status),
		CreatedAt:      state.CreatedAt.UTC(),
		UpdatedAt:      state.UpdatedAt.UTC(),
	}
	if state.CompletedAt != nil {
		completedAt := state.CompletedAt.UTC()
		row.CompletedAt = &completedAt
	}
	return row
}

func (m workflowModel) toEntity() entities.WorkflowState {
	out := entities.WorkflowState{
		WorkflowID:     m.WorkflowID,
		ConversationID: m.ConversationID,
		MerchantID:     m.MerchantID,
		WorkflowType:   entities.WorkflowType(m.WorkflowType),
		CurrentStage:   m.CurrentStage,
		TotalStages:    m.TotalStages,
		StageData:      entities.StageData(m.StageData).Clone(),
		Status:         entities.WorkflowStatus(m.Status),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
	if m.CompletedAt != nil {
		completedAt := m.CompletedAt.UTC()
		out.CompletedAt = &completedAt
	}
	return out
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "workflow_tracker_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
