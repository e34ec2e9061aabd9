package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	"vitrine/contexts/merchant-onboarding/onboarding-status/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

// AutoMigrate only owns the consumer dedup table. The stores and
// organization_members tables belong to the draft approval schema and this
// adapter maps a column subset of them.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&eventDedupModel{})
}

func (r *Repository) ResolveStore(ctx context.Context, userID string) (entities.StoreRef, error) {
	var row struct {
		StoreID             string
		OnboardingCompleted *string
	}
	result := r.db.WithContext(ctx).
		Table("organization_members AS m").
		Select("s.store_id, s.onboarding_completed").
		Joins("JOIN stores s ON s.organization_id = m.organization_id").
		Where("m.user_id = ?", strings.TrimSpace(userID)).
		Order("s.created_at ASC").
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return entities.StoreRef{}, result.Error
	}
	if result.RowsAffected == 0 {
		return entities.StoreRef{}, domainerrors.ErrNoStore
	}
	return entities.StoreRef{
		StoreID: row.StoreID,
		Status:  entities.StoredStatus(deref(row.OnboardingCompleted)),
	}, nil
}

func (r *Repository) GetOnboardingStatus(ctx context.Context, storeID string) (entities.Status, error) {
	var row storeStatusModel
	err := r.db.WithContext(ctx).
		Select("store_id, onboarding_completed").
		Where("store_id = ?", strings.TrimSpace(storeID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domainerrors.ErrNoStore
		}
		return "", err
	}
	return entities.StoredStatus(deref(row.OnboardingCompleted)), nil
}

// SetOnboardingStatus writes onboarding_completed and nothing else. UpdateColumn
// keeps gorm from stamping updated_at.
func (r *Repository) SetOnboardingStatus(ctx context.Context, storeID string, status entities.Status) error {
	result := r.db.WithContext(ctx).
		Model(&storeStatusModel{}).
		Where("store_id = ?", strings.TrimSpace(storeID)).
		UpdateColumn("onboarding_completed", string(status))
	if result.Error != nil {
		r.logger.Error("store onboarding status write failed",
			"event", "onboarding_status_write_failed",
			"module", "merchant-onboarding/onboarding-status",
			"layer", "adapter",
			"store_id", storeID,
			"error", result.Error.Error(),
		)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNoStore
	}
	return nil
}

// ReserveEvent inserts the dedup row, or takes over a row whose reservation
// has expired.
func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	now := time.Now().UTC()
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: now,
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload_hash", "expires_at", "processed_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "onboarding_event_dedup.expires_at <= ?", Vars: []any{now}},
			}},
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).
		Error; err != nil {
		return false, err
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrIdempotencyConflict
	}
	return true, nil
}

type storeStatusModel struct {
	StoreID             string    `gorm:"column:store_id;primaryKey"`
	OrganizationID      string    `gorm:"column:organization_id"`
	OnboardingCompleted *string   `gorm:"column:onboarding_completed"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (storeStatusModel) TableName() string {
	return "stores"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "onboarding_event_dedup"
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

var _ ports.StoreResolver = (*Repository)(nil)
var _ ports.StatusStore = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
