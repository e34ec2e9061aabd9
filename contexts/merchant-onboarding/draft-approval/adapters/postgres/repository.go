package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vitrine/contexts/merchant-onboarding/draft-approval/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/draft-approval/domain/errors"
	"vitrine/contexts/merchant-onboarding/draft-approval/domain/services"
	"vitrine/contexts/merchant-onboarding/draft-approval/ports"

	"github.com/jackc/pgx/v5/pgconn"
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

// AutoMigrate creates the store-side tables the approval flow reads and writes.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&storeModel{},
		&memberModel{},
		&productModel{},
		&settingsModel{},
		&idempotencyModel{},
	)
}

func (r *Repository) GetUserOrganization(ctx context.Context, userID string) (entities.Organization, error) {
	var row struct {
		OrganizationID      string
		StoreID             string
		StoreStatus         string
		OnboardingCompleted *string
	}
	result := r.db.WithContext(ctx).
		Table("organization_members AS m").
		Select("m.organization_id, s.store_id, s.status AS store_status, s.onboarding_completed").
		Joins("JOIN stores s ON s.organization_id = m.organization_id").
		Where("m.user_id = ?", strings.TrimSpace(userID)).
		Order("s.created_at ASC").
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return entities.Organization{}, result.Error
	}
	if result.RowsAffected == 0 {
		return entities.Organization{}, domainerrors.ErrStoreNotFound
	}

	org := entities.Organization{
		OrganizationID: row.OrganizationID,
		StoreID:        row.StoreID,
		StoreStatus:    row.StoreStatus,
	}
	if row.OnboardingCompleted != nil {
		org.OnboardingCompleted = *row.OnboardingCompleted
	}
	return org, nil
}

func (r *Repository) CountProducts(ctx context.Context, storeID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&productModel{}).
		Where("store_id = ?", storeID).
		Count(&count).
		Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) UpsertAIPreferences(ctx context.Context, storeID string, prefs map[string]any, now time.Time) error {
	row := settingsModel{
		StoreID:       storeID,
		AIPreferences: jsonMap(prefs),
		UpdatedAt:     now.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "store_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"ai_preferences": gorm.Expr("COALESCE(store_settings.ai_preferences, '{}'::jsonb) || EXCLUDED.ai_preferences"),
				"updated_at":     gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).
		Create(&row).
		Error
}

func (r *Repository) UpdateStoreName(ctx context.Context, storeID string, name string, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&storeModel{}).
		Where("store_id = ?", storeID).
		Updates(map[string]any{
			"name":       name,
			"updated_at": now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStoreNotFound
	}
	return nil
}

func (r *Repository) InsertProducts(ctx context.Context, products []entities.StoreProduct) error {
	if len(products) == 0 {
		return nil
	}
	rows := make([]productModel, 0, len(products))
	for _, product := range products {
		rows = append(rows, productModelFromEntity(product))
	}
	// one multi-row INSERT; postgres applies it atomically
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slug collision in store %s: %w", products[0].StoreID, err)
		}
		return err
	}
	return nil
}

func (r *Repository) GenerateSlug(ctx context.Context, storeID string, name string, reserved map[string]struct{}) (string, error) {
	base := services.SlugBase(name)

	var existing []string
	if err := r.db.WithContext(ctx).
		Model(&productModel{}).
		Where("store_id = ? AND (slug = ? OR slug LIKE ?)", storeID, base, base+"-%").
		Pluck("slug", &existing).
		Error; err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(existing)+len(reserved))
	for _, slug := range existing {
		taken[slug] = struct{}{}
	}
	for slug := range reserved {
		taken[slug] = struct{}{}
	}
	return services.NextAvailableSlug(base, func(candidate string) bool {
		_, ok := taken[candidate]
		return ok
	}), nil
}

// MarkCompleted flips onboarding_completed only; updated_at is left alone.
func (r *Repository) MarkCompleted(ctx context.Context, storeID string) error {
	result := r.db.WithContext(ctx).
		Model(&storeModel{}).
		Where("store_id = ?", storeID).
		UpdateColumn("onboarding_completed", entities.OnboardingCompleted)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStoreNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND expires_at > ?", key, now.UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		Payload:     append([]byte(nil), row.Payload...),
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         record.Key,
		RequestHash: record.RequestHash,
		Payload:     append([]byte(nil), record.Payload...),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"request_hash", "payload", "expires_at"}),
		}).
		Create(&row).
		Error
}

type storeModel struct {
	StoreID             string    `gorm:"column:store_id;primaryKey"`
	OrganizationID      string    `gorm:"column:organization_id;index"`
	Name                string    `gorm:"column:name"`
	Status              string    `gorm:"column:status"`
	OnboardingCompleted *string   `gorm:"column:onboarding_completed"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (storeModel) TableName() string {
	return "stores"
}

type memberModel struct {
	OrganizationID string    `gorm:"column:organization_id;primaryKey"`
	UserID         string    `gorm:"column:user_id;primaryKey;index"`
	Role           string    `gorm:"column:role"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (memberModel) TableName() string {
	return "organization_members"
}

type productModel struct {
	ProductID     string     `gorm:"column:product_id;primaryKey"`
	StoreID       string     `gorm:"column:store_id;uniqueIndex:idx_store_products_store_slug,priority:1"`
	Slug          string     `gorm:"column:slug;uniqueIndex:idx_store_products_store_slug,priority:2"`
	Name          string     `gorm:"column:name"`
	NameAR        string     `gorm:"column:name_ar"`
	Description   string     `gorm:"column:description"`
	DescriptionAR string     `gorm:"column:description_ar"`
	Category      string     `gorm:"column:category"`
	Price         float64    `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	Images        stringList `gorm:"column:images;type:jsonb"`
	AIGenerated   bool       `gorm:"column:ai_generated"`
	AIConfidence  string     `gorm:"column:ai_confidence"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
}

func (productModel) TableName() string {
	return "store_products"
}

func productModelFromEntity(product entities.StoreProduct) productModel {
	return productModel{
		ProductID:     product.ProductID,
		StoreID:       product.StoreID,
		Slug:          product.Slug,
		Name:          product.Name,
		NameAR:        product.NameAR,
		Description:   product.Description,
		DescriptionAR: product.DescriptionAR,
		Category:      product.Category,
		Price:         product.Price,
		Images:        stringList(product.Images),
		AIGenerated:   product.AIGenerated,
		AIConfidence:  string(product.AIConfidence),
		CreatedAt:     product.CreatedAt.UTC(),
	}
}

type settingsModel struct {
	StoreID       string    `gorm:"column:store_id;primaryKey"`
	AIPreferences jsonMap   `gorm:"column:ai_preferences;type:jsonb;not null;default:'{}'"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (settingsModel) TableName() string {
	return "store_settings"
}

type idempotencyModel struct {
	Key         string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index"`
}

func (idempotencyModel) TableName() string {
	return "draft_approval_idempotency"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.OrganizationResolver = (*Repository)(nil)
var _ ports.StoreRepository = (*Repository)(nil)
var _ ports.SlugGenerator = (*Repository)(nil)
var _ ports.OnboardingStatusUpdater = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
