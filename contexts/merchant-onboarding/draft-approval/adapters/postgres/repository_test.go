package postgresadapter

import (
	"context"
	"testing"
	"time"

	"vitrine/contexts/merchant-onboarding/draft-approval/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/draft-approval/domain/errors"
	"vitrine/contexts/merchant-onboarding/draft-approval/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepository(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("vitrine"),
		postgres.WithUsername("vitrine"),
		postgres.WithPassword("vitrine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return NewRepository(db, nil), db
}

func seedStore(t *testing.T, db *gorm.DB, userID string, storeID string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, db.Create(&storeModel{
		StoreID:        storeID,
		OrganizationID: "org-" + storeID,
		Name:           "Untitled",
		Status:         "draft",
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Error)
	require.NoError(t, db.Create(&memberModel{
		OrganizationID: "org-" + storeID,
		UserID:         userID,
		Role:           "owner",
		CreatedAt:      now,
	}).Error)
}

func TestRepositoryResolvesOrganizationAndFlipsFlag(t *testing.T) {
	repo, db := setupRepository(t)
	ctx := context.Background()
	seedStore(t, db, "user-1", "store-1")

	org, err := repo.GetUserOrganization(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "store-1", org.StoreID)
	assert.Equal(t, "", org.OnboardingCompleted)

	stamped := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Exec("UPDATE stores SET updated_at = ? WHERE store_id = ?", stamped, "store-1").Error)

	require.NoError(t, repo.MarkCompleted(ctx, "store-1"))
	org, err = repo.GetUserOrganization(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, org.IsOnboardingCompleted())

	var updatedAt time.Time
	require.NoError(t, db.Raw("SELECT updated_at FROM stores WHERE store_id = ?", "store-1").Scan(&updatedAt).Error)
	assert.True(t, updatedAt.Equal(stamped), "flag flip must not touch updated_at, got %s", updatedAt)

	_, err = repo.GetUserOrganization(ctx, "user-unknown")
	assert.ErrorIs(t, err, domainerrors.ErrStoreNotFound)
}

func TestRepositoryAIPreferencesMergeKeepsUnrelatedKeys(t *testing.T) {
	repo, db := setupRepository(t)
	ctx := context.Background()
	seedStore(t, db, "user-2", "store-2")
	now := time.Now().UTC()

	require.NoError(t, repo.UpsertAIPreferences(ctx, "store-2", map[string]any{"tone": "friendly"}, now))
	require.NoError(t, repo.UpsertAIPreferences(ctx, "store-2", map[string]any{"store_name": map[string]any{"value": "Acme"}}, now))

	var row settingsModel
	require.NoError(t, db.Where("store_id = ?", "store-2").First(&row).Error)
	assert.Equal(t, "friendly", row.AIPreferences["tone"])
	assert.NotNil(t, row.AIPreferences["store_name"])
}

func TestRepositoryProductBatchAndSlugs(t *testing.T) {
	repo, db := setupRepository(t)
	ctx := context.Background()
	seedStore(t, db, "user-3", "store-3")
	now := time.Now().UTC()

	reserved := map[string]struct{}{}
	first, err := repo.GenerateSlug(ctx, "store-3", "Oud Oil", reserved)
	require.NoError(t, err)
	reserved[first] = struct{}{}
	second, err := repo.GenerateSlug(ctx, "store-3", "oud oil", reserved)
	require.NoError(t, err)
	assert.Equal(t, "oud-oil", first)
	assert.Equal(t, "oud-oil-2", second)

	require.NoError(t, repo.InsertProducts(ctx, []entities.StoreProduct{
		{ProductID: "p-1", StoreID: "store-3", Slug: first, Name: "Oud Oil", Images: []string{"a.jpg"}, AIGenerated: true, AIConfidence: entities.ConfidenceHigh, CreatedAt: now},
		{ProductID: "p-2", StoreID: "store-3", Slug: second, Name: "oud oil", AIGenerated: true, AIConfidence: entities.ConfidenceMedium, CreatedAt: now},
	}))
	count, err := repo.CountProducts(ctx, "store-3")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	third, err := repo.GenerateSlug(ctx, "store-3", "Oud Oil", map[string]struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "oud-oil-3", third)

	// a colliding slug rejects the whole batch
	err = repo.InsertProducts(ctx, []entities.StoreProduct{
		{ProductID: "p-3", StoreID: "store-3", Slug: third, Name: "Oud Oil", CreatedAt: now},
		{ProductID: "p-4", StoreID: "store-3", Slug: first, Name: "Oud Oil", CreatedAt: now},
	})
	require.Error(t, err)
	count, err = repo.CountProducts(ctx, "store-3")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRepositoryIdempotencyRecordExpires(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Put(ctx, ports.IdempotencyRecord{
		Key:         "idem-1",
		RequestHash: "hash-1",
		Payload:     []byte(`{"saved":{"products":2}}`),
		ExpiresAt:   now.Add(time.Hour),
	}))

	record, found, err := repo.Get(ctx, "idem-1", now)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hash-1", record.RequestHash)

	_, found, err = repo.Get(ctx, "idem-1", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, found)
}
