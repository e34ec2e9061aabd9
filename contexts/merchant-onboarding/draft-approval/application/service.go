package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vitrine/contexts/merchant-onboarding/draft-approval/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/draft-approval/domain/errors"
	"vitrine/contexts/merchant-onboarding/draft-approval/ports"
)

const moduleName = "merchant-onboarding/draft-approval"

const (
	messageApproved        = "Draft approved and saved"
	noteAlreadySaved       = "Products were already saved previously"
	defaultIdempotencyTTL  = 24 * time.Hour
	outcomeSaved           = "saved"
	outcomeSkippedProducts = "skipped_products"
	outcomeReplayed        = "replayed"
	outcomeUnauthorized    = "unauthorized"
	outcomeNothingToSave   = "nothing_to_save"
	outcomeStoreNotFound   = "store_not_found"
	outcomeInsertFailed    = "products_insert_failed"
	outcomeConflict        = "idempotency_conflict"
	outcomeError           = "error"
)

// Service is the only path that writes drafted content to durable storage.
type Service struct {
	Sessions       ports.SessionProvider
	Organizations  ports.OrganizationResolver
	Stores         ports.StoreRepository
	Slugs          ports.SlugGenerator
	StatusUpdater  ports.OnboardingStatusUpdater
	Workflows      ports.WorkflowNotifier
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Metrics        ports.Metrics
	Logger         *slog.Logger
	IdempotencyTTL time.Duration
}

type ApproveDraftCommand struct {
	Draft   *entities.DraftStoreState
	Context entities.ApprovalContext
	// IdempotencyKey is optional. When set, a repeated call with the same
	// payload replays the first result.
	IdempotencyKey string
}

func (s Service) ApproveDraft(ctx context.Context, cmd ApproveDraftCommand) (entities.ApprovalResult, error) {
	started := s.now()
	logger := ResolveLogger(s.Logger)

	user, err := s.Sessions.CurrentUser(ctx)
	if err != nil || strings.TrimSpace(user.UserID) == "" {
		s.recordApproval(outcomeUnauthorized, started)
		return entities.ApprovalResult{}, domainerrors.ErrUnauthorized
	}
	if !cmd.Draft.HasContent() {
		s.recordApproval(outcomeNothingToSave, started)
		return entities.ApprovalResult{}, domainerrors.ErrNothingToSave
	}

	org, err := s.Organizations.GetUserOrganization(ctx, user.UserID)
	if err == nil && strings.TrimSpace(org.StoreID) == "" {
		err = domainerrors.ErrStoreNotFound
	}
	if err != nil {
		if errors.Is(err, domainerrors.ErrStoreNotFound) {
			s.recordApproval(outcomeStoreNotFound, started)
			return entities.ApprovalResult{}, domainerrors.ErrStoreNotFound
		}
		logger.Error("draft approval store lookup failed",
			"event", "draft_approval_store_lookup_failed",
			"module", moduleName,
			"layer", "application",
			"user_id", user.UserID,
			"error", err.Error(),
		)
		s.recordApproval(outcomeError, started)
		return entities.ApprovalResult{}, fmt.Errorf("%w: %v", domainerrors.ErrStoreLookupFailed, err)
	}

	var (
		result   entities.ApprovalResult
		replayed bool
	)
	key := strings.TrimSpace(cmd.IdempotencyKey)
	if key == "" || s.Idempotency == nil {
		result, err = s.commit(ctx, org, cmd)
	} else {
		result, replayed, err = s.runIdempotent(ctx, key, requestHash(user.UserID, org.StoreID, cmd), func() (entities.ApprovalResult, error) {
			return s.commit(ctx, org, cmd)
		})
	}
	if err != nil {
		s.recordApproval(outcomeForError(err), started)
		return entities.ApprovalResult{}, err
	}

	switch {
	case replayed:
		s.recordApproval(outcomeReplayed, started)
	case result.Note != "":
		s.recordApproval(outcomeSkippedProducts, started)
	default:
		s.recordApproval(outcomeSaved, started)
	}
	logger.Info("draft approved",
		"event", "draft_approved",
		"module", moduleName,
		"layer", "application",
		"user_id", user.UserID,
		"store_id", org.StoreID,
		"products", result.Saved.Products,
		"store_name", result.Saved.StoreName,
		"appearance", result.Saved.Appearance,
		"replayed", replayed,
	)
	return result, nil
}

// commit performs the ordered writes. Product insertion happens before the
// onboarding flag flip so a retry after a failed insert is never skipped.
func (s Service) commit(
	ctx context.Context,
	org entities.Organization,
	cmd ApproveDraftCommand,
) (entities.ApprovalResult, error) {
	logger := ResolveLogger(s.Logger)
	draft := cmd.Draft
	now := s.now()

	skipProducts := false
	if org.IsOnboardingCompleted() && len(draft.Products) > 0 {
		existing, err := s.Stores.CountProducts(ctx, org.StoreID)
		if err != nil {
			return entities.ApprovalResult{}, fmt.Errorf("%w: count products: %v", domainerrors.ErrStoreLookupFailed, err)
		}
		skipProducts = existing > 0
	}

	var result entities.ApprovalResult
	if draft.StoreName != nil || draft.Appearance != nil {
		if err := s.Stores.UpsertAIPreferences(ctx, org.StoreID, aiPreferences(draft, now), now); err != nil {
			logger.Error("draft approval settings upsert failed",
				"event", "draft_approval_settings_failed",
				"module", moduleName,
				"layer", "application",
				"store_id", org.StoreID,
				"error", err.Error(),
			)
			return entities.ApprovalResult{}, fmt.Errorf("%w: %v", domainerrors.ErrSettingsSaveFailed, err)
		}
		result.Saved.StoreName = draft.StoreName != nil
		result.Saved.Appearance = draft.Appearance != nil

		if draft.StoreName != nil {
			if err := s.Stores.UpdateStoreName(ctx, org.StoreID, draft.StoreName.Value, now); err != nil {
				logger.Warn("store name mirror failed",
					"event", "draft_approval_store_name_mirror_failed",
					"module", moduleName,
					"layer", "application",
					"store_id", org.StoreID,
					"error", err.Error(),
				)
			}
		}
	}

	if skipProducts {
		result.Note = noteAlreadySaved
		logger.Info("product insert skipped for completed store",
			"event", "draft_approval_products_skipped",
			"module", moduleName,
			"layer", "application",
			"store_id", org.StoreID,
			"draft_products", len(draft.Products),
		)
	} else if len(draft.Products) > 0 {
		rows, err := s.buildProducts(ctx, org.StoreID, draft.Products, now)
		if err == nil {
			err = s.Stores.InsertProducts(ctx, rows)
		}
		if err != nil {
			logger.Error("draft approval product insert failed",
				"event", "draft_approval_products_insert_failed",
				"module", moduleName,
				"layer", "application",
				"store_id", org.StoreID,
				"draft_products", len(draft.Products),
				"error", err.Error(),
			)
			return entities.ApprovalResult{}, fmt.Errorf("%w: %w", domainerrors.ErrProductsInsertFailed, err)
		}
		result.Saved.Products = len(rows)
		result.ProductIDs = make([]string, 0, len(rows))
		for _, row := range rows {
			result.ProductIDs = append(result.ProductIDs, row.ProductID)
		}
		if s.Metrics != nil {
			s.Metrics.RecordProductsInserted(len(rows))
		}
	}

	if err := s.StatusUpdater.MarkCompleted(ctx, org.StoreID); err != nil {
		logger.Warn("onboarding flag update failed after approval",
			"event", "draft_approval_onboarding_flag_failed",
			"module", moduleName,
			"layer", "application",
			"store_id", org.StoreID,
			"error", err.Error(),
		)
	}

	// only a call that inserted products moves the workflow; a skipped retry
	// must leave stage and product_ids as the first approval left them
	conversationID := strings.TrimSpace(cmd.Context.ConversationID)
	if conversationID != "" && s.Workflows != nil && len(result.ProductIDs) > 0 {
		if !s.Workflows.ProductsPersisted(ctx, conversationID, result.ProductIDs) {
			logger.Debug("no workflow advanced after approval",
				"event", "draft_approval_workflow_not_advanced",
				"module", moduleName,
				"layer", "application",
				"conversation_id", conversationID,
			)
		}
	}

	result.Message = messageApproved
	return result, nil
}

func (s Service) buildProducts(
	ctx context.Context,
	storeID string,
	drafts []entities.DraftProduct,
	now time.Time,
) ([]entities.StoreProduct, error) {
	reserved := make(map[string]struct{}, len(drafts))
	rows := make([]entities.StoreProduct, 0, len(drafts))
	for _, draft := range drafts {
		slug, err := s.Slugs.GenerateSlug(ctx, storeID, draft.Name, reserved)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domainerrors.ErrSlugGenerationFailed, draft.Name, err)
		}
		if strings.TrimSpace(slug) == "" {
			return nil, fmt.Errorf("%w: %s: empty slug", domainerrors.ErrSlugGenerationFailed, draft.Name)
		}
		if _, taken := reserved[slug]; taken {
			return nil, fmt.Errorf("%w: %s: duplicate slug %s", domainerrors.ErrSlugGenerationFailed, draft.Name, slug)
		}
		reserved[slug] = struct{}{}

		productID, err := s.IDGenerator.NewID(ctx)
		if err != nil {
			return nil, err
		}
		rows = append(rows, entities.StoreProduct{
			ProductID:     productID,
			StoreID:       storeID,
			Slug:          slug,
			Name:          draft.Name,
			NameAR:        draft.NameAR,
			Description:   draft.Description,
			DescriptionAR: draft.DescriptionAR,
			Category:      draft.Category,
			Price:         draft.PriceOrZero(),
			Images:        append([]string(nil), draft.Images...),
			AIGenerated:   true,
			AIConfidence:  draft.ConfidenceOrDefault(),
			CreatedAt:     now,
		})
	}
	return rows, nil
}

func aiPreferences(draft *entities.DraftStoreState, now time.Time) map[string]any {
	prefs := map[string]any{"approved_at": now.Format(time.RFC3339)}
	if draft.StoreName != nil {
		prefs["store_name"] = map[string]any{
			"value":      draft.StoreName.Value,
			"source":     string(draft.StoreName.Provenance.Source),
			"confidence": string(draft.StoreName.Provenance.Confidence),
		}
	}
	if draft.Appearance != nil {
		prefs["appearance"] = map[string]any{
			"palette":    draft.Appearance.Palette,
			"typography": draft.Appearance.Typography,
			"logo_url":   draft.Appearance.LogoURL,
			"source":     string(draft.Appearance.Provenance.Source),
			"confidence": string(draft.Appearance.Provenance.Confidence),
		}
	}
	return prefs
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	hash string,
	exec func() (entities.ApprovalResult, error),
) (entities.ApprovalResult, bool, error) {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return entities.ApprovalResult{}, false, err
	}
	if found {
		if record.RequestHash != hash {
			return entities.ApprovalResult{}, false, domainerrors.ErrIdempotencyConflict
		}
		var out entities.ApprovalResult
		if err := json.Unmarshal(record.Payload, &out); err != nil {
			return entities.ApprovalResult{}, false, err
		}
		return out, true, nil
	}

	result, err := exec()
	if err != nil {
		return entities.ApprovalResult{}, false, err
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return entities.ApprovalResult{}, false, err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: hash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		// the writes already happened; the duplicate guard covers a retry
		ResolveLogger(s.Logger).Warn("draft approval idempotency record failed",
			"event", "draft_approval_idempotency_put_failed",
			"module", moduleName,
			"layer", "application",
			"idempotency_key", key,
			"error", err.Error(),
		)
	}
	return result, false, nil
}

func requestHash(userID string, storeID string, cmd ApproveDraftCommand) string {
	draft, _ := json.Marshal(cmd.Draft)
	sum := sha256.Sum256([]byte(strings.Join([]string{
		"approve_draft",
		userID,
		storeID,
		strings.TrimSpace(cmd.Context.ConversationID),
		string(draft),
	}, "|")))
	return hex.EncodeToString(sum[:])
}

func outcomeForError(err error) string {
	switch {
	case errors.Is(err, domainerrors.ErrProductsInsertFailed):
		return outcomeInsertFailed
	case errors.Is(err, domainerrors.ErrIdempotencyConflict):
		return outcomeConflict
	default:
		return outcomeError
	}
}

func (s Service) recordApproval(outcome string, started time.Time) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.RecordApproval(outcome, s.now().Sub(started))
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return defaultIdempotencyTTL
	}
	return s.IdempotencyTTL
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
