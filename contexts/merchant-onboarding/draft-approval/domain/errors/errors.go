package errors

import "errors"

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNothingToSave        = errors.New("nothing to save")
	ErrInvalidDraft         = errors.New("invalid draft")
	ErrDraftProductNotFound = errors.New("draft product not found")
	ErrStoreNotFound        = errors.New("store not found")
	ErrStoreLookupFailed    = errors.New("store lookup failed")
	ErrSettingsSaveFailed   = errors.New("settings save failed")
	ErrSlugGenerationFailed = errors.New("slug generation failed")
	ErrProductsInsertFailed = errors.New("products insert failed")
	ErrIdempotencyConflict  = errors.New("idempotency key reused with different payload")
)
