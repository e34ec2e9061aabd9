package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	approvalerrors "vitrine/contexts/merchant-onboarding/draft-approval/domain/errors"
	approvalhttp "vitrine/contexts/merchant-onboarding/draft-approval/transport/http"
	"vitrine/internal/platform/session"
)

func writeApprovalError(w http.ResponseWriter, status int, code string, details string) {
	writeJSON(w, status, approvalhttp.ErrorResponse{Error: code, Details: details})
}

func writeApprovalDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, approvalerrors.ErrUnauthorized):
		writeApprovalError(w, http.StatusUnauthorized, "unauthorized", "")
	case errors.Is(err, approvalerrors.ErrNothingToSave):
		writeApprovalError(w, http.StatusBadRequest, "nothing_to_save", "draft has no store name, products or appearance")
	case errors.Is(err, approvalerrors.ErrInvalidDraft):
		writeApprovalError(w, http.StatusBadRequest, "invalid_draft", err.Error())
	case errors.Is(err, approvalerrors.ErrStoreNotFound):
		writeApprovalError(w, http.StatusNotFound, "store_not_found", "no store is provisioned for this account")
	case errors.Is(err, approvalerrors.ErrIdempotencyConflict):
		writeApprovalError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, approvalerrors.ErrProductsInsertFailed):
		writeApprovalError(w, http.StatusInternalServerError, "products_insert_failed", err.Error())
	case errors.Is(err, approvalerrors.ErrSettingsSaveFailed):
		writeApprovalError(w, http.StatusInternalServerError, "settings_save_failed", err.Error())
	case errors.Is(err, approvalerrors.ErrStoreLookupFailed):
		writeApprovalError(w, http.StatusInternalServerError, "store_lookup_failed", err.Error())
	default:
		writeApprovalError(w, http.StatusInternalServerError, "failed_to_save", err.Error())
	}
}

func (s *Server) handleApproveDraft(w http.ResponseWriter, r *http.Request) {
	// anonymous callers learn nothing about the body
	if _, ok := session.FromContext(r.Context()); !ok {
		writeApprovalError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeApprovalError(w, http.StatusRequestEntityTooLarge, "invalid_body", "request body exceeds limit")
		return
	}

	violations, err := approvalhttp.ValidateApproveDraftBody(body)
	if err != nil {
		writeApprovalError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if len(violations) > 0 {
		writeApprovalError(w, http.StatusBadRequest, "invalid_body", strings.Join(violations, "; "))
		return
	}

	var req approvalhttp.ApproveDraftRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeApprovalError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.modules.Approval.Handler.ApproveDraftHandler(
		r.Context(),
		strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		req,
	)
	if err != nil {
		writeApprovalDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
