package httpserver

import (
	"errors"
	"net/http"

	trackererrors "vitrine/contexts/merchant-onboarding/workflow-tracker/domain/errors"
	trackerhttp "vitrine/contexts/merchant-onboarding/workflow-tracker/transport/http"
	"vitrine/internal/platform/session"
)

func writeWorkflowError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, trackerhttp.ErrorResponse{Code: code, Message: message})
}

func writeWorkflowDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trackererrors.ErrWorkflowNotFound):
		writeWorkflowError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, trackererrors.ErrUnknownWorkflowType),
		errors.Is(err, trackererrors.ErrInvalidRequest):
		writeWorkflowError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, trackererrors.ErrTrackingUnavailable):
		writeWorkflowError(w, http.StatusServiceUnavailable, "tracking_unavailable", err.Error())
	default:
		writeWorkflowError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireMerchant(w http.ResponseWriter, r *http.Request) (string, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeWorkflowError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return "", false
	}
	return s.UserID, true
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := requireMerchant(w, r)
	if !ok {
		return
	}
	var req trackerhttp.CreateWorkflowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeWorkflowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Workflows.Handler.CreateWorkflowHandler(r.Context(), merchantID, req)
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetConversationWorkflow(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := requireMerchant(w, r)
	if !ok {
		return
	}
	resp, err := s.modules.Workflows.Handler.GetConversationWorkflowHandler(r.Context(), merchantID, r.PathValue("conversation_id"))
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdvanceWorkflow(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := requireMerchant(w, r)
	if !ok {
		return
	}
	var req trackerhttp.AdvanceWorkflowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeWorkflowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Workflows.Handler.AdvanceWorkflowHandler(r.Context(), merchantID, r.PathValue("workflow_id"), req)
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateWorkflowData(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := requireMerchant(w, r)
	if !ok {
		return
	}
	var req trackerhttp.UpdateWorkflowDataRequest
	if err := decodeJSON(r, &req); err != nil {
		writeWorkflowError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.modules.Workflows.Handler.UpdateWorkflowDataHandler(r.Context(), merchantID, r.PathValue("workflow_id"), req)
	if err != nil {
		writeWorkflowDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
