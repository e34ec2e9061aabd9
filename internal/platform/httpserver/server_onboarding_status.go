package httpserver

import (
	"context"
	"errors"
	"net/http"

	statuserrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	statushttp "vitrine/contexts/merchant-onboarding/onboarding-status/transport/http"
)

func onboardingStatusCode(err error) int {
	switch {
	case errors.Is(err, statuserrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, statuserrors.ErrNoStore):
		return http.StatusNotFound
	case errors.Is(err, statuserrors.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeOnboardingStatus(w http.ResponseWriter, resp statushttp.StatusResponse, err error) {
	if err != nil {
		writeJSON(w, onboardingStatusCode(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOnboardingStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.modules.Status.Handler.GatingStatusHandler(r.Context())
	writeOnboardingStatus(w, resp, err)
}

func (s *Server) handleUpdateOnboardingStatus(w http.ResponseWriter, r *http.Request) {
	var req statushttp.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, statushttp.StatusResponse{
			Success:   false,
			ErrorCode: statushttp.ErrorCodeInvalidStatus,
			Message:   "request body must be valid JSON",
		})
		return
	}
	resp, err := s.modules.Status.Handler.UpdateStatusHandler(r.Context(), req)
	writeOnboardingStatus(w, resp, err)
}

func (s *Server) handleCompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	s.handleStatusAction(w, r, s.modules.Status.Handler.CompleteHandler)
}

func (s *Server) handleSkipOnboarding(w http.ResponseWriter, r *http.Request) {
	s.handleStatusAction(w, r, s.modules.Status.Handler.SkipHandler)
}

func (s *Server) handleStatusAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(context.Context) (statushttp.StatusResponse, error),
) {
	resp, err := action(r.Context())
	writeOnboardingStatus(w, resp, err)
}
