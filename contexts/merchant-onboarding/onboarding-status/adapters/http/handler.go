package httpadapter

import (
	"context"
	"errors"
	"log/slog"

	"vitrine/contexts/merchant-onboarding/onboarding-status/application"
	"vitrine/contexts/merchant-onboarding/onboarding-status/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/onboarding-status/domain/errors"
	httptransport "vitrine/contexts/merchant-onboarding/onboarding-status/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) UpdateStatusHandler(ctx context.Context, req httptransport.UpdateStatusRequest) (httptransport.StatusResponse, error) {
	return respond(h.Service.UpdateOnboardingStatus(ctx, req.Status))
}

func (h Handler) CompleteHandler(ctx context.Context) (httptransport.StatusResponse, error) {
	return respond(h.Service.CompleteOnboarding(ctx))
}

func (h Handler) SkipHandler(ctx context.Context) (httptransport.StatusResponse, error) {
	return respond(h.Service.SkipOnboarding(ctx))
}

func (h Handler) GatingStatusHandler(ctx context.Context) (httptransport.StatusResponse, error) {
	status, err := h.Service.GetGatingStatus(ctx)
	resp, err := respond(status, err)
	if err != nil {
		return resp, err
	}
	shows := status.ShowsOnboarding()
	resp.ShowsOnboarding = &shows
	return resp, nil
}

// ErrorResponse builds the failure body for err. The returned response is
// always {success:false} with one of the documented error codes.
func ErrorResponse(err error) httptransport.StatusResponse {
	resp := httptransport.StatusResponse{Success: false, Message: err.Error()}
	switch {
	case errors.Is(err, domainerrors.ErrUnauthorized):
		resp.ErrorCode = httptransport.ErrorCodeUnauthorized
		resp.Message = "Authentication required"
	case errors.Is(err, domainerrors.ErrNoStore):
		resp.ErrorCode = httptransport.ErrorCodeNoStore
		resp.Message = "No store found for this account"
	case errors.Is(err, domainerrors.ErrInvalidStatus):
		resp.ErrorCode = httptransport.ErrorCodeInvalidStatus
	default:
		resp.ErrorCode = httptransport.ErrorCodeDatabase
		resp.Message = "Failed to update onboarding status: " + err.Error()
	}
	return resp
}

func respond(status entities.Status, err error) (httptransport.StatusResponse, error) {
	if err != nil {
		return ErrorResponse(err), err
	}
	return httptransport.StatusResponse{Success: true, Status: string(status)}, nil
}
