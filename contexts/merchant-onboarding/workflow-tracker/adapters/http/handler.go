package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"vitrine/contexts/merchant-onboarding/workflow-tracker/application"
	"vitrine/contexts/merchant-onboarding/workflow-tracker/domain/entities"
	domainerrors "vitrine/contexts/merchant-onboarding/workflow-tracker/domain/errors"
	httptransport "vitrine/contexts/merchant-onboarding/workflow-tracker/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateWorkflowHandler(
	ctx context.Context,
	merchantID string,
	req httptransport.CreateWorkflowRequest,
) (httptransport.WorkflowResponse, error) {
	workflowType := entities.WorkflowType(strings.TrimSpace(req.WorkflowType))
	if workflowType == "" {
		workflowType = entities.WorkflowTypeOnboarding
	}
	if _, ok := entities.LookupDefinition(workflowType); !ok {
		return httptransport.WorkflowResponse{}, domainerrors.ErrUnknownWorkflowType
	}
	if strings.TrimSpace(req.ConversationID) == "" || req.TotalStages < 0 {
		return httptransport.WorkflowResponse{}, domainerrors.ErrInvalidRequest
	}

	item := h.Service.CreateWorkflowState(ctx, application.CreateWorkflowInput{
		ConversationID: req.ConversationID,
		MerchantID:     merchantID,
		WorkflowType:   workflowType,
		TotalStages:    req.TotalStages,
		InitialData:    req.InitialData,
	})
	if item == nil {
		return httptransport.WorkflowResponse{}, domainerrors.ErrTrackingUnavailable
	}
	return h.toResponse(*item), nil
}

func (h Handler) GetConversationWorkflowHandler(
	ctx context.Context,
	merchantID string,
	conversationID string,
) (httptransport.WorkflowResponse, error) {
	item := h.Service.GetWorkflowState(ctx, conversationID)
	if item == nil || item.MerchantID != strings.TrimSpace(merchantID) {
		return httptransport.WorkflowResponse{}, domainerrors.ErrWorkflowNotFound
	}
	return h.toResponse(*item), nil
}

func (h Handler) AdvanceWorkflowHandler(
	ctx context.Context,
	merchantID string,
	workflowID string,
	req httptransport.AdvanceWorkflowRequest,
) (httptransport.WorkflowMutationResponse, error) {
	if err := h.requireOwner(ctx, merchantID, workflowID); err != nil {
		return httptransport.WorkflowMutationResponse{}, err
	}
	resp := httptransport.WorkflowMutationResponse{Status: "success"}
	resp.Data.WorkflowID = workflowID
	resp.Data.Updated = h.Service.AdvanceWorkflowStage(ctx, workflowID, req.StageUpdate)
	return resp, nil
}

func (h Handler) UpdateWorkflowDataHandler(
	ctx context.Context,
	merchantID string,
	workflowID string,
	req httptransport.UpdateWorkflowDataRequest,
) (httptransport.WorkflowMutationResponse, error) {
	if len(req.Patch) == 0 {
		return httptransport.WorkflowMutationResponse{}, domainerrors.ErrInvalidRequest
	}
	if err := h.requireOwner(ctx, merchantID, workflowID); err != nil {
		return httptransport.WorkflowMutationResponse{}, err
	}
	resp := httptransport.WorkflowMutationResponse{Status: "success"}
	resp.Data.WorkflowID = workflowID
	resp.Data.Updated = h.Service.UpdateWorkflowData(ctx, workflowID, req.Patch)
	return resp, nil
}

func (h Handler) requireOwner(ctx context.Context, merchantID string, workflowID string) error {
	item := h.Service.GetWorkflow(ctx, workflowID)
	if item == nil || item.MerchantID != strings.TrimSpace(merchantID) {
		return domainerrors.ErrWorkflowNotFound
	}
	return nil
}

func (h Handler) toResponse(item entities.WorkflowState) httptransport.WorkflowResponse {
	progress := h.Service.GetWorkflowProgress(item)
	resp := httptransport.WorkflowResponse{Status: "success"}
	resp.Data = httptransport.WorkflowData{
		WorkflowID:     item.WorkflowID,
		ConversationID: item.ConversationID,
		MerchantID:     item.MerchantID,
		WorkflowType:   string(item.WorkflowType),
		CurrentStage:   item.CurrentStage,
		TotalStages:    item.TotalStages,
		StageData:      item.StageData.Clone(),
		Status:         string(item.Status),
		Progress: httptransport.ProgressData{
			CurrentStage: progress.CurrentStage,
			TotalStages:  progress.TotalStages,
			Percentage:   progress.Percentage,
			IsComplete:   progress.IsComplete,
		},
	}
	if definition, ok := entities.LookupDefinition(item.WorkflowType); ok {
		resp.Data.StageName = definition.StageName(item.CurrentStage)
	}
	if item.CompletedAt != nil {
		resp.Data.CompletedAt = item.CompletedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
