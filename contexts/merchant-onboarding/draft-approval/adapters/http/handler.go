package httpadapter

import (
	"context"
	"log/slog"
	"strings"

	"vitrine/contexts/merchant-onboarding/draft-approval/application"
	"vitrine/contexts/merchant-onboarding/draft-approval/domain/entities"
	httptransport "vitrine/contexts/merchant-onboarding/draft-approval/transport/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "vitrine/merchant-onboarding/draft-approval"

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) ApproveDraftHandler(
	ctx context.Context,
	idempotencyKey string,
	req httptransport.ApproveDraftRequest,
) (httptransport.ApproveDraftResponse, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "draft_approval.approve",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("draft.products", len(req.DraftState.Products)),
			attribute.Bool("draft.store_name", req.DraftState.StoreName != nil),
			attribute.Bool("draft.appearance", req.DraftState.Appearance != nil),
			attribute.Bool("approval.idempotency_key", strings.TrimSpace(idempotencyKey) != ""),
		),
	)
	defer span.End()

	draft, err := BuildDraft(req.DraftState)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return httptransport.ApproveDraftResponse{}, err
	}

	result, err := h.Service.ApproveDraft(ctx, application.ApproveDraftCommand{
		Draft: draft,
		Context: entities.ApprovalContext{
			ConversationID: strings.TrimSpace(req.Context.ConversationID),
			Locale:         strings.TrimSpace(req.Context.Locale),
		},
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return httptransport.ApproveDraftResponse{}, err
	}

	span.SetAttributes(attribute.Int("approval.products_saved", result.Saved.Products))
	span.SetStatus(codes.Ok, "")
	return httptransport.ApproveDraftResponse{
		Success: true,
		Message: result.Message,
		Saved: httptransport.SavedDTO{
			StoreName:  result.Saved.StoreName,
			Products:   result.Saved.Products,
			Appearance: result.Saved.Appearance,
		},
		Note: result.Note,
	}, nil
}

// BuildDraft replays the wire draft through the container's mutation points
// so the approval sees exactly what the container would accept.
func BuildDraft(dto httptransport.DraftStateDTO) (*entities.DraftStoreState, error) {
	draft := entities.NewDraftStoreState()
	if dto.StoreName != nil {
		if err := draft.SetStoreName(dto.StoreName.Value, provenance(dto.StoreName.Source, dto.StoreName.Confidence, entities.SourceUser)); err != nil {
			return nil, err
		}
	}
	for _, item := range dto.Products {
		_, err := draft.AddProduct(entities.DraftProduct{
			DraftID:       item.ID,
			Name:          item.Name,
			NameAR:        item.NameAR,
			Description:   item.Description,
			DescriptionAR: item.DescriptionAR,
			Category:      item.Category,
			Price:         item.Price,
			Images:        item.Images,
			Provenance:    provenance(item.Source, item.Confidence, entities.SourceAIGenerated),
		})
		if err != nil {
			return nil, err
		}
	}
	if dto.Appearance != nil {
		appearance := entities.AppearanceDraft{
			Palette:    dto.Appearance.Palette,
			Typography: dto.Appearance.Typography,
			LogoURL:    dto.Appearance.LogoURL,
		}
		if err := draft.SetAppearance(appearance, provenance(dto.Appearance.Source, dto.Appearance.Confidence, entities.SourceAIGenerated)); err != nil {
			return nil, err
		}
	}
	return draft, nil
}

func provenance(source string, confidence string, fallback entities.Source) entities.Provenance {
	out := entities.Provenance{
		Source:     entities.Source(strings.TrimSpace(source)),
		Confidence: entities.Confidence(strings.TrimSpace(confidence)),
	}
	if out.Source == "" {
		out.Source = fallback
	}
	return out
}
