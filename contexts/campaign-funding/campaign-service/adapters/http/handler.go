package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"chainraise/contexts/campaign-funding/campaign-service/application/commands"
	"chainraise/contexts/campaign-funding/campaign-service/application/queries"
	"chainraise/contexts/campaign-funding/campaign-service/domain/entities"
	httptransport "chainraise/contexts/campaign-funding/campaign-service/transport/http"
)

type Handler struct {
	CreateCampaign commands.CreateCampaignUseCase
	CloseCampaign  commands.CloseCampaignUseCase
	GetCampaign    queries.GetCampaignUseCase
	ListCampaigns  queries.ListCampaignsUseCase
	Logger         *slog.Logger
}

func (h Handler) CreateCampaignHandler(
	ctx context.Context,
	ownerID string,
	idempotencyKey string,
	req httptransport.CreateCampaignRequest,
) (httptransport.CreateCampaignResponse, error) {
	result, err := h.CreateCampaign.Execute(ctx, commands.CreateCampaignCommand{
		OwnerID:           ownerID,
		IdempotencyKey:    idempotencyKey,
		Title:             req.Title,
		Description:       req.Description,
		GoalAmount:        req.GoalAmount,
		Currency:          req.Currency,
		ChainingEnabled:   req.ChainingEnabled,
		CommissionRate:    req.CommissionRate,
		PayoutProvider:    req.PayoutProvider,
		SettlementAccount: req.SettlementAccount,
	})
	if err != nil {
		return httptransport.CreateCampaignResponse{}, err
	}
	return httptransport.CreateCampaignResponse{
		Status:   "success",
		Replayed: result.Replayed,
		Data:     toDTO(result.Campaign),
	}, nil
}

func (h Handler) CloseCampaignHandler(
	ctx context.Context,
	campaignID string,
	actorID string,
	req httptransport.CloseCampaignRequest,
) (httptransport.CloseCampaignResponse, error) {
	err := h.CloseCampaign.Execute(ctx, commands.CloseCampaignCommand{
		CampaignID: campaignID,
		ActorID:    actorID,
		Reason:     entities.ClosureReason(req.Reason),
	})
	if err != nil {
		return httptransport.CloseCampaignResponse{}, err
	}
	return httptransport.CloseCampaignResponse{Status: "success"}, nil
}

func (h Handler) GetCampaignHandler(ctx context.Context, campaignID string) (httptransport.GetCampaignResponse, error) {
	campaign, err := h.GetCampaign.Execute(ctx, campaignID)
	if err != nil {
		return httptransport.GetCampaignResponse{}, err
	}
	return httptransport.GetCampaignResponse{Status: "success", Data: toDTO(campaign)}, nil
}

func (h Handler) ListCampaignsHandler(
	ctx context.Context,
	req queries.ListCampaignsQuery,
) (httptransport.ListCampaignsResponse, error) {
	items, err := h.ListCampaigns.Execute(ctx, req)
	if err != nil {
		return httptransport.ListCampaignsResponse{}, err
	}
	resp := httptransport.ListCampaignsResponse{
		Status: "success",
		Data:   make([]httptransport.CampaignDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toDTO(item))
	}
	return resp, nil
}

func toDTO(campaign entities.Campaign) httptransport.CampaignDTO {
	dto := httptransport.CampaignDTO{
		CampaignID:      campaign.CampaignID,
		OwnerID:         campaign.OwnerID,
		Title:           campaign.Title,
		Description:     campaign.Description,
		GoalAmount:      campaign.GoalAmount,
		Currency:        campaign.Currency,
		CurrentAmount:   campaign.CurrentAmount,
		ChainingEnabled: campaign.ChainingEnabled,
		CommissionRate:  campaign.CommissionRate,
		Status:          string(campaign.Status),
		ClosureReason:   string(campaign.ClosureReason),
		CreatedAt:       campaign.CreatedAt.UTC().Format(time.RFC3339),
	}
	if campaign.ClosedAt != nil {
		dto.ClosedAt = campaign.ClosedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
