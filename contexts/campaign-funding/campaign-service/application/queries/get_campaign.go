package queries

import (
	"context"
	"log/slog"
	"strings"

	"chainraise/contexts/campaign-funding/campaign-service/domain/entities"
	domainerrors "chainraise/contexts/campaign-funding/campaign-service/domain/errors"
	"chainraise/contexts/campaign-funding/campaign-service/ports"
)

type GetCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc GetCampaignUseCase) Execute(ctx context.Context, campaignID string) (entities.Campaign, error) {
	if strings.TrimSpace(campaignID) == "" {
		return entities.Campaign{}, domainerrors.ErrInvalidCampaignInput
	}
	return uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(campaignID))
}
