package queries

import (
	"context"
	"log/slog"
	"strings"

	"chainraise/contexts/campaign-funding/campaign-service/domain/entities"
	"chainraise/contexts/campaign-funding/campaign-service/ports"
)

type ListCampaignsQuery struct {
	OwnerID string
	Status  string
}

type ListCampaignsUseCase struct {
	Campaigns ports.CampaignRepository
	Logger    *slog.Logger
}

func (uc ListCampaignsUseCase) Execute(ctx context.Context, query ListCampaignsQuery) ([]entities.Campaign, error) {
	filter := ports.CampaignFilter{
		OwnerID: strings.TrimSpace(query.OwnerID),
		Status:  entities.CampaignStatus(strings.TrimSpace(query.Status)),
	}
	return uc.Campaigns.ListCampaigns(ctx, filter)
}
