package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"chainraise/contexts/payments-core/commission-engine/application"
	"chainraise/contexts/payments-core/commission-engine/domain/entities"
	httptransport "chainraise/contexts/payments-core/commission-engine/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterReferrerHandler(
	ctx context.Context,
	userID string,
	req httptransport.RegisterReferrerRequest,
) (httptransport.RegisterReferrerResponse, error) {
	referrer, replayed, err := h.Service.RegisterReferrer(ctx, application.RegisterReferrerInput{
		UserID:       userID,
		CampaignID:   req.CampaignID,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		return httptransport.RegisterReferrerResponse{}, err
	}
	return httptransport.RegisterReferrerResponse{
		Status:   "success",
		Replayed: replayed,
		Data:     toDTO(referrer),
	}, nil
}

func (h Handler) GetReferrerHandler(ctx context.Context, referrerID string) (httptransport.GetReferrerResponse, error) {
	referrer, err := h.Service.GetReferrer(ctx, referrerID)
	if err != nil {
		return httptransport.GetReferrerResponse{}, err
	}
	return httptransport.GetReferrerResponse{Status: "success", Data: toDTO(referrer)}, nil
}

func (h Handler) LeaderboardHandler(ctx context.Context, campaignID string, limit int) (httptransport.LeaderboardResponse, error) {
	items, err := h.Service.Leaderboard(ctx, campaignID, limit)
	if err != nil {
		return httptransport.LeaderboardResponse{}, err
	}
	data := make([]httptransport.ReferrerDTO, 0, len(items))
	for _, referrer := range items {
		data = append(data, toDTO(referrer))
	}
	return httptransport.LeaderboardResponse{Status: "success", Data: data}, nil
}

func toDTO(referrer entities.Referrer) httptransport.ReferrerDTO {
	return httptransport.ReferrerDTO{
		ReferrerID:       referrer.ReferrerID,
		UserID:           referrer.UserID,
		CampaignID:       referrer.CampaignID,
		ReferralCode:     referrer.ReferralCode,
		TotalRaised:      referrer.TotalRaised,
		TotalReferrals:   referrer.TotalReferrals,
		CommissionEarned: referrer.CommissionEarned,
		CommissionPaid:   referrer.CommissionPaid,
		CreatedAt:        referrer.CreatedAt.UTC().Format(time.RFC3339),
	}
}
