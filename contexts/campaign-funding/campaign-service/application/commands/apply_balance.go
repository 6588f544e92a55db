package commands

import (
	"context"
	"log/slog"
	"strings"

	application "chainraise/contexts/campaign-funding/campaign-service/application"
	"chainraise/contexts/campaign-funding/campaign-service/domain/entities"
	"chainraise/contexts/campaign-funding/campaign-service/ports"
)

type ApplyBalanceCommand struct {
	CampaignID    string
	CurrentAmount float64
}

// ApplyBalanceUseCase is the ledger-facing write path for the derived
// campaign balance. It also evaluates goal-reached auto-closure, which is
// why the balance aggregator must never update campaign rows directly.
type ApplyBalanceUseCase struct {
	Campaigns ports.CampaignRepository
	Close     CloseCampaignUseCase
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (uc ApplyBalanceUseCase) Execute(ctx context.Context, cmd ApplyBalanceCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return err
	}

	now := uc.Clock.Now().UTC()
	campaign.CurrentAmount = cmd.CurrentAmount
	campaign.UpdatedAt = now
	if err := uc.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
		return err
	}

	logger.Info("campaign balance applied",
		"event", "campaign_balance_applied",
		"module", "campaign-funding/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"current_amount", campaign.CurrentAmount,
	)

	if campaign.Status == entities.CampaignStatusActive && campaign.GoalReached() {
		return uc.Close.Execute(ctx, CloseCampaignCommand{
			CampaignID: campaign.CampaignID,
			ActorID:    "system",
			Reason:     entities.ClosureReasonGoalReached,
		})
	}
	return nil
}
