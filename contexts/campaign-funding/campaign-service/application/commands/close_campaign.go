package commands

import (
	"context"
	"log/slog"
	"strings"

	application "chainraise/contexts/campaign-funding/campaign-service/application"
	"chainraise/contexts/campaign-funding/campaign-service/domain/entities"
	domainerrors "chainraise/contexts/campaign-funding/campaign-service/domain/errors"
	"chainraise/contexts/campaign-funding/campaign-service/ports"
)

type CloseCampaignCommand struct {
	CampaignID string
	ActorID    string
	Reason     entities.ClosureReason
}

type CloseCampaignUseCase struct {
	Campaigns ports.CampaignRepository
	History   ports.HistoryRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// Execute closes a campaign. Closure is one-way: a closed campaign is
// never reopened, whatever the reason.
func (uc CloseCampaignUseCase) Execute(ctx context.Context, cmd CloseCampaignCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	campaign, err := uc.Campaigns.GetCampaign(ctx, strings.TrimSpace(cmd.CampaignID))
	if err != nil {
		return err
	}
	if campaign.Status == entities.CampaignStatusClosed {
		return domainerrors.ErrCampaignClosed
	}
	switch cmd.Reason {
	case entities.ClosureReasonGoalReached, entities.ClosureReasonManual, entities.ClosureReasonExpired:
	default:
		return domainerrors.ErrInvalidCampaignInput
	}

	now := uc.Clock.Now().UTC()
	from := campaign.Status
	campaign.Status = entities.CampaignStatusClosed
	campaign.ClosureReason = cmd.Reason
	campaign.ClosedAt = &now
	campaign.UpdatedAt = now

	if err := uc.Campaigns.UpdateCampaign(ctx, campaign); err != nil {
		return err
	}

	actor := strings.TrimSpace(cmd.ActorID)
	if actor == "" {
		actor = "system"
	}
	historyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if err := uc.History.AppendState(ctx, entities.StateHistory{
		HistoryID:  historyID,
		CampaignID: campaign.CampaignID,
		FromStatus: from,
		ToStatus:   campaign.Status,
		Reason:     cmd.Reason,
		ChangedBy:  actor,
		CreatedAt:  now,
	}); err != nil {
		return err
	}

	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		envelope, err := newCampaignEnvelope(
			eventID,
			"campaign.closed",
			campaign.CampaignID,
			now,
			map[string]any{
				"campaign_id":    campaign.CampaignID,
				"owner_id":       campaign.OwnerID,
				"closure_reason": string(cmd.Reason),
				"current_amount": campaign.CurrentAmount,
			},
		)
		if err != nil {
			return err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return err
		}
	}

	logger.Info("campaign closed",
		"event", "campaign_closed",
		"module", "campaign-funding/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"closure_reason", string(cmd.Reason),
	)
	return nil
}
