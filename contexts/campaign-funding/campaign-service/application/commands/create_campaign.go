package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "chainraise/contexts/campaign-funding/campaign-service/application"
	"chainraise/contexts/campaign-funding/campaign-service/domain/entities"
	domainerrors "chainraise/contexts/campaign-funding/campaign-service/domain/errors"
	"chainraise/contexts/campaign-funding/campaign-service/ports"
)

type CreateCampaignCommand struct {
	OwnerID           string
	IdempotencyKey    string
	Title             string
	Description       string
	GoalAmount        float64
	Currency          string
	ChainingEnabled   bool
	CommissionRate    float64
	PayoutProvider    string
	SettlementAccount string
}

type CreateCampaignUseCase struct {
	Campaigns      ports.CampaignRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

type CreateCampaignResult struct {
	Campaign entities.Campaign
	Replayed bool
}

func (uc CreateCampaignUseCase) Execute(ctx context.Context, cmd CreateCampaignCommand) (CreateCampaignResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return CreateCampaignResult{}, domainerrors.ErrIdempotencyKeyRequired
	}

	now := uc.Clock.Now().UTC()
	requestHash := hashCreateCampaignCommand(cmd)
	if record, found, err := uc.Idempotency.GetRecord(ctx, cmd.IdempotencyKey, now); err != nil {
		return CreateCampaignResult{}, err
	} else if found {
		if record.RequestHash != requestHash {
			return CreateCampaignResult{}, domainerrors.ErrIdempotencyKeyConflict
		}
		var replayed entities.Campaign
		if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
			return CreateCampaignResult{}, err
		}
		return CreateCampaignResult{Campaign: replayed, Replayed: true}, nil
	}

	campaignID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return CreateCampaignResult{}, err
	}

	campaign := entities.Campaign{
		CampaignID:        campaignID,
		OwnerID:           strings.TrimSpace(cmd.OwnerID),
		Title:             strings.TrimSpace(cmd.Title),
		Description:       strings.TrimSpace(cmd.Description),
		GoalAmount:        cmd.GoalAmount,
		Currency:          strings.ToUpper(strings.TrimSpace(cmd.Currency)),
		CurrentAmount:     0,
		ChainingEnabled:   cmd.ChainingEnabled,
		CommissionRate:    cmd.CommissionRate,
		PayoutProvider:    strings.ToLower(strings.TrimSpace(cmd.PayoutProvider)),
		SettlementAccount: strings.TrimSpace(cmd.SettlementAccount),
		Status:            entities.CampaignStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if !campaign.ChainingEnabled {
		campaign.CommissionRate = 0
	}
	if !campaign.ValidateBasics() {
		return CreateCampaignResult{}, domainerrors.ErrInvalidCampaignInput
	}
	if !entities.ValidCommissionRate(campaign.ChainingEnabled, campaign.CommissionRate) {
		return CreateCampaignResult{}, domainerrors.ErrInvalidCommissionRate
	}

	if err := uc.Campaigns.CreateCampaign(ctx, campaign); err != nil {
		return CreateCampaignResult{}, err
	}

	serialized, err := json.Marshal(campaign)
	if err != nil {
		return CreateCampaignResult{}, err
	}
	if err := uc.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             cmd.IdempotencyKey,
		RequestHash:     requestHash,
		ResponsePayload: serialized,
		ExpiresAt:       now.Add(uc.IdempotencyTTL),
	}); err != nil {
		return CreateCampaignResult{}, err
	}
	if uc.Outbox != nil {
		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return CreateCampaignResult{}, err
		}
		envelope, err := newCampaignEnvelope(
			eventID,
			"campaign.created",
			campaign.CampaignID,
			now,
			map[string]any{
				"campaign_id": campaign.CampaignID,
				"owner_id":    campaign.OwnerID,
				"goal_amount": campaign.GoalAmount,
				"currency":    campaign.Currency,
			},
		)
		if err != nil {
			return CreateCampaignResult{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return CreateCampaignResult{}, err
		}
	}

	logger.Info("campaign created",
		"event", "campaign_created",
		"module", "campaign-funding/campaign-service",
		"layer", "application",
		"campaign_id", campaign.CampaignID,
		"owner_id", campaign.OwnerID,
	)
	return CreateCampaignResult{Campaign: campaign}, nil
}

func hashCreateCampaignCommand(cmd CreateCampaignCommand) string {
	payload := map[string]any{
		"owner_id":           strings.TrimSpace(cmd.OwnerID),
		"title":              strings.TrimSpace(cmd.Title),
		"description":        strings.TrimSpace(cmd.Description),
		"goal_amount":        cmd.GoalAmount,
		"currency":           strings.ToUpper(strings.TrimSpace(cmd.Currency)),
		"chaining_enabled":   cmd.ChainingEnabled,
		"commission_rate":    cmd.CommissionRate,
		"payout_provider":    strings.ToLower(strings.TrimSpace(cmd.PayoutProvider)),
		"settlement_account": strings.TrimSpace(cmd.SettlementAccount),
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
