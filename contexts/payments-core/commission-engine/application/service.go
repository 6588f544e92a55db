package application

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"chainraise/contexts/payments-core/commission-engine/domain/entities"
	domainerrors "chainraise/contexts/payments-core/commission-engine/domain/errors"
	"chainraise/contexts/payments-core/commission-engine/ports"
)

type Service struct {
	Referrers ports.ReferrerRepository
	Records   ports.CommissionRecordRepository
	Campaigns ports.CampaignChainingGateway
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

type RegisterReferrerInput struct {
	UserID       string
	CampaignID   string
	ReferralCode string
}

// RegisterReferrer enrolls a user as a chaining participant for one
// campaign. Registration is idempotent per user and campaign; repeating
// it returns the existing referrer.
func (s Service) RegisterReferrer(ctx context.Context, input RegisterReferrerInput) (entities.Referrer, bool, error) {
	logger := resolveLogger(s.Logger)

	userID := strings.TrimSpace(input.UserID)
	campaignID := strings.TrimSpace(input.CampaignID)
	if userID == "" || campaignID == "" {
		return entities.Referrer{}, false, domainerrors.ErrInvalidReferrerInput
	}

	policy, err := s.Campaigns.GetChainingPolicy(ctx, campaignID)
	if err != nil {
		return entities.Referrer{}, false, err
	}
	if !policy.Enabled {
		return entities.Referrer{}, false, domainerrors.ErrChainingDisabled
	}

	existing, found, err := s.Referrers.FindByUserAndCampaign(ctx, userID, campaignID)
	if err != nil {
		return entities.Referrer{}, false, err
	}
	if found {
		return existing, true, nil
	}

	referrerID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Referrer{}, false, err
	}
	now := s.now()

	code := strings.TrimSpace(input.ReferralCode)
	if code == "" {
		code = referralCode(referrerID)
	}

	referrer := entities.Referrer{
		ReferrerID:   referrerID,
		UserID:       userID,
		CampaignID:   campaignID,
		ReferralCode: code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Referrers.CreateReferrer(ctx, referrer); err != nil {
		return entities.Referrer{}, false, err
	}

	logger.Info("referrer registered",
		"event", "referrer_registered",
		"module", "payments-core/commission-engine",
		"layer", "application",
		"referrer_id", referrer.ReferrerID,
		"campaign_id", campaignID,
	)
	return referrer, false, nil
}

type AccrualInput struct {
	DonationID string
	CampaignID string
	DonorID    string
	ReferrerID string
	Amount     float64
}

// AccrueCommission credits a completed referred donation to the referring
// participant. A donation where the donor is the referrer's own user
// raises totals but never earns commission, and an already-accrued
// donation is a no-op.
func (s Service) AccrueCommission(ctx context.Context, input AccrualInput) error {
	logger := resolveLogger(s.Logger)

	referrer, err := s.Referrers.GetReferrer(ctx, strings.TrimSpace(input.ReferrerID))
	if err != nil {
		return err
	}

	if _, found, err := s.Records.FindByDonation(ctx, strings.TrimSpace(input.DonationID)); err != nil {
		return err
	} else if found {
		logger.Info("commission already accrued",
			"event", "commission_accrual_replayed",
			"module", "payments-core/commission-engine",
			"layer", "application",
			"donation_id", input.DonationID,
		)
		return nil
	}

	policy, err := s.Campaigns.GetChainingPolicy(ctx, strings.TrimSpace(input.CampaignID))
	if err != nil {
		return err
	}

	now := s.now()
	selfReferral := strings.TrimSpace(input.DonorID) == referrer.UserID

	commission := 0.0
	if policy.Enabled && !selfReferral {
		commission = entities.ComputeCommission(input.Amount, policy.Rate)
	}

	recordID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	if err := s.Records.CreateRecord(ctx, entities.CommissionRecord{
		RecordID:       recordID,
		DonationID:     strings.TrimSpace(input.DonationID),
		CampaignID:     strings.TrimSpace(input.CampaignID),
		ReferrerID:     referrer.ReferrerID,
		DonationAmount: input.Amount,
		Rate:           policy.Rate,
		Amount:         commission,
		CreatedAt:      now,
	}); err != nil {
		return err
	}

	referrer.TotalRaised = round2(referrer.TotalRaised + input.Amount)
	referrer.TotalReferrals++
	referrer.CommissionEarned = round2(referrer.CommissionEarned + commission)
	if commission > 0 {
		referrer.CommissionPaid = false
	}
	referrer.UpdatedAt = now
	if err := s.Referrers.UpdateReferrer(ctx, referrer); err != nil {
		return err
	}

	if selfReferral {
		logger.Info("self-referral accrued without commission",
			"event", "commission_self_referral_skipped",
			"module", "payments-core/commission-engine",
			"layer", "application",
			"donation_id", input.DonationID,
			"referrer_id", referrer.ReferrerID,
		)
		return nil
	}

	logger.Info("commission accrued",
		"event", "commission_accrued",
		"module", "payments-core/commission-engine",
		"layer", "application",
		"donation_id", input.DonationID,
		"referrer_id", referrer.ReferrerID,
		"commission", commission,
	)
	return nil
}

func (s Service) GetReferrer(ctx context.Context, referrerID string) (entities.Referrer, error) {
	if strings.TrimSpace(referrerID) == "" {
		return entities.Referrer{}, domainerrors.ErrInvalidReferrerInput
	}
	return s.Referrers.GetReferrer(ctx, strings.TrimSpace(referrerID))
}

// Leaderboard lists a campaign's referrers ordered by total raised.
func (s Service) Leaderboard(ctx context.Context, campaignID string, limit int) ([]entities.Referrer, error) {
	if strings.TrimSpace(campaignID) == "" {
		return nil, domainerrors.ErrInvalidReferrerInput
	}
	if limit <= 0 {
		limit = 20
	}
	return s.Referrers.ListByCampaign(ctx, strings.TrimSpace(campaignID), limit)
}

// UnpaidCommissionTotal sums accrued, not-yet-paid commissions for a
// campaign. Payout settlement math deducts this from the owner's net.
func (s Service) UnpaidCommissionTotal(ctx context.Context, campaignID string) (float64, error) {
	records, err := s.Records.ListUnpaidByCampaign(ctx, strings.TrimSpace(campaignID))
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, record := range records {
		total += record.Amount
	}
	return round2(total), nil
}

// UnpaidReferrerCommissionTotal sums one referrer's accrued, not-yet-paid
// commissions. Commission payouts draw on this, never on the lifetime
// earned total, so settled accruals are not paid twice.
func (s Service) UnpaidReferrerCommissionTotal(ctx context.Context, referrerID string) (float64, error) {
	records, err := s.Records.ListUnpaidByReferrer(ctx, strings.TrimSpace(referrerID))
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, record := range records {
		total += record.Amount
	}
	return round2(total), nil
}

// MarkCampaignCommissionsPaid flags every unpaid accrual for the campaign
// as settled. Called when a campaign payout completes.
func (s Service) MarkCampaignCommissionsPaid(ctx context.Context, campaignID string) error {
	return s.Records.MarkPaidByCampaign(ctx, strings.TrimSpace(campaignID), s.now())
}

// MarkReferrerCommissionsPaid settles one referrer's accruals and flips
// the commission-paid flag. Called when a commission payout completes.
func (s Service) MarkReferrerCommissionsPaid(ctx context.Context, referrerID string) error {
	referrer, err := s.Referrers.GetReferrer(ctx, strings.TrimSpace(referrerID))
	if err != nil {
		return err
	}
	now := s.now()
	if err := s.Records.MarkPaidByReferrer(ctx, referrer.ReferrerID, now); err != nil {
		return err
	}
	referrer.CommissionPaid = true
	referrer.UpdatedAt = now
	return s.Referrers.UpdateReferrer(ctx, referrer)
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func referralCode(referrerID string) string {
	compact := strings.ReplaceAll(referrerID, "-", "")
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "ch-" + compact
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
