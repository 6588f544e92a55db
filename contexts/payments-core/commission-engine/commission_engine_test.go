package commissionengine_test

import (
	"context"
	"errors"
	"testing"

	commissionengine "chainraise/contexts/payments-core/commission-engine"
	"chainraise/contexts/payments-core/commission-engine/application"
	domainerrors "chainraise/contexts/payments-core/commission-engine/domain/errors"
	"chainraise/contexts/payments-core/commission-engine/ports"
	httptransport "chainraise/contexts/payments-core/commission-engine/transport/http"
)

type fakeChaining struct {
	policies map[string]ports.ChainingPolicy
}

func (f fakeChaining) GetChainingPolicy(_ context.Context, campaignID string) (ports.ChainingPolicy, error) {
	policy, ok := f.policies[campaignID]
	if !ok {
		return ports.ChainingPolicy{}, errors.New("campaign not found")
	}
	return policy, nil
}

func chainingEnabled(rate float64) fakeChaining {
	return fakeChaining{policies: map[string]ports.ChainingPolicy{
		"camp-1": {Enabled: true, Rate: rate},
	}}
}

func registerReferrer(t *testing.T, module commissionengine.Module, userID string) httptransport.ReferrerDTO {
	t.Helper()
	resp, err := module.Handler.RegisterReferrerHandler(context.Background(), userID, httptransport.RegisterReferrerRequest{
		CampaignID: "camp-1",
	})
	if err != nil {
		t.Fatalf("register referrer failed: %v", err)
	}
	return resp.Data
}

func TestReferrerRegistrationIsIdempotent(t *testing.T) {
	module := commissionengine.NewInMemoryModule(chainingEnabled(5), nil)

	first := registerReferrer(t, module, "user-1")
	if first.ReferralCode == "" {
		t.Fatalf("expected generated referral code")
	}

	second, err := module.Handler.RegisterReferrerHandler(context.Background(), "user-1", httptransport.RegisterReferrerRequest{
		CampaignID: "camp-1",
	})
	if err != nil {
		t.Fatalf("repeat registration failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replayed registration")
	}
	if second.Data.ReferrerID != first.ReferrerID {
		t.Fatalf("expected same referrer id, got %s and %s", first.ReferrerID, second.Data.ReferrerID)
	}
}

func TestReferrerRegistrationRequiresChaining(t *testing.T) {
	module := commissionengine.NewInMemoryModule(fakeChaining{policies: map[string]ports.ChainingPolicy{
		"camp-1": {Enabled: false},
	}}, nil)

	_, err := module.Handler.RegisterReferrerHandler(context.Background(), "user-1", httptransport.RegisterReferrerRequest{
		CampaignID: "camp-1",
	})
	if !errors.Is(err, domainerrors.ErrChainingDisabled) {
		t.Fatalf("expected chaining disabled, got %v", err)
	}
}

func TestCommissionAccrualAndReplay(t *testing.T) {
	module := commissionengine.NewInMemoryModule(chainingEnabled(5), nil)
	referrer := registerReferrer(t, module, "user-1")

	accrual := application.AccrualInput{
		DonationID: "don-1",
		CampaignID: "camp-1",
		DonorID:    "donor-9",
		ReferrerID: referrer.ReferrerID,
		Amount:     200,
	}
	if err := module.Service.AccrueCommission(context.Background(), accrual); err != nil {
		t.Fatalf("accrue commission failed: %v", err)
	}

	got, err := module.Service.GetReferrer(context.Background(), referrer.ReferrerID)
	if err != nil {
		t.Fatalf("get referrer failed: %v", err)
	}
	if got.TotalRaised != 200 || got.TotalReferrals != 1 {
		t.Fatalf("unexpected totals: raised=%v referrals=%d", got.TotalRaised, got.TotalReferrals)
	}
	if got.CommissionEarned != 10 {
		t.Fatalf("expected 5%% of 200 = 10 earned, got %v", got.CommissionEarned)
	}

	// Same donation again must not double-count.
	if err := module.Service.AccrueCommission(context.Background(), accrual); err != nil {
		t.Fatalf("replay accrual failed: %v", err)
	}
	got, err = module.Service.GetReferrer(context.Background(), referrer.ReferrerID)
	if err != nil {
		t.Fatalf("get referrer failed: %v", err)
	}
	if got.TotalRaised != 200 || got.CommissionEarned != 10 {
		t.Fatalf("replay changed totals: raised=%v earned=%v", got.TotalRaised, got.CommissionEarned)
	}
}

func TestSelfReferralEarnsNoCommission(t *testing.T) {
	module := commissionengine.NewInMemoryModule(chainingEnabled(5), nil)
	referrer := registerReferrer(t, module, "user-1")

	if err := module.Service.AccrueCommission(context.Background(), application.AccrualInput{
		DonationID: "don-self",
		CampaignID: "camp-1",
		DonorID:    "user-1",
		ReferrerID: referrer.ReferrerID,
		Amount:     100,
	}); err != nil {
		t.Fatalf("self referral accrual failed: %v", err)
	}

	got, err := module.Service.GetReferrer(context.Background(), referrer.ReferrerID)
	if err != nil {
		t.Fatalf("get referrer failed: %v", err)
	}
	if got.TotalRaised != 100 || got.TotalReferrals != 1 {
		t.Fatalf("expected totals to count self referral, got raised=%v referrals=%d", got.TotalRaised, got.TotalReferrals)
	}
	if got.CommissionEarned != 0 {
		t.Fatalf("expected zero commission on self referral, got %v", got.CommissionEarned)
	}
}

func TestUnpaidCommissionTotalAndSettlement(t *testing.T) {
	module := commissionengine.NewInMemoryModule(chainingEnabled(5), nil)
	referrer := registerReferrer(t, module, "user-1")

	for i, amount := range []float64{100, 300} {
		if err := module.Service.AccrueCommission(context.Background(), application.AccrualInput{
			DonationID: []string{"don-a", "don-b"}[i],
			CampaignID: "camp-1",
			DonorID:    "donor-9",
			ReferrerID: referrer.ReferrerID,
			Amount:     amount,
		}); err != nil {
			t.Fatalf("accrue commission failed: %v", err)
		}
	}

	total, err := module.Service.UnpaidCommissionTotal(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("unpaid total failed: %v", err)
	}
	if total != 20 {
		t.Fatalf("expected 20 unpaid commission, got %v", total)
	}

	if err := module.Service.MarkReferrerCommissionsPaid(context.Background(), referrer.ReferrerID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	total, err = module.Service.UnpaidCommissionTotal(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("unpaid total after settlement failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no unpaid commission after settlement, got %v", total)
	}
	got, err := module.Service.GetReferrer(context.Background(), referrer.ReferrerID)
	if err != nil {
		t.Fatalf("get referrer failed: %v", err)
	}
	if !got.CommissionPaid {
		t.Fatalf("expected commission paid flag set")
	}
}

func TestUnpaidReferrerTotalExcludesSettledAccruals(t *testing.T) {
	module := commissionengine.NewInMemoryModule(chainingEnabled(10), nil)
	referrer := registerReferrer(t, module, "user-1")

	if err := module.Service.AccrueCommission(context.Background(), application.AccrualInput{
		DonationID: "don-1",
		CampaignID: "camp-1",
		DonorID:    "donor-9",
		ReferrerID: referrer.ReferrerID,
		Amount:     100,
	}); err != nil {
		t.Fatalf("accrue commission failed: %v", err)
	}
	total, err := module.Service.UnpaidReferrerCommissionTotal(context.Background(), referrer.ReferrerID)
	if err != nil {
		t.Fatalf("unpaid referrer total failed: %v", err)
	}
	if total != 10 {
		t.Fatalf("expected 10 unpaid, got %v", total)
	}

	if err := module.Service.MarkReferrerCommissionsPaid(context.Background(), referrer.ReferrerID); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	if err := module.Service.AccrueCommission(context.Background(), application.AccrualInput{
		DonationID: "don-2",
		CampaignID: "camp-1",
		DonorID:    "donor-9",
		ReferrerID: referrer.ReferrerID,
		Amount:     50,
	}); err != nil {
		t.Fatalf("second accrual failed: %v", err)
	}

	// Only the post-settlement accrual is payable; the lifetime earned
	// total keeps counting both.
	total, err = module.Service.UnpaidReferrerCommissionTotal(context.Background(), referrer.ReferrerID)
	if err != nil {
		t.Fatalf("unpaid referrer total failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected 5 unpaid after settlement, got %v", total)
	}
	got, err := module.Service.GetReferrer(context.Background(), referrer.ReferrerID)
	if err != nil {
		t.Fatalf("get referrer failed: %v", err)
	}
	if got.CommissionEarned != 15 {
		t.Fatalf("expected lifetime earned 15, got %v", got.CommissionEarned)
	}
}

func TestLeaderboardOrdersByTotalRaised(t *testing.T) {
	module := commissionengine.NewInMemoryModule(chainingEnabled(5), nil)
	low := registerReferrer(t, module, "user-low")
	high := registerReferrer(t, module, "user-high")

	accrue := func(donationID string, referrerID string, amount float64) {
		t.Helper()
		if err := module.Service.AccrueCommission(context.Background(), application.AccrualInput{
			DonationID: donationID,
			CampaignID: "camp-1",
			DonorID:    "donor-9",
			ReferrerID: referrerID,
			Amount:     amount,
		}); err != nil {
			t.Fatalf("accrue commission failed: %v", err)
		}
	}
	accrue("don-low", low.ReferrerID, 50)
	accrue("don-high", high.ReferrerID, 400)

	board, err := module.Handler.LeaderboardHandler(context.Background(), "camp-1", 10)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(board.Data) != 2 {
		t.Fatalf("expected two referrers, got %d", len(board.Data))
	}
	if board.Data[0].ReferrerID != high.ReferrerID {
		t.Fatalf("expected highest raiser first, got %s", board.Data[0].ReferrerID)
	}
}
