package payoutorchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	payoutorchestrator "chainraise/contexts/payout-operations/payout-orchestrator"
	"chainraise/contexts/payout-operations/payout-orchestrator/domain/entities"
	domainerrors "chainraise/contexts/payout-operations/payout-orchestrator/domain/errors"
	"chainraise/contexts/payout-operations/payout-orchestrator/ports"
	httptransport "chainraise/contexts/payout-operations/payout-orchestrator/transport/http"
)

type fakeSettlement struct {
	accept    bool
	reason    string
	fees      ports.ProviderFees
	transfers int
}

func (f *fakeSettlement) InitiateTransfer(_ context.Context, _ string, _ string, _ float64, _ string, _ string) (ports.TransferOutcome, error) {
	f.transfers++
	if !f.accept {
		return ports.TransferOutcome{Accepted: false, Reason: f.reason}, nil
	}
	return ports.TransferOutcome{
		Reference: fmt.Sprintf("txn-%d", f.transfers),
		Accepted:  true,
	}, nil
}

func (f *fakeSettlement) Fees(string) (ports.ProviderFees, error) {
	return f.fees, nil
}

type fakeFinance struct {
	finance map[string]ports.CampaignFinance
}

func (f fakeFinance) GetFinance(_ context.Context, campaignID string) (ports.CampaignFinance, error) {
	finance, ok := f.finance[campaignID]
	if !ok {
		return ports.CampaignFinance{}, errors.New("campaign not found")
	}
	return finance, nil
}

type fakeCommissionLedger struct {
	standing        map[string]ports.ReferrerStanding
	unpaid          float64
	referrerUnpaid  map[string]float64
	campaignSettled []string
	referrerSettled []string
}

func (f *fakeCommissionLedger) GetReferrerStanding(_ context.Context, referrerID string) (ports.ReferrerStanding, error) {
	standing, ok := f.standing[referrerID]
	if !ok {
		return ports.ReferrerStanding{}, errors.New("referrer not found")
	}
	return standing, nil
}

func (f *fakeCommissionLedger) UnpaidCommissionTotal(_ context.Context, _ string) (float64, error) {
	return f.unpaid, nil
}

func (f *fakeCommissionLedger) UnpaidReferrerCommissionTotal(_ context.Context, referrerID string) (float64, error) {
	return f.referrerUnpaid[referrerID], nil
}

func (f *fakeCommissionLedger) MarkCampaignCommissionsPaid(_ context.Context, campaignID string) error {
	f.campaignSettled = append(f.campaignSettled, campaignID)
	return nil
}

func (f *fakeCommissionLedger) MarkReferrerCommissionsPaid(_ context.Context, referrerID string) error {
	f.referrerSettled = append(f.referrerSettled, referrerID)
	if f.referrerUnpaid != nil {
		f.referrerUnpaid[referrerID] = 0
	}
	return nil
}

func referrerLedger(unpaid float64) *fakeCommissionLedger {
	return &fakeCommissionLedger{
		standing: map[string]ports.ReferrerStanding{
			"referrer-1": {ReferrerID: "referrer-1", UserID: "user-1", CampaignID: "camp-1"},
		},
		referrerUnpaid: map[string]float64{"referrer-1": unpaid},
	}
}

func campaignFinance(amount float64) fakeFinance {
	return fakeFinance{finance: map[string]ports.CampaignFinance{
		"camp-1": {
			CampaignID:        "camp-1",
			OwnerID:           "owner-1",
			Currency:          "USD",
			CurrentAmount:     amount,
			PayoutProvider:    "paystack",
			SettlementAccount: "0123456789",
		},
	}}
}

func newPayoutModule(settlement *fakeSettlement, commissions *fakeCommissionLedger, amount float64) payoutorchestrator.Module {
	if commissions == nil {
		commissions = &fakeCommissionLedger{}
	}
	return payoutorchestrator.NewInMemoryModule(settlement, campaignFinance(amount), commissions, 5, nil)
}

func requestCampaignPayout(t *testing.T, module payoutorchestrator.Module) httptransport.PayoutDTO {
	t.Helper()
	resp, err := module.Handler.RequestCampaignPayoutHandler(context.Background(), "owner-1", httptransport.RequestCampaignPayoutRequest{
		CampaignID: "camp-1",
	})
	if err != nil {
		t.Fatalf("request campaign payout failed: %v", err)
	}
	return resp.Data
}

func adminAction(t *testing.T, module payoutorchestrator.Module, payoutID string, action string, req httptransport.PayoutActionRequest) httptransport.PayoutDTO {
	t.Helper()
	resp, err := module.Handler.AdminActionHandler(context.Background(), payoutID, action, "admin-1", req)
	if err != nil {
		t.Fatalf("admin %s failed: %v", action, err)
	}
	return resp.Data
}

func TestCampaignPayoutApproveSettles(t *testing.T) {
	settlement := &fakeSettlement{accept: true, fees: ports.ProviderFees{FixedFee: 10, RebatePercent: 1}}
	commissions := &fakeCommissionLedger{unpaid: 40}
	module := newPayoutModule(settlement, commissions, 1000)

	payout := requestCampaignPayout(t, module)
	if payout.Status != "pending" {
		t.Fatalf("expected pending payout, got %s", payout.Status)
	}
	if payout.Amount != 1000 {
		t.Fatalf("expected requested amount 1000, got %v", payout.Amount)
	}

	approved := adminAction(t, module, payout.PayoutID, "approve", httptransport.PayoutActionRequest{})
	if approved.Status != "processing" {
		t.Fatalf("expected processing after approval, got %s", approved.Status)
	}
	if approved.TransactionReference == "" {
		t.Fatalf("expected a transaction reference after settlement")
	}
	// platform 5% less 1% rebate on 1000 = 40, minus 40 commissions and 10 fixed.
	if approved.PlatformFee != 40 {
		t.Fatalf("expected platform fee 40, got %v", approved.PlatformFee)
	}
	if approved.NetAmount != 910 {
		t.Fatalf("expected net 910, got %v", approved.NetAmount)
	}
	if settlement.transfers != 1 {
		t.Fatalf("expected one transfer call, got %d", settlement.transfers)
	}
}

func TestCampaignPayoutRejectedTransferFails(t *testing.T) {
	settlement := &fakeSettlement{accept: false, reason: "insufficient balance"}
	module := newPayoutModule(settlement, nil, 500)

	payout := requestCampaignPayout(t, module)
	failed := adminAction(t, module, payout.PayoutID, "approve", httptransport.PayoutActionRequest{})
	if failed.Status != "failed" {
		t.Fatalf("expected failed payout, got %s", failed.Status)
	}
	if failed.StatusReason != "insufficient balance" {
		t.Fatalf("expected provider reason recorded, got %q", failed.StatusReason)
	}
}

func TestCampaignPayoutZeroNetFails(t *testing.T) {
	settlement := &fakeSettlement{accept: true, fees: ports.ProviderFees{FixedFee: 10}}
	commissions := &fakeCommissionLedger{unpaid: 95}
	module := newPayoutModule(settlement, commissions, 100)

	payout := requestCampaignPayout(t, module)
	failed := adminAction(t, module, payout.PayoutID, "approve", httptransport.PayoutActionRequest{})
	if failed.Status != "failed" {
		t.Fatalf("expected failed payout when fees exceed balance, got %s", failed.Status)
	}
	if settlement.transfers != 0 {
		t.Fatalf("expected no transfer for zero net, got %d", settlement.transfers)
	}
}

func TestPayoutRequestRequiresBalance(t *testing.T) {
	module := newPayoutModule(&fakeSettlement{accept: true}, nil, 0)

	_, err := module.Handler.RequestCampaignPayoutHandler(context.Background(), "owner-1", httptransport.RequestCampaignPayoutRequest{
		CampaignID: "camp-1",
	})
	if !errors.Is(err, domainerrors.ErrNothingToPayOut) {
		t.Fatalf("expected nothing to pay out, got %v", err)
	}
}

func TestPayoutRejectRequiresReason(t *testing.T) {
	module := newPayoutModule(&fakeSettlement{accept: true}, nil, 500)
	payout := requestCampaignPayout(t, module)

	_, err := module.Handler.AdminActionHandler(context.Background(), payout.PayoutID, "reject", "admin-1", httptransport.PayoutActionRequest{})
	if !errors.Is(err, domainerrors.ErrReasonRequired) {
		t.Fatalf("expected reason required, got %v", err)
	}

	rejected := adminAction(t, module, payout.PayoutID, "reject", httptransport.PayoutActionRequest{Reason: "fraud review"})
	if rejected.Status != "rejected" {
		t.Fatalf("expected rejected payout, got %s", rejected.Status)
	}

	_, err = module.Handler.AdminActionHandler(context.Background(), payout.PayoutID, "approve", "admin-1", httptransport.PayoutActionRequest{})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition from rejected, got %v", err)
	}
}

func TestPayoutCompleteRequiresTransactionReference(t *testing.T) {
	settlement := &fakeSettlement{accept: false, reason: "network error"}
	module := newPayoutModule(settlement, nil, 500)

	payout := requestCampaignPayout(t, module)
	failed := adminAction(t, module, payout.PayoutID, "approve", httptransport.PayoutActionRequest{})
	if failed.Status != "failed" {
		t.Fatalf("expected failed payout, got %s", failed.Status)
	}

	_, err := module.Handler.AdminActionHandler(context.Background(), payout.PayoutID, "complete", "admin-1", httptransport.PayoutActionRequest{})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition completing a failed payout, got %v", err)
	}
}

func TestPayoutRetryAfterFailure(t *testing.T) {
	settlement := &fakeSettlement{accept: false, reason: "provider down"}
	module := newPayoutModule(settlement, nil, 500)

	payout := requestCampaignPayout(t, module)
	failed := adminAction(t, module, payout.PayoutID, "approve", httptransport.PayoutActionRequest{})
	if failed.Status != "failed" {
		t.Fatalf("expected failed payout, got %s", failed.Status)
	}

	settlement.accept = true
	retried := adminAction(t, module, payout.PayoutID, "retry", httptransport.PayoutActionRequest{})
	if retried.Status != "processing" {
		t.Fatalf("expected processing after retry, got %s", retried.Status)
	}
	if retried.StatusReason != "" {
		t.Fatalf("expected failure reason cleared on retry, got %q", retried.StatusReason)
	}
	if retried.TransactionReference == "" {
		t.Fatalf("expected fresh transaction reference after retry")
	}
}

func TestCompletedPayoutWithReferenceCannotBeReapproved(t *testing.T) {
	settlement := &fakeSettlement{accept: true}
	module := newPayoutModule(settlement, nil, 500)

	payout := requestCampaignPayout(t, module)
	processing := adminAction(t, module, payout.PayoutID, "approve", httptransport.PayoutActionRequest{})
	completed := adminAction(t, module, processing.PayoutID, "complete", httptransport.PayoutActionRequest{})
	if completed.Status != "completed" {
		t.Fatalf("expected completed payout, got %s", completed.Status)
	}

	_, err := module.Handler.AdminActionHandler(context.Background(), payout.PayoutID, "approve", "admin-1", httptransport.PayoutActionRequest{})
	if !errors.Is(err, domainerrors.ErrTransactionRefPresent) {
		t.Fatalf("expected transaction reference guard, got %v", err)
	}
	_, err = module.Handler.AdminActionHandler(context.Background(), payout.PayoutID, "retry", "admin-1", httptransport.PayoutActionRequest{})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected retry rejected with reference present, got %v", err)
	}
}

func TestCampaignPayoutCompletionSettlesCommissions(t *testing.T) {
	settlement := &fakeSettlement{accept: true}
	commissions := &fakeCommissionLedger{}
	module := newPayoutModule(settlement, commissions, 500)

	payout := requestCampaignPayout(t, module)
	adminAction(t, module, payout.PayoutID, "approve", httptransport.PayoutActionRequest{})
	adminAction(t, module, payout.PayoutID, "complete", httptransport.PayoutActionRequest{})

	if len(commissions.campaignSettled) != 1 || commissions.campaignSettled[0] != "camp-1" {
		t.Fatalf("expected campaign commissions marked paid, got %v", commissions.campaignSettled)
	}
}

func TestCommissionPayoutWithdraw(t *testing.T) {
	settlement := &fakeSettlement{accept: true}
	commissions := referrerLedger(75)
	module := newPayoutModule(settlement, commissions, 500)

	resp, err := module.Handler.RequestCommissionPayoutHandler(context.Background(), "user-1", httptransport.RequestCommissionPayoutRequest{
		ReferrerID:         "referrer-1",
		Destination:        "withdraw",
		Provider:           "paystack",
		DestinationAccount: "9876543210",
	})
	if err != nil {
		t.Fatalf("request commission payout failed: %v", err)
	}
	if resp.Data.Amount != 75 {
		t.Fatalf("expected unpaid amount 75, got %v", resp.Data.Amount)
	}

	processing := adminAction(t, module, resp.Data.PayoutID, "approve", httptransport.PayoutActionRequest{})
	if processing.Status != "processing" {
		t.Fatalf("expected processing commission payout, got %s", processing.Status)
	}
	if processing.NetAmount != 75 {
		t.Fatalf("expected commission net to equal accrued amount, got %v", processing.NetAmount)
	}

	completed := adminAction(t, module, resp.Data.PayoutID, "complete", httptransport.PayoutActionRequest{})
	if completed.Status != "completed" {
		t.Fatalf("expected completed payout, got %s", completed.Status)
	}
	if len(commissions.referrerSettled) != 1 || commissions.referrerSettled[0] != "referrer-1" {
		t.Fatalf("expected referrer commissions marked paid, got %v", commissions.referrerSettled)
	}
}

func TestCommissionPayoutWithdrawRequiresAccount(t *testing.T) {
	commissions := referrerLedger(75)
	module := newPayoutModule(&fakeSettlement{accept: true}, commissions, 500)

	_, err := module.Handler.RequestCommissionPayoutHandler(context.Background(), "user-1", httptransport.RequestCommissionPayoutRequest{
		ReferrerID:  "referrer-1",
		Destination: "withdraw",
		Provider:    "paystack",
	})
	if !errors.Is(err, domainerrors.ErrInvalidPayoutInput) {
		t.Fatalf("expected invalid input without account, got %v", err)
	}
}

func TestCommissionPayoutReinvestCompletesWithoutTransfer(t *testing.T) {
	settlement := &fakeSettlement{accept: true}
	commissions := referrerLedger(60)
	module := newPayoutModule(settlement, commissions, 500)

	resp, err := module.Handler.RequestCommissionPayoutHandler(context.Background(), "user-1", httptransport.RequestCommissionPayoutRequest{
		ReferrerID:  "referrer-1",
		Destination: "reinvest",
	})
	if err != nil {
		t.Fatalf("request reinvest payout failed: %v", err)
	}

	completed := adminAction(t, module, resp.Data.PayoutID, "approve", httptransport.PayoutActionRequest{})
	if completed.Status != "completed" {
		t.Fatalf("expected reinvest payout completed on approval, got %s", completed.Status)
	}
	if settlement.transfers != 0 {
		t.Fatalf("expected no provider transfer for reinvestment, got %d", settlement.transfers)
	}
	if completed.TransactionReference != "reinvest:"+resp.Data.PayoutID {
		t.Fatalf("unexpected reinvest reference %q", completed.TransactionReference)
	}
}

func TestCommissionPayoutPaysOnlyUnpaidAccruals(t *testing.T) {
	settlement := &fakeSettlement{accept: true}
	commissions := referrerLedger(10)
	module := newPayoutModule(settlement, commissions, 500)

	request := httptransport.RequestCommissionPayoutRequest{
		ReferrerID:         "referrer-1",
		Destination:        "withdraw",
		Provider:           "paystack",
		DestinationAccount: "9876543210",
	}
	resp, err := module.Handler.RequestCommissionPayoutHandler(context.Background(), "user-1", request)
	if err != nil {
		t.Fatalf("request commission payout failed: %v", err)
	}
	if resp.Data.Amount != 10 {
		t.Fatalf("expected unpaid amount 10, got %v", resp.Data.Amount)
	}
	adminAction(t, module, resp.Data.PayoutID, "approve", httptransport.PayoutActionRequest{})
	adminAction(t, module, resp.Data.PayoutID, "complete", httptransport.PayoutActionRequest{})

	// Everything accrued so far is settled; a new payout has nothing to draw on.
	_, err = module.Handler.RequestCommissionPayoutHandler(context.Background(), "user-1", request)
	if !errors.Is(err, domainerrors.ErrNothingToPayOut) {
		t.Fatalf("expected nothing to pay out after settlement, got %v", err)
	}

	// A later accrual funds only itself, not the already-settled amount.
	commissions.referrerUnpaid["referrer-1"] = 5
	resp, err = module.Handler.RequestCommissionPayoutHandler(context.Background(), "user-1", request)
	if err != nil {
		t.Fatalf("request after new accrual failed: %v", err)
	}
	if resp.Data.Amount != 5 {
		t.Fatalf("expected only the new accrual 5, got %v", resp.Data.Amount)
	}
}

func TestPayoutProcessActionMovesApprovedToProcessing(t *testing.T) {
	module := newPayoutModule(&fakeSettlement{accept: true}, nil, 500)

	if err := module.Store.CreatePayout(context.Background(), entities.Payout{
		PayoutID:           "payout-manual",
		Family:             entities.PayoutFamilyCampaign,
		CampaignID:         "camp-1",
		RequesterID:        "owner-1",
		Amount:             500,
		Currency:           "USD",
		Destination:        entities.DestinationWithdraw,
		Provider:           "paystack",
		DestinationAccount: "0123456789",
		Status:             entities.PayoutStatusApproved,
	}); err != nil {
		t.Fatalf("seed approved payout failed: %v", err)
	}

	processing := adminAction(t, module, "payout-manual", "process", httptransport.PayoutActionRequest{})
	if processing.Status != "processing" {
		t.Fatalf("expected processing payout, got %s", processing.Status)
	}

	pending := requestCampaignPayout(t, module)
	_, err := module.Handler.AdminActionHandler(context.Background(), pending.PayoutID, "process", "admin-1", httptransport.PayoutActionRequest{})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition from pending, got %v", err)
	}
}

func TestPayoutAuditTrailRecordsTransitions(t *testing.T) {
	settlement := &fakeSettlement{accept: true}
	module := newPayoutModule(settlement, nil, 500)

	payout := requestCampaignPayout(t, module)
	adminAction(t, module, payout.PayoutID, "approve", httptransport.PayoutActionRequest{})
	adminAction(t, module, payout.PayoutID, "complete", httptransport.PayoutActionRequest{})

	trail, err := module.Handler.AuditTrailHandler(context.Background(), payout.PayoutID)
	if err != nil {
		t.Fatalf("audit trail failed: %v", err)
	}
	actions := make([]string, 0, len(trail.Data))
	for _, record := range trail.Data {
		actions = append(actions, record.Action)
	}
	want := []string{"request", "approve", "settle", "complete"}
	if len(actions) != len(want) {
		t.Fatalf("expected actions %v, got %v", want, actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("expected actions %v, got %v", want, actions)
		}
	}
}

func TestPayoutTransferEventCompletesProcessing(t *testing.T) {
	settlement := &fakeSettlement{accept: true}
	module := newPayoutModule(settlement, nil, 500)

	payout := requestCampaignPayout(t, module)
	processing := adminAction(t, module, payout.PayoutID, "approve", httptransport.PayoutActionRequest{})

	matched, err := module.Service.ApplyTransferEvent(context.Background(), ports.TransferEvent{
		Provider:  "paystack",
		Reference: processing.TransactionReference,
		Status:    "succeeded",
	})
	if err != nil {
		t.Fatalf("apply transfer event failed: %v", err)
	}
	if !matched {
		t.Fatalf("expected transfer event to match payout")
	}

	got, err := module.Service.GetPayout(context.Background(), payout.PayoutID)
	if err != nil {
		t.Fatalf("get payout failed: %v", err)
	}
	if got.Status != entities.PayoutStatusCompleted {
		t.Fatalf("expected completed after settlement confirmation, got %s", got.Status)
	}

	// Unknown references must not error so ingestion can keep probing.
	matched, err = module.Service.ApplyTransferEvent(context.Background(), ports.TransferEvent{
		Provider:  "paystack",
		Reference: "txn-unknown",
		Status:    "succeeded",
	})
	if err != nil || matched {
		t.Fatalf("expected unmatched transfer event, matched=%v err=%v", matched, err)
	}
}
