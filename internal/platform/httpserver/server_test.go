package httpserver

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	campaignservice "chainraise/contexts/campaign-funding/campaign-service"
	commissionengine "chainraise/contexts/payments-core/commission-engine"
	commissionports "chainraise/contexts/payments-core/commission-engine/ports"
	donationledger "chainraise/contexts/payments-core/donation-ledger"
	ledgerapp "chainraise/contexts/payments-core/donation-ledger/application"
	ledgerports "chainraise/contexts/payments-core/donation-ledger/ports"
	providergateway "chainraise/contexts/payments-core/provider-gateway"
	"chainraise/contexts/payments-core/provider-gateway/adapters/paystack"
	webhookgateway "chainraise/contexts/payments-core/webhook-gateway"
	payoutorchestrator "chainraise/contexts/payout-operations/payout-orchestrator"
	payoutports "chainraise/contexts/payout-operations/payout-orchestrator/ports"
)

const testPaystackSecret = "sk_test_server"

type stubCampaignGateway struct{}

func (stubCampaignGateway) GetFunding(_ context.Context, campaignID string) (ledgerports.CampaignFunding, error) {
	return ledgerports.CampaignFunding{
		CampaignID: campaignID,
		Currency:   "USD",
		GoalAmount: 1000,
		Accepting:  true,
	}, nil
}

func (stubCampaignGateway) ApplyBalance(context.Context, string, float64) error { return nil }

type stubChainingGateway struct{}

func (stubChainingGateway) GetChainingPolicy(context.Context, string) (commissionports.ChainingPolicy, error) {
	return commissionports.ChainingPolicy{Enabled: true, Rate: 5}, nil
}

type stubSettlementGateway struct{}

func (stubSettlementGateway) InitiateTransfer(context.Context, string, string, float64, string, string) (payoutports.TransferOutcome, error) {
	return payoutports.TransferOutcome{Reference: "txn-test", Accepted: true}, nil
}

func (stubSettlementGateway) Fees(string) (payoutports.ProviderFees, error) {
	return payoutports.ProviderFees{}, nil
}

type stubFinanceGateway struct{}

func (stubFinanceGateway) GetFinance(_ context.Context, campaignID string) (payoutports.CampaignFinance, error) {
	return payoutports.CampaignFinance{
		CampaignID:        campaignID,
		Currency:          "USD",
		CurrentAmount:     200,
		PayoutProvider:    "paystack",
		SettlementAccount: "0123456789",
	}, nil
}

type stubCommissionLedger struct{}

func (stubCommissionLedger) GetReferrerStanding(context.Context, string) (payoutports.ReferrerStanding, error) {
	return payoutports.ReferrerStanding{ReferrerID: "referrer-1", UserID: "user-1", CampaignID: "camp-1"}, nil
}

func (stubCommissionLedger) UnpaidCommissionTotal(context.Context, string) (float64, error) {
	return 0, nil
}

func (stubCommissionLedger) UnpaidReferrerCommissionTotal(context.Context, string) (float64, error) {
	return 0, nil
}

func (stubCommissionLedger) MarkCampaignCommissionsPaid(context.Context, string) error { return nil }

func (stubCommissionLedger) MarkReferrerCommissionsPaid(context.Context, string) error { return nil }

type donationEventTarget struct {
	ledger ledgerapp.Service
}

func (t donationEventTarget) ApplyDonationEvent(ctx context.Context, event ledgerports.ProviderEvent) (bool, error) {
	_, matched, err := t.ledger.ApplyProviderEvent(ctx, event)
	return matched, err
}

func newTestServer() *Server {
	donations := donationledger.NewInMemoryModule(stubCampaignGateway{}, nil, nil)
	return New(
		campaignservice.NewInMemoryModule(nil, nil),
		donations,
		commissionengine.NewInMemoryModule(stubChainingGateway{}, nil),
		payoutorchestrator.NewInMemoryModule(stubSettlementGateway{}, stubFinanceGateway{}, stubCommissionLedger{}, 5, nil),
		webhookgateway.NewModule(webhookgateway.Dependencies{
			Providers: providergateway.NewRegistry(paystack.Adapter{SecretKey: testPaystackSecret}),
			Donations: donationEventTarget{ledger: donations.Service},
		}),
		nil,
		":0",
	)
}

func paystackSignature(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testPaystackSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateCampaignRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/campaigns", bytes.NewReader([]byte(`{"title":"t"}`)))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateCampaignRequiresIdempotencyKey(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"title":"Water","description":"d","goal_amount":500,"currency":"USD","payout_provider":"paystack","settlement_account":"0123456789"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/campaigns", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "owner-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCreateAndFetchCampaign(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"title":"Water","description":"d","goal_amount":500,"currency":"USD","payout_provider":"paystack","settlement_account":"0123456789"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/campaigns", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "owner-1")
	req.Header.Set("Idempotency-Key", "idem-http-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var created struct {
		Data struct {
			CampaignID string `json:"campaign_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	get := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/"+created.Data.CampaignID, nil)
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, get)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetMissingCampaignReturns404(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/nope", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDonationCreateRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"campaign_id":"camp-1","amount":30,"currency":"USD","payment_method":"paystack","provider_reference":"ref-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/donations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "idem-http-don")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWebhookUnknownProviderReturns404(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/flutterwave", bytes.NewReader([]byte(`{}`)))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWebhookInvalidSignatureReturns400(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-Paystack-Signature", "deadbeef")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestWebhookDonationEventRoundTrip(t *testing.T) {
	server := newTestServer()

	create := []byte(`{"campaign_id":"camp-1","amount":30,"currency":"USD","payment_method":"paystack","provider_reference":"ref-http-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/donations", bytes.NewReader(create))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "donor-1")
	req.Header.Set("Idempotency-Key", "idem-http-don-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	event := []byte(`{"event":"charge.success","data":{"reference":"ref-http-1","status":"success"}}`)
	hook := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(event))
	hook.Header.Set("X-Paystack-Signature", paystackSignature(event))
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, hook)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var routed struct {
		Target string `json:"target"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &routed); err != nil {
		t.Fatalf("decode webhook response: %v", err)
	}
	if routed.Target != "campaign_donation" {
		t.Fatalf("expected campaign_donation target, got %q", routed.Target)
	}
}

func TestWebhookUnmatchedDonationStill200(t *testing.T) {
	server := newTestServer()
	event := []byte(`{"event":"charge.success","data":{"reference":"ref-nobody","status":"success"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(event))
	req.Header.Set("X-Paystack-Signature", paystackSignature(event))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for dropped event, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPayoutAdminActionRequiresActor(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payouts/p-1/approve", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPayoutAdminUnknownActionReturns400(t *testing.T) {
	server := newTestServer()

	body := []byte(`{"campaign_id":"camp-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts/campaign", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "owner-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created struct {
		Data struct {
			PayoutID string `json:"payout_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode payout response: %v", err)
	}

	action := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payouts/"+created.Data.PayoutID+"/escalate", nil)
	action.Header.Set("X-Admin-Id", "admin-1")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, action)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d body=%s", rr.Code, rr.Body.String())
	}
}
