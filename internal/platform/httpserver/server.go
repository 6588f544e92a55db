package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	campaignservice "chainraise/contexts/campaign-funding/campaign-service"
	commissionengine "chainraise/contexts/payments-core/commission-engine"
	donationledger "chainraise/contexts/payments-core/donation-ledger"
	webhookgateway "chainraise/contexts/payments-core/webhook-gateway"
	payoutorchestrator "chainraise/contexts/payout-operations/payout-orchestrator"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "chainraise/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	campaigns   campaignservice.Module
	donations   donationledger.Module
	commissions commissionengine.Module
	payouts     payoutorchestrator.Module
	webhooks    webhookgateway.Module
}

func New(
	campaigns campaignservice.Module,
	donations donationledger.Module,
	commissions commissionengine.Module,
	payouts payoutorchestrator.Module,
	webhooks webhookgateway.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		campaigns:   campaigns,
		donations:   donations,
		commissions: commissions,
		payouts:     payouts,
		webhooks:    webhooks,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.registerCampaignRoutes()
	s.registerDonationRoutes()
	s.registerReferralRoutes()
	s.registerPayoutRoutes()
	s.registerWebhookRoutes()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
