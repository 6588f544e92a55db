package payoutorchestrator

import (
	"log/slog"

	httpadapter "chainraise/contexts/payout-operations/payout-orchestrator/adapters/http"
	"chainraise/contexts/payout-operations/payout-orchestrator/adapters/memory"
	"chainraise/contexts/payout-operations/payout-orchestrator/application"
	"chainraise/contexts/payout-operations/payout-orchestrator/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Payouts            ports.PayoutRepository
	Audit              ports.AuditRepository
	Settlement         ports.SettlementGateway
	Campaigns          ports.CampaignFinanceGateway
	Commissions        ports.CommissionLedgerGateway
	Reinvest           ports.ReinvestSink
	Outbox             ports.OutboxWriter
	Clock              ports.Clock
	IDGenerator        ports.IDGenerator
	PlatformFeePercent float64
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Payouts:            deps.Payouts,
		Audit:              deps.Audit,
		Settlement:         deps.Settlement,
		Campaigns:          deps.Campaigns,
		Commissions:        deps.Commissions,
		Reinvest:           deps.Reinvest,
		Outbox:             deps.Outbox,
		Clock:              deps.Clock,
		IDGen:              deps.IDGenerator,
		PlatformFeePercent: deps.PlatformFeePercent,
		Logger:             deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(
	settlement ports.SettlementGateway,
	campaigns ports.CampaignFinanceGateway,
	commissions ports.CommissionLedgerGateway,
	platformFeePercent float64,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(nil)
	module := NewModule(Dependencies{
		Payouts:            store,
		Audit:              store,
		Settlement:         settlement,
		Campaigns:          campaigns,
		Commissions:        commissions,
		Outbox:             store,
		Clock:              store,
		IDGenerator:        store,
		PlatformFeePercent: platformFeePercent,
		Logger:             logger,
	})
	module.Store = store
	return module
}
