package donationledger

import (
	"log/slog"
	"time"

	"chainraise/contexts/payments-core/donation-ledger/adapters/fx"
	httpadapter "chainraise/contexts/payments-core/donation-ledger/adapters/http"
	"chainraise/contexts/payments-core/donation-ledger/adapters/memory"
	"chainraise/contexts/payments-core/donation-ledger/application"
	"chainraise/contexts/payments-core/donation-ledger/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo           ports.DonationRepository
	Campaigns      ports.CampaignGateway
	Commissions    ports.CommissionAccruer
	Converter      ports.CurrencyConverter
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	RetryCap       int
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	converter := deps.Converter
	if converter == nil {
		converter = fx.NewStaticConverter()
	}
	service := application.Service{
		Repo:           deps.Repo,
		Campaigns:      deps.Campaigns,
		Commissions:    deps.Commissions,
		Converter:      converter,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		RetryCap:       deps.RetryCap,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(
	campaigns ports.CampaignGateway,
	commissions ports.CommissionAccruer,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(nil)
	module := NewModule(Dependencies{
		Repo:           store,
		Campaigns:      campaigns,
		Commissions:    commissions,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGenerator:    store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
