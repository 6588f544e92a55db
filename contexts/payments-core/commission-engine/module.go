package commissionengine

import (
	"log/slog"

	httpadapter "chainraise/contexts/payments-core/commission-engine/adapters/http"
	"chainraise/contexts/payments-core/commission-engine/adapters/memory"
	"chainraise/contexts/payments-core/commission-engine/application"
	"chainraise/contexts/payments-core/commission-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Referrers   ports.ReferrerRepository
	Records     ports.CommissionRecordRepository
	Campaigns   ports.CampaignChainingGateway
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Referrers: deps.Referrers,
		Records:   deps.Records,
		Campaigns: deps.Campaigns,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

func NewInMemoryModule(campaigns ports.CampaignChainingGateway, logger *slog.Logger) Module {
	store := memory.NewStore(nil)
	module := NewModule(Dependencies{
		Referrers:   store,
		Records:     store,
		Campaigns:   campaigns,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
