package campaignservice

import (
	"log/slog"
	"time"

	httpadapter "chainraise/contexts/campaign-funding/campaign-service/adapters/http"
	"chainraise/contexts/campaign-funding/campaign-service/adapters/memory"
	"chainraise/contexts/campaign-funding/campaign-service/application/commands"
	"chainraise/contexts/campaign-funding/campaign-service/application/queries"
	"chainraise/contexts/campaign-funding/campaign-service/domain/entities"
	"chainraise/contexts/campaign-funding/campaign-service/ports"
)

type Module struct {
	Handler      httpadapter.Handler
	ApplyBalance commands.ApplyBalanceUseCase
	Store        *memory.Store
}

type Dependencies struct {
	Campaigns      ports.CampaignRepository
	History        ports.HistoryRepository
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	createCampaign := commands.CreateCampaignUseCase{
		Campaigns:      deps.Campaigns,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	closeCampaign := commands.CloseCampaignUseCase{
		Campaigns: deps.Campaigns,
		History:   deps.History,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGenerator,
		Logger:    deps.Logger,
	}
	applyBalance := commands.ApplyBalanceUseCase{
		Campaigns: deps.Campaigns,
		Close:     closeCampaign,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	getCampaign := queries.GetCampaignUseCase{
		Campaigns: deps.Campaigns,
		Logger:    deps.Logger,
	}
	listCampaigns := queries.ListCampaignsUseCase{
		Campaigns: deps.Campaigns,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			CreateCampaign: createCampaign,
			CloseCampaign:  closeCampaign,
			GetCampaign:    getCampaign,
			ListCampaigns:  listCampaigns,
			Logger:         deps.Logger,
		},
		ApplyBalance: applyBalance,
	}
}

func NewInMemoryModule(seed []entities.Campaign, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Campaigns:      store,
		History:        store,
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
