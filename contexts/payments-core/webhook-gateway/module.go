package webhookgateway

import (
	"log/slog"

	"chainraise/contexts/payments-core/webhook-gateway/application"
	"chainraise/contexts/payments-core/webhook-gateway/ports"
)

type Module struct {
	Ingest application.Service
}

type Dependencies struct {
	Providers ports.ProviderResolver
	Donations ports.DonationTarget
	Charity   ports.CharityDonationTarget
	Transfers ports.TransferTarget
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Ingest: application.Service{
			Providers: deps.Providers,
			Donations: deps.Donations,
			Charity:   deps.Charity,
			Transfers: deps.Transfers,
			Logger:    deps.Logger,
		},
	}
}
