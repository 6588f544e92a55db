package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	campaignservice "chainraise/contexts/campaign-funding/campaign-service"
	campaignpostgres "chainraise/contexts/campaign-funding/campaign-service/adapters/postgres"
	commissionengine "chainraise/contexts/payments-core/commission-engine"
	commissionpostgres "chainraise/contexts/payments-core/commission-engine/adapters/postgres"
	donationledger "chainraise/contexts/payments-core/donation-ledger"
	ledgerpostgres "chainraise/contexts/payments-core/donation-ledger/adapters/postgres"
	ledgerworkers "chainraise/contexts/payments-core/donation-ledger/application/workers"
	providergateway "chainraise/contexts/payments-core/provider-gateway"
	"chainraise/contexts/payments-core/provider-gateway/adapters/paystack"
	"chainraise/contexts/payments-core/provider-gateway/adapters/stripe"
	webhookgateway "chainraise/contexts/payments-core/webhook-gateway"
	payoutorchestrator "chainraise/contexts/payout-operations/payout-orchestrator"
	payoutpostgres "chainraise/contexts/payout-operations/payout-orchestrator/adapters/postgres"
	provideradapter "chainraise/contexts/payout-operations/payout-orchestrator/adapters/provider"
	"chainraise/internal/platform/config"
	"chainraise/internal/platform/db"
	"chainraise/internal/platform/httpserver"
	"chainraise/internal/platform/messaging"

	"github.com/go-co-op/gocron/v2"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres   *db.Postgres
	relay      ledgerworkers.OutboxRelay
	reconciler ledgerworkers.PendingReconciler
	cfg        config.Config
	logger     *slog.Logger
}

type modules struct {
	campaigns   campaignservice.Module
	donations   donationledger.Module
	commissions commissionengine.Module
	payouts     payoutorchestrator.Module
	webhooks    webhookgateway.Module
	registry    *providergateway.Registry
	ledgerRepo  *ledgerpostgres.Repository
}

func buildModules(cfg config.Config, pg *db.Postgres, logger *slog.Logger) modules {
	registry := providergateway.NewRegistry(
		paystack.Adapter{SecretKey: cfg.PaystackSecretKey},
		stripe.Adapter{SecretKey: cfg.StripeSecretKey, SigningKey: cfg.StripeSigningKey},
	)

	campaignRepo := campaignpostgres.NewRepository(pg.DB, logger)
	campaigns := campaignservice.NewModule(campaignservice.Dependencies{
		Campaigns:      campaignRepo,
		History:        campaignRepo,
		Idempotency:    campaignRepo,
		Outbox:         campaignRepo,
		Clock:          campaignpostgres.SystemClock{},
		IDGenerator:    campaignpostgres.UUIDGenerator{},
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})

	commissionRepo := commissionpostgres.NewRepository(pg.DB, logger)
	commissions := commissionengine.NewModule(commissionengine.Dependencies{
		Referrers:   commissionRepo,
		Records:     commissionRepo,
		Campaigns:   campaignChainingGateway{campaigns: campaignRepo},
		Clock:       campaignpostgres.SystemClock{},
		IDGenerator: campaignpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	donations := donationledger.NewModule(donationledger.Dependencies{
		Repo: ledgerRepo,
		Campaigns: campaignFundingGateway{
			campaigns: campaignRepo,
			apply:     campaigns.ApplyBalance,
		},
		Commissions:    commissionAccruer{commissions: commissions.Service},
		Idempotency:    ledgerRepo,
		Outbox:         ledgerRepo,
		Clock:          ledgerpostgres.SystemClock{},
		IDGenerator:    ledgerpostgres.UUIDGenerator{},
		IdempotencyTTL: 7 * 24 * time.Hour,
		RetryCap:       cfg.DonationRetryCap,
		Logger:         logger,
	})

	payoutRepo := payoutpostgres.NewRepository(pg.DB, logger)
	payouts := payoutorchestrator.NewModule(payoutorchestrator.Dependencies{
		Payouts:            payoutRepo,
		Audit:              payoutRepo,
		Settlement:         provideradapter.NewGateway(registry),
		Campaigns:          campaignFinanceGateway{campaigns: campaignRepo},
		Commissions:        commissionLedgerGateway{commissions: commissions.Service},
		Outbox:             ledgerRepo,
		Clock:              payoutpostgres.SystemClock{},
		IDGenerator:        payoutpostgres.UUIDGenerator{},
		PlatformFeePercent: cfg.PlatformFeePercent,
		Logger:             logger,
	})

	webhooks := webhookgateway.NewModule(webhookgateway.Dependencies{
		Providers: registry,
		Donations: donationEventTarget{ledger: donations.Service},
		Charity:   charityFallbackTarget{},
		Transfers: payouts.Service,
		Logger:    logger,
	})

	return modules{
		campaigns:   campaigns,
		donations:   donations,
		commissions: commissions,
		payouts:     payouts,
		webhooks:    webhooks,
		registry:    registry,
		ledgerRepo:  ledgerRepo,
	}
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	m := buildModules(cfg, pg, logger)
	server := httpserver.New(
		m.campaigns,
		m.donations,
		m.commissions,
		m.payouts,
		m.webhooks,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	m := buildModules(cfg, pg, logger)
	staleAfter, err := time.ParseDuration(cfg.ReconcileStaleAfter)
	if err != nil {
		staleAfter = 15 * time.Minute
	}

	return &WorkerApp{
		postgres: pg,
		relay: ledgerworkers.OutboxRelay{
			Outbox:    m.ledgerRepo,
			Publisher: kafka,
			Clock:     ledgerpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		reconciler: ledgerworkers.PendingReconciler{
			Service:    m.donations.Service,
			Repo:       m.ledgerRepo,
			Provider:   registryStatusFetcher{registry: m.registry},
			Clock:      ledgerpostgres.SystemClock{},
			StaleAfter: staleAfter,
			BatchSize:  50,
			Logger:     logger,
		},
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	if w.cfg.EnableOutboxRelay {
		if _, err := scheduler.NewJob(
			gocron.DurationJob(2*time.Second),
			gocron.NewTask(func() {
				if err := w.relay.RunOnce(ctx); err != nil {
					w.logger.Error("outbox relay cycle failed",
						"event", "worker_cycle_failed",
						"module", "internal/app/bootstrap",
						"layer", "platform",
						"error", err.Error(),
					)
				}
			}),
		); err != nil {
			return err
		}
	}

	if w.cfg.EnablePendingReconciler {
		if _, err := scheduler.NewJob(
			gocron.DurationJob(time.Minute),
			gocron.NewTask(func() {
				if err := w.reconciler.RunOnce(ctx); err != nil {
					w.logger.Error("pending reconciler cycle failed",
						"event", "worker_cycle_failed",
						"module", "internal/app/bootstrap",
						"layer", "platform",
						"error", err.Error(),
					)
				}
			}),
		); err != nil {
			return err
		}
	}

	scheduler.Start()
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"outbox_relay", w.cfg.EnableOutboxRelay,
		"pending_reconciler", w.cfg.EnablePendingReconciler,
	)

	<-ctx.Done()
	return scheduler.Shutdown()
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
