package ports

import (
	"context"

	ledgerports "chainraise/contexts/payments-core/donation-ledger/ports"
	providerports "chainraise/contexts/payments-core/provider-gateway/ports"
)

// ProviderResolver looks up the adapter for a provider tag.
type ProviderResolver interface {
	Resolve(tag string) (providerports.ProviderAdapter, error)
}

// DonationTarget applies a donation event against the campaign donation
// ledger. The bool reports whether any ledger row matched the reference.
type DonationTarget interface {
	ApplyDonationEvent(ctx context.Context, event ledgerports.ProviderEvent) (bool, error)
}

// CharityDonationTarget is the external charity-donation collaborator. A
// transaction reference that misses the campaign ledger is offered here
// before the event is dropped.
type CharityDonationTarget interface {
	ApplyCharityDonationEvent(ctx context.Context, event ledgerports.ProviderEvent) (bool, error)
}

// TransferTarget applies a transfer event against payout settlement state.
type TransferTarget interface {
	ApplyTransferEvent(ctx context.Context, event ledgerports.ProviderEvent) (bool, error)
}
