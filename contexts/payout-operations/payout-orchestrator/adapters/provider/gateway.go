package provideradapter

import (
	"context"

	providergateway "chainraise/contexts/payments-core/provider-gateway"
	providerports "chainraise/contexts/payments-core/provider-gateway/ports"
	"chainraise/contexts/payout-operations/payout-orchestrator/ports"
)

// Gateway adapts the provider registry to the orchestrator's settlement
// port. Transfer failures come back typed, never as transport errors.
type Gateway struct {
	Registry *providergateway.Registry
}

func NewGateway(registry *providergateway.Registry) Gateway {
	return Gateway{Registry: registry}
}

func (g Gateway) InitiateTransfer(
	ctx context.Context,
	providerTag string,
	destinationAccount string,
	amount float64,
	currency string,
	narration string,
) (ports.TransferOutcome, error) {
	adapter, err := g.Registry.Resolve(providerTag)
	if err != nil {
		return ports.TransferOutcome{}, err
	}
	result, err := adapter.InitiateTransfer(ctx, providerports.TransferRequest{
		DestinationAccount: destinationAccount,
		Amount:             amount,
		Currency:           currency,
		Reason:             narration,
	})
	if err != nil {
		return ports.TransferOutcome{}, err
	}
	return ports.TransferOutcome{
		Reference: result.Reference,
		Accepted:  result.Accepted,
		Reason:    result.Error,
	}, nil
}

func (g Gateway) Fees(providerTag string) (ports.ProviderFees, error) {
	adapter, err := g.Registry.Resolve(providerTag)
	if err != nil {
		return ports.ProviderFees{}, err
	}
	schedule := adapter.FeeSchedule()
	return ports.ProviderFees{
		PercentFee:    schedule.PercentFee,
		FixedFee:      schedule.FixedFee,
		RebatePercent: schedule.RebatePercent,
	}, nil
}
