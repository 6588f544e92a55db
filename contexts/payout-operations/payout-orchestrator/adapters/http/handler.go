package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"chainraise/contexts/payout-operations/payout-orchestrator/application"
	"chainraise/contexts/payout-operations/payout-orchestrator/domain/entities"
	domainerrors "chainraise/contexts/payout-operations/payout-orchestrator/domain/errors"
	"chainraise/contexts/payout-operations/payout-orchestrator/ports"
	httptransport "chainraise/contexts/payout-operations/payout-orchestrator/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RequestCampaignPayoutHandler(
	ctx context.Context,
	requesterID string,
	req httptransport.RequestCampaignPayoutRequest,
) (httptransport.PayoutResponse, error) {
	payout, err := h.Service.RequestCampaignPayout(ctx, req.CampaignID, requesterID)
	if err != nil {
		return httptransport.PayoutResponse{}, err
	}
	return httptransport.PayoutResponse{Status: "success", Data: toDTO(payout)}, nil
}

func (h Handler) RequestCommissionPayoutHandler(
	ctx context.Context,
	requesterID string,
	req httptransport.RequestCommissionPayoutRequest,
) (httptransport.PayoutResponse, error) {
	payout, err := h.Service.RequestCommissionPayout(
		ctx,
		req.ReferrerID,
		requesterID,
		entities.PayoutDestination(req.Destination),
		req.Provider,
		req.DestinationAccount,
	)
	if err != nil {
		return httptransport.PayoutResponse{}, err
	}
	return httptransport.PayoutResponse{Status: "success", Data: toDTO(payout)}, nil
}

func (h Handler) AdminActionHandler(
	ctx context.Context,
	payoutID string,
	action string,
	actorID string,
	req httptransport.PayoutActionRequest,
) (httptransport.PayoutResponse, error) {
	var (
		payout entities.Payout
		err    error
	)
	switch action {
	case "approve":
		payout, err = h.Service.Approve(ctx, payoutID, actorID)
	case "reject":
		payout, err = h.Service.Reject(ctx, payoutID, actorID, req.Reason)
	case "cancel":
		payout, err = h.Service.Cancel(ctx, payoutID, actorID)
	case "process":
		payout, err = h.Service.Process(ctx, payoutID, actorID)
	case "complete":
		payout, err = h.Service.Complete(ctx, payoutID, actorID)
	case "fail":
		payout, err = h.Service.Fail(ctx, payoutID, actorID, req.Reason)
	case "retry":
		payout, err = h.Service.Retry(ctx, payoutID, actorID)
	case "add_notes":
		payout, err = h.Service.AddNotes(ctx, payoutID, actorID, req.Notes)
	default:
		return httptransport.PayoutResponse{}, domainerrors.ErrUnknownAction
	}
	if err != nil {
		return httptransport.PayoutResponse{}, err
	}
	return httptransport.PayoutResponse{Status: "success", Data: toDTO(payout)}, nil
}

func (h Handler) GetPayoutHandler(ctx context.Context, payoutID string) (httptransport.PayoutResponse, error) {
	payout, err := h.Service.GetPayout(ctx, payoutID)
	if err != nil {
		return httptransport.PayoutResponse{}, err
	}
	return httptransport.PayoutResponse{Status: "success", Data: toDTO(payout)}, nil
}

func (h Handler) ListPayoutsHandler(ctx context.Context, filter ports.PayoutFilter) (httptransport.ListPayoutsResponse, error) {
	items, err := h.Service.ListPayouts(ctx, filter)
	if err != nil {
		return httptransport.ListPayoutsResponse{}, err
	}
	data := make([]httptransport.PayoutDTO, 0, len(items))
	for _, payout := range items {
		data = append(data, toDTO(payout))
	}
	return httptransport.ListPayoutsResponse{Status: "success", Data: data}, nil
}

func (h Handler) AuditTrailHandler(ctx context.Context, payoutID string) (httptransport.AuditTrailResponse, error) {
	records, err := h.Service.AuditTrail(ctx, payoutID)
	if err != nil {
		return httptransport.AuditTrailResponse{}, err
	}
	data := make([]httptransport.AuditRecordDTO, 0, len(records))
	for _, record := range records {
		data = append(data, httptransport.AuditRecordDTO{
			AuditID:    record.AuditID,
			PayoutID:   record.PayoutID,
			Action:     record.Action,
			FromStatus: string(record.FromStatus),
			ToStatus:   string(record.ToStatus),
			ActorID:    record.ActorID,
			Reason:     record.Reason,
			CreatedAt:  record.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return httptransport.AuditTrailResponse{Status: "success", Data: data}, nil
}

func toDTO(payout entities.Payout) httptransport.PayoutDTO {
	dto := httptransport.PayoutDTO{
		PayoutID:             payout.PayoutID,
		Family:               string(payout.Family),
		CampaignID:           payout.CampaignID,
		ReferrerID:           payout.ReferrerID,
		RequesterID:          payout.RequesterID,
		Amount:               payout.Amount,
		Currency:             payout.Currency,
		Destination:          string(payout.Destination),
		Provider:             payout.Provider,
		PlatformFee:          payout.PlatformFee,
		CommissionDeduction:  payout.CommissionDeduction,
		ProviderFee:          payout.ProviderFee,
		NetAmount:            payout.NetAmount,
		Status:               string(payout.Status),
		StatusReason:         payout.StatusReason,
		ApprovedBy:           payout.ApprovedBy,
		TransactionReference: payout.TransactionReference,
		Notes:                payout.Notes,
		CreatedAt:            payout.CreatedAt.UTC().Format(time.RFC3339),
	}
	if payout.CompletedAt != nil {
		dto.CompletedAt = payout.CompletedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
