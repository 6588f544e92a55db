package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"chainraise/contexts/payments-core/donation-ledger/application"
	"chainraise/contexts/payments-core/donation-ledger/domain/entities"
	httptransport "chainraise/contexts/payments-core/donation-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateDonationHandler(
	ctx context.Context,
	donorID string,
	idempotencyKey string,
	req httptransport.CreateDonationRequest,
) (httptransport.CreateDonationResponse, error) {
	donation, replayed, err := h.Service.CreateDonation(ctx, idempotencyKey, application.CreateDonationInput{
		CampaignID:        req.CampaignID,
		DonorID:           donorID,
		ReferrerID:        req.ReferrerID,
		Amount:            req.Amount,
		Currency:          req.Currency,
		PaymentMethod:     req.PaymentMethod,
		ProviderReference: req.ProviderReference,
	})
	if err != nil {
		return httptransport.CreateDonationResponse{}, err
	}
	return httptransport.CreateDonationResponse{
		Status:   "success",
		Replayed: replayed,
		Data:     toDTO(donation),
	}, nil
}

func (h Handler) GetDonationHandler(ctx context.Context, donationID string) (httptransport.GetDonationResponse, error) {
	donation, err := h.Service.GetDonation(ctx, donationID)
	if err != nil {
		return httptransport.GetDonationResponse{}, err
	}
	return httptransport.GetDonationResponse{Status: "success", Data: toDTO(donation)}, nil
}

func (h Handler) ListCampaignDonationsHandler(ctx context.Context, campaignID string) (httptransport.ListDonationsResponse, error) {
	items, err := h.Service.ListByCampaign(ctx, campaignID)
	if err != nil {
		return httptransport.ListDonationsResponse{}, err
	}
	data := make([]httptransport.DonationDTO, 0, len(items))
	for _, donation := range items {
		data = append(data, toDTO(donation))
	}
	return httptransport.ListDonationsResponse{Status: "success", Data: data}, nil
}

func toDTO(donation entities.Donation) httptransport.DonationDTO {
	dto := httptransport.DonationDTO{
		DonationID:        donation.DonationID,
		CampaignID:        donation.CampaignID,
		DonorID:           donation.DonorID,
		ReferrerID:        donation.ReferrerID,
		Amount:            donation.Amount,
		Currency:          donation.Currency,
		ConvertedAmount:   donation.ConvertedAmount,
		ConvertedCurrency: donation.ConvertedCurrency,
		PaymentMethod:     donation.PaymentMethod,
		ProviderReference: donation.ProviderReference,
		PaymentStatus:     string(donation.PaymentStatus),
		RetryAttempts:     donation.RetryAttempts,
		FailureReason:     donation.FailureReason,
		CreatedAt:         donation.CreatedAt.UTC().Format(time.RFC3339),
	}
	if donation.ProcessedAt != nil {
		dto.ProcessedAt = donation.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
