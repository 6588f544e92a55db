package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	campaignerrors "chainraise/contexts/campaign-funding/campaign-service/domain/errors"
	donationerrors "chainraise/contexts/payments-core/donation-ledger/domain/errors"
	donationhttp "chainraise/contexts/payments-core/donation-ledger/transport/http"
)

func (s *Server) registerDonationRoutes() {
	s.mux.HandleFunc("POST /api/v1/donations", s.handleCreateDonation)
	s.mux.HandleFunc("GET /api/v1/donations/{donation_id}", s.handleGetDonation)
	s.mux.HandleFunc("GET /api/v1/campaigns/{campaign_id}/donations", s.handleListCampaignDonations)
}

func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	donorID := r.Header.Get("X-User-Id")
	if donorID == "" {
		writeDonationError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req donationhttp.CreateDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDonationError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.donations.Handler.CreateDonationHandler(
		r.Context(),
		donorID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeDonationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	resp, err := s.donations.Handler.GetDonationHandler(r.Context(), r.PathValue("donation_id"))
	if err != nil {
		writeDonationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCampaignDonations(w http.ResponseWriter, r *http.Request) {
	resp, err := s.donations.Handler.ListCampaignDonationsHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeDonationDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDonationDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, donationerrors.ErrDonationNotFound):
		writeDonationError(w, http.StatusNotFound, "donation_not_found", err.Error())
	case errors.Is(err, campaignerrors.ErrCampaignNotFound):
		writeDonationError(w, http.StatusNotFound, "campaign_not_found", err.Error())
	case errors.Is(err, donationerrors.ErrInvalidDonationInput):
		writeDonationError(w, http.StatusBadRequest, "invalid_donation_input", err.Error())
	case errors.Is(err, donationerrors.ErrCampaignNotAccepting):
		writeDonationError(w, http.StatusConflict, "campaign_not_accepting", err.Error())
	case errors.Is(err, donationerrors.ErrIdempotencyKeyRequired):
		writeDonationError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, donationerrors.ErrIdempotencyKeyConflict):
		writeDonationError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeDonationError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDonationError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, donationhttp.ErrorResponse{Code: code, Message: message})
}
