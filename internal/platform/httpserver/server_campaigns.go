package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"chainraise/contexts/campaign-funding/campaign-service/application/queries"
	campaignerrors "chainraise/contexts/campaign-funding/campaign-service/domain/errors"
	campaignhttp "chainraise/contexts/campaign-funding/campaign-service/transport/http"
)

func (s *Server) registerCampaignRoutes() {
	s.mux.HandleFunc("POST /api/v1/campaigns", s.handleCreateCampaign)
	s.mux.HandleFunc("GET /api/v1/campaigns", s.handleListCampaigns)
	s.mux.HandleFunc("GET /api/v1/campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("POST /api/v1/campaigns/{campaign_id}/close", s.handleCloseCampaign)
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Header.Get("X-User-Id")
	if ownerID == "" {
		writeCampaignError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req campaignhttp.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCampaignError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.campaigns.Handler.CreateCampaignHandler(
		r.Context(),
		ownerID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.campaigns.Handler.ListCampaignsHandler(r.Context(), queries.ListCampaignsQuery{
		OwnerID: query.Get("owner_id"),
		Status:  query.Get("status"),
	})
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	resp, err := s.campaigns.Handler.GetCampaignHandler(r.Context(), r.PathValue("campaign_id"))
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseCampaign(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get("X-User-Id")
	if actorID == "" {
		writeCampaignError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req campaignhttp.CloseCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCampaignError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.campaigns.Handler.CloseCampaignHandler(r.Context(), r.PathValue("campaign_id"), actorID, req)
	if err != nil {
		writeCampaignDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeCampaignDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaignerrors.ErrCampaignNotFound):
		writeCampaignError(w, http.StatusNotFound, "campaign_not_found", err.Error())
	case errors.Is(err, campaignerrors.ErrInvalidCampaignInput),
		errors.Is(err, campaignerrors.ErrInvalidCommissionRate):
		writeCampaignError(w, http.StatusBadRequest, "invalid_campaign_input", err.Error())
	case errors.Is(err, campaignerrors.ErrCampaignClosed):
		writeCampaignError(w, http.StatusConflict, "campaign_closed", err.Error())
	case errors.Is(err, campaignerrors.ErrIdempotencyKeyRequired):
		writeCampaignError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, campaignerrors.ErrIdempotencyKeyConflict):
		writeCampaignError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeCampaignError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCampaignError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, campaignhttp.ErrorResponse{Code: code, Message: message})
}
