package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	campaignerrors "chainraise/contexts/campaign-funding/campaign-service/domain/errors"
	commissionerrors "chainraise/contexts/payments-core/commission-engine/domain/errors"
	commissionhttp "chainraise/contexts/payments-core/commission-engine/transport/http"
)

func (s *Server) registerReferralRoutes() {
	s.mux.HandleFunc("POST /api/v1/referrers", s.handleRegisterReferrer)
	s.mux.HandleFunc("GET /api/v1/referrers/{referrer_id}", s.handleGetReferrer)
	s.mux.HandleFunc("GET /api/v1/campaigns/{campaign_id}/referrers", s.handleReferrerLeaderboard)
}

func (s *Server) handleRegisterReferrer(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeCommissionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req commissionhttp.RegisterReferrerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommissionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.commissions.Handler.RegisterReferrerHandler(r.Context(), userID, req)
	if err != nil {
		writeCommissionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetReferrer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.commissions.Handler.GetReferrerHandler(r.Context(), r.PathValue("referrer_id"))
	if err != nil {
		writeCommissionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReferrerLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeCommissionError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}

	resp, err := s.commissions.Handler.LeaderboardHandler(r.Context(), r.PathValue("campaign_id"), limit)
	if err != nil {
		writeCommissionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeCommissionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, commissionerrors.ErrReferrerNotFound):
		writeCommissionError(w, http.StatusNotFound, "referrer_not_found", err.Error())
	case errors.Is(err, campaignerrors.ErrCampaignNotFound):
		writeCommissionError(w, http.StatusNotFound, "campaign_not_found", err.Error())
	case errors.Is(err, commissionerrors.ErrInvalidReferrerInput):
		writeCommissionError(w, http.StatusBadRequest, "invalid_referrer_input", err.Error())
	case errors.Is(err, commissionerrors.ErrChainingDisabled):
		writeCommissionError(w, http.StatusConflict, "chaining_disabled", err.Error())
	default:
		writeCommissionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCommissionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, commissionhttp.ErrorResponse{Code: code, Message: message})
}
