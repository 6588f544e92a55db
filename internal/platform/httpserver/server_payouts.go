package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	campaignerrors "chainraise/contexts/campaign-funding/campaign-service/domain/errors"
	commissionerrors "chainraise/contexts/payments-core/commission-engine/domain/errors"
	"chainraise/contexts/payout-operations/payout-orchestrator/domain/entities"
	payouterrors "chainraise/contexts/payout-operations/payout-orchestrator/domain/errors"
	"chainraise/contexts/payout-operations/payout-orchestrator/ports"
	payouthttp "chainraise/contexts/payout-operations/payout-orchestrator/transport/http"
)

func (s *Server) registerPayoutRoutes() {
	s.mux.HandleFunc("POST /api/v1/payouts/campaign", s.handleRequestCampaignPayout)
	s.mux.HandleFunc("POST /api/v1/payouts/commission", s.handleRequestCommissionPayout)
	s.mux.HandleFunc("GET /api/v1/payouts", s.handleListPayouts)
	s.mux.HandleFunc("GET /api/v1/payouts/{payout_id}", s.handleGetPayout)
	s.mux.HandleFunc("GET /api/v1/payouts/{payout_id}/audit", s.handlePayoutAuditTrail)
	s.mux.HandleFunc("POST /api/v1/admin/payouts/{payout_id}/{action}", s.handlePayoutAdminAction)
}

func (s *Server) handleRequestCampaignPayout(w http.ResponseWriter, r *http.Request) {
	requesterID := r.Header.Get("X-User-Id")
	if requesterID == "" {
		writePayoutError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req payouthttp.RequestCampaignPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePayoutError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.payouts.Handler.RequestCampaignPayoutHandler(r.Context(), requesterID, req)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRequestCommissionPayout(w http.ResponseWriter, r *http.Request) {
	requesterID := r.Header.Get("X-User-Id")
	if requesterID == "" {
		writePayoutError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req payouthttp.RequestCommissionPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePayoutError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.payouts.Handler.RequestCommissionPayoutHandler(r.Context(), requesterID, req)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPayouts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.payouts.Handler.ListPayoutsHandler(r.Context(), ports.PayoutFilter{
		CampaignID: query.Get("campaign_id"),
		ReferrerID: query.Get("referrer_id"),
		Family:     entities.PayoutFamily(query.Get("family")),
		Status:     entities.PayoutStatus(query.Get("status")),
	})
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPayout(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payouts.Handler.GetPayoutHandler(r.Context(), r.PathValue("payout_id"))
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePayoutAuditTrail(w http.ResponseWriter, r *http.Request) {
	resp, err := s.payouts.Handler.AuditTrailHandler(r.Context(), r.PathValue("payout_id"))
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePayoutAdminAction(w http.ResponseWriter, r *http.Request) {
	actorID := r.Header.Get("X-User-Id")
	if strings.TrimSpace(actorID) == "" {
		actorID = r.Header.Get("X-Admin-Id")
	}
	if strings.TrimSpace(actorID) == "" {
		writePayoutError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req payouthttp.PayoutActionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writePayoutError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := s.payouts.Handler.AdminActionHandler(
		r.Context(),
		r.PathValue("payout_id"),
		r.PathValue("action"),
		actorID,
		req,
	)
	if err != nil {
		writePayoutDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePayoutDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payouterrors.ErrPayoutNotFound):
		writePayoutError(w, http.StatusNotFound, "payout_not_found", err.Error())
	case errors.Is(err, campaignerrors.ErrCampaignNotFound):
		writePayoutError(w, http.StatusNotFound, "campaign_not_found", err.Error())
	case errors.Is(err, commissionerrors.ErrReferrerNotFound):
		writePayoutError(w, http.StatusNotFound, "referrer_not_found", err.Error())
	case errors.Is(err, payouterrors.ErrInvalidStateTransition),
		errors.Is(err, payouterrors.ErrTransactionRefPresent):
		writePayoutError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, payouterrors.ErrMissingTransactionRef):
		writePayoutError(w, http.StatusUnprocessableEntity, "missing_transaction_reference", err.Error())
	case errors.Is(err, payouterrors.ErrReasonRequired),
		errors.Is(err, payouterrors.ErrInvalidPayoutInput),
		errors.Is(err, payouterrors.ErrUnknownAction):
		writePayoutError(w, http.StatusBadRequest, "invalid_payout_request", err.Error())
	case errors.Is(err, payouterrors.ErrNothingToPayOut):
		writePayoutError(w, http.StatusConflict, "nothing_to_pay_out", err.Error())
	default:
		writePayoutError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePayoutError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, payouthttp.ErrorResponse{Code: code, Message: message})
}
