package httpserver

import (
	"errors"
	"io"
	"net/http"

	webhookerrors "chainraise/contexts/payments-core/webhook-gateway/domain/errors"
)

// signatureHeaders maps a provider tag to the header its signature
// arrives in.
var signatureHeaders = map[string]string{
	"paystack": "X-Paystack-Signature",
	"stripe":   "Stripe-Signature",
}

func (s *Server) registerWebhookRoutes() {
	s.mux.HandleFunc("POST /webhooks/{provider}", s.handleProviderWebhook)
}

// handleProviderWebhook returns 200 once an event has been durably
// classified and routed, including dropped events; providers retry
// aggressively on anything else, so only verification failures and
// persistence errors are non-2xx.
func (s *Server) handleProviderWebhook(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "unreadable body"})
		return
	}

	header := signatureHeaders[provider]
	if header == "" {
		header = "X-Signature"
	}

	result, err := s.webhooks.Ingest.Ingest(r.Context(), provider, rawBody, r.Header.Get(header))
	if err != nil {
		switch {
		case errors.Is(err, webhookerrors.ErrUnknownProvider):
			writeJSON(w, http.StatusNotFound, map[string]string{"status": "unknown provider"})
		case errors.Is(err, webhookerrors.ErrInvalidSignature):
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "invalid signature"})
		default:
			s.logger.Error("webhook processing failed",
				"event", "webhook_processing_failed",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"provider", provider,
				"error", err.Error(),
			)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "processing failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"target": string(result.Target),
	})
}
