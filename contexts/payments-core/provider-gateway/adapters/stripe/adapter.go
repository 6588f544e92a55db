package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainerrors "chainraise/contexts/payments-core/provider-gateway/domain/errors"
	"chainraise/contexts/payments-core/provider-gateway/ports"
)

const defaultBaseURL = "https://api.stripe.com"

// Adapter implements the provider capability surface for Stripe.
// Webhook signatures arrive as "t=<unix>,v1=<hmac>" in Stripe-Signature
// and sign the string "<t>.<raw body>" with HMAC-SHA256.
type Adapter struct {
	SecretKey  string
	SigningKey string
	BaseURL    string
	HTTPClient *http.Client
}

func (a Adapter) Tag() string { return "stripe" }

func (a Adapter) FeeSchedule() ports.FeeSchedule {
	return ports.FeeSchedule{
		PercentFee:    2.9,
		FixedFee:      0.30,
		RebatePercent: 0,
	}
}

func (a Adapter) VerifySignature(rawBody []byte, signatureHeader string) bool {
	if a.SigningKey == "" {
		return false
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			candidates = append(candidates, value)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(a.SigningKey))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return true
		}
	}
	return false
}

type intentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

func (a Adapter) FetchStatus(ctx context.Context, reference string) (ports.StatusResult, error) {
	endpoint := fmt.Sprintf("%s/v1/payment_intents/%s", a.baseURL(), strings.TrimSpace(reference))
	body, statusCode, err := a.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.StatusResult{}, err
	}
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return ports.StatusResult{
			Status:        ports.StatusAuthError,
			ProviderError: "stripe rejected api credentials",
			Raw:           body,
		}, nil
	}

	var decoded intentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ports.StatusResult{}, fmt.Errorf("decode stripe intent response: %w", err)
	}

	result := ports.StatusResult{
		ProviderStatus: decoded.Status,
		Raw:            body,
	}
	switch decoded.Status {
	case "succeeded":
		result.Status = ports.StatusSucceeded
	case "canceled", "requires_payment_method":
		result.Status = ports.StatusFailed
		if decoded.LastPaymentError != nil {
			result.ProviderError = decoded.LastPaymentError.Message
		}
	default:
		result.Status = ports.StatusPending
	}
	if decoded.Error != nil && result.ProviderError == "" {
		result.ProviderError = decoded.Error.Message
	}
	return result, nil
}

type payoutResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (a Adapter) InitiateTransfer(ctx context.Context, req ports.TransferRequest) (ports.TransferResult, error) {
	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", int64(req.Amount*100)))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("destination", req.DestinationAccount)
	form.Set("statement_descriptor", truncateDescriptor(req.Reason))
	form.Set("metadata[reference]", req.Reference)
	for key, value := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	body, statusCode, err := a.do(ctx, http.MethodPost, a.baseURL()+"/v1/payouts", []byte(form.Encode()))
	if err != nil {
		return ports.TransferResult{}, err
	}

	var decoded payoutResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ports.TransferResult{}, fmt.Errorf("decode stripe payout response: %w", err)
	}
	if statusCode >= 400 || decoded.ID == "" {
		message := "stripe payout rejected"
		if decoded.Error != nil && decoded.Error.Message != "" {
			message = decoded.Error.Message
		}
		return ports.TransferResult{Accepted: false, Error: message}, nil
	}
	return ports.TransferResult{Reference: decoded.ID, Accepted: true}, nil
}

func (a Adapter) do(ctx context.Context, method string, endpoint string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = strings.NewReader(string(payload))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+a.SecretKey)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := a.client().Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domainerrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domainerrors.ErrProviderUnavailable, err)
	}
	return body, resp.StatusCode, nil
}

// Stripe caps statement descriptors at 22 characters.
func truncateDescriptor(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 22 {
		return value[:22]
	}
	if value == "" {
		return "chainraise payout"
	}
	return value
}

func (a Adapter) baseURL() string {
	if strings.TrimSpace(a.BaseURL) != "" {
		return strings.TrimRight(a.BaseURL, "/")
	}
	return defaultBaseURL
}

func (a Adapter) client() *http.Client {
	if a.HTTPClient != nil {
		return a.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID               string `json:"id"`
			Status           string `json:"status"`
			FailureMessage   string `json:"failure_message"`
			LastPaymentError *struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
		} `json:"object"`
	} `json:"data"`
}

func (a Adapter) ParseWebhookEvent(rawBody []byte) (ports.WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return ports.WebhookEvent{}, fmt.Errorf("decode stripe webhook payload: %w", err)
	}

	event := ports.WebhookEvent{
		Kind:           ports.EventKindUnknown,
		Reference:      payload.Data.Object.ID,
		ProviderStatus: payload.Data.Object.Status,
	}
	switch payload.Type {
	case "payment_intent.succeeded":
		event.Kind = ports.EventKindDonation
		event.Status = ports.StatusSucceeded
	case "payment_intent.payment_failed":
		event.Kind = ports.EventKindDonation
		event.Status = ports.StatusFailed
		if payload.Data.Object.LastPaymentError != nil {
			event.ProviderError = payload.Data.Object.LastPaymentError.Message
		}
	case "payment_intent.processing":
		event.Kind = ports.EventKindDonation
		event.Status = ports.StatusPending
	case "payout.paid":
		event.Kind = ports.EventKindTransfer
		event.Status = ports.StatusSucceeded
	case "payout.failed":
		event.Kind = ports.EventKindTransfer
		event.Status = ports.StatusFailed
		event.ProviderError = payload.Data.Object.FailureMessage
	default:
		event.Status = ports.StatusPending
	}
	return event, nil
}
