package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainerrors "chainraise/contexts/payments-core/provider-gateway/domain/errors"
	"chainraise/contexts/payments-core/provider-gateway/ports"
)

const defaultBaseURL = "https://api.paystack.co"

// Adapter implements the provider capability surface for Paystack.
// Webhook payloads are signed with HMAC-SHA512 of the raw body under the
// x-paystack-signature header.
type Adapter struct {
	SecretKey  string
	BaseURL    string
	HTTPClient *http.Client
}

func (a Adapter) Tag() string { return "paystack" }

func (a Adapter) FeeSchedule() ports.FeeSchedule {
	return ports.FeeSchedule{
		PercentFee:    1.5,
		FixedFee:      100,
		RebatePercent: 0.5,
	}
}

func (a Adapter) VerifySignature(rawBody []byte, signatureHeader string) bool {
	signature := strings.TrimSpace(signatureHeader)
	if signature == "" || a.SecretKey == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(a.SecretKey))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status          string `json:"status"`
		Reference       string `json:"reference"`
		GatewayResponse string `json:"gateway_response"`
	} `json:"data"`
}

func (a Adapter) FetchStatus(ctx context.Context, reference string) (ports.StatusResult, error) {
	url := fmt.Sprintf("%s/transaction/verify/%s", a.baseURL(), strings.TrimSpace(reference))
	body, statusCode, err := a.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.StatusResult{}, err
	}
	if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		return ports.StatusResult{
			Status:        ports.StatusAuthError,
			ProviderError: "paystack rejected api credentials",
			Raw:           body,
		}, nil
	}

	var decoded verifyResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ports.StatusResult{}, fmt.Errorf("decode paystack verify response: %w", err)
	}

	result := ports.StatusResult{
		ProviderStatus: decoded.Data.Status,
		Raw:            body,
	}
	switch decoded.Data.Status {
	case "success":
		result.Status = ports.StatusSucceeded
	case "failed", "abandoned", "reversed":
		result.Status = ports.StatusFailed
		result.ProviderError = decoded.Data.GatewayResponse
	default:
		result.Status = ports.StatusPending
	}
	return result, nil
}

type transferResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status       string `json:"status"`
		Reference    string `json:"reference"`
		TransferCode string `json:"transfer_code"`
	} `json:"data"`
}

func (a Adapter) InitiateTransfer(ctx context.Context, req ports.TransferRequest) (ports.TransferResult, error) {
	payload, err := json.Marshal(map[string]any{
		"source":    "balance",
		"amount":    int64(req.Amount * 100), // paystack transfers are in subunits
		"recipient": req.DestinationAccount,
		"currency":  req.Currency,
		"reference": req.Reference,
		"reason":    req.Reason,
	})
	if err != nil {
		return ports.TransferResult{}, err
	}

	body, statusCode, err := a.do(ctx, http.MethodPost, a.baseURL()+"/transfer", payload)
	if err != nil {
		return ports.TransferResult{}, err
	}

	var decoded transferResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ports.TransferResult{}, fmt.Errorf("decode paystack transfer response: %w", err)
	}
	if statusCode >= 400 || !decoded.Status {
		message := decoded.Message
		if message == "" {
			message = fmt.Sprintf("paystack transfer rejected with http %d", statusCode)
		}
		return ports.TransferResult{Accepted: false, Error: message}, nil
	}

	reference := decoded.Data.Reference
	if reference == "" {
		reference = decoded.Data.TransferCode
	}
	return ports.TransferResult{Reference: reference, Accepted: true}, nil
}

func (a Adapter) do(ctx context.Context, method string, url string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+a.SecretKey)
	req.Header.Set("Content-Type", "application/json")

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
	Event string `json:"event"`
	Data  struct {
		Status          string `json:"status"`
		Reference       string `json:"reference"`
		TransferCode    string `json:"transfer_code"`
		GatewayResponse string `json:"gateway_response"`
		Reason          string `json:"reason"`
	} `json:"data"`
}

func (a Adapter) ParseWebhookEvent(rawBody []byte) (ports.WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return ports.WebhookEvent{}, fmt.Errorf("decode paystack webhook payload: %w", err)
	}

	event := ports.WebhookEvent{
		Kind:           ports.EventKindUnknown,
		Reference:      payload.Data.Reference,
		ProviderStatus: payload.Data.Status,
	}
	switch payload.Event {
	case "charge.success":
		event.Kind = ports.EventKindDonation
		event.Status = ports.StatusSucceeded
	case "charge.failed":
		event.Kind = ports.EventKindDonation
		event.Status = ports.StatusFailed
		event.ProviderError = payload.Data.GatewayResponse
	case "transfer.success":
		event.Kind = ports.EventKindTransfer
		event.Status = ports.StatusSucceeded
		if event.Reference == "" {
			event.Reference = payload.Data.TransferCode
		}
	case "transfer.failed", "transfer.reversed":
		event.Kind = ports.EventKindTransfer
		event.Status = ports.StatusFailed
		event.ProviderError = payload.Data.Reason
		if event.Reference == "" {
			event.Reference = payload.Data.TransferCode
		}
	default:
		event.Status = ports.StatusPending
	}
	return event, nil
}
