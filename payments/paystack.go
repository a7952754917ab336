package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const paystackBaseURL = "https://api.paystack.co"

// Paystack bills in minor units (kobo), same as the adapter boundary, so
// amounts pass through unconverted.
type Paystack struct {
	client  *http.Client
	BaseURL string
}

func NewPaystack(client *http.Client) *Paystack {
	return &Paystack{client: client, BaseURL: paystackBaseURL}
}

func (p *Paystack) Name() string { return "paystack" }

func (p *Paystack) IsConfigured(creds Credentials) bool { return !creds.IsZero() }

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        int64                  `json:"id"`
		Status    string                 `json:"status"`
		Reference string                 `json:"reference"`
		Amount    int64                  `json:"amount"`
		PaidAt    string                 `json:"paid_at"`
		Metadata  map[string]interface{} `json:"metadata"`
	} `json:"data"`
}

func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest, creds Credentials) (*InitializeResult, error) {
	if creds.IsZero() {
		return nil, ErrNotConfigured
	}

	payload := map[string]interface{}{
		"email":     req.Email,
		"amount":    req.AmountMinor,
		"reference": req.Reference,
		"metadata":  req.Metadata,
	}
	if req.Currency != "" {
		payload["currency"] = req.Currency
	}
	if req.CallbackURL != "" {
		payload["callback_url"] = req.CallbackURL
	}

	var response paystackInitResponse
	err := p.post(ctx, "/transaction/initialize", creds.SecretKey, payload, &response)
	if err != nil {
		return nil, err
	}
	if !response.Status {
		return nil, fmt.Errorf("paystack: initialize rejected: %s", response.Message)
	}
	return &InitializeResult{
		AuthorizationURL: response.Data.AuthorizationURL,
		Reference:        response.Data.Reference,
	}, nil
}

func (p *Paystack) Verify(ctx context.Context, reference string, creds Credentials) (*VerifyResult, error) {
	if creds.IsZero() {
		return nil, ErrNotConfigured
	}

	var response paystackVerifyResponse
	err := p.get(ctx, "/transaction/verify/"+reference, creds.SecretKey, &response)
	if err != nil {
		return nil, err
	}
	if !response.Status {
		return nil, fmt.Errorf("paystack: verify rejected: %s", response.Message)
	}

	result := &VerifyResult{
		AmountMinor:          response.Data.Amount,
		GatewayTransactionID: fmt.Sprintf("%d", response.Data.ID),
	}
	switch response.Data.Status {
	case "success":
		result.Status = VerifySuccess
	case "failed":
		result.Status = VerifyFailed
	default: // abandoned, ongoing, pending, queued
		result.Status = VerifyPending
	}
	if response.Data.PaidAt != "" {
		if paidAt, parseErr := time.Parse(time.RFC3339, response.Data.PaidAt); parseErr == nil {
			result.PaidAt = paidAt
		}
	}
	return result, nil
}

func (p *Paystack) post(ctx context.Context, path, secretKey string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return p.do(req, secretKey, out)
}

func (p *Paystack) get(ctx context.Context, path, secretKey string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return p.do(req, secretKey, out)
}

func (p *Paystack) do(req *http.Request, secretKey string, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+secretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("paystack: server error %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("paystack: decode response: %w", err)
	}
	return nil
}
