package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const flutterwaveBaseURL = "https://api.flutterwave.com/v3"

// Flutterwave bills in major units (naira, not kobo). The conversion to and
// from the adapter's minor-unit boundary happens here and nowhere else.
type Flutterwave struct {
	client  *http.Client
	BaseURL string
}

func NewFlutterwave(client *http.Client) *Flutterwave {
	return &Flutterwave{client: client, BaseURL: flutterwaveBaseURL}
}

func (f *Flutterwave) Name() string { return "flutterwave" }

func (f *Flutterwave) IsConfigured(creds Credentials) bool { return !creds.IsZero() }

type flutterwaveInitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

type flutterwaveVerifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        int64           `json:"id"`
		TxRef     string          `json:"tx_ref"`
		Status    string          `json:"status"`
		Amount    decimal.Decimal `json:"amount"`
		Currency  string          `json:"currency"`
		CreatedAt string          `json:"created_at"`
	} `json:"data"`
}

func (f *Flutterwave) Initialize(ctx context.Context, req InitializeRequest, creds Credentials) (*InitializeResult, error) {
	if creds.IsZero() {
		return nil, ErrNotConfigured
	}

	// Minor units in, major units out to Flutterwave.
	amountMajor := decimal.New(req.AmountMinor, -2)

	payload := map[string]interface{}{
		"tx_ref":   req.Reference,
		"amount":   amountMajor.String(),
		"currency": req.Currency,
		"customer": map[string]interface{}{"email": req.Email},
		"meta":     req.Metadata,
	}
	if req.CallbackURL != "" {
		payload["redirect_url"] = req.CallbackURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var response flutterwaveInitResponse
	if err := f.do(httpReq, creds.SecretKey, &response); err != nil {
		return nil, err
	}
	if response.Status != "success" {
		return nil, fmt.Errorf("flutterwave: initialize rejected: %s", response.Message)
	}
	return &InitializeResult{
		AuthorizationURL: response.Data.Link,
		Reference:        req.Reference,
	}, nil
}

func (f *Flutterwave) Verify(ctx context.Context, reference string, creds Credentials) (*VerifyResult, error) {
	if creds.IsZero() {
		return nil, ErrNotConfigured
	}

	endpoint := f.BaseURL + "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(reference)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var response flutterwaveVerifyResponse
	if err := f.do(httpReq, creds.SecretKey, &response); err != nil {
		return nil, err
	}
	if response.Status != "success" {
		return nil, fmt.Errorf("flutterwave: verify rejected: %s", response.Message)
	}

	result := &VerifyResult{
		// Major units from Flutterwave, minor units out.
		AmountMinor:          response.Data.Amount.Shift(2).IntPart(),
		GatewayTransactionID: fmt.Sprintf("%d", response.Data.ID),
	}
	switch response.Data.Status {
	case "successful":
		result.Status = VerifySuccess
	case "failed":
		result.Status = VerifyFailed
	default:
		result.Status = VerifyPending
	}
	if response.Data.CreatedAt != "" {
		if paidAt, parseErr := time.Parse(time.RFC3339, response.Data.CreatedAt); parseErr == nil {
			result.PaidAt = paidAt
		}
	}
	return result, nil
}

func (f *Flutterwave) do(req *http.Request, secretKey string, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+secretKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("flutterwave: server error %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("flutterwave: decode response: %w", err)
	}
	return nil
}
