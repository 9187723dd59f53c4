package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultPaystackBaseURL = "https://api.paystack.co"
	DefaultGatewayTimeout  = 15 * time.Second

	maxGatewayBody = 1 << 20
)

// PaystackClient talks to the Paystack transaction API.
type PaystackClient struct {
	secretKey  string
	publicKey  string
	baseURL    string
	httpClient *http.Client
}

func NewPaystackClient(secretKey, publicKey, baseURL string, timeout time.Duration) *PaystackClient {
	if baseURL == "" {
		baseURL = DefaultPaystackBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	return &PaystackClient{
		secretKey:  secretKey,
		publicKey:  publicKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// paystack wraps every payload in the same envelope.
type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status          string `json:"status"` // success, failed, abandoned, ongoing, pending, reversed
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
	PaidAt          string `json:"paid_at"`
	Customer        struct {
		Email string `json:"email"`
	} `json:"customer"`
}

func (c *PaystackClient) InitializeTransaction(ctx context.Context, req InitializeRequest) (InitResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return InitResult{}, fmt.Errorf("paystack initialize encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return InitResult{}, fmt.Errorf("paystack initialize request: %w", err)
	}
	c.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	status, raw, err := c.do(httpReq)
	if err != nil {
		return InitResult{}, fmt.Errorf("paystack initialize: %w", err)
	}
	if status >= http.StatusInternalServerError {
		return InitResult{}, fmt.Errorf("%w: paystack initialize http=%d", ErrGatewayUnavailable, status)
	}

	var res envelope[initializeData]
	if err := json.Unmarshal(raw, &res); err != nil {
		return InitResult{}, fmt.Errorf("%w: paystack initialize decode http=%d: %v", ErrGatewayRejected, status, err)
	}
	if status != http.StatusOK || !res.Status {
		return InitResult{}, fmt.Errorf("%w: paystack initialize http=%d message=%q", ErrGatewayRejected, status, res.Message)
	}

	reference := res.Data.Reference
	if reference == "" {
		reference = req.Reference
	}

	return InitResult{
		Reference:        reference,
		PublicKey:        c.publicKey,
		AccessCode:       res.Data.AccessCode,
		AuthorizationURL: res.Data.AuthorizationURL,
	}, nil
}

func (c *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return VerifyResult{Status: VerifyError}, fmt.Errorf("%w: paystack verify requires a reference", ErrInvalidRequest)
	}

	endpoint := c.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return VerifyResult{Status: VerifyError}, fmt.Errorf("paystack verify request: %w", err)
	}
	c.authorize(httpReq)

	status, raw, err := c.do(httpReq)
	if err != nil {
		return VerifyResult{Status: VerifyError, Reference: reference}, fmt.Errorf("paystack verify: %w", err)
	}
	if status >= http.StatusInternalServerError {
		return VerifyResult{Status: VerifyError, Reference: reference},
			fmt.Errorf("%w: paystack verify http=%d", ErrGatewayUnavailable, status)
	}

	// Unknown references come back as 400 with status=false, which is a
	// legitimate "not paid" answer rather than an outage.
	var res envelope[verifyData]
	if err := json.Unmarshal(raw, &res); err != nil {
		return VerifyResult{Status: VerifyError, Reference: reference},
			fmt.Errorf("%w: paystack verify decode http=%d: %v", ErrGatewayUnavailable, status, err)
	}

	result := VerifyResult{
		Status:        VerifyFailed,
		GatewayStatus: res.Data.Status,
		Message:       res.Message,
		Reference:     reference,
		Amount:        res.Data.Amount,
		Currency:      res.Data.Currency,
		CustomerEmail: res.Data.Customer.Email,
	}
	if t, err := time.Parse(time.RFC3339, res.Data.PaidAt); err == nil {
		result.PaidAt = t
	}
	if res.Status && res.Data.Status == string(VerifySuccess) {
		result.Status = VerifySuccess
	}
	if res.Data.GatewayResponse != "" && result.Status != VerifySuccess {
		result.Message = res.Data.GatewayResponse
	}

	return result, nil
}

func (c *PaystackClient) authorize(r *http.Request) {
	r.Header.Set("Authorization", "Bearer "+c.secretKey)
	r.Header.Set("Accept", "application/json")
}

// do performs the request and reads a bounded body. Transport failures,
// including client timeouts, are reported as ErrGatewayUnavailable. The error
// text never carries request headers, so the secret key stays out of logs.
func (c *PaystackClient) do(r *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(r)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, redact(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayBody))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read body: %v", ErrGatewayUnavailable, err)
	}
	return resp.StatusCode, raw, nil
}

// redact drops the URL from *url.Error so query strings never reach the logs.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}
