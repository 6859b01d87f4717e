package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the contract the purchase flow consumes. Implementations wrap
// the provider's initialize/verify HTTP surface.
type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

type InitializeRequest struct {
	Email       string
	Amount      int64 // minor units
	Reference   string
	CallbackURL string
	Metadata    map[string]interface{}
}

type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
}

type VerifyResult struct {
	// Success is true only when the provider reports the charge settled.
	Success bool
	Status  string
	Amount  int64
	Raw     json.RawMessage
}

const defaultBaseURL = "https://api.paystack.co"

// Timeout bounds every gateway call; a hung provider must never pin a
// purchase transaction open indefinitely.
const defaultTimeout = 15 * time.Second

type Paystack struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystack(secretKey, baseURL string) *Paystack {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Paystack{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: defaultTimeout},
	}
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	body := map[string]interface{}{
		"email":        req.Email,
		"amount":       req.Amount,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
	}
	if req.Metadata != nil {
		body["metadata"] = req.Metadata
	}

	raw, err := p.post(ctx, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var resp initializeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse initialize response: %w", err)
	}
	if !resp.Status || resp.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("gateway refused initialization: %s", resp.Message)
	}

	return &InitializeResult{
		AuthorizationURL: resp.Data.AuthorizationURL,
		AccessCode:       resp.Data.AccessCode,
	}, nil
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	} `json:"data"`
}

func (p *Paystack) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	raw, err := p.get(ctx, "/transaction/verify/"+reference)
	if err != nil {
		return nil, err
	}

	var resp verifyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse verify response: %w", err)
	}
	if !resp.Status {
		return nil, fmt.Errorf("gateway could not verify %s: %s", reference, resp.Message)
	}

	return &VerifyResult{
		Success: resp.Data.Status == "success",
		Status:  resp.Data.Status,
		Amount:  resp.Data.Amount,
		Raw:     raw,
	}, nil
}

func (p *Paystack) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return p.do(httpReq)
}

func (p *Paystack) get(ctx context.Context, path string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.secretKey)

	return p.do(httpReq)
}

func (p *Paystack) do(req *http.Request) ([]byte, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return body, nil
}
