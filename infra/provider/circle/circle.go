// Package circle sends EUR payouts through the Circle REST API: the
// destination IBAN is registered as a wire bank account, then a payout is
// created from the source wallet to it.
package circle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/amirasaad/stealthmoney/pkg/provider"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const Name = "circle"

// Client is a provider.Payout backed by Circle.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Circle client from config.
func New(cfg *config.Circle, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:  cfg.ApiKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With("provider", Name),
	}
}

func (c *Client) Name() string { return Name }

type money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type billingDetails struct {
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	Country string `json:"country"`
}

type bankAddress struct {
	BankName string `json:"bankName,omitempty"`
	City     string `json:"city,omitempty"`
	Country  string `json:"country"`
}

type wireBankRequest struct {
	IdempotencyKey string         `json:"idempotencyKey"`
	IBAN           string         `json:"iban"`
	BillingDetails billingDetails `json:"billingDetails"`
	BankAddress    bankAddress    `json:"bankAddress"`
}

type wireBank struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	TrackingRef string `json:"trackingRef"`
}

type endpoint struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type payoutRequest struct {
	IdempotencyKey string   `json:"idempotencyKey"`
	Source         endpoint `json:"source"`
	Destination    endpoint `json:"destination"`
	Amount         money    `json:"amount"`
	Metadata       *struct {
		Description string `json:"description,omitempty"`
	} `json:"metadata,omitempty"`
}

type payoutData struct {
	ID             string    `json:"id"`
	SourceWalletID string    `json:"sourceWalletId"`
	Destination    endpoint  `json:"destination"`
	Amount         money     `json:"amount"`
	Fees           *money    `json:"fees,omitempty"`
	Status         string    `json:"status"`
	TrackingRef    string    `json:"trackingRef"`
	ErrorCode      string    `json:"errorCode,omitempty"`
	CreateDate     time.Time `json:"createDate"`
	UpdateDate     time.Time `json:"updateDate"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// CreatePayout registers the destination bank and creates the payout.
// The payout idempotency key is forwarded so a retried call is not paid twice.
func (c *Client) CreatePayout(ctx context.Context, req *payout.Request) (*payout.Result, error) {
	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	bank, err := c.createWireBank(ctx, &req.Destination, key)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, fmt.Errorf("circle: invalid amount %q: %w", req.Amount, err)
	}
	body := payoutRequest{
		IdempotencyKey: key,
		Source:         endpoint{Type: "wallet", ID: req.SourceWalletID},
		Destination:    endpoint{Type: "wire", ID: bank.ID},
		Amount:         money{Amount: amount.StringFixed(2), Currency: strings.ToUpper(req.Currency)},
	}
	if req.Description != "" {
		body.Metadata = &struct {
			Description string `json:"description,omitempty"`
		}{Description: req.Description}
	}

	var out envelope[payoutData]
	if err := c.do(ctx, http.MethodPost, "/v1/payouts", body, &out); err != nil {
		return nil, err
	}
	c.logger.Info("payout created", "payout_id", out.Data.ID, "status", out.Data.Status)
	return toResult(&out.Data), nil
}

// GetPayout fetches the payout status.
func (c *Client) GetPayout(ctx context.Context, id string) (*payout.StatusReport, error) {
	var out envelope[payoutData]
	if err := c.do(ctx, http.MethodGet, "/v1/payouts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	res := toResult(&out.Data)
	report := res.Report()
	report.Reason = out.Data.ErrorCode
	return report, nil
}

func (c *Client) createWireBank(ctx context.Context, acct *payout.BankAccount, key string) (*wireBank, error) {
	body := wireBankRequest{
		// Derived so retries of one payout reuse the same bank registration.
		IdempotencyKey: uuid.NewSHA1(uuid.NameSpaceOID, []byte("bank:"+key)).String(),
		IBAN:           payout.NormalizeIBAN(acct.IBAN),
		BillingDetails: billingDetails{
			Name:    acct.HolderName,
			City:    acct.City,
			Country: strings.ToUpper(acct.Country),
		},
		BankAddress: bankAddress{
			BankName: acct.BankName,
			City:     acct.City,
			Country:  strings.ToUpper(acct.Country),
		},
	}
	var out envelope[wireBank]
	if err := c.do(ctx, http.MethodPost, "/v1/banks/wires", body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("circle: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("circle: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &payout.Failure{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &payout.Failure{Message: err.Error(), Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeError(method, path, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("circle: decode response: %w", err)
	}
	return nil
}

// decodeError turns an error response into a payout.Failure. Only request
// errors (400, 404, 422) expose the message to the content rules; for the
// rest the HTTP status decides.
func (c *Client) decodeError(method, path string, status int, raw []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(raw, &apiErr)
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	c.logger.Warn("circle request failed",
		"method", method,
		"path", path,
		"status", status,
		"circle_code", apiErr.Code,
		"message", apiErr.Message,
	)

	f := &payout.Failure{
		Response: &payout.FailureResponse{
			Status: status,
			Data:   &payout.FailureData{Code: apiCodeFor(apiErr), Message: apiErr.Message},
		},
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		f.Message = apiErr.Message
	case http.StatusNotFound:
		f.Message = apiErr.Message
		f.Err = provider.ErrPayoutNotFound
	}
	return f
}

// apiCodeFor maps the textual hints of a Circle error onto the structured
// codes the classifier knows. Numeric Circle codes are only logged.
func apiCodeFor(e apiError) string {
	msg := strings.ToLower(e.Message)
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return "insufficient_funds"
	case strings.Contains(msg, "wallet") && strings.Contains(msg, "not found"):
		return "wallet_not_found"
	case strings.Contains(msg, "iban"):
		return "invalid_iban"
	case strings.Contains(msg, "compliance"):
		return "compliance_hold"
	}
	return ""
}

func toResult(d *payoutData) *payout.Result {
	res := &payout.Result{
		ID:             d.ID,
		Status:         statusFor(d.Status),
		Amount:         d.Amount.Amount,
		Currency:       d.Amount.Currency,
		SourceWalletID: d.SourceWalletID,
		TrackingRef:    d.TrackingRef,
		Provider:       Name,
		CreatedAt:      d.CreateDate,
		UpdatedAt:      d.UpdateDate,
	}
	if d.Fees != nil {
		res.Fee = d.Fees.Amount
	}
	if res.Status == payout.StatusPending && !d.CreateDate.IsZero() {
		// SEPA wires settle within one business day.
		eta := d.CreateDate.Add(24 * time.Hour)
		res.EstimatedArrival = &eta
	}
	return res
}

func statusFor(s string) payout.Status {
	switch strings.ToLower(s) {
	case "complete", "completed", "paid":
		return payout.StatusComplete
	case "failed", "returned":
		return payout.StatusFailed
	default:
		return payout.StatusPending
	}
}

var _ provider.Payout = (*Client)(nil)
