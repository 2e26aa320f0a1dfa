package webapi_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	infra_cache "github.com/amirasaad/stealthmoney/infra/cache"
	infra_eventbus "github.com/amirasaad/stealthmoney/infra/eventbus"
	"github.com/amirasaad/stealthmoney/infra/metrics"
	"github.com/amirasaad/stealthmoney/infra/provider/simulated"
	infra_repository "github.com/amirasaad/stealthmoney/infra/repository/payout"
	"github.com/amirasaad/stealthmoney/pkg/app"
	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/amirasaad/stealthmoney/pkg/provider"
	"github.com/amirasaad/stealthmoney/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{"amount":"100.50","currency":"EUR","sourceWalletId":"wallet-1",
	"destination":{"holderName":"Max Mustermann","iban":"DE89 3704 0044 0532 0130 00",
	"bic":"COBADEFFXXX","country":"DE"}}`

type fakeWebhook struct {
	report *payout.StatusReport
	err    error
}

func (f *fakeWebhook) ParseWebhook([]byte, string) (*payout.StatusReport, error) {
	return f.report, f.err
}

type testEnv struct {
	app      *fiber.App
	provider *simulated.Provider
	webhook  *fakeWebhook
}

func testConfig() *config.App {
	return &config.App{
		Env:       "test",
		Server:    &config.Server{Port: 3000},
		Log:       &config.Log{},
		DB:        &config.DB{},
		Auth:      &config.Auth{Jwt: &config.Jwt{}},
		Redis:     &config.Redis{StatusTTL: time.Minute},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
		Payout:    &config.Payout{Provider: simulated.Name, SupportedCurrency: "EUR"},
		Retry:     &config.Retry{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
		Circle:    &config.Circle{},
		Stripe:    &config.Stripe{},
		EventBus:  &config.EventBus{Driver: "memory"},
	}
}

func setup(t *testing.T, cfg *config.App) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := simulated.New(simulated.WithSettleDelay(time.Hour))
	m := metrics.New()
	mc := infra_cache.NewMemoryCache()
	t.Cleanup(mc.Close)
	wh := &fakeWebhook{}

	a := app.New(&app.Deps{
		PayoutProvider: p,
		Webhook:        wh,
		Repository:     infra_repository.NewMemory(),
		Cache:          mc,
		EventBus:       infra_eventbus.NewWithMemory(logger),
		Recorder:       m,
		Observer:       m.Observer(),
		MetricsHTTP:    m.Handler(),
		Logger:         logger,
	}, cfg)
	fiberApp, err := webapi.SetupApp(a)
	require.NoError(t, err)
	return &testEnv{app: fiberApp, provider: p, webhook: wh}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func errorCode(out map[string]any) string {
	body, _ := out["error"].(map[string]any)
	code, _ := body["code"].(string)
	return code
}

func dataField(out map[string]any, key string) any {
	data, _ := out["data"].(map[string]any)
	return data[key]
}

func TestRootAndUnknownRoute(t *testing.T) {
	env := setup(t, testConfig())

	resp, _ := env.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out := env.do(t, http.MethodGet, "/doesnotexist", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(out))
}

func TestCreatePayout(t *testing.T) {
	env := setup(t, testConfig())

	resp, out := env.do(t, http.MethodPost, "/api/v1/payouts", validBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := dataField(out, "id").(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "pending", dataField(out, "status"))

	resp, out = env.do(t, http.MethodGet, "/api/v1/payouts/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, dataField(out, "id"))

	resp, out = env.do(t, http.MethodGet, "/api/v1/wallets/wallet-1/payouts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list, _ := out["data"].([]any)
	assert.Len(t, list, 1)
}

func TestCreatePayout_IdempotencyHeader(t *testing.T) {
	env := setup(t, testConfig())

	_, first := env.do(t, http.MethodPost, "/api/v1/payouts", validBody, "Idempotency-Key", "idem-42")
	_, second := env.do(t, http.MethodPost, "/api/v1/payouts", validBody, "Idempotency-Key", "idem-42")
	assert.Equal(t, dataField(first, "id"), dataField(second, "id"))
}

func TestCreatePayout_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed json", `{"amount":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing fields", `{"amount":"10"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unsupported currency", strings.Replace(validBody, `"EUR"`, `"USD"`, 1), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad iban", strings.Replace(validBody, "0130 00", "0130 01", 1), http.StatusBadRequest, "INVALID_BANK_DETAILS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t, testConfig())
			resp, out := env.do(t, http.MethodPost, "/api/v1/payouts", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(out))
			body := out["error"].(map[string]any)
			assert.Equal(t, false, body["retryable"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestCreatePayout_DomainRulesOverHTTP(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		code    string
		message string
	}{
		{"empty amount", `"amount":"100.50"`, `"amount":""`, "VALIDATION_ERROR", "Payout amount must be a positive number"},
		{"four letter currency", `"currency":"EUR"`, `"currency":"EURO"`, "VALIDATION_ERROR", "Unsupported currency: EURO. Only EUR is supported"},
		{"three letter country", `"country":"DE"`, `"country":"DEU"`, "VALIDATION_ERROR", "Country DEU is not supported for EUR payouts"},
		{"empty iban", `"iban":"DE89 3704 0044 0532 0130 00"`, `"iban":""`, "INVALID_BANK_DETAILS", payout.CodeInvalidBankDetails.UserMessage()},
		{"empty holder", `"holderName":"Max Mustermann"`, `"holderName":""`, "INVALID_BANK_DETAILS", payout.CodeInvalidBankDetails.UserMessage()},
		{"empty bic", `"bic":"COBADEFFXXX"`, `"bic":""`, "INVALID_BANK_DETAILS", payout.CodeInvalidBankDetails.UserMessage()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Replace(validBody, tt.from, tt.to, 1)
			require.NotEqual(t, validBody, body)

			env := setup(t, testConfig())
			resp, out := env.do(t, http.MethodPost, "/api/v1/payouts", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(out))
			assert.Equal(t, tt.message, out["error"].(map[string]any)["message"])
		})
	}
}

func TestCreatePayout_ProviderFailure(t *testing.T) {
	env := setup(t, testConfig())
	env.provider.FailNext(&payout.Failure{Response: &payout.FailureResponse{
		Status: http.StatusBadRequest,
		Data:   &payout.FailureData{Code: "insufficient_funds", Message: "Insufficient funds in wallet"},
	}})

	resp, out := env.do(t, http.MethodPost, "/api/v1/payouts", validBody)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_FUNDS", errorCode(out))
}

func TestCreatePayout_RetriesExhausted(t *testing.T) {
	env := setup(t, testConfig())
	unavailable := &payout.Failure{Response: &payout.FailureResponse{Status: http.StatusServiceUnavailable}}
	env.provider.FailNext(unavailable, unavailable, unavailable)

	resp, out := env.do(t, http.MethodPost, "/api/v1/payouts", validBody)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(out))
	assert.Equal(t, true, out["error"].(map[string]any)["retryable"])
}

func TestGetPayout_NotFound(t *testing.T) {
	env := setup(t, testConfig())
	resp, out := env.do(t, http.MethodGet, "/api/v1/payouts/payout-missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(out))
}

func TestValidateEndpoints(t *testing.T) {
	env := setup(t, testConfig())
	tests := []struct {
		path      string
		value     string
		valid     bool
		formatted string
	}{
		{"/api/v1/validate/iban", "de89370400440532013000", true, "DE89 3704 0044 0532 0130 00"},
		{"/api/v1/validate/iban", "DE89370400440532013001", false, ""},
		{"/api/v1/validate/bic", "cobadeffxxx", true, "COBADEFFXXX"},
		{"/api/v1/validate/bic", "COBA", false, ""},
		{"/api/v1/validate/rut", "12345678-5", true, "12.345.678-5"},
		{"/api/v1/validate/rut", "12345678-9", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.value, func(t *testing.T) {
			resp, out := env.do(t, http.MethodPost, tt.path, fmt.Sprintf(`{"value":%q}`, tt.value))
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.valid, out["valid"])
			if tt.valid {
				assert.Equal(t, tt.formatted, out["formatted"])
			}
		})
	}

	resp, out := env.do(t, http.MethodPost, "/api/v1/validate/iban", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(out))
}

func TestStripeWebhook(t *testing.T) {
	env := setup(t, testConfig())
	_, out := env.do(t, http.MethodPost, "/api/v1/payouts", validBody)
	id := dataField(out, "id").(string)

	resp, _ := env.do(t, http.MethodPost, "/webhooks/stripe", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing signature")

	env.webhook.err = provider.ErrWebhookSignature
	resp, _ = env.do(t, http.MethodPost, "/webhooks/stripe", `{}`, "Stripe-Signature", "t=1,v1=bad")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	env.webhook.err = provider.ErrUnhandledWebhook
	resp, _ = env.do(t, http.MethodPost, "/webhooks/stripe", `{}`, "Stripe-Signature", "t=1,v1=ok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.webhook.err = nil
	env.webhook.report = &payout.StatusReport{ID: "po_unknown", Status: payout.StatusComplete}
	resp, _ = env.do(t, http.MethodPost, "/webhooks/stripe", `{}`, "Stripe-Signature", "t=1,v1=ok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.webhook.report = &payout.StatusReport{ID: id, Status: payout.StatusComplete, UpdatedAt: time.Now()}
	resp, _ = env.do(t, http.MethodPost, "/webhooks/stripe", `{}`, "Stripe-Signature", "t=1,v1=ok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, out = env.do(t, http.MethodGet, "/api/v1/payouts/"+id, "")
	assert.Equal(t, "complete", dataField(out, "status"))
}

func TestMetricsEndpoint(t *testing.T) {
	env := setup(t, testConfig())
	env.do(t, http.MethodPost, "/api/v1/payouts", validBody)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `stealthmoney_payouts_total{provider="simulated",status="pending"} 1`)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxRequests = 2
	env := setup(t, cfg)

	body := `{"value":"COBADEFFXXX"}`
	for i := range 2 {
		resp, _ := env.do(t, http.MethodPost, "/api/v1/validate/bic", body, "X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		assert.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i+1)
	}
	resp, out := env.do(t, http.MethodPost, "/api/v1/validate/bic", body, "X-Forwarded-For", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "TOO_MANY_REQUESTS", errorCode(out))

	resp, _ = env.do(t, http.MethodPost, "/api/v1/validate/bic", body, "X-Real-IP", "10.0.0.9")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJwtProtectsPayoutRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Jwt = &config.Jwt{Key: "secret", Algorithm: "HS256"}
	env := setup(t, cfg)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/payouts", validBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/payouts/x", "", "Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/validate/bic", `{"value":"COBADEFFXXX"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSetupApp_ProductionRequiresJwt(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	m := metrics.New()
	a := app.New(&app.Deps{
		PayoutProvider: simulated.New(),
		Repository:     infra_repository.NewMemory(),
		Recorder:       m,
	}, cfg)
	_, err := webapi.SetupApp(a)
	assert.ErrorContains(t, err, "AUTH_JWT_KEY")
}
