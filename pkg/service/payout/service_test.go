package payout_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/stealthmoney/infra/cache"
	"github.com/amirasaad/stealthmoney/infra/eventbus"
	repository "github.com/amirasaad/stealthmoney/infra/repository/payout"
	"github.com/amirasaad/stealthmoney/pkg/domain/events"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/amirasaad/stealthmoney/pkg/provider"
	"github.com/amirasaad/stealthmoney/pkg/retry"
	service "github.com/amirasaad/stealthmoney/pkg/service/payout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) CreatePayout(ctx context.Context, req *payout.Request) (*payout.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*payout.Result)
	return res, args.Error(1)
}

func (m *mockProvider) GetPayout(ctx context.Context, id string) (*payout.StatusReport, error) {
	args := m.Called(ctx, id)
	report, _ := args.Get(0).(*payout.StatusReport)
	return report, args.Error(1)
}

type fixture struct {
	svc      *service.Service
	provider *mockProvider
	repo     *repository.Memory
	cache    *cache.MemoryCache
	bus      *eventbus.MemoryEventBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		provider: &mockProvider{},
		repo:     repository.NewMemory(),
		cache:    cache.NewMemoryCache(),
		bus:      eventbus.NewWithMemory(logger),
	}
	t.Cleanup(f.cache.Close)
	exec := retry.New(retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
		retry.WithLogger(logger))
	f.svc = service.New(f.provider, f.repo, exec,
		service.WithCache(f.cache),
		service.WithEventBus(f.bus),
		service.WithLogger(logger),
	)
	return f
}

func validRequest() *payout.Request {
	return &payout.Request{
		Amount:         "150.00",
		Currency:       "eur",
		SourceWalletID: "wallet-1",
		Destination: payout.BankAccount{
			HolderName: "Max Mustermann",
			IBAN:       "DE89 3704 0044 0532 0130 00",
			BIC:        "COBADEFFXXX",
			Country:    "DE",
		},
	}
}

func pendingResult(id string) *payout.Result {
	now := time.Now().UTC()
	return &payout.Result{
		ID:        id,
		Status:    payout.StatusPending,
		Amount:    "150.00",
		Currency:  "EUR",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func eventTypes(bus *eventbus.MemoryEventBus) []string {
	var out []string
	for _, e := range bus.Published() {
		out = append(out, e.Type())
	}
	return out
}

func TestCreatePayout_ValidationNeverReachesProvider(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.SourceWalletID = ""

	_, err := f.svc.CreatePayout(t.Context(), req)
	require.Error(t, err)
	assert.True(t, payout.HasCode(err, payout.CodeValidation))
	typed, _ := payout.AsError(err)
	assert.Equal(t, "Source wallet ID is required", typed.UserMessage)

	f.provider.AssertNotCalled(t, "CreatePayout", mock.Anything, mock.Anything)
	require.Len(t, f.bus.Published(), 1)
	failed := f.bus.Published()[0].(*events.PayoutFailed)
	assert.False(t, failed.Attempted)
	assert.Equal(t, payout.CodeValidation, failed.Code)
}

func TestCreatePayout_Success(t *testing.T) {
	f := newFixture(t)
	f.provider.On("CreatePayout", mock.Anything, mock.MatchedBy(func(r *payout.Request) bool {
		return r.Currency == "EUR" && r.IdempotencyKey != ""
	})).Return(pendingResult("payout-1"), nil).Once()

	res, err := f.svc.CreatePayout(t.Context(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "payout-1", res.ID)
	assert.Equal(t, "mock", res.Provider)
	assert.Equal(t, "wallet-1", res.SourceWalletID)

	rec, err := f.repo.Get(t.Context(), "payout-1")
	require.NoError(t, err)
	assert.Equal(t, "3000", rec.IBANLast4)
	assert.NotEmpty(t, rec.IdempotencyKey)

	cached, err := f.cache.Get(t.Context(), "payout-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, payout.StatusPending, cached.Status)

	assert.Equal(t, []string{"payout.created"}, eventTypes(f.bus))
	f.provider.AssertExpectations(t)
}

func TestCreatePayout_IdempotencyKeyDeduplicates(t *testing.T) {
	f := newFixture(t)
	f.provider.On("CreatePayout", mock.Anything, mock.Anything).
		Return(pendingResult("payout-1"), nil).Once()

	req := validRequest()
	req.IdempotencyKey = "idem-42"
	first, err := f.svc.CreatePayout(t.Context(), req)
	require.NoError(t, err)
	second, err := f.svc.CreatePayout(t.Context(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	f.provider.AssertNumberOfCalls(t, "CreatePayout", 1)
}

func TestCreatePayout_ConcurrentSubmissionsShareOnePayout(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.provider.On("CreatePayout", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(pendingResult("payout-1"), nil).Once()

	req := validRequest()
	req.IdempotencyKey = "idem-concurrent"

	var wg sync.WaitGroup
	ids := make([]string, 5)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.CreatePayout(context.Background(), req)
			if assert.NoError(t, err) {
				ids[i] = res.ID
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, "payout-1", id)
	}
	f.provider.AssertNumberOfCalls(t, "CreatePayout", 1)
}

func TestCreatePayout_CancelledCallerDoesNotCancelJoinedCaller(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.provider.On("CreatePayout", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
			assert.NoError(t, args.Get(0).(context.Context).Err())
		}).
		Return(pendingResult("payout-1"), nil).Once()

	req := validRequest()
	req.IdempotencyKey = "idem-cancelled"

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.svc.CreatePayout(firstCtx, req)
		firstErr <- err
	}()
	<-started

	second := make(chan *payout.Result, 1)
	go func() {
		res, err := f.svc.CreatePayout(context.Background(), req)
		assert.NoError(t, err)
		second <- res
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NotNil(t, res)
	assert.Equal(t, "payout-1", res.ID)
	f.provider.AssertNumberOfCalls(t, "CreatePayout", 1)

	rec, err := f.repo.Get(context.Background(), "payout-1")
	require.NoError(t, err)
	assert.Equal(t, "idem-cancelled", rec.IdempotencyKey)
}

func TestCreatePayout_RetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	f.provider.On("CreatePayout", mock.Anything, mock.Anything).
		Return(nil, &payout.Failure{Code: "ECONNRESET"}).Twice()
	f.provider.On("CreatePayout", mock.Anything, mock.Anything).
		Return(pendingResult("payout-7"), nil).Once()

	res, err := f.svc.CreatePayout(t.Context(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "payout-7", res.ID)
	f.provider.AssertNumberOfCalls(t, "CreatePayout", 3)
}

func TestCreatePayout_PermanentFailure(t *testing.T) {
	f := newFixture(t)
	f.provider.On("CreatePayout", mock.Anything, mock.Anything).
		Return(nil, &payout.Failure{Response: &payout.FailureResponse{
			Status: 400,
			Data:   &payout.FailureData{Code: "insufficient_funds", Message: "Insufficient funds"},
		}}).Once()

	_, err := f.svc.CreatePayout(t.Context(), validRequest())
	require.Error(t, err)
	assert.True(t, payout.HasCode(err, payout.CodeInsufficientFunds))
	f.provider.AssertNumberOfCalls(t, "CreatePayout", 1)

	recs, err := f.repo.ListByWallet(t.Context(), "wallet-1", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, payout.StatusFailed, recs[0].Status)
	assert.Equal(t, string(payout.CodeInsufficientFunds), recs[0].FailureCode)

	failed := f.bus.Published()[0].(*events.PayoutFailed)
	assert.True(t, failed.Attempted)
	assert.False(t, failed.Retryable)
}

func TestCreatePayout_ExhaustedRetries(t *testing.T) {
	f := newFixture(t)
	f.provider.On("CreatePayout", mock.Anything, mock.Anything).
		Return(nil, &payout.Failure{Response: &payout.FailureResponse{Status: 503}})

	_, err := f.svc.CreatePayout(t.Context(), validRequest())
	require.Error(t, err)
	typed, ok := payout.AsError(err)
	require.True(t, ok)
	assert.Equal(t, payout.CodeServiceUnavailable, typed.Code)
	assert.True(t, typed.Retryable)
	f.provider.AssertNumberOfCalls(t, "CreatePayout", 3)
}

func TestGetStatus(t *testing.T) {
	f := newFixture(t)
	f.provider.On("CreatePayout", mock.Anything, mock.Anything).Return(pendingResult("payout-1"), nil).Once()
	_, err := f.svc.CreatePayout(t.Context(), validRequest())
	require.NoError(t, err)
	require.NoError(t, f.cache.Delete(t.Context(), "payout-1"))
	f.bus.ClearPublished()

	f.provider.On("GetPayout", mock.Anything, "payout-1").
		Return(&payout.StatusReport{ID: "payout-1", Status: payout.StatusComplete, UpdatedAt: time.Now()}, nil).Once()

	report, err := f.svc.GetStatus(t.Context(), "payout-1")
	require.NoError(t, err)
	assert.Equal(t, payout.StatusComplete, report.Status)
	assert.False(t, report.CreatedAt.IsZero())

	rec, err := f.repo.Get(t.Context(), "payout-1")
	require.NoError(t, err)
	assert.Equal(t, payout.StatusComplete, rec.Status)
	require.Len(t, f.bus.Published(), 1)
	changed := f.bus.Published()[0].(*events.PayoutStatusChanged)
	assert.Equal(t, payout.StatusPending, changed.From)
	assert.Equal(t, payout.StatusComplete, changed.To)

	report, err = f.svc.GetStatus(t.Context(), "payout-1")
	require.NoError(t, err)
	assert.Equal(t, payout.StatusComplete, report.Status)
	f.provider.AssertNumberOfCalls(t, "GetPayout", 1)
}

func TestGetStatus_Unknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetStatus(t.Context(), "payout-missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
	f.provider.AssertNotCalled(t, "GetPayout", mock.Anything, mock.Anything)
}

func TestHandleProviderEvent(t *testing.T) {
	f := newFixture(t)
	f.provider.On("CreatePayout", mock.Anything, mock.Anything).Return(pendingResult("payout-1"), nil).Once()
	_, err := f.svc.CreatePayout(t.Context(), validRequest())
	require.NoError(t, err)
	f.bus.ClearPublished()

	require.NoError(t, f.svc.HandleProviderEvent(t.Context(),
		&payout.StatusReport{ID: "payout-1", Status: payout.StatusComplete}))
	require.NoError(t, f.svc.HandleProviderEvent(t.Context(),
		&payout.StatusReport{ID: "payout-1", Status: payout.StatusComplete}))
	require.NoError(t, f.svc.HandleProviderEvent(t.Context(),
		&payout.StatusReport{ID: "payout-1", Status: payout.StatusFailed, Reason: "account closed"}))
	require.NoError(t, f.svc.HandleProviderEvent(t.Context(),
		&payout.StatusReport{ID: "payout-1", Status: payout.StatusPending}))

	assert.Equal(t, []string{"payout.status_changed", "payout.status_changed"}, eventTypes(f.bus))
	rec, err := f.repo.Get(t.Context(), "payout-1")
	require.NoError(t, err)
	assert.Equal(t, payout.StatusFailed, rec.Status)
	assert.Equal(t, "account closed", rec.FailureReason)

	cached, err := f.cache.Get(t.Context(), "payout-1")
	require.NoError(t, err)
	assert.Equal(t, payout.StatusFailed, cached.Status)

	err = f.svc.HandleProviderEvent(t.Context(), &payout.StatusReport{ID: "nope", Status: payout.StatusFailed})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestFetchStatus_BypassesRepository(t *testing.T) {
	f := newFixture(t)
	f.provider.On("GetPayout", mock.Anything, "external-1").
		Return(&payout.StatusReport{ID: "external-1", Status: payout.StatusComplete}, nil).Once()

	report, err := f.svc.FetchStatus(t.Context(), "external-1")
	require.NoError(t, err)
	assert.Equal(t, payout.StatusComplete, report.Status)

	_, err = f.repo.Get(t.Context(), "external-1")
	assert.Error(t, err)
}

func TestFetchStatus_UnknownToProvider(t *testing.T) {
	f := newFixture(t)
	f.provider.On("GetPayout", mock.Anything, "ghost").
		Return(nil, fmt.Errorf("%w: ghost", provider.ErrPayoutNotFound)).Once()

	_, err := f.svc.FetchStatus(t.Context(), "ghost")
	assert.ErrorIs(t, err, service.ErrNotFound)
	f.provider.AssertNumberOfCalls(t, "GetPayout", 1)
}
