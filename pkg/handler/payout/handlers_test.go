package payout

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/amirasaad/stealthmoney/pkg/domain/events"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestHandleCreated(t *testing.T) {
	logger, buf := bufferLogger()
	err := HandleCreated(logger)(context.Background(), &events.PayoutCreated{
		FlowEvent: events.NewFlowEvent("payout-1"),
		Provider:  "simulated",
		Status:    payout.StatusPending,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "payout_id=payout-1")
	assert.Contains(t, buf.String(), "level=INFO")
}

func TestHandleFailed(t *testing.T) {
	logger, buf := bufferLogger()
	h := HandleFailed(logger)

	require.NoError(t, h(context.Background(), &events.PayoutFailed{
		FlowEvent: events.NewFlowEvent("failed-1"),
		Code:      payout.CodeServiceUnavailable,
		Retryable: true,
		Attempted: true,
	}))
	assert.Contains(t, buf.String(), "level=ERROR")

	buf.Reset()
	require.NoError(t, h(context.Background(), &events.PayoutFailed{
		FlowEvent: events.NewFlowEvent(""),
		Code:      payout.CodeValidation,
	}))
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestHandleStatusChanged(t *testing.T) {
	logger, buf := bufferLogger()
	h := HandleStatusChanged(logger)

	require.NoError(t, h(context.Background(), &events.PayoutStatusChanged{
		FlowEvent: events.NewFlowEvent("payout-1"),
		From:      payout.StatusComplete,
		To:        payout.StatusFailed,
		Reason:    "account closed",
	}))
	assert.Contains(t, buf.String(), "payout returned by bank")
}

func TestHandlers_IgnoreUnexpectedEvents(t *testing.T) {
	logger, buf := bufferLogger()
	other := &events.PayoutFailed{FlowEvent: events.NewFlowEvent("x")}

	assert.NoError(t, HandleCreated(logger)(context.Background(), other))
	assert.NoError(t, HandleStatusChanged(logger)(context.Background(), other))
	assert.Contains(t, buf.String(), "Skipping unexpected event type")
}
