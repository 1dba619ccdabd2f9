package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-payment/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core), observability.F("service", "payment-service"))

	l.With(observability.F("use_case", "payment.checkout")).Warn("use_case_done",
		observability.F("outcome", "error"),
		observability.F("error", errors.New("broker: closed")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "use_case_done", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "payment-service", fields["service"])
	assert.Equal(t, "payment.checkout", fields["use_case"])
	assert.Equal(t, "error", fields["outcome"])
	assert.Equal(t, "broker: closed", fields["error"])
}
