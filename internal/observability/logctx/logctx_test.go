package logctx

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-payment/internal/observability"
	"github.com/stretchr/testify/assert"
)

type namedLogger struct {
	observability.Logger
	name string
}

func TestFromOr(t *testing.T) {
	fallback := namedLogger{Logger: observability.NopLogger(), name: "fallback"}
	scoped := namedLogger{Logger: observability.NopLogger(), name: "scoped"}

	assert.Equal(t, fallback, FromOr(context.Background(), fallback))
	assert.NotNil(t, FromOr(context.Background(), nil))

	ctx := With(context.Background(), scoped)
	assert.Equal(t, scoped, From(ctx))
	assert.Equal(t, scoped, FromOr(ctx, fallback))
}

func TestWith_NilLogger(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, With(ctx, nil))
	assert.Nil(t, From(ctx))
}
