package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/telemetry"
)

func TestNoOpTracer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	newCtx, span := telemetry.NewNoOpTracer().Start(ctx, "test")
	assert.Equal(t, ctx, newCtx)

	span.SetAttribute("key", "value")
	span.RecordError(errors.New("test error"))
	n, err := span.Write([]byte("test log data"))
	require.NoError(t, err)
	assert.Equal(t, 13, n)
	span.End()
}
