package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/tend/internal/adapters/telemetry"
	"go.trai.ch/tend/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestBridge_StartUsesRuleName(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	renderer.EXPECT().OnRunStart(gomock.Any(), "server", gomock.Any()).Times(1)
	renderer.EXPECT().OnRunComplete(gomock.Any(), gomock.Any(), gomock.Any()).Times(1)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(renderer)))
	_, span := tp.Tracer("test").Start(context.Background(), "server")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestBridge_ErrorStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)

	renderer.EXPECT().OnRunStart(gomock.Any(), gomock.Any(), gomock.Any())
	renderer.EXPECT().OnRunComplete(gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(_ string, _ time.Time, err error) {
			require.EqualError(t, err, "exit status 1")
		})

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(renderer)))
	_, span := tp.Tracer("test").Start(context.Background(), "test")
	span.SetStatus(codes.Error, "exit status 1")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestBridge_NilRenderer(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(nil)))
	_, span := tp.Tracer("test").Start(context.Background(), "test")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))
}
