package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/fsroute/internal/core/ports"
)

// Setup installs a global tracer provider whose spans are reported through the logger.
// Tracers created by NewOTelTracer pick it up. The returned function flushes and shuts
// the provider down.
func Setup(logger ports.Logger) func(context.Context) error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewBridge(logger)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
