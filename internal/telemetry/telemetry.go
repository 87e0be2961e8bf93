package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Setup installs a global tracer provider exporting over OTLP/HTTP. With no
// endpoint the global no-op provider stays in place.
func Setup(ctx context.Context, serviceName, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// Counters are the business metrics recorded by the sync core.
type Counters struct {
	LedgerWrites  metric.Int64Counter
	RemotePushes  metric.Int64Counter
	SyncUpdates   metric.Int64Counter
	ImportRecords metric.Int64Counter
}

// NewCounters registers the counters on the global meter provider.
func NewCounters() (*Counters, error) {
	meter := otel.Meter("ticketsync")

	ledgerWrites, err := meter.Int64Counter("ticketsync.ledger.writes",
		metric.WithDescription("Sales ledger entries written"))
	if err != nil {
		return nil, err
	}
	remotePushes, err := meter.Int64Counter("ticketsync.remote.pushes",
		metric.WithDescription("Capacity updates pushed to the ticketing service"))
	if err != nil {
		return nil, err
	}
	syncUpdates, err := meter.Int64Counter("ticketsync.sync.updates",
		metric.WithDescription("Local inventory values overwritten by a sync pass"))
	if err != nil {
		return nil, err
	}
	importRecords, err := meter.Int64Counter("ticketsync.import.records",
		metric.WithDescription("Historical sales recorded by the importer"))
	if err != nil {
		return nil, err
	}

	return &Counters{
		LedgerWrites:  ledgerWrites,
		RemotePushes:  remotePushes,
		SyncUpdates:   syncUpdates,
		ImportRecords: importRecords,
	}, nil
}

// Add is nil-safe so components can run without counters.
func Add(ctx context.Context, c metric.Int64Counter, n int64, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.Add(ctx, n, metric.WithAttributes(attrs...))
}
