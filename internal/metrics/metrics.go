// Package metrics wires the restore run's counters and phase spans into
// OpenTelemetry, following the package-level tracer/meter registration
// pattern the teacher repo uses for its storage backend.
package metrics

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/steveyegge/dbloader/internal/restore"

var (
	tracer          = otel.Tracer(instrumentationName)
	errorsCounter   metric.Int64Counter
	progressCounter metric.Int64Counter
)

func init() {
	meter := otel.Meter(instrumentationName)
	var err error
	errorsCounter, err = meter.Int64Counter("dbloader.restore.errors",
		metric.WithDescription("statements that failed to execute during restore"))
	if err != nil {
		panic(err)
	}
	progressCounter, err = meter.Int64Counter("dbloader.restore.progress",
		metric.WithDescription("data files restored so far"))
	if err != nil {
		panic(err)
	}
}

// Metrics tracks the run's error and progress counts, in-process for exit
// code decisions and via OTel instruments for external observability.
type Metrics struct {
	errors   atomic.Uint64
	progress atomic.Uint64
	total    atomic.Uint64
}

// New returns a Metrics ready to record a restore run.
func New() *Metrics {
	return &Metrics{}
}

// EnableStdout installs stdout metric and trace exporters as the global OTel
// providers, returning a shutdown func to flush them on exit. It is only
// called when the operator passes --otel-stdout; by default OTel's no-op
// global providers are left in place.
func EnableStdout(ctx context.Context) (func(context.Context) error, error) {
	metricExporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("creating stdout metric exporter: %w", err)
	}
	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("creating stdout trace exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
	)
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
	)
	otel.SetMeterProvider(meterProvider)
	otel.SetTracerProvider(tracerProvider)

	return func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterProvider.Shutdown(ctx)
	}, nil
}

// IncErrors records one failed statement.
func (m *Metrics) IncErrors(ctx context.Context) {
	m.errors.Add(1)
	errorsCounter.Add(ctx, 1)
}

// ErrorCount returns the number of failures recorded so far.
func (m *Metrics) ErrorCount() uint64 {
	return m.errors.Load()
}

// IncProgress records one restored data file and returns the new total.
func (m *Metrics) IncProgress(ctx context.Context) uint64 {
	n := m.progress.Add(1)
	progressCounter.Add(ctx, 1)
	return n
}

// SetTotal records the total number of data files expected this run, for
// progress log lines.
func (m *Metrics) SetTotal(n uint64) {
	m.total.Store(n)
}

// Total returns the value last set by SetTotal.
func (m *Metrics) Total() uint64 {
	return m.total.Load()
}

// StartSpan opens a phase span under the restore tracer.
func (m *Metrics) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}
